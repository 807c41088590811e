// Package services adapts the backend's resource endpoints (products,
// expenses, catalog lookups, auth, uploads) to typed domain values.
// This file centralizes the service-level error values so that callers can
// check them with errors.Is.
//
// Backend failures are not wrapped into these sentinels: a *transport.Error
// is returned unchanged so the caller still sees the server message and the
// HTTP status.
package services

import "errors"

var (
	// ErrNotImplemented is returned by adapters whose backend endpoint is not
	// configured. Adapters never fabricate placeholder records.
	ErrNotImplemented = errors.New("not implemented by backend")

	// ErrMissingID is returned when an operation needs an entity id and got
	// a blank one.
	ErrMissingID = errors.New("id is required")

	// ErrInvalidInput is returned when a write payload fails local
	// validation (e.g. a blank required name).
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoToken is returned when a login or signup response carries no
	// token at any known location.
	ErrNoToken = errors.New("no token in auth response")

	// ErrNoUploadRef is returned when an upload response carries no
	// reference at any known location.
	ErrNoUploadRef = errors.New("no reference in upload response")

	// ErrNotFound is returned by Get when the backend answers with an empty
	// envelope.
	ErrNotFound = errors.New("not found")
)
