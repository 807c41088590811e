package transport

import (
	"errors"
	"fmt"
)

// Error is the error descriptor returned for every failed call.
//
// Status 0 means no HTTP response was obtained (unreachable host, DNS
// failure, cancelled context). Any other value is the status the server
// actually returned.
type Error struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Status  int    `json:"status"`

	err error
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (status %d, code %s)", e.Message, e.Status, e.Code)
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

// Unwrap exposes the underlying network error, if any.
func (e *Error) Unwrap() error { return e.err }

// IsTransport reports whether the server could not be reached at all.
func (e *Error) IsTransport() bool { return e.Status == 0 }

// IsHTTP reports whether the server answered with a non-success status.
func (e *Error) IsHTTP() bool { return e.Status > 0 }

// AsError returns the *Error wrapped in err, if any.
func AsError(err error) (*Error, bool) {
	var te *Error
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}

// StatusOf returns the HTTP status carried by err, or -1 when err is not an
// *Error.
func StatusOf(err error) int {
	if te, ok := AsError(err); ok {
		return te.Status
	}
	return -1
}

func unreachable(host string, cause error) *Error {
	return &Error{
		Message: fmt.Sprintf("unable to reach server at %s", host),
		Status:  0,
		err:     cause,
	}
}
