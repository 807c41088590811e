package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-bizdata/internal/envelope"
	"github.com/tbourn/go-bizdata/internal/transport"
)

// Doer is the transport contract the adapters depend on.
// *transport.Client satisfies it.
type Doer interface {
	Do(ctx context.Context, r transport.Request) (transport.Envelope, error)
	Upload(ctx context.Context, path string, u transport.Upload) (transport.Envelope, error)
}

// LookupPolicy decides what a read does when the backend fails.
type LookupPolicy int

const (
	// PropagateErrors returns the transport error to the caller.
	PropagateErrors LookupPolicy = iota
	// EmptyOnError logs the failure and returns an empty list. Meant for
	// auxiliary lookups (tag or supplier pickers) whose absence should not
	// break the screen that uses them.
	EmptyOnError
)

func (p LookupPolicy) String() string {
	if p == EmptyOnError {
		return "empty-on-error"
	}
	return "propagate"
}

func startSpan(ctx context.Context, service, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tr := otel.Tracer("services/" + service)
	return tr.Start(ctx, op, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// readList fetches req and decodes any list shape into []T.
func readList[T any](ctx context.Context, d Doer, req transport.Request) ([]T, error) {
	env, err := d.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	items, err := envelope.List[T](env)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", req.Path, err)
	}
	return items, nil
}

// readOne fetches req and decodes a record shape into *T. An empty
// envelope yields ErrNotFound.
func readOne[T any](ctx context.Context, d Doer, req transport.Request) (*T, error) {
	env, err := d.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	v, err := envelope.One[T](env)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", req.Path, err)
	}
	if v == nil {
		return nil, ErrNotFound
	}
	return v, nil
}

// write sends req and decodes the echoed record when there is one. Writes
// that answer with an empty or message-only body return nil, nil.
func write[T any](ctx context.Context, d Doer, req transport.Request) (*T, error) {
	env, err := d.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	p := envelope.Classify(env)
	if !p.Kind.IsRecord() && !p.Kind.IsList() {
		return nil, nil
	}
	v, err := envelope.OneOf[T](p)
	if err != nil {
		// The write itself succeeded; an echo we cannot decode is not fatal.
		log.Debug().Err(err).Str("path", req.Path).Msg("write echo not decodable")
		return nil, nil
	}
	return v, nil
}

// lookup applies policy to the outcome of a read.
func lookup[T any](policy LookupPolicy, name string, items []T, err error) ([]T, error) {
	if err == nil {
		if items == nil {
			items = []T{}
		}
		return items, nil
	}
	if policy == EmptyOnError {
		log.Warn().Err(err).Str("lookup", name).Msg("lookup failed; returning empty list")
		return []T{}, nil
	}
	return nil, err
}

// pathID joins a resource path and an escaped id.
func pathID(base, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", ErrMissingID
	}
	return strings.TrimRight(base, "/") + "/" + url.PathEscape(id), nil
}
