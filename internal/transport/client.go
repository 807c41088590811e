// Package transport is the single choke point for network I/O towards the
// business backend. It builds requests, injects default headers and the
// bearer token, and classifies every outcome into either a success envelope
// or an *Error.
//
// The client never retries and never caches. Diagnostic logging covers
// request metadata only; tokens and bodies are not logged.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const (
	// HeaderRequestID carries the per-call correlation id.
	HeaderRequestID = "X-Request-ID"

	defaultContentType = "application/json"
	defaultAccept      = "application/json, text/plain, */*"
	defaultTimeout     = 30 * time.Second

	// maxBodyBytes caps how much of a response body is read.
	maxBodyBytes = 16 << 20
)

// Envelope is the raw JSON payload of a successful response. It is always
// valid JSON: empty bodies become "{}" and plain-text bodies are wrapped as
// {"message": "<text>"}.
type Envelope []byte

// TokenSource yields the current session token. *session.State satisfies it.
type TokenSource interface {
	Token() (string, bool)
}

// Config holds client configuration.
type Config struct {
	// BaseURL is the backend root, e.g. "https://api.example.com/api".
	BaseURL string
	// Timeout bounds a whole call. Defaults to 30s.
	Timeout time.Duration
	// RateRPS paces outbound calls; 0 disables pacing.
	RateRPS float64
	// RateBurst is the token-bucket size when pacing is enabled.
	RateBurst int
	// HTTPClient overrides the underlying client (tests, custom transports).
	HTTPClient *http.Client
	// Logger overrides the global zerolog logger.
	Logger *zerolog.Logger
}

// Client talks to the backend.
type Client struct {
	base    *url.URL
	host    string
	tokens  TokenSource
	http    *http.Client
	limiter *rate.Limiter
	log     zerolog.Logger
}

// New creates a client bound to cfg.BaseURL. tokens may be nil, in which
// case no Authorization header is ever sent.
func New(cfg Config, tokens TokenSource) (*Client, error) {
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		return nil, errors.New("transport: base URL is required")
	}
	base, err := url.Parse(strings.TrimSuffix(raw, "/"))
	if err != nil {
		return nil, fmt.Errorf("transport: invalid base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("transport: base URL %q must be absolute", raw)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}

	var lim *rate.Limiter
	if cfg.RateRPS > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		lim = rate.NewLimiter(rate.Limit(cfg.RateRPS), burst)
	}

	lg := log.Logger
	if cfg.Logger != nil {
		lg = *cfg.Logger
	}

	return &Client{
		base:    base,
		host:    base.Host,
		tokens:  tokens,
		http:    hc,
		limiter: lim,
		log:     lg.With().Str("component", "transport").Logger(),
	}, nil
}

// Host returns the configured backend host (used in unreachable errors).
func (c *Client) Host() string { return c.host }

// Do executes r and classifies the outcome.
func (c *Client) Do(ctx context.Context, r Request) (Envelope, error) {
	var body io.Reader
	if r.Body != nil {
		b, err := encodeBody(r.Body)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
	}
	return c.send(ctx, r, body, "")
}

func encodeBody(v any) ([]byte, error) {
	switch b := v.(type) {
	case []byte:
		return b, nil
	case json.RawMessage:
		return b, nil
	case string:
		return []byte(b), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("transport: encode request body: %w", err)
	}
	return b, nil
}

// send runs one round trip. contentType, when set, replaces the JSON default.
func (c *Client) send(ctx context.Context, r Request, body io.Reader, contentType string) (Envelope, error) {
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}
	action := actionLabel(r.Path)

	tr := otel.Tracer("transport/Client")
	ctx, span := tr.Start(ctx, "Client.Do",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.path", action),
		),
	)
	defer span.End()

	start := time.Now()
	rid := uuid.NewString()
	lg := c.log.With().
		Str("request_id", rid).
		Str("method", method).
		Str("path", action).
		Logger()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			terr := unreachable(c.host, err)
			c.observe(method, action, outcomeNetError, start)
			span.SetStatus(codes.Error, terr.Message)
			lg.Warn().Err(err).Msg("backend request not sent")
			return nil, terr
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resolve(r), body)
	if err != nil {
		return nil, fmt.Errorf("transport: build request: %w", err)
	}
	c.applyHeaders(req, r, rid, contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		terr := unreachable(c.host, err)
		c.observe(method, action, outcomeNetError, start)
		span.RecordError(err)
		span.SetStatus(codes.Error, terr.Message)
		lg.Warn().Err(err).Dur("latency", time.Since(start)).Msg("backend unreachable")
		return nil, terr
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		// A rejection keeps its status; a broken 2xx body is a transport
		// failure since the server never refused the request.
		rerr := &Error{
			Message: fmt.Sprintf("failed to read response from server at %s", c.host),
			err:     err,
		}
		outcome := outcomeNetError
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			rerr.Status = resp.StatusCode
			outcome = outcomeHTTPError
		}
		c.observe(method, action, outcome, start)
		span.SetStatus(codes.Error, "read body")
		lg.Warn().Err(err).Int("status", resp.StatusCode).Msg("backend body read failed")
		return nil, rerr
	}

	env := decodeBody(resp.StatusCode, raw)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		herr := errorFromBody(resp.StatusCode, env)
		c.observe(method, action, outcomeHTTPError, start)
		span.SetStatus(codes.Error, herr.Message)
		lg.Warn().
			Int("status", resp.StatusCode).
			Str("code", herr.Code).
			Dur("latency", time.Since(start)).
			Msg("backend rejected request")
		return nil, herr
	}

	c.observe(method, action, outcomeOK, start)
	lg.Debug().
		Int("status", resp.StatusCode).
		Int("bytes_in", len(raw)).
		Dur("latency", time.Since(start)).
		Msg("backend request")
	return env, nil
}

func (c *Client) resolve(r Request) string {
	u := *c.base
	p := strings.TrimLeft(r.Path, "/")
	rawQuery := ""
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p, rawQuery = p[:i], p[i+1:]
	}
	u.Path = strings.TrimSuffix(c.base.Path, "/") + "/" + p

	q, _ := url.ParseQuery(rawQuery)
	for k, vs := range r.Query {
		q.Del(k)
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func (c *Client) applyHeaders(req *http.Request, r Request, rid, contentType string) {
	h := req.Header
	h.Set("Content-Type", defaultContentType)
	h.Set("Accept", defaultAccept)
	for k, vs := range r.Header {
		h.Del(k)
		for _, v := range vs {
			h.Add(k, v)
		}
	}
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	if h.Get(HeaderRequestID) == "" {
		h.Set(HeaderRequestID, rid)
	}

	// One snapshot per call.
	h.Del("Authorization")
	if c.tokens != nil {
		if tok, ok := c.tokens.Token(); ok {
			h.Set("Authorization", "Bearer "+tok)
		}
	}
}

func (c *Client) observe(method, action, outcome string, start time.Time) {
	clientReqs.WithLabelValues(method, action, outcome).Inc()
	clientLat.WithLabelValues(method, action).Observe(time.Since(start).Seconds())
}

// decodeBody turns a raw body into an Envelope without ever failing.
func decodeBody(status int, raw []byte) Envelope {
	if status == http.StatusNoContent || len(bytes.TrimSpace(raw)) == 0 {
		return Envelope("{}")
	}
	if json.Valid(raw) {
		return Envelope(raw)
	}
	b, _ := json.Marshal(map[string]string{"message": string(raw)})
	return Envelope(b)
}

// errorFromBody builds the descriptor for a non-success status, preferring
// the server's own message and code.
func errorFromBody(status int, env Envelope) *Error {
	e := &Error{Status: status}
	for _, path := range []string{"message", "error.message", "error"} {
		if v := gjson.GetBytes(env, path); v.Type == gjson.String && strings.TrimSpace(v.Str) != "" {
			e.Message = v.Str
			break
		}
	}
	if e.Message == "" {
		e.Message = fmt.Sprintf("request failed with status %d", status)
	}
	for _, path := range []string{"code", "error.code"} {
		if v := gjson.GetBytes(env, path); v.Exists() && (v.Type == gjson.String || v.Type == gjson.Number) {
			e.Code = v.String()
			break
		}
	}
	return e
}
