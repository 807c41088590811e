package transport

import (
	"net/http"
	"net/url"
)

// Request describes one backend call. It is a value type: the With* helpers
// return modified copies and never touch the receiver's maps.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	Header http.Header
}

// Get returns a GET request for path.
func Get(path string) Request { return Request{Method: http.MethodGet, Path: path} }

// Post returns a POST request for path carrying body.
func Post(path string, body any) Request {
	return Request{Method: http.MethodPost, Path: path, Body: body}
}

// Put returns a PUT request for path carrying body.
func Put(path string, body any) Request {
	return Request{Method: http.MethodPut, Path: path, Body: body}
}

// Delete returns a DELETE request for path.
func Delete(path string) Request { return Request{Method: http.MethodDelete, Path: path} }

// WithQuery returns a copy of r with key set to value in the query string.
func (r Request) WithQuery(key, value string) Request {
	q := make(url.Values, len(r.Query)+1)
	for k, v := range r.Query {
		q[k] = append([]string(nil), v...)
	}
	q.Set(key, value)
	r.Query = q
	return r
}

// WithHeader returns a copy of r with an overriding header.
func (r Request) WithHeader(key, value string) Request {
	h := r.Header.Clone()
	if h == nil {
		h = make(http.Header, 1)
	}
	h.Set(key, value)
	r.Header = h
	return r
}
