package services

import (
	"context"
	"io"
	"sync"

	"github.com/tbourn/go-bizdata/internal/transport"
)

// ----- Fake transport -----

type reply struct {
	body string
	err  error
}

type fakeDoer struct {
	mu      sync.Mutex
	routes  map[string]reply
	reqs    []transport.Request
	uploads []transport.Upload
	files   []string
}

func newFakeDoer(routes map[string]reply) *fakeDoer {
	return &fakeDoer{routes: routes}
}

func (f *fakeDoer) Do(ctx context.Context, r transport.Request) (transport.Envelope, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, r)
	return f.answer(r.Path)
}

func (f *fakeDoer) Upload(ctx context.Context, path string, u transport.Upload) (transport.Envelope, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, _ := io.ReadAll(u.Content)
	f.uploads = append(f.uploads, u)
	f.files = append(f.files, string(b))
	f.reqs = append(f.reqs, transport.Request{Method: "POST", Path: path})
	return f.answer(path)
}

func (f *fakeDoer) answer(path string) (transport.Envelope, error) {
	r, ok := f.routes[path]
	if !ok {
		return nil, &transport.Error{Message: "Not Found", Status: 404}
	}
	if r.err != nil {
		return nil, r.err
	}
	if r.body == "" {
		return transport.Envelope("{}"), nil
	}
	return transport.Envelope(r.body), nil
}

func (f *fakeDoer) last() transport.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.reqs) == 0 {
		return transport.Request{}
	}
	return f.reqs[len(f.reqs)-1]
}

func (f *fakeDoer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reqs)
}
