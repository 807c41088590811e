// Package session holds the authentication token attached to outbound
// requests. The token lives in process memory only; persisting it across
// restarts is the job of a Store supplied by the caller.
package session

import (
	"context"
	"strings"
	"sync"
)

// Store is a persistent credential store that survives process restarts.
//
// Load returns "" (and a nil error) when nothing has been saved.
type Store interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// State is the process-wide holder of the current session token.
// It is safe for concurrent use. Readers take one snapshot per call so a
// request never observes a half-applied update.
type State struct {
	mu    sync.RWMutex
	token string
}

// New returns an empty State (no token).
func New() *State { return &State{} }

// Token returns the current token and whether one is held.
func (s *State) Token() (string, bool) {
	if s == nil {
		return "", false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

// SetToken replaces the held token. A blank token clears the session.
func (s *State) SetToken(token string) {
	token = strings.TrimSpace(token)
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

// Clear drops the held token.
func (s *State) Clear() { s.SetToken("") }

// Restore loads a previously persisted token from st into s.
// It reports whether a token was restored.
func (s *State) Restore(ctx context.Context, st Store) (bool, error) {
	if st == nil {
		return false, nil
	}
	tok, err := st.Load(ctx)
	if err != nil {
		return false, err
	}
	s.SetToken(tok)
	_, ok := s.Token()
	return ok, nil
}

// Persist writes the current token to st, or clears st when no token is held.
func (s *State) Persist(ctx context.Context, st Store) error {
	if st == nil {
		return nil
	}
	if tok, ok := s.Token(); ok {
		return st.Save(ctx, tok)
	}
	return st.Clear(ctx)
}
