package services

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"

	"github.com/tbourn/go-bizdata/internal/domain"
	"github.com/tbourn/go-bizdata/internal/envelope"
	"github.com/tbourn/go-bizdata/internal/session"
	"github.com/tbourn/go-bizdata/internal/transport"
)

// tokenPaths are the locations a token may appear in an auth response, in
// priority order.
var tokenPaths = []string{"token", "accessToken", "data.token", "data.accessToken"}

var userPaths = []string{"user", "data.user"}

// Credentials is the login payload.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password" clean:"keep"`
}

// SignupInput is the signup payload.
type SignupInput struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Password string `json:"password" clean:"keep"`
}

// AuthService logs in and out and keeps the session state in sync.
type AuthService struct {
	Client  Doer
	Session *session.State
	// Store, when set, persists the token across restarts.
	Store session.Store
}

// NewAuthService constructs an AuthService writing tokens into st.
func NewAuthService(c Doer, st *session.State, store session.Store) *AuthService {
	return &AuthService{Client: c, Session: st, Store: store}
}

// Login authenticates and stores the returned token.
func (s *AuthService) Login(ctx context.Context, in Credentials) (out *domain.Session, err error) {
	ctx, span := startSpan(ctx, "AuthService", "Login")
	defer func() { endSpan(span, err) }()

	in = cleanPayload(in)
	if in.Email == "" || in.Password == "" {
		return nil, ErrInvalidInput
	}
	return s.authenticate(ctx, transport.Post(pathLogin, in))
}

// Signup creates an account and stores the returned token.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (out *domain.Session, err error) {
	ctx, span := startSpan(ctx, "AuthService", "Signup")
	defer func() { endSpan(span, err) }()

	in = cleanPayload(in)
	if in.Email == "" || in.Password == "" {
		return nil, ErrInvalidInput
	}
	return s.authenticate(ctx, transport.Post(pathSignup, in))
}

func (s *AuthService) authenticate(ctx context.Context, req transport.Request) (*domain.Session, error) {
	env, err := s.Client.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	token := envelope.Extract(env, tokenPaths...)
	if token == "" {
		return nil, ErrNoToken
	}

	out := &domain.Session{Token: token, User: userOf(env)}
	s.Session.SetToken(token)
	if s.Store != nil {
		if perr := s.Session.Persist(ctx, s.Store); perr != nil {
			// The login succeeded; persistence is best effort.
			log.Warn().Err(perr).Msg("could not persist session token")
		}
	}
	return out, nil
}

func userOf(env []byte) *domain.User {
	for _, p := range userPaths {
		r := gjson.GetBytes(env, p)
		if !r.IsObject() {
			continue
		}
		var u domain.User
		if err := json.Unmarshal([]byte(r.Raw), &u); err == nil {
			return &u
		}
	}
	return nil
}

// Logout tells the backend and clears the local session. The local session
// is cleared even when the backend call fails; that error is still returned.
func (s *AuthService) Logout(ctx context.Context) (err error) {
	ctx, span := startSpan(ctx, "AuthService", "Logout")
	defer func() { endSpan(span, err) }()

	_, hadToken := s.Session.Token()
	span.SetAttributes(attribute.Bool("session.had_token", hadToken))
	if hadToken {
		_, err = s.Client.Do(ctx, transport.Post(pathLogout, struct{}{}))
	}
	s.Session.Clear()
	if s.Store != nil {
		if cerr := s.Store.Clear(ctx); cerr != nil {
			log.Warn().Err(cerr).Msg("could not clear stored session token")
		}
	}
	return err
}

// Me returns the authenticated user.
func (s *AuthService) Me(ctx context.Context) (out *domain.User, err error) {
	ctx, span := startSpan(ctx, "AuthService", "Me")
	defer func() { endSpan(span, err) }()

	env, err := s.Client.Do(ctx, transport.Get(pathMe))
	if err != nil {
		return nil, err
	}
	if u := userOf(env); u != nil {
		return u, nil
	}
	u, err := envelope.One[domain.User](env)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrNotFound
	}
	return u, nil
}
