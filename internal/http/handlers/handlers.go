package handlers

import (
	"context"
	"io"

	"github.com/tbourn/go-bizdata/internal/domain"
	"github.com/tbourn/go-bizdata/internal/listquery"
	"github.com/tbourn/go-bizdata/internal/services"
)

// AuthService is the session surface used by the bridge.
type AuthService interface {
	Login(ctx context.Context, in services.Credentials) (*domain.Session, error)
	Signup(ctx context.Context, in services.SignupInput) (*domain.Session, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*domain.User, error)
}

// Lists gives access to the open list controllers.
type Lists interface {
	Get(name string) (listquery.Handle, error)
	Views() []listquery.View
}

// Uploader stores a file on the backend and returns its reference.
type Uploader interface {
	Upload(ctx context.Context, filename, contentType string, content io.Reader) (string, error)
}

// Handlers groups the bridge endpoints.
type Handlers struct {
	auth      AuthService
	lists     Lists
	uploader  Uploader
	maxUpload int64
}

// New binds handlers to their collaborators. maxUpload caps multipart
// request bodies; <= 0 means 10 MiB.
func New(auth AuthService, lists Lists, uploader Uploader, maxUpload int64) *Handlers {
	if maxUpload <= 0 {
		maxUpload = 10 << 20
	}
	return &Handlers{auth: auth, lists: lists, uploader: uploader, maxUpload: maxUpload}
}
