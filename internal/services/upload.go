package services

import (
	"context"
	"errors"
	"io"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/tbourn/go-bizdata/internal/envelope"
	"github.com/tbourn/go-bizdata/internal/transport"
)

// uploadRefPaths are the locations a stored-file reference may appear in an
// upload response, in priority order. "data" only matches when it is a
// plain string.
var uploadRefPaths = []string{"id", "filePath", "data", "data.id", "data.path"}

// UploadService sends binary files (product images) to the backend.
type UploadService struct {
	Client Doer
	Path   string
}

// NewUploadService constructs an UploadService using the default endpoint.
func NewUploadService(c Doer) *UploadService {
	return &UploadService{Client: c, Path: pathUpload}
}

// Upload sends content as filename and returns the reference the backend
// assigned to it (an id or a path, whichever it sends first).
func (s *UploadService) Upload(ctx context.Context, filename, contentType string, content io.Reader) (ref string, err error) {
	ctx, span := startSpan(ctx, "UploadService", "Upload", attribute.String("file.name", filename))
	defer func() { endSpan(span, err) }()

	if content == nil {
		return "", errors.New("upload content is required")
	}
	path := s.Path
	if strings.TrimSpace(path) == "" {
		path = pathUpload
	}
	env, err := s.Client.Upload(ctx, path, transport.Upload{
		Filename:    filename,
		ContentType: contentType,
		Content:     content,
	})
	if err != nil {
		return "", err
	}
	ref = envelope.Extract(env, uploadRefPaths...)
	if ref == "" {
		return "", ErrNoUploadRef
	}
	return ref, nil
}
