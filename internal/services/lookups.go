package services

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/tbourn/go-bizdata/internal/domain"
	"github.com/tbourn/go-bizdata/internal/transport"
)

// TagService lists product tags for filter pickers.
type TagService struct {
	Client Doer
	Policy LookupPolicy
}

// NewTagService constructs a TagService. Tag lookups default to
// EmptyOnError: a failing picker should not break the product screen.
func NewTagService(c Doer) *TagService {
	return &TagService{Client: c, Policy: EmptyOnError}
}

// List returns all tags in backend order.
func (s *TagService) List(ctx context.Context) (out []domain.Tag, err error) {
	ctx, span := startSpan(ctx, "TagService", "List")
	defer func() { endSpan(span, err) }()

	items, err := readList[domain.Tag](ctx, s.Client, transport.Get(pathTags))
	return lookup(s.Policy, "tags", items, err)
}

// SupplierService lists suppliers. The backend exposes no stable supplier
// endpoint everywhere, so Path is configured; with an empty Path every call
// fails with ErrNotImplemented.
type SupplierService struct {
	Client Doer
	Path   string
	Policy LookupPolicy
}

// NewSupplierService constructs a SupplierService reading from path.
func NewSupplierService(c Doer, path string) *SupplierService {
	return &SupplierService{Client: c, Path: strings.TrimSpace(path), Policy: EmptyOnError}
}

// Configured reports whether a supplier endpoint is set.
func (s *SupplierService) Configured() bool { return strings.TrimSpace(s.Path) != "" }

// List returns all suppliers, newest first. ErrNotImplemented is returned
// regardless of Policy when no endpoint is configured.
func (s *SupplierService) List(ctx context.Context) (out []domain.Supplier, err error) {
	if !s.Configured() {
		return nil, ErrNotImplemented
	}
	ctx, span := startSpan(ctx, "SupplierService", "List", attribute.String("path", s.Path))
	defer func() { endSpan(span, err) }()

	items, err := readList[domain.Supplier](ctx, s.Client, transport.Get(s.Path))
	if err == nil {
		items = domain.SortRecent(items)
	}
	return lookup(s.Policy, "suppliers", items, err)
}
