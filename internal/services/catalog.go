package services

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/tbourn/go-bizdata/internal/domain"
	"github.com/tbourn/go-bizdata/internal/search"
	"github.com/tbourn/go-bizdata/internal/transport"
)

// CatalogItem is satisfied by brands, categories and groups.
type CatalogItem interface {
	Recency() domain.Timestamp
	KeywordFields() []string
}

// CatalogInput is the write payload shared by catalog resources. ParentID
// applies to categories and CategoryID to groups.
type CatalogInput struct {
	Name        string `json:"name"`
	Code        string `json:"code,omitempty"`
	Description string `json:"description,omitempty"`
	ParentID    string `json:"parentId,omitempty"`
	CategoryID  string `json:"categoryId,omitempty"`
	Active      *bool  `json:"active,omitempty"`
}

// CatalogService manages one catalog resource (brands, categories, groups).
// Endpoints follow the backend's action naming: get-<plural>,
// create-<singular>, update-<singular>/{id} and so on.
type CatalogService[T CatalogItem] struct {
	Client Doer
	// Policy applies to List and Search only; writes always propagate.
	Policy LookupPolicy

	singular string
	plural   string
}

// NewCatalogService constructs a CatalogService for a resource.
func NewCatalogService[T CatalogItem](c Doer, singular, plural string) *CatalogService[T] {
	return &CatalogService[T]{Client: c, singular: singular, plural: plural}
}

// NewBrandService manages brands.
func NewBrandService(c Doer) *CatalogService[domain.Brand] {
	return NewCatalogService[domain.Brand](c, "brand", "brands")
}

// NewCategoryService manages categories.
func NewCategoryService(c Doer) *CatalogService[domain.Category] {
	return NewCatalogService[domain.Category](c, "category", "categories")
}

// NewGroupService manages groups.
func NewGroupService(c Doer) *CatalogService[domain.Group] {
	return NewCatalogService[domain.Group](c, "group", "groups")
}

// Resource returns the plural resource name.
func (s *CatalogService[T]) Resource() string { return s.plural }

func (s *CatalogService[T]) name() string { return "CatalogService/" + s.plural }

// List returns every entry, newest first.
func (s *CatalogService[T]) List(ctx context.Context) (out []T, err error) {
	ctx, span := startSpan(ctx, s.name(), "List")
	defer func() { endSpan(span, err) }()

	items, err := readList[T](ctx, s.Client, transport.Get("get-"+s.plural))
	if err == nil {
		items = domain.SortRecent(items)
	}
	return lookup(s.Policy, s.plural, items, err)
}

// Search filters List by keyword locally; catalog resources have no search
// endpoint.
func (s *CatalogService[T]) Search(ctx context.Context, keyword string) ([]T, error) {
	items, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return search.Filter(items, keyword, func(t T) []string { return t.KeywordFields() }), nil
}

// Create sends a new entry.
func (s *CatalogService[T]) Create(ctx context.Context, in CatalogInput) (out *T, err error) {
	ctx, span := startSpan(ctx, s.name(), "Create")
	defer func() { endSpan(span, err) }()

	in = cleanPayload(in)
	if in.Name == "" {
		return nil, ErrInvalidInput
	}
	return write[T](ctx, s.Client, transport.Post("create-"+s.singular, in))
}

// Update replaces the entry with id.
func (s *CatalogService[T]) Update(ctx context.Context, id string, in CatalogInput) (out *T, err error) {
	ctx, span := startSpan(ctx, s.name(), "Update", attribute.String("id", id))
	defer func() { endSpan(span, err) }()

	path, err := pathID("update-"+s.singular, id)
	if err != nil {
		return nil, err
	}
	in = cleanPayload(in)
	if in.Name == "" {
		return nil, ErrInvalidInput
	}
	return write[T](ctx, s.Client, transport.Put(path, in))
}

// Delete removes the entry with id.
func (s *CatalogService[T]) Delete(ctx context.Context, id string) error {
	return s.command(ctx, "Delete", "delete-"+s.singular, id, transport.Delete)
}

// Activate marks the entry active.
func (s *CatalogService[T]) Activate(ctx context.Context, id string) error {
	return s.command(ctx, "Activate", "active-"+s.singular, id, putEmpty)
}

// Deactivate marks the entry inactive.
func (s *CatalogService[T]) Deactivate(ctx context.Context, id string) error {
	return s.command(ctx, "Deactivate", "unactive-"+s.singular, id, putEmpty)
}

func (s *CatalogService[T]) command(ctx context.Context, op, base, id string, build func(string) transport.Request) (err error) {
	ctx, span := startSpan(ctx, s.name(), op, attribute.String("id", id))
	defer func() { endSpan(span, err) }()
	return runCommand(ctx, s.Client, base, id, build)
}
