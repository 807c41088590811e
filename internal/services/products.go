package services

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/tbourn/go-bizdata/internal/domain"
	"github.com/tbourn/go-bizdata/internal/search"
	"github.com/tbourn/go-bizdata/internal/transport"
)

// ProductInput is the write payload for create and update. Optional fields
// left empty are omitted from the request body.
type ProductInput struct {
	Name        string   `json:"name"`
	SKU         string   `json:"sku,omitempty"`
	Model       string   `json:"model,omitempty"`
	PartNumber  string   `json:"partNumber,omitempty"`
	Description string   `json:"description,omitempty"`
	Unit        string   `json:"unit,omitempty"`
	SellPrice   *float64 `json:"sellPrice,omitempty"`
	CostPrice   *float64 `json:"costPrice,omitempty"`
	BrandID     string   `json:"brandId,omitempty"`
	CategoryID  string   `json:"categoryId,omitempty"`
	GroupID     string   `json:"groupId,omitempty"`
	SupplierID  string   `json:"supplierId,omitempty"`
	TagIDs      []string `json:"tagIds,omitempty"`
	Images      []string `json:"images,omitempty"`
	Active      *bool    `json:"active,omitempty"`
}

// ProductFilter selects products by structured criteria. Values within one
// criterion are ORed; criteria are ANDed.
type ProductFilter struct {
	TagIDs      []string
	SupplierIDs []string
	CategoryIDs []string
}

func (f ProductFilter) normalize() ProductFilter {
	return ProductFilter{
		TagIDs:      compact(f.TagIDs),
		SupplierIDs: compact(f.SupplierIDs),
		CategoryIDs: compact(f.CategoryIDs),
	}
}

// Empty reports whether no criterion is set.
func (f ProductFilter) Empty() bool {
	n := f.normalize()
	return len(n.TagIDs) == 0 && len(n.SupplierIDs) == 0 && len(n.CategoryIDs) == 0
}

// Match reports whether p satisfies every set criterion.
func (f ProductFilter) Match(p domain.Product) bool {
	if len(f.TagIDs) > 0 && !search.MatchAny(p.TagIDs(), f.TagIDs) {
		return false
	}
	if len(f.SupplierIDs) > 0 && !search.MatchAny([]string{p.SupplierID().String()}, f.SupplierIDs) {
		return false
	}
	if len(f.CategoryIDs) > 0 && !search.MatchAny([]string{p.CategoryID().String()}, f.CategoryIDs) {
		return false
	}
	return true
}

// ProductService reads and writes products and their variants.
type ProductService struct {
	Client Doer
}

// NewProductService constructs a ProductService.
func NewProductService(c Doer) *ProductService {
	return &ProductService{Client: c}
}

// List returns every product, newest first, with display fields derived.
func (s *ProductService) List(ctx context.Context) (out []domain.Product, err error) {
	ctx, span := startSpan(ctx, "ProductService", "List")
	defer func() { endSpan(span, err) }()

	items, err := readList[domain.Product](ctx, s.Client, transport.Get(pathProducts))
	if err != nil {
		return nil, err
	}
	return prepareProducts(items), nil
}

// Search returns products matching keyword on the backend. A blank keyword
// is the same as List.
func (s *ProductService) Search(ctx context.Context, keyword string) (out []domain.Product, err error) {
	keyword = search.NormalizeKeyword(keyword)
	if keyword == "" {
		return s.List(ctx)
	}
	ctx, span := startSpan(ctx, "ProductService", "Search", attribute.String("keyword", keyword))
	defer func() { endSpan(span, err) }()

	items, err := readList[domain.Product](ctx, s.Client,
		transport.Get(pathSearchProducts).WithQuery(paramSearch, keyword))
	if err != nil {
		return nil, err
	}
	return prepareProducts(items), nil
}

// Get returns one product by id.
func (s *ProductService) Get(ctx context.Context, id string) (out *domain.Product, err error) {
	ctx, span := startSpan(ctx, "ProductService", "Get", attribute.String("product.id", id))
	defer func() { endSpan(span, err) }()

	path, err := pathID(pathProduct, id)
	if err != nil {
		return nil, err
	}
	p, err := readOne[domain.Product](ctx, s.Client, transport.Get(path))
	if err != nil {
		return nil, err
	}
	d := p.WithDerived()
	return &d, nil
}

// Filter returns products matching f.
//
// The backend has one endpoint per criterion and no combined one, so the
// first set criterion in the order tags, suppliers, category picks the
// endpoint and the remaining criteria are applied to its result.
func (s *ProductService) Filter(ctx context.Context, f ProductFilter) (out []domain.Product, err error) {
	f = f.normalize()
	ctx, span := startSpan(ctx, "ProductService", "Filter",
		attribute.StringSlice("filter.tags", f.TagIDs),
		attribute.StringSlice("filter.suppliers", f.SupplierIDs),
		attribute.StringSlice("filter.categories", f.CategoryIDs),
	)
	defer func() { endSpan(span, err) }()

	var req transport.Request
	rest := f
	switch {
	case len(f.TagIDs) > 0:
		req = transport.Get(pathProductsByTags).WithQuery(paramTagIDs, strings.Join(f.TagIDs, ","))
		rest.TagIDs = nil
	case len(f.SupplierIDs) > 0:
		req = transport.Get(pathProductsBySupplier).WithQuery(paramSupplierIDs, strings.Join(f.SupplierIDs, ","))
		rest.SupplierIDs = nil
	case len(f.CategoryIDs) == 1:
		req = transport.Get(pathProductsByCategory).WithQuery(paramCategoryID, f.CategoryIDs[0])
		rest.CategoryIDs = nil
	default:
		// No criteria, or several categories the category endpoint cannot
		// express in one call.
		req = transport.Get(pathProducts)
	}

	items, err := readList[domain.Product](ctx, s.Client, req)
	if err != nil {
		return nil, err
	}
	kept := make([]domain.Product, 0, len(items))
	for _, p := range items {
		if rest.Match(p) {
			kept = append(kept, p)
		}
	}
	return prepareProducts(kept), nil
}

// Variants returns every product variant, newest first.
func (s *ProductService) Variants(ctx context.Context) (out []domain.ProductVariant, err error) {
	ctx, span := startSpan(ctx, "ProductService", "Variants")
	defer func() { endSpan(span, err) }()

	items, err := readList[domain.ProductVariant](ctx, s.Client, transport.Get(pathVariants))
	if err != nil {
		return nil, err
	}
	return domain.SortRecent(items), nil
}

// VariantsOf returns the variants belonging to productID. The backend has
// no per-product endpoint, so the full list is filtered locally.
func (s *ProductService) VariantsOf(ctx context.Context, productID string) ([]domain.ProductVariant, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, ErrMissingID
	}
	all, err := s.Variants(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.ProductVariant, 0, len(all))
	for _, v := range all {
		if v.ParentID().String() == productID {
			out = append(out, v)
		}
	}
	return out, nil
}

// SearchVariants returns variants matching keyword on the backend.
func (s *ProductService) SearchVariants(ctx context.Context, keyword string) (out []domain.ProductVariant, err error) {
	keyword = search.NormalizeKeyword(keyword)
	if keyword == "" {
		return s.Variants(ctx)
	}
	ctx, span := startSpan(ctx, "ProductService", "SearchVariants", attribute.String("keyword", keyword))
	defer func() { endSpan(span, err) }()

	items, err := readList[domain.ProductVariant](ctx, s.Client,
		transport.Get(pathSearchVariants).WithQuery(paramSearch, keyword))
	if err != nil {
		return nil, err
	}
	return domain.SortRecent(items), nil
}

// Create sends a new product. The echoed record is returned when the
// backend sends one.
func (s *ProductService) Create(ctx context.Context, in ProductInput) (out *domain.Product, err error) {
	ctx, span := startSpan(ctx, "ProductService", "Create")
	defer func() { endSpan(span, err) }()

	in = cleanPayload(in)
	if in.Name == "" {
		return nil, ErrInvalidInput
	}
	return derived(write[domain.Product](ctx, s.Client, transport.Post(pathCreateProduct, in)))
}

// Update replaces the product with id.
func (s *ProductService) Update(ctx context.Context, id string, in ProductInput) (out *domain.Product, err error) {
	ctx, span := startSpan(ctx, "ProductService", "Update", attribute.String("product.id", id))
	defer func() { endSpan(span, err) }()

	path, err := pathID(pathUpdateProduct, id)
	if err != nil {
		return nil, err
	}
	in = cleanPayload(in)
	if in.Name == "" {
		return nil, ErrInvalidInput
	}
	return derived(write[domain.Product](ctx, s.Client, transport.Put(path, in)))
}

// Delete removes the product with id.
func (s *ProductService) Delete(ctx context.Context, id string) error {
	return s.command(ctx, "Delete", pathDeleteProduct, id, transport.Delete)
}

// Activate marks the product active.
func (s *ProductService) Activate(ctx context.Context, id string) error {
	return s.command(ctx, "Activate", pathActivateProduct, id, putEmpty)
}

// Deactivate marks the product inactive.
func (s *ProductService) Deactivate(ctx context.Context, id string) error {
	return s.command(ctx, "Deactivate", pathDeactivateProduct, id, putEmpty)
}

func (s *ProductService) command(ctx context.Context, op, base, id string, build func(string) transport.Request) (err error) {
	ctx, span := startSpan(ctx, "ProductService", op, attribute.String("product.id", id))
	defer func() { endSpan(span, err) }()
	return runCommand(ctx, s.Client, base, id, build)
}

func runCommand(ctx context.Context, d Doer, base, id string, build func(string) transport.Request) error {
	path, err := pathID(base, id)
	if err != nil {
		return err
	}
	_, err = d.Do(ctx, build(path))
	return err
}

func putEmpty(path string) transport.Request { return transport.Put(path, struct{}{}) }

func prepareProducts(items []domain.Product) []domain.Product {
	out := make([]domain.Product, len(items))
	for i, p := range items {
		out[i] = p.WithDerived()
	}
	return domain.SortRecent(out)
}

func derived(p *domain.Product, err error) (*domain.Product, error) {
	if err != nil || p == nil {
		return p, err
	}
	d := p.WithDerived()
	return &d, nil
}

// compact trims values and drops blanks and duplicates, keeping order.
func compact(vs []string) []string {
	if len(vs) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(vs))
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
