package services

import (
	"context"

	"github.com/tbourn/go-bizdata/internal/domain"
	"github.com/tbourn/go-bizdata/internal/listquery"
)

// ProductSource adapts s to a list controller. Tag, supplier and category
// filters go through Filter; the keyword is then matched locally.
func ProductSource(s *ProductService) listquery.Source[domain.Product] {
	return listquery.Source[domain.Product]{
		All:    s.List,
		Search: s.Search,
		Filtered: func(ctx context.Context, f listquery.Filters) ([]domain.Product, error) {
			return s.Filter(ctx, ProductFilter{
				TagIDs:      f.Values(listquery.FilterTags),
				SupplierIDs: f.Values(listquery.FilterSuppliers),
				CategoryIDs: f.Values(listquery.FilterCategory),
			})
		},
		Criteria: []string{listquery.FilterTags, listquery.FilterSuppliers, listquery.FilterCategory},
		Fields:   domain.Product.KeywordFields,
	}
}

// VariantSource adapts the variant reads of s to a list controller.
func VariantSource(s *ProductService) listquery.Source[domain.ProductVariant] {
	return listquery.Source[domain.ProductVariant]{
		All:    s.Variants,
		Search: s.SearchVariants,
		Fields: domain.ProductVariant.KeywordFields,
	}
}

// ExpenseSource adapts s to a list controller.
func ExpenseSource(s *ExpenseService) listquery.Source[domain.Expense] {
	return listquery.Source[domain.Expense]{
		All:    s.List,
		Search: s.Search,
		Fields: domain.Expense.KeywordFields,
	}
}

// CatalogSource adapts a catalog resource to a list controller. Keywords
// are matched locally.
func CatalogSource[T CatalogItem](s *CatalogService[T]) listquery.Source[T] {
	return listquery.Source[T]{
		All:    s.List,
		Fields: func(t T) []string { return t.KeywordFields() },
	}
}

// SupplierSource adapts s to a list controller.
func SupplierSource(s *SupplierService) listquery.Source[domain.Supplier] {
	return listquery.Source[domain.Supplier]{
		All:    s.List,
		Fields: domain.Supplier.KeywordFields,
	}
}

// TagSource adapts s to a list controller.
func TagSource(s *TagService) listquery.Source[domain.Tag] {
	return listquery.Source[domain.Tag]{
		All:    s.List,
		Fields: domain.Tag.KeywordFields,
	}
}
