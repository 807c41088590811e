// Package listquery coordinates user-driven search and filter input for list
// screens: it debounces keystrokes, dispatches fetches through a Source,
// drops results that arrive after newer input, and exposes the committed
// loading/error/data state.
package listquery

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/tbourn/go-bizdata/internal/search"
)

// Well-known filter criteria used by the product screens.
const (
	FilterTags      = "tags"
	FilterSuppliers = "suppliers"
	FilterCategory  = "category"
)

// Filters maps a criterion to its selected values. Values within one
// criterion are ORed; criteria are ANDed.
type Filters map[string][]string

// Normalize returns a copy without blank values or empty criteria. Values
// are trimmed, de-duplicated and sorted so equal selections compare equal.
func (f Filters) Normalize() Filters {
	out := Filters{}
	for k, vs := range f {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		seen := map[string]struct{}{}
		clean := make([]string, 0, len(vs))
		for _, v := range vs {
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			if _, dup := seen[v]; dup {
				continue
			}
			seen[v] = struct{}{}
			clean = append(clean, v)
		}
		if len(clean) > 0 {
			sort.Strings(clean)
			out[k] = clean
		}
	}
	return out
}

// Active reports whether any criterion has a selected value.
func (f Filters) Active() bool {
	for _, vs := range f {
		for _, v := range vs {
			if strings.TrimSpace(v) != "" {
				return true
			}
		}
	}
	return false
}

// Values returns the selected values of criterion.
func (f Filters) Values(criterion string) []string { return f[criterion] }

// Equal compares two normalized filter sets.
func (f Filters) Equal(o Filters) bool {
	a, b := f.Normalize(), o.Normalize()
	if len(a) != len(b) {
		return false
	}
	for k, va := range a {
		vb, ok := b[k]
		if !ok || len(va) != len(vb) {
			return false
		}
		for i := range va {
			if va[i] != vb[i] {
				return false
			}
		}
	}
	return true
}

// Query is the input of one fetch.
type Query struct {
	Keyword string  `json:"keyword"`
	Filters Filters `json:"filters,omitempty"`
}

// Normalize trims the keyword and normalizes filters.
func (q Query) Normalize() Query {
	return Query{Keyword: search.NormalizeKeyword(q.Keyword), Filters: q.Filters.Normalize()}
}

// Equal reports whether two queries ask for the same data.
func (q Query) Equal(o Query) bool {
	return search.NormalizeKeyword(q.Keyword) == search.NormalizeKeyword(o.Keyword) && q.Filters.Equal(o.Filters)
}

// ErrUnsupportedFilter is returned by Fetch for a filter criterion the
// source cannot apply.
var ErrUnsupportedFilter = errors.New("unsupported filter")

// Source adapts a domain service to the controller.
//
// All is required. Search and Filtered are optional backend shortcuts;
// Match applies filters client-side when Filtered is nil. Criteria names
// the filter criteria Filtered or Match understand; a source with neither
// accepts no filters at all. Fields lists the keyword-matched fields of an
// item.
type Source[T any] struct {
	All      func(ctx context.Context) ([]T, error)
	Search   func(ctx context.Context, keyword string) ([]T, error)
	Filtered func(ctx context.Context, f Filters) ([]T, error)
	Match    func(item T, f Filters) bool
	Criteria []string
	Fields   func(item T) []string
}

// checkFilters rejects criteria the source would otherwise ignore.
func (s Source[T]) checkFilters(f Filters) error {
	if s.Filtered == nil && s.Match == nil {
		for k := range f {
			return fmt.Errorf("%w %q", ErrUnsupportedFilter, k)
		}
		return nil
	}
	if s.Criteria == nil {
		return nil
	}
	for k := range f {
		known := false
		for _, c := range s.Criteria {
			if k == c {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("%w %q", ErrUnsupportedFilter, k)
		}
	}
	return nil
}

// Fetch runs q against the source.
//
// With structured filters active, the filtered endpoint is used (or All
// plus Match) and the keyword is then matched client-side, since the
// backend has no combined endpoint. A criterion the source does not know
// fails with ErrUnsupportedFilter. Without filters, a keyword goes to
// Search when available. Otherwise All is used.
func (s Source[T]) Fetch(ctx context.Context, q Query) ([]T, error) {
	q = q.Normalize()

	if q.Filters.Active() {
		if err := s.checkFilters(q.Filters); err != nil {
			return nil, err
		}
		var items []T
		var err error
		if s.Filtered != nil {
			items, err = s.Filtered(ctx, q.Filters)
		} else {
			items, err = s.All(ctx)
			if err == nil && s.Match != nil {
				kept := make([]T, 0, len(items))
				for _, it := range items {
					if s.Match(it, q.Filters) {
						kept = append(kept, it)
					}
				}
				items = kept
			}
		}
		if err != nil {
			return nil, err
		}
		return s.matchKeyword(items, q.Keyword), nil
	}

	if q.Keyword != "" {
		if s.Search != nil {
			return s.Search(ctx, q.Keyword)
		}
		items, err := s.All(ctx)
		if err != nil {
			return nil, err
		}
		return s.matchKeyword(items, q.Keyword), nil
	}

	return s.All(ctx)
}

func (s Source[T]) matchKeyword(items []T, keyword string) []T {
	if keyword == "" || s.Fields == nil {
		return items
	}
	return search.Filter(items, keyword, s.Fields)
}
