// Package search implements the client-side keyword and filter matching used
// by list screens when the backend has no combined endpoint.
//
// Matching is a case-insensitive substring test over a fixed field set per
// entity. Case folding uses golang.org/x/text/cases so that non-ASCII names
// ("ÉCROU", "straße") match the way users type them.
//
// The package holds no state and does no logging.
package search

import (
	"strings"

	"golang.org/x/text/cases"
)

// NormalizeKeyword trims s and collapses inner whitespace runs to one space.
func NormalizeKeyword(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// fold returns the caseless form of s. A fresh Caser is used per call since
// cases.Caser is not safe for concurrent use.
func fold(s string) string {
	return cases.Fold().String(s)
}

// Matcher tests fields against one folded keyword.
type Matcher struct {
	needle string
}

// NewMatcher prepares keyword for repeated matching. An empty keyword
// matches everything.
func NewMatcher(keyword string) Matcher {
	return Matcher{needle: fold(NormalizeKeyword(keyword))}
}

// Empty reports whether the matcher accepts everything.
func (m Matcher) Empty() bool { return m.needle == "" }

// Match reports whether any field contains the keyword.
func (m Matcher) Match(fields ...string) bool {
	if m.needle == "" {
		return true
	}
	c := cases.Fold()
	for _, f := range fields {
		if f == "" {
			continue
		}
		if strings.Contains(c.String(f), m.needle) {
			return true
		}
	}
	return false
}

// Contains reports whether any of fields contains keyword, ignoring case.
func Contains(fields []string, keyword string) bool {
	return NewMatcher(keyword).Match(fields...)
}

// Filter returns the items whose fields contain keyword. The input order is
// preserved and the input slice is not modified. An empty keyword returns a
// copy of items.
func Filter[T any](items []T, keyword string, fields func(T) []string) []T {
	m := NewMatcher(keyword)
	out := make([]T, 0, len(items))
	for _, it := range items {
		if m.Empty() || m.Match(fields(it)...) {
			out = append(out, it)
		}
	}
	return out
}

// MatchAny reports whether any of values is in want (OR semantics across a
// filter's selected values). An empty want set matches everything.
func MatchAny(values []string, want []string) bool {
	if len(want) == 0 {
		return true
	}
	set := make(map[string]struct{}, len(want))
	for _, w := range want {
		set[w] = struct{}{}
	}
	for _, v := range values {
		if _, ok := set[v]; ok {
			return true
		}
	}
	return false
}
