// Package utils holds small parsing helpers shared by the HTTP layer.
package utils

import (
	"strconv"
	"strings"
)

// AtoiDefault parses s (surrounding spaces allowed) as an int, returning def
// when s is blank or not a number.
func AtoiDefault(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// ClampPage parses 1-based page and page size values. The page is at least 1
// and the size is bounded to [1, maxSize]; unparseable input falls back to 1
// and defSize respectively.
func ClampPage(rawPage, rawSize string, defSize, maxSize int) (page, size int) {
	page = max(AtoiDefault(rawPage, 1), 1)
	size = max(AtoiDefault(rawSize, defSize), 1)
	if maxSize > 0 {
		size = min(size, maxSize)
	}
	return page, size
}
