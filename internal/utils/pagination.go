// Package utils holds request-parsing helpers shared by the HTTP handlers.
package utils

import "strconv"

// AtoiDefault parses s as a base-10 int, or returns def when s is empty or
// malformed. Surrounding spaces count as malformed.
func AtoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// Paging is a normalized, 1-based page request.
type Paging struct {
	Page  int
	Limit int
}

// NormalizePaging clamps page to at least 1, replaces a non-positive limit
// with def, and caps limit at max when max > 0.
//
//	NormalizePaging(0, 0, 20, 100)   // {1, 20}
//	NormalizePaging(3, 500, 20, 100) // {3, 100}
func NormalizePaging(page, limit, def, max int) Paging {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = def
	}
	if max > 0 && limit > max {
		limit = max
	}
	return Paging{Page: page, Limit: limit}
}

// Offset is the number of rows skipped before this page.
func (p Paging) Offset() int { return (p.Page - 1) * p.Limit }
