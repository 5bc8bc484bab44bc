package utils

import (
	"math"
	"net/http"
	"strconv"
)

const MaxPageLimit = 100

// maxOffset bounds (page-1)*limit so it fits in an int on every platform.
const maxOffset = math.MaxInt32

// Pagination is a validated page/limit pair.
type Pagination struct {
	Page  int
	Limit int
}

// ParsePagination reads page and limit from the query string.
// page is at least 1; limit falls back to defaultLimit and is clamped to 1..100.
func ParsePagination(r *http.Request, defaultLimit int) Pagination {
	return NewPagination(
		atoiDefault(r.URL.Query().Get("page"), 1),
		atoiDefault(r.URL.Query().Get("limit"), defaultLimit),
	)
}

// NewPagination normalizes a page/limit pair. page is clamped so the offset
// never overflows.
func NewPagination(page, limit int) Pagination {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 1
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	if maxPage := maxOffset/limit + 1; page > maxPage {
		page = maxPage
	}
	return Pagination{Page: page, Limit: limit}
}

// Offset is the number of rows to skip.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Meta builds the response meta block for a result set of size total.
func (p Pagination) Meta(total int64) *Meta {
	return NewPaginationMeta(p.Page, p.Limit, total)
}

// NewPaginationMeta computes total pages and the next/prev flags.
func NewPaginationMeta(page, limit int, total int64) *Meta {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return &Meta{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
