// Package pagination holds the page/search query shared by list endpoints.
package pagination

import (
	"math"
	"net/http"
	"strconv"
	"strings"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Query is a case-insensitive substring search plus a 1-based page window.
type Query struct {
	Search   string
	Page     int
	PageSize int
}

// Normalize applies defaults and bounds.
func (q Query) Normalize() Query {
	q.Search = strings.TrimSpace(q.Search)
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.PageSize < 1 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
	// keep Offset()+PageSize within int
	if maxPage := math.MaxInt / q.PageSize; q.Page > maxPage {
		q.Page = maxPage
	}
	return q
}

func (q Query) Offset() int {
	return (q.Page - 1) * q.PageSize
}

// LikePattern returns the search term as an escaped ILIKE pattern.
func (q Query) LikePattern() string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(q.Search) + "%"
}

// Matches reports whether any field contains the search term, ignoring case.
func (q Query) Matches(fields ...string) bool {
	if q.Search == "" {
		return true
	}
	needle := strings.ToLower(q.Search)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

// Result is one page of items.
type Result[T any] struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
	Items      []T `json:"items"`
}

// NewResult builds a page with TotalPages = ceil(total / pageSize).
func NewResult[T any](q Query, total int, items []T) *Result[T] {
	if items == nil {
		items = []T{}
	}
	return &Result[T]{
		Page:       q.Page,
		PageSize:   q.PageSize,
		Total:      total,
		TotalPages: TotalPages(total, q.PageSize),
		Items:      items,
	}
}

func TotalPages(total, pageSize int) int {
	if pageSize < 1 || total < 1 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

// Slice pages through an already filtered and sorted slice.
func Slice[T any](q Query, all []T) *Result[T] {
	q = q.Normalize()
	start := min(q.Offset(), len(all))
	end := min(start+q.PageSize, len(all))
	page := make([]T, end-start)
	copy(page, all[start:end])
	return NewResult(q, len(all), page)
}

// FromRequest reads page, limit and search from the query string.
func FromRequest(r *http.Request) Query {
	values := r.URL.Query()
	q := Query{Search: values.Get("search")}
	if v, err := strconv.Atoi(values.Get("page")); err == nil {
		q.Page = v
	}
	if v, err := strconv.Atoi(values.Get("limit")); err == nil {
		q.PageSize = v
	}
	return q.Normalize()
}
