package pagination

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// Params holds page-based pagination parameters. Page is 1-based.
type Params struct {
	Page  int
	Limit int
}

// New returns normalized params: non-positive values become 1.
func New(page, limit int) Params {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 1
	}
	return Params{Page: page, Limit: limit}
}

// FromContext extracts page and limit from the query string. Missing or
// unparsable values fall back to DefaultPage and defaultLimit.
func FromContext(c echo.Context, defaultLimit int) Params {
	return New(
		queryInt(c, "page", DefaultPage),
		queryInt(c, "limit", defaultLimit),
	)
}

func queryInt(c echo.Context, name string, def int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

// Bounds returns the half-open range [start, end) of the current page within
// a collection of total items, clamped to the collection.
func (p Params) Bounds(total int) (start, end int) {
	p = New(p.Page, p.Limit)
	if total <= 0 || p.Page-1 > total/p.Limit {
		return total, total
	}
	start = (p.Page - 1) * p.Limit
	end = start + p.Limit
	if end > total || end < start {
		end = total
	}
	return start, end
}

// TotalPages returns ceil(total/limit).
func (p Params) TotalPages(total int) int {
	p = New(p.Page, p.Limit)
	if total <= 0 {
		return 0
	}
	pages := total / p.Limit
	if total%p.Limit != 0 {
		pages++
	}
	return pages
}

// Meta describes a page of results.
type Meta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// Meta builds the pagination metadata for a filtered set of total items.
func (p Params) Meta(total int) Meta {
	p = New(p.Page, p.Limit)
	return Meta{
		Page:       p.Page,
		Limit:      p.Limit,
		Total:      total,
		TotalPages: p.TotalPages(total),
	}
}

// Slice returns the current page of items.
func Slice[T any](items []T, p Params) []T {
	start, end := p.Bounds(len(items))
	return items[start:end]
}
