package pagination

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const MaxPageSize = 100

// DefaultPageSize applies when a request names no page size. The server sets
// it from PAGE_SIZE at startup.
var DefaultPageSize = 10

// Params holds pagination parameters extracted from a request. Page is
// 1-based.
type Params struct {
	Page     int
	PageSize int
}

// FromContext extracts pagination parameters from the echo context.
// "page_size" wins over the legacy "limit" parameter.
func FromContext(c echo.Context) Params {
	size, _ := strconv.Atoi(c.QueryParam("page_size"))
	if size <= 0 {
		size, _ = strconv.Atoi(c.QueryParam("limit"))
	}
	page, _ := strconv.Atoi(c.QueryParam("page"))
	return Params{Page: page, PageSize: size}.Normalize()
}

// Normalize fills defaults and caps the page size. It does not clamp the
// page against a total; see Clamp.
func (p Params) Normalize() Params {
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	if p.Page < 1 {
		p.Page = 1
	}
	return p
}

// Offset returns the zero-based index of the first item on the page.
func (p Params) Offset() int {
	p = p.Normalize()
	return (p.Page - 1) * p.PageSize
}

// TotalPages returns ceil(total/size). An empty list has zero pages.
func TotalPages(total, size int) int {
	if total <= 0 || size <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

// Clamp forces page into [1, totalPages]. With no pages the result is 1.
func Clamp(page, totalPages int) int {
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}
	return page
}

// Page is one window over an already filtered and sorted list.
type Page[T any] struct {
	Items       []T  `json:"items"`
	Page        int  `json:"page"`
	PageSize    int  `json:"page_size"`
	TotalItems  int  `json:"total_items"`
	TotalPages  int  `json:"total_pages"`
	HasNext     bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`
}

// Paginate returns the requested page of items, clamping out-of-range page
// numbers. The returned Items slice is a fresh copy.
func Paginate[T any](items []T, p Params) Page[T] {
	p = p.Normalize()
	total := len(items)
	pages := TotalPages(total, p.PageSize)
	page := Clamp(p.Page, pages)

	start := (page - 1) * p.PageSize
	end := start + p.PageSize
	if end > total {
		end = total
	}
	window := make([]T, 0, end-start)
	if start < end {
		window = append(window, items[start:end]...)
	}

	return Page[T]{
		Items:       window,
		Page:        page,
		PageSize:    p.PageSize,
		TotalItems:  total,
		TotalPages:  pages,
		HasNext:     page < pages,
		HasPrevious: page > 1,
	}
}
