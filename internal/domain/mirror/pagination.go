package mirror

import "math"

// Paging bounds
const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPage         = 10000
)

// PageRequest is a 1-based page request
type PageRequest struct {
	Page     int
	PageSize int
}

// Limit returns the page size, at least 1
func (p PageRequest) Limit() int {
	return max(1, p.PageSize)
}

// Offset returns the number of records to skip. It saturates instead of overflowing
// so that offset+limit and the current page number stay representable.
func (p PageRequest) Offset() int {
	limit := p.Limit()
	skipped := max(1, p.Page) - 1
	if maxSkipped := math.MaxInt/limit - 1; skipped > maxSkipped {
		skipped = maxSkipped
	}
	return skipped * limit
}

// Pagination is the paging metadata returned with every page
type Pagination struct {
	TotalRecords int64 `json:"totalRecords"`
	TotalPages   int   `json:"totalPages"`
	CurrentPage  int   `json:"currentPage"`
	HasNext      bool  `json:"hasNext"`
}

// NewPagination computes paging metadata from a total count and a limit/offset window
func NewPagination(totalRecords int64, limit, offset int) Pagination {
	limit = max(1, limit)
	offset = max(0, offset)
	l := int64(limit)
	return Pagination{
		TotalRecords: totalRecords,
		TotalPages:   int((totalRecords + l - 1) / l),
		CurrentPage:  offset/limit + 1,
		HasNext:      int64(offset) < totalRecords-l,
	}
}

// Page is one page of results together with its metadata
type Page[T any] struct {
	Data       []T
	Pagination Pagination
}

// NewPage builds a page from data and the request it answers
func NewPage[T any](data []T, totalRecords int64, req PageRequest) *Page[T] {
	if data == nil {
		data = []T{}
	}
	return &Page[T]{
		Data:       data,
		Pagination: NewPagination(totalRecords, req.Limit(), req.Offset()),
	}
}
