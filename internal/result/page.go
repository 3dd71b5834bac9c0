package result

import (
	"net/url"
	"strconv"
)

// DefaultPageSize applies when a caller asks for a non-positive page size.
const DefaultPageSize = 10

// Page is a 1-indexed slice of a larger collection.
type Page[T any] struct {
	Records  []T `json:"records"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	Size     int `json:"size"`
	LastPage int `json:"lastPage"`
}

// Normalized fills in values the backend may omit.
func (p Page[T]) Normalized() Page[T] {
	if p.Records == nil {
		p.Records = []T{}
	}
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Size < 1 {
		p.Size = len(p.Records)
	}
	if p.LastPage == 0 && p.Size > 0 {
		p.LastPage = (p.Total + p.Size - 1) / p.Size
	}
	return p
}

// PageQuery selects a page of a list endpoint.
type PageQuery struct {
	Page int
	Size int
}

// Normalize clamps the query to a valid 1-indexed page.
func (q PageQuery) Normalize() PageQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Size < 1 {
		q.Size = DefaultPageSize
	}
	return q
}

// Values encodes the query parameters understood by list endpoints.
func (q PageQuery) Values() url.Values {
	q = q.Normalize()
	v := url.Values{}
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("size", strconv.Itoa(q.Size))
	return v
}
