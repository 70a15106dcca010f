// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"time"

	"stockflow/internal/core/id"
	"stockflow/internal/domain"
)

// ListQuery holds the common document list parameters.
type ListQuery struct {
	Search      string     `form:"search"`
	Status      []string   `form:"status"`
	SupplierID  string     `form:"supplierId"`
	CreatedFrom *time.Time `form:"createdFrom" time_format:"2006-01-02T15:04:05Z07:00"`
	CreatedTo   *time.Time `form:"createdTo" time_format:"2006-01-02T15:04:05Z07:00"`
	OrderBy     string     `form:"orderBy"`
	Limit       int        `form:"limit" binding:"omitempty,min=0"`
	Offset      int        `form:"offset" binding:"omitempty,min=0"`
}

// ToFilter converts the query to a list filter.
func (q *ListQuery) ToFilter() (domain.ListFilter, error) {
	filter := domain.ListFilter{
		Search:      q.Search,
		Statuses:    q.Status,
		CreatedFrom: q.CreatedFrom,
		CreatedTo:   q.CreatedTo,
		OrderBy:     q.OrderBy,
		Limit:       q.Limit,
		Offset:      q.Offset,
	}
	if q.SupplierID != "" {
		supplierID, err := id.ParseField("supplierId", q.SupplierID)
		if err != nil {
			return filter, err
		}
		filter.SupplierID = &supplierID
	}
	return filter, nil
}

// ListResponse wraps a page of results.
type ListResponse[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// FromListResult converts a list result.
func FromListResult[T any](r domain.ListResult[T]) ListResponse[T] {
	items := r.Items
	if items == nil {
		items = make([]T, 0)
	}
	return ListResponse[T]{
		Items:      items,
		TotalCount: r.TotalCount,
		Limit:      r.Limit,
		Offset:     r.Offset,
	}
}

// PageQuery holds plain paging parameters.
type PageQuery struct {
	Limit  int `form:"limit" binding:"omitempty,min=0"`
	Offset int `form:"offset" binding:"omitempty,min=0"`
}
