// Package domain provides types shared by the document services.
package domain

import (
	"time"

	"stockflow/internal/core/id"
)

// Paging limits for list operations.
const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// ListFilter contains common filtering options for document lists.
type ListFilter struct {
	// Search matches the document number (substring, case-insensitive)
	Search string

	// Statuses restricts the result to the given statuses
	Statuses []string

	SupplierID *id.ID

	CreatedFrom *time.Time
	CreatedTo   *time.Time

	// OrderBy specifies sorting (e.g., "created_at", "-total_amount")
	OrderBy string

	// Pagination
	Limit  int
	Offset int
}

// Normalize applies paging defaults and bounds.
func (f *ListFilter) Normalize() {
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}

// ListResult contains paginated results.
type ListResult[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}
