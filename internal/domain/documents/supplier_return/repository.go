package supplier_return

import (
	"context"

	"stockflow/internal/core/id"
	"stockflow/internal/domain"
)

// Repository persists supplier returns, their items and status history.
type Repository interface {
	// Create inserts the header. A taken return number yields DUPLICATE.
	Create(ctx context.Context, r *Return) error

	// SaveItems inserts lines of a return.
	SaveItems(ctx context.Context, returnID id.ID, items []Item) error

	// ReplaceItems deletes all lines of a draft and inserts items.
	ReplaceItems(ctx context.Context, returnID id.ID, items []Item) error

	GetByID(ctx context.Context, returnID id.ID) (*Return, error)
	GetByNumber(ctx context.Context, number string) (*Return, error)

	// GetForUpdate reads the header and locks the row.
	GetForUpdate(ctx context.Context, returnID id.ID) (*Return, error)

	GetItems(ctx context.Context, returnID id.ID) ([]Item, error)

	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Return], error)

	// Update writes the mutable header columns.
	Update(ctx context.Context, r *Return) error

	// UpdateItem writes the disposition and stock columns of one line.
	UpdateItem(ctx context.Context, item *Item) error

	// Delete physically removes a return with its items and history.
	Delete(ctx context.Context, returnID id.ID) error

	// AppendHistory adds a status history row. History is never updated.
	AppendHistory(ctx context.Context, entry *HistoryEntry) error

	// ListHistory returns the history of a return, oldest first.
	ListHistory(ctx context.Context, returnID id.ID) ([]HistoryEntry, error)
}
