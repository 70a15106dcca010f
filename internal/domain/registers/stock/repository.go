package stock

import (
	"context"

	"stockflow/internal/core/id"
)

// Repository persists product quantities and their movement journal.
type Repository interface {
	// GetQuantityForUpdate reads the on-hand quantity and locks the product row
	// until the ambient transaction ends. Unknown products yield NOT_FOUND.
	GetQuantityForUpdate(ctx context.Context, productID id.ID) (int64, error)

	// SetQuantity overwrites the on-hand quantity of a locked product.
	SetQuantity(ctx context.Context, productID id.ID, quantity int64) error

	// CreateMovement appends a journal row.
	CreateMovement(ctx context.Context, m *Movement) error

	// ListMovements returns the journal of a product, newest first.
	ListMovements(ctx context.Context, filter MovementFilter) ([]Movement, error)
}
