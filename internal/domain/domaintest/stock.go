package domaintest

import (
	"context"
	"maps"
	"slices"
	"sync"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/id"
	"stockflow/internal/domain/registers/stock"
)

// StockRepo is an in-memory stock.Repository.
type StockRepo struct {
	mu         sync.Mutex
	quantities map[id.ID]int64
	movements  []stock.Movement
}

// NewStockRepo creates an empty StockRepo.
func NewStockRepo() *StockRepo {
	return &StockRepo{quantities: make(map[id.ID]int64)}
}

// Put sets the quantity of a product, creating it.
func (r *StockRepo) Put(productID id.ID, quantity int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.quantities[productID] = quantity
}

// Quantity returns the current quantity of a product.
func (r *StockRepo) Quantity(productID id.ID) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.quantities[productID]
}

// Movements returns all journal rows in insertion order.
func (r *StockRepo) Movements() []stock.Movement {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.movements)
}

// GetQuantityForUpdate implements stock.Repository.
func (r *StockRepo) GetQuantityForUpdate(_ context.Context, productID id.ID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.quantities[productID]
	if !ok {
		return 0, apperror.NewNotFound("product", productID)
	}
	return q, nil
}

// SetQuantity implements stock.Repository.
func (r *StockRepo) SetQuantity(_ context.Context, productID id.ID, quantity int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.quantities[productID]; !ok {
		return apperror.NewNotFound("product", productID)
	}
	r.quantities[productID] = quantity
	return nil
}

// CreateMovement implements stock.Repository.
func (r *StockRepo) CreateMovement(_ context.Context, m *stock.Movement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.movements = append(r.movements, *m)
	return nil
}

// ListMovements implements stock.Repository.
func (r *StockRepo) ListMovements(_ context.Context, filter stock.MovementFilter) ([]stock.Movement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []stock.Movement
	for i := len(r.movements) - 1; i >= 0; i-- {
		if r.movements[i].ProductID == filter.ProductID {
			out = append(out, r.movements[i])
		}
	}
	return page(out, filter.Limit, filter.Offset), nil
}

// Snapshot implements Snapshotter.
func (r *StockRepo) Snapshot() func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	quantities := maps.Clone(r.quantities)
	n := len(r.movements)
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.quantities = quantities
		r.movements = r.movements[:n]
	}
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

var _ stock.Repository = (*StockRepo)(nil)
