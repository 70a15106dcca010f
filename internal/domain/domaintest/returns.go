package domaintest

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/id"
	"stockflow/internal/domain"
	sr "stockflow/internal/domain/documents/supplier_return"
)

// ReturnRepo is an in-memory supplier_return.Repository with unique return numbers.
type ReturnRepo struct {
	mu      sync.Mutex
	returns map[id.ID]sr.Return
	items   map[id.ID][]sr.Item
	history map[id.ID][]sr.HistoryEntry
	numbers map[string]id.ID
}

// NewReturnRepo creates an empty ReturnRepo.
func NewReturnRepo() *ReturnRepo {
	return &ReturnRepo{
		returns: make(map[id.ID]sr.Return),
		items:   make(map[id.ID][]sr.Item),
		history: make(map[id.ID][]sr.HistoryEntry),
		numbers: make(map[string]id.ID),
	}
}

// Create implements supplier_return.Repository.
func (r *ReturnRepo) Create(_ context.Context, ret *sr.Return) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.numbers[ret.ReturnNumber]; ok {
		return apperror.NewDuplicate(sr.EntityKind, "return_number", ret.ReturnNumber)
	}
	header := *ret
	header.Items = nil
	r.returns[ret.ID] = header
	r.numbers[ret.ReturnNumber] = ret.ID
	return nil
}

// SaveItems implements supplier_return.Repository.
func (r *ReturnRepo) SaveItems(_ context.Context, returnID id.ID, items []sr.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[returnID] = append(slices.Clone(r.items[returnID]), items...)
	return nil
}

// ReplaceItems implements supplier_return.Repository.
func (r *ReturnRepo) ReplaceItems(_ context.Context, returnID id.ID, items []sr.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[returnID] = slices.Clone(items)
	return nil
}

// GetByID implements supplier_return.Repository.
func (r *ReturnRepo) GetByID(_ context.Context, returnID id.ID) (*sr.Return, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ret, ok := r.returns[returnID]
	if !ok {
		return nil, apperror.NewNotFound(sr.EntityKind, returnID)
	}
	return &ret, nil
}

// GetByNumber implements supplier_return.Repository.
func (r *ReturnRepo) GetByNumber(ctx context.Context, number string) (*sr.Return, error) {
	r.mu.Lock()
	returnID, ok := r.numbers[number]
	r.mu.Unlock()
	if !ok {
		return nil, apperror.NewNotFound(sr.EntityKind, number)
	}
	return r.GetByID(ctx, returnID)
}

// GetForUpdate implements supplier_return.Repository.
func (r *ReturnRepo) GetForUpdate(ctx context.Context, returnID id.ID) (*sr.Return, error) {
	return r.GetByID(ctx, returnID)
}

// GetItems implements supplier_return.Repository.
func (r *ReturnRepo) GetItems(_ context.Context, returnID id.ID) ([]sr.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.items[returnID]), nil
}

// List implements supplier_return.Repository.
func (r *ReturnRepo) List(_ context.Context, filter domain.ListFilter) (domain.ListResult[*sr.Return], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []*sr.Return
	for _, ret := range r.returns {
		if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, string(ret.Status)) {
			continue
		}
		if filter.SupplierID != nil && ret.SupplierID != *filter.SupplierID {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(ret.ReturnNumber), strings.ToLower(filter.Search)) {
			continue
		}
		matched = append(matched, &ret)
	}
	slices.SortFunc(matched, func(a, b *sr.Return) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return domain.ListResult[*sr.Return]{
		Items:      page(matched, filter.Limit, filter.Offset),
		TotalCount: int64(len(matched)),
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}, nil
}

// Update implements supplier_return.Repository.
func (r *ReturnRepo) Update(_ context.Context, ret *sr.Return) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.returns[ret.ID]; !ok {
		return apperror.NewNotFound(sr.EntityKind, ret.ID)
	}
	header := *ret
	header.Items = nil
	r.returns[ret.ID] = header
	return nil
}

// UpdateItem implements supplier_return.Repository.
func (r *ReturnRepo) UpdateItem(_ context.Context, item *sr.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := r.items[item.ReturnID]
	for i := range items {
		if items[i].ID == item.ID {
			updated := slices.Clone(items)
			updated[i] = *item
			r.items[item.ReturnID] = updated
			return nil
		}
	}
	return apperror.NewNotFound("return_item", item.ID)
}

// Delete implements supplier_return.Repository.
func (r *ReturnRepo) Delete(_ context.Context, returnID id.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ret, ok := r.returns[returnID]
	if !ok {
		return apperror.NewNotFound(sr.EntityKind, returnID)
	}
	delete(r.numbers, ret.ReturnNumber)
	delete(r.returns, returnID)
	delete(r.items, returnID)
	delete(r.history, returnID)
	return nil
}

// AppendHistory implements supplier_return.Repository.
func (r *ReturnRepo) AppendHistory(_ context.Context, entry *sr.HistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history[entry.ReturnID] = append(slices.Clone(r.history[entry.ReturnID]), *entry)
	return nil
}

// ListHistory implements supplier_return.Repository.
func (r *ReturnRepo) ListHistory(_ context.Context, returnID id.ID) ([]sr.HistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.history[returnID]), nil
}

// Count returns the number of stored returns.
func (r *ReturnRepo) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.returns)
}

// Snapshot implements Snapshotter.
func (r *ReturnRepo) Snapshot() func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	returns := maps.Clone(r.returns)
	items := cloneItems(r.items)
	history := cloneItems(r.history)
	numbers := maps.Clone(r.numbers)
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.returns, r.items, r.history, r.numbers = returns, items, history, numbers
	}
}

var _ sr.Repository = (*ReturnRepo)(nil)
