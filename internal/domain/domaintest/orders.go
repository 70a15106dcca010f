package domaintest

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/id"
	"stockflow/internal/core/numerator"
	"stockflow/internal/domain"
	po "stockflow/internal/domain/documents/purchase_order"
)

// OrderRepo is an in-memory purchase_order.Repository with unique order and
// invoice numbers.
type OrderRepo struct {
	mu       sync.Mutex
	orders   map[id.ID]po.Order
	items    map[id.ID][]po.Item
	numbers  map[string]id.ID
	invoices map[string]id.ID
}

// NewOrderRepo creates an empty OrderRepo.
func NewOrderRepo() *OrderRepo {
	return &OrderRepo{
		orders:   make(map[id.ID]po.Order),
		items:    make(map[id.ID][]po.Item),
		numbers:  make(map[string]id.ID),
		invoices: make(map[string]id.ID),
	}
}

// Create implements purchase_order.Repository.
func (r *OrderRepo) Create(_ context.Context, order *po.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.numbers[order.OrderNumber]; ok {
		return apperror.NewDuplicate(po.EntityKind, "order_number", order.OrderNumber)
	}
	header := *order
	header.Items = nil
	r.orders[order.ID] = header
	r.numbers[order.OrderNumber] = order.ID
	return nil
}

// SaveItems implements purchase_order.Repository.
func (r *OrderRepo) SaveItems(_ context.Context, orderID id.ID, items []po.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[orderID] = append(r.items[orderID], items...)
	return nil
}

// GetByID implements purchase_order.Repository.
func (r *OrderRepo) GetByID(_ context.Context, orderID id.ID) (*po.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok {
		return nil, apperror.NewNotFound(po.EntityKind, orderID)
	}
	return &o, nil
}

// GetByNumber implements purchase_order.Repository.
func (r *OrderRepo) GetByNumber(ctx context.Context, number string) (*po.Order, error) {
	r.mu.Lock()
	orderID, ok := r.numbers[number]
	r.mu.Unlock()
	if !ok {
		return nil, apperror.NewNotFound(po.EntityKind, number)
	}
	return r.GetByID(ctx, orderID)
}

// GetForUpdate implements purchase_order.Repository.
func (r *OrderRepo) GetForUpdate(ctx context.Context, orderID id.ID) (*po.Order, error) {
	return r.GetByID(ctx, orderID)
}

// GetItems implements purchase_order.Repository.
func (r *OrderRepo) GetItems(_ context.Context, orderID id.ID) ([]po.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.items[orderID]), nil
}

// List implements purchase_order.Repository.
func (r *OrderRepo) List(_ context.Context, filter domain.ListFilter) (domain.ListResult[*po.Order], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []*po.Order
	for _, o := range r.orders {
		if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, string(o.Status)) {
			continue
		}
		if filter.SupplierID != nil && o.SupplierID != *filter.SupplierID {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(o.OrderNumber), strings.ToLower(filter.Search)) {
			continue
		}
		matched = append(matched, &o)
	}
	slices.SortFunc(matched, func(a, b *po.Order) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return domain.ListResult[*po.Order]{
		Items:      page(matched, filter.Limit, filter.Offset),
		TotalCount: int64(len(matched)),
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}, nil
}

// UpdateStatus implements purchase_order.Repository.
func (r *OrderRepo) UpdateStatus(_ context.Context, orderID id.ID, from []po.Status, to po.Status, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok || !slices.Contains(from, o.Status) {
		return false, nil
	}
	o.Status = to
	o.UpdatedAt = at
	r.orders[orderID] = o
	return true, nil
}

// MarkReceived implements purchase_order.Repository.
func (r *OrderRepo) MarkReceived(_ context.Context, orderID id.ID, stamp po.ReceptionStamp) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok || !o.Status.IsReceivable() {
		return false, nil
	}
	o.Status = po.StatusReceived
	o.ReceivedBy = &stamp.ReceivedBy
	o.ReceivedDate = &stamp.ReceivedDate
	o.SupplierInvoiceNumber = stamp.SupplierInvoiceNumber
	o.InvoiceNotes = stamp.InvoiceNotes
	o.UpdatedAt = stamp.ReceivedDate
	r.orders[orderID] = o
	return true, nil
}

// UpdateReceivedQuantity implements purchase_order.Repository.
func (r *OrderRepo) UpdateReceivedQuantity(_ context.Context, itemID id.ID, quantity int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for orderID, items := range r.items {
		for i := range items {
			if items[i].ID == itemID {
				updated := slices.Clone(items)
				updated[i].ReceivedQuantity = quantity
				r.items[orderID] = updated
				return nil
			}
		}
	}
	return apperror.NewNotFound("purchase_order_item", itemID)
}

// SetInvoiceNumber implements purchase_order.Repository.
func (r *OrderRepo) SetInvoiceNumber(_ context.Context, orderID id.ID, n numerator.Number) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.invoices[n.Value]; ok {
		return apperror.NewDuplicate(po.EntityKind, "invoice_number", n.Value)
	}
	o, ok := r.orders[orderID]
	if !ok {
		return apperror.NewNotFound(po.EntityKind, orderID)
	}
	value, scope := n.Value, n.Scope
	o.InvoiceNumber = &value
	o.InvoiceScope = &scope
	o.InvoiceSeq = n.Seq
	r.orders[orderID] = o
	r.invoices[n.Value] = orderID
	return nil
}

// Count returns the number of stored orders.
func (r *OrderRepo) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.orders)
}

// Snapshot implements Snapshotter.
func (r *OrderRepo) Snapshot() func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	orders := maps.Clone(r.orders)
	items := cloneItems(r.items)
	numbers := maps.Clone(r.numbers)
	invoices := maps.Clone(r.invoices)
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.orders, r.items, r.numbers, r.invoices = orders, items, numbers, invoices
	}
}

func cloneItems[T any](m map[id.ID][]T) map[id.ID][]T {
	out := make(map[id.ID][]T, len(m))
	for k, v := range m {
		out[k] = slices.Clone(v)
	}
	return out
}

var _ po.Repository = (*OrderRepo)(nil)
