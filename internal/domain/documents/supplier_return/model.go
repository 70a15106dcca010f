// Package supplier_return provides the supplier return document.
package supplier_return

import (
	"context"
	"strings"
	"time"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/entity"
	"stockflow/internal/core/id"
	"stockflow/internal/core/numerator"
	"stockflow/internal/core/types"
)

// Return sends products back to a supplier.
type Return struct {
	entity.Document

	ReturnNumber string  `db:"return_number" json:"returnNumber"`
	ReturnReason string  `db:"return_reason" json:"returnReason"`
	ReturnNotes  *string `db:"return_notes" json:"returnNotes,omitempty"`
	Status       Status  `db:"status" json:"status"`

	TotalItems  int64       `db:"total_items" json:"totalItems"`
	TotalAmount types.Money `db:"total_amount" json:"totalAmount"`

	// StockApplied is set while any item quantity is deducted from stock.
	StockApplied bool `db:"stock_applied" json:"stockApplied"`

	ApprovedBy  *string    `db:"approved_by" json:"approvedBy,omitempty"`
	ApprovedAt  *time.Time `db:"approved_at" json:"approvedAt,omitempty"`
	ShippedAt   *time.Time `db:"shipped_at" json:"shippedAt,omitempty"`
	CompletedAt *time.Time `db:"completed_at" json:"completedAt,omitempty"`

	Items []Item `db:"-" json:"items"`
}

// Item is one returned product line.
type Item struct {
	ID           id.ID       `db:"id" json:"id"`
	ReturnID     id.ID       `db:"return_id" json:"returnId"`
	LineNo       int         `db:"line_no" json:"lineNo"`
	ProductID    id.ID       `db:"product_id" json:"productId"`
	Quantity     int64       `db:"quantity" json:"quantity"`
	CostPrice    types.Money `db:"cost_price" json:"costPrice"`
	ReturnReason *string     `db:"return_reason" json:"returnReason,omitempty"`

	ActionTaken      *Disposition `db:"action_taken" json:"actionTaken,omitempty"`
	AcceptedQuantity int64        `db:"accepted_quantity" json:"acceptedQuantity"`

	// StockAppliedQuantity is the quantity currently deducted from stock for
	// this line; cancellation gives back exactly this much.
	StockAppliedQuantity int64 `db:"stock_applied_quantity" json:"stockAppliedQuantity"`
}

// IsDisposed reports whether the item has an action recorded.
func (i Item) IsDisposed() bool {
	return i.ActionTaken != nil
}

// HistoryEntry is an append-only record of a status change.
type HistoryEntry struct {
	ID        id.ID     `db:"id" json:"id"`
	ReturnID  id.ID     `db:"return_id" json:"returnId"`
	OldStatus *Status   `db:"old_status" json:"oldStatus,omitempty"`
	NewStatus Status    `db:"new_status" json:"newStatus"`
	ChangedBy string    `db:"changed_by" json:"changedBy"`
	Reason    *string   `db:"reason" json:"reason,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewReturn creates a return in the given initial status.
func NewReturn(supplierID id.ID, createdBy, reason string, now time.Time) *Return {
	return &Return{
		Document:     entity.NewDocument(supplierID, createdBy, now),
		ReturnReason: strings.TrimSpace(reason),
		Status:       StatusDraft,
		TotalAmount:  types.Zero(),
		Items:        make([]Item, 0),
	}
}

// AddItem appends a line with a snapshotted cost price and recalculates totals.
func (r *Return) AddItem(productID id.ID, quantity int64, costPrice types.Money, reason *string) {
	r.Items = append(r.Items, Item{
		ID:           id.New(),
		ReturnID:     r.ID,
		LineNo:       len(r.Items) + 1,
		ProductID:    productID,
		Quantity:     quantity,
		CostPrice:    costPrice,
		ReturnReason: reason,
	})
	r.recalculateTotals()
}

// ReplaceItems drops all lines; used when a draft is edited.
func (r *Return) ReplaceItems() {
	r.Items = make([]Item, 0)
	r.recalculateTotals()
}

func (r *Return) recalculateTotals() {
	var t types.Totals
	for _, item := range r.Items {
		t.Add(item.Quantity, item.CostPrice)
	}
	r.TotalItems = t.Items
	r.TotalAmount = t.Amount
}

// AssignNumber stores an issued return number.
func (r *Return) AssignNumber(n numerator.Number) {
	r.ReturnNumber = n.Value
	r.NumberScope = n.Scope
	r.NumberSeq = n.Seq
}

// Item returns the line with itemID.
func (r *Return) Item(itemID id.ID) (*Item, bool) {
	for i := range r.Items {
		if r.Items[i].ID == itemID {
			return &r.Items[i], true
		}
	}
	return nil, false
}

// AllItemsDisposed reports whether every item has an action recorded.
func (r *Return) AllItemsDisposed() bool {
	if len(r.Items) == 0 {
		return false
	}
	for _, item := range r.Items {
		if !item.IsDisposed() {
			return false
		}
	}
	return true
}

// syncStockApplied derives the header flag from the lines.
func (r *Return) syncStockApplied() {
	r.StockApplied = false
	for _, item := range r.Items {
		if item.StockAppliedQuantity > 0 {
			r.StockApplied = true
			return
		}
	}
}

// ValidateDraft checks the fields a draft needs: supplier and reason.
func (r *Return) ValidateDraft(ctx context.Context) error {
	if err := r.Document.Validate(ctx); err != nil {
		return err
	}
	if r.ReturnReason == "" {
		return apperror.NewValidation("return reason is required").
			WithDetail("field", "returnReason")
	}
	for i, item := range r.Items {
		if item.Quantity < 0 {
			return apperror.NewValidation("quantity cannot be negative").
				WithDetail("field", "items").
				WithDetail("index", i)
		}
		if item.CostPrice.IsNegative() {
			return apperror.NewValidation("cost price cannot be negative").
				WithDetail("field", "items").
				WithDetail("index", i)
		}
	}
	return nil
}

// Validate implements entity.Validatable for returns leaving draft.
func (r *Return) Validate(ctx context.Context) error {
	if err := r.ValidateDraft(ctx); err != nil {
		return err
	}
	if len(r.Items) == 0 {
		return apperror.NewValidation("return must contain at least one item").
			WithDetail("field", "items")
	}
	for i, item := range r.Items {
		if item.Quantity <= 0 {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", "items").
				WithDetail("index", i)
		}
	}
	return nil
}
