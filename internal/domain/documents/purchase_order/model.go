// Package purchase_order provides the supplier purchase order document.
package purchase_order

import (
	"context"
	"time"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/entity"
	"stockflow/internal/core/id"
	"stockflow/internal/core/numerator"
	"stockflow/internal/core/types"
)

// Order is a purchase order sent to a supplier.
// Totals are computed from the items at creation and never re-priced.
type Order struct {
	entity.Document

	OrderNumber  string     `db:"order_number" json:"orderNumber"`
	OrderDate    time.Time  `db:"order_date" json:"orderDate"`
	ExpectedDate *time.Time `db:"expected_date" json:"expectedDate,omitempty"`
	Status       Status     `db:"status" json:"status"`
	Notes        *string    `db:"notes" json:"notes,omitempty"`

	TotalItems  int64       `db:"total_items" json:"totalItems"`
	TotalAmount types.Money `db:"total_amount" json:"totalAmount"`

	// Reception stamps, set once by the completion of reception.
	InvoiceNumber         *string    `db:"invoice_number" json:"invoiceNumber,omitempty"`
	InvoiceScope          *string    `db:"invoice_scope" json:"-"`
	InvoiceSeq            *int64     `db:"invoice_seq" json:"-"`
	SupplierInvoiceNumber *string    `db:"supplier_invoice_number" json:"supplierInvoiceNumber,omitempty"`
	InvoiceNotes          *string    `db:"invoice_notes" json:"invoiceNotes,omitempty"`
	ReceivedDate          *time.Time `db:"received_date" json:"receivedDate,omitempty"`
	ReceivedBy            *string    `db:"received_by" json:"receivedBy,omitempty"`

	Items []Item `db:"-" json:"items"`
}

// Item is an ordered product line.
type Item struct {
	ID               id.ID       `db:"id" json:"id"`
	OrderID          id.ID       `db:"order_id" json:"orderId"`
	LineNo           int         `db:"line_no" json:"lineNo"`
	ProductID        id.ID       `db:"product_id" json:"productId"`
	Quantity         int64       `db:"quantity" json:"quantity"`
	ReceivedQuantity int64       `db:"received_quantity" json:"receivedQuantity"`
	CostPrice        types.Money `db:"cost_price" json:"costPrice"`
}

// LineTotal returns quantity * cost price.
func (i Item) LineTotal() types.Money {
	return types.LineTotal(i.Quantity, i.CostPrice)
}

// Outstanding returns the quantity still to be received.
func (i Item) Outstanding() int64 {
	return i.Quantity - i.ReceivedQuantity
}

// NewOrder creates a pending order.
func NewOrder(supplierID id.ID, createdBy string, orderDate time.Time, now time.Time) *Order {
	return &Order{
		Document:    entity.NewDocument(supplierID, createdBy, now),
		OrderDate:   orderDate,
		Status:      StatusPending,
		TotalAmount: types.Zero(),
		Items:       make([]Item, 0),
	}
}

// AddItem appends a line with a snapshotted cost price and recalculates totals.
func (o *Order) AddItem(productID id.ID, quantity int64, costPrice types.Money) {
	o.Items = append(o.Items, Item{
		ID:        id.New(),
		OrderID:   o.ID,
		LineNo:    len(o.Items) + 1,
		ProductID: productID,
		Quantity:  quantity,
		CostPrice: costPrice,
	})
	o.recalculateTotals()
}

// recalculateTotals updates document totals from items.
func (o *Order) recalculateTotals() {
	var t types.Totals
	for _, item := range o.Items {
		t.Add(item.Quantity, item.CostPrice)
	}
	o.TotalItems = t.Items
	o.TotalAmount = t.Amount
}

// AssignNumber stores an issued order number.
func (o *Order) AssignNumber(n numerator.Number) {
	o.OrderNumber = n.Value
	o.NumberScope = n.Scope
	o.NumberSeq = n.Seq
}

// Item returns the line with itemID.
func (o *Order) Item(itemID id.ID) (*Item, bool) {
	for i := range o.Items {
		if o.Items[i].ID == itemID {
			return &o.Items[i], true
		}
	}
	return nil, false
}

// IsFullyReceived reports whether every line was received in full.
func (o *Order) IsFullyReceived() bool {
	for _, item := range o.Items {
		if item.Outstanding() > 0 {
			return false
		}
	}
	return len(o.Items) > 0
}

// Validate implements entity.Validatable.
func (o *Order) Validate(ctx context.Context) error {
	if err := o.Document.Validate(ctx); err != nil {
		return err
	}

	if o.OrderDate.IsZero() {
		return apperror.NewValidation("order date is required").
			WithDetail("field", "orderDate")
	}

	if o.ExpectedDate != nil && o.ExpectedDate.Before(o.OrderDate) {
		return apperror.NewValidation("expected date cannot precede the order date").
			WithDetail("field", "expectedDate")
	}

	if len(o.Items) == 0 {
		return apperror.NewValidation("order must contain at least one item").
			WithDetail("field", "items")
	}

	for i, item := range o.Items {
		if id.IsNil(item.ProductID) {
			return apperror.NewValidation("product is required").
				WithDetail("field", "items").
				WithDetail("index", i)
		}
		if item.Quantity <= 0 {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", "items").
				WithDetail("index", i)
		}
		if !item.CostPrice.IsPositive() {
			return apperror.NewValidation("cost price must be positive").
				WithDetail("field", "items").
				WithDetail("index", i).
				WithDetail("productId", item.ProductID.String())
		}
		if item.ReceivedQuantity < 0 || item.ReceivedQuantity > item.Quantity {
			return apperror.NewValidation("received quantity out of bounds").
				WithDetail("field", "items").
				WithDetail("index", i)
		}
	}

	return nil
}
