package purchase_order

import (
	"context"
	"time"

	"stockflow/internal/core/id"
	"stockflow/internal/core/numerator"
	"stockflow/internal/domain"
)

// ReceptionStamp is written when reception completes.
type ReceptionStamp struct {
	ReceivedBy            string
	ReceivedDate          time.Time
	SupplierInvoiceNumber *string
	InvoiceNotes          *string
}

// Repository persists purchase orders.
type Repository interface {
	// Create inserts the header. A taken order number yields DUPLICATE.
	Create(ctx context.Context, order *Order) error

	// SaveItems inserts the lines of a freshly created order.
	SaveItems(ctx context.Context, orderID id.ID, items []Item) error

	GetByID(ctx context.Context, orderID id.ID) (*Order, error)
	GetByNumber(ctx context.Context, number string) (*Order, error)

	// GetForUpdate reads the header and locks the row.
	GetForUpdate(ctx context.Context, orderID id.ID) (*Order, error)

	GetItems(ctx context.Context, orderID id.ID) ([]Item, error)

	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Order], error)

	// UpdateStatus sets status to `to` only if the current status is one of
	// from, reporting whether a row changed.
	UpdateStatus(ctx context.Context, orderID id.ID, from []Status, to Status, at time.Time) (bool, error)

	// MarkReceived moves a receivable order to received and writes stamp in a
	// single conditional statement, reporting whether a row changed.
	MarkReceived(ctx context.Context, orderID id.ID, stamp ReceptionStamp) (bool, error)

	// UpdateReceivedQuantity sets the received quantity of one line.
	UpdateReceivedQuantity(ctx context.Context, itemID id.ID, quantity int64) error

	// SetInvoiceNumber assigns the invoice number. A taken number yields DUPLICATE.
	SetInvoiceNumber(ctx context.Context, orderID id.ID, n numerator.Number) error
}
