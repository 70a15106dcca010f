// Package stock provides the stock ledger: the single write path for
// on-hand product quantities.
package stock

import (
	"time"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/id"
)

// Reason explains why a product quantity changed.
type Reason string

const (
	ReasonOrderReception     Reason = "order_reception"
	ReasonReturnApproval     Reason = "return_approval"
	ReasonReturnItemAccept   Reason = "return_item_accept"
	ReasonReturnCancellation Reason = "return_cancellation"
)

// DocumentKind names the document that caused a movement.
type DocumentKind string

const (
	DocumentPurchaseOrder  DocumentKind = "purchase_order"
	DocumentSupplierReturn DocumentKind = "supplier_return"
)

// Adjustment is a request to change a product's on-hand quantity by Delta.
type Adjustment struct {
	ProductID id.ID
	Delta     int64

	// AllowNegative permits the resulting quantity to drop below zero.
	AllowNegative bool

	Reason       Reason
	DocumentKind DocumentKind
	DocumentID   id.ID
}

// Validate checks the request shape.
func (a Adjustment) Validate() error {
	if id.IsNil(a.ProductID) {
		return apperror.NewValidation("product is required").WithDetail("field", "productId")
	}
	if a.Reason == "" {
		return apperror.NewValidation("adjustment reason is required").WithDetail("field", "reason")
	}
	return nil
}

// Movement is one journal row written by every applied adjustment.
type Movement struct {
	ID            id.ID        `db:"id" json:"id"`
	ProductID     id.ID        `db:"product_id" json:"productId"`
	Delta         int64        `db:"delta" json:"delta"`
	QuantityAfter int64        `db:"quantity_after" json:"quantityAfter"`
	Reason        Reason       `db:"reason" json:"reason"`
	DocumentKind  DocumentKind `db:"document_kind" json:"documentKind"`
	DocumentID    id.ID        `db:"document_id" json:"documentId"`
	CreatedBy     string       `db:"created_by" json:"createdBy"`
	CreatedAt     time.Time    `db:"created_at" json:"createdAt"`
}

// MovementFilter pages the journal of one product.
type MovementFilter struct {
	ProductID id.ID
	Limit     int
	Offset    int
}
