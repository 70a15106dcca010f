// Package entity holds fields shared by supplier-facing documents.
package entity

import (
	"context"
	"time"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/id"
)

// Validatable is implemented by documents that check their own invariants
// without database access.
type Validatable interface {
	Validate(ctx context.Context) error
}

// Document is the common header of purchase orders and supplier returns.
type Document struct {
	ID         id.ID     `db:"id" json:"id"`
	SupplierID id.ID     `db:"supplier_id" json:"supplierId"`
	CreatedBy  string    `db:"created_by" json:"createdBy"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`

	// NumberScope and NumberSeq record how the document number was built:
	// the fixed part preceding the counter and the counter itself. NumberSeq
	// is nil for randomized numbers so they never feed the next sequence.
	NumberScope string `db:"number_scope" json:"-"`
	NumberSeq   *int64 `db:"number_seq" json:"-"`
}

// NewDocument creates a header with a fresh ID.
func NewDocument(supplierID id.ID, createdBy string, now time.Time) Document {
	return Document{
		ID:         id.New(),
		SupplierID: supplierID,
		CreatedBy:  createdBy,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Validate implements Validatable.
func (d *Document) Validate(ctx context.Context) error {
	if id.IsNil(d.SupplierID) {
		return apperror.NewValidation("supplier is required").
			WithDetail("field", "supplierId")
	}
	return nil
}

// Touch stamps the modification time.
func (d *Document) Touch(now time.Time) {
	d.UpdatedAt = now
}
