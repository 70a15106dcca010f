// Package catalog exposes the product and supplier data the procurement
// flows read. Products and suppliers are owned elsewhere; this package never
// writes them (stock quantities change through the stock ledger only).
package catalog

import (
	"context"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/id"
	"stockflow/internal/core/types"
)

// Product is the procurement view of a catalog product.
type Product struct {
	ID        id.ID        `db:"id" json:"id"`
	Name      string       `db:"name" json:"name"`
	CostPrice *types.Money `db:"cost_price" json:"costPrice"`
	Quantity  int64        `db:"quantity" json:"quantity"`
}

// HasProcurableCost reports whether the product can be ordered: it needs a
// positive cost price.
func (p Product) HasProcurableCost() bool {
	return p.CostPrice != nil && p.CostPrice.IsPositive()
}

// Supplier is the procurement view of a supplier.
type Supplier struct {
	ID   id.ID  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// Reader provides read access to products and suppliers.
type Reader interface {
	// GetProducts returns the products found among ids, keyed by ID.
	GetProducts(ctx context.Context, ids []id.ID) (map[id.ID]Product, error)

	// GetSupplier returns a supplier or NOT_FOUND.
	GetSupplier(ctx context.Context, supplierID id.ID) (*Supplier, error)
}

// ResolveProducts loads every product in ids and fails with a validation
// error naming the first one that does not exist.
func ResolveProducts(ctx context.Context, r Reader, ids []id.ID) (map[id.ID]Product, error) {
	products, err := r.GetProducts(ctx, uniqueIDs(ids))
	if err != nil {
		return nil, err
	}
	for i, pid := range ids {
		if _, ok := products[pid]; !ok {
			return nil, apperror.NewValidation("product not found").
				WithDetail("field", "items").
				WithDetail("index", i).
				WithDetail("productId", pid.String())
		}
	}
	return products, nil
}

// RequireSupplier checks the supplier exists, reporting a validation error otherwise.
func RequireSupplier(ctx context.Context, r Reader, supplierID id.ID) (*Supplier, error) {
	if id.IsNil(supplierID) {
		return nil, apperror.NewValidation("supplier is required").WithDetail("field", "supplierId")
	}
	s, err := r.GetSupplier(ctx, supplierID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewValidation("supplier not found").
				WithDetail("field", "supplierId").
				WithDetail("supplierId", supplierID.String())
		}
		return nil, err
	}
	return s, nil
}

func uniqueIDs(ids []id.ID) []id.ID {
	seen := make(map[id.ID]struct{}, len(ids))
	out := make([]id.ID, 0, len(ids))
	for _, v := range ids {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
