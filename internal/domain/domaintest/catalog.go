package domaintest

import (
	"context"
	"sync"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/id"
	"stockflow/internal/domain/catalog"
)

// Catalog is an in-memory catalog.Reader.
type Catalog struct {
	mu        sync.Mutex
	products  map[id.ID]catalog.Product
	suppliers map[id.ID]catalog.Supplier
}

// NewCatalog creates an empty Catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		products:  make(map[id.ID]catalog.Product),
		suppliers: make(map[id.ID]catalog.Supplier),
	}
}

// AddProduct stores p.
func (c *Catalog) AddProduct(p catalog.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products[p.ID] = p
}

// AddSupplier stores a supplier and returns its ID.
func (c *Catalog) AddSupplier(name string) id.ID {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := catalog.Supplier{ID: id.New(), Name: name}
	c.suppliers[s.ID] = s
	return s.ID
}

// GetProducts implements catalog.Reader.
func (c *Catalog) GetProducts(_ context.Context, ids []id.ID) (map[id.ID]catalog.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[id.ID]catalog.Product, len(ids))
	for _, pid := range ids {
		if p, ok := c.products[pid]; ok {
			out[pid] = p
		}
	}
	return out, nil
}

// GetSupplier implements catalog.Reader.
func (c *Catalog) GetSupplier(_ context.Context, supplierID id.ID) (*catalog.Supplier, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.suppliers[supplierID]
	if !ok {
		return nil, apperror.NewNotFound("supplier", supplierID)
	}
	return &s, nil
}

var _ catalog.Reader = (*Catalog)(nil)
