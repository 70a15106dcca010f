// Package catalog_repo provides read access to products and suppliers.
package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/id"
	"stockflow/internal/domain/catalog"
	"stockflow/internal/infrastructure/storage/postgres"
)

const (
	productsTable  = "products"
	suppliersTable = "suppliers"
)

// CatalogRepo implements catalog.Reader.
type CatalogRepo struct {
	txManager *postgres.TxManager
}

var _ catalog.Reader = (*CatalogRepo)(nil)

// NewCatalogRepo creates a new catalog reader.
func NewCatalogRepo(txManager *postgres.TxManager) *CatalogRepo {
	return &CatalogRepo{txManager: txManager}
}

func (r *CatalogRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// GetProducts returns the products found among ids.
func (r *CatalogRepo) GetProducts(ctx context.Context, ids []id.ID) (map[id.ID]catalog.Product, error) {
	out := make(map[id.ID]catalog.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	sql, args, err := r.builder().
		Select(postgres.ExtractDBColumns[catalog.Product]()...).
		From(productsTable).
		Where(squirrel.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var products []catalog.Product
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &products, sql, args...); err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}
	for _, p := range products {
		out[p.ID] = p
	}
	return out, nil
}

// GetSupplier returns a supplier or NOT_FOUND.
func (r *CatalogRepo) GetSupplier(ctx context.Context, supplierID id.ID) (*catalog.Supplier, error) {
	sql, args, err := r.builder().
		Select("id", "name").
		From(suppliersTable).
		Where(squirrel.Eq{"id": supplierID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var s catalog.Supplier
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &s, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("supplier", supplierID.String())
		}
		return nil, fmt.Errorf("get supplier: %w", err)
	}
	return &s, nil
}
