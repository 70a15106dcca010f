// Package register_repo provides the PostgreSQL stock ledger repository.
package register_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/id"
	"stockflow/internal/domain/registers/stock"
	"stockflow/internal/infrastructure/storage/postgres"
)

const (
	productsTable       = "products"
	stockMovementsTable = "stock_movements"
)

var stockMovementColumns = []string{
	"id", "product_id", "delta", "quantity_after", "reason",
	"document_kind", "document_id", "created_by", "created_at",
}

// StockRepo implements stock.Repository on products.quantity and the
// stock_movements journal.
type StockRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

var _ stock.Repository = (*StockRepo)(nil)

// NewStockRepo creates a new stock repository.
func NewStockRepo(txManager *postgres.TxManager) *StockRepo {
	return &StockRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// GetQuantityForUpdate locks the product row and returns its quantity.
func (r *StockRepo) GetQuantityForUpdate(ctx context.Context, productID id.ID) (int64, error) {
	sql, args, err := r.builder.
		Select("quantity").
		From(productsTable).
		Where(squirrel.Eq{"id": productID}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var quantity int64
	if err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&quantity); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperror.NewNotFound("product", productID.String())
		}
		return 0, fmt.Errorf("lock product quantity: %w", err)
	}
	return quantity, nil
}

// SetQuantity overwrites the on-hand quantity.
func (r *StockRepo) SetQuantity(ctx context.Context, productID id.ID, quantity int64) error {
	sql, args, err := r.builder.
		Update(productsTable).
		Set("quantity", quantity).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": productID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("set product quantity: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("product", productID.String())
	}
	return nil
}

// CreateMovement appends a journal row.
func (r *StockRepo) CreateMovement(ctx context.Context, m *stock.Movement) error {
	sql, args, err := r.builder.
		Insert(stockMovementsTable).
		Columns(stockMovementColumns...).
		Values(
			m.ID, m.ProductID, m.Delta, m.QuantityAfter, string(m.Reason),
			string(m.DocumentKind), m.DocumentID, m.CreatedBy, m.CreatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert stock movement: %w", postgres.MapConstraintError(err, "stock_movement"))
	}
	return nil
}

// ListMovements returns the journal of a product, newest first.
func (r *StockRepo) ListMovements(ctx context.Context, filter stock.MovementFilter) ([]stock.Movement, error) {
	q := r.builder.
		Select(stockMovementColumns...).
		From(stockMovementsTable).
		Where(squirrel.Eq{"product_id": filter.ProductID}).
		OrderBy("created_at DESC", "id DESC")

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	movements := make([]stock.Movement, 0)
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	return movements, nil
}
