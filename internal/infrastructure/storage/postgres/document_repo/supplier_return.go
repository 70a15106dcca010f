package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/id"
	sr "stockflow/internal/domain/documents/supplier_return"
	"stockflow/internal/infrastructure/storage/postgres"
)

const (
	supplierReturnsTable     = "supplier_returns"
	supplierReturnItemsTable = "supplier_return_items"
	returnHistoryTable       = "return_status_history"
)

var (
	supplierReturnItemColumns = []string{
		"id", "return_id", "line_no", "product_id", "quantity", "cost_price",
		"return_reason", "action_taken", "accepted_quantity", "stock_applied_quantity",
	}

	// supplierReturnMutableColumns are written by Update; identity and
	// numbering never change after creation.
	supplierReturnMutableColumns = []string{
		"supplier_id", "return_reason", "return_notes", "status",
		"total_items", "total_amount", "stock_applied",
		"approved_by", "approved_at", "shipped_at", "completed_at",
	}

	returnHistoryColumns = []string{
		"id", "return_id", "old_status", "new_status", "changed_by", "reason", "created_at",
	}
)

// SupplierReturnRepo implements supplier_return.Repository.
type SupplierReturnRepo struct {
	*BaseDocumentRepo[*sr.Return]
	batch *postgres.BatchInserter
}

var _ sr.Repository = (*SupplierReturnRepo)(nil)

// NewSupplierReturnRepo creates a new supplier return repository.
func NewSupplierReturnRepo(txManager *postgres.TxManager) *SupplierReturnRepo {
	return &SupplierReturnRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txManager,
			DocumentTable{Name: supplierReturnsTable, Entity: "supplier_return", NumberColumn: "return_number"},
			postgres.ExtractDBColumns[sr.Return](),
			func() *sr.Return { return &sr.Return{} },
		),
		batch: postgres.NewBatchInserter(txManager),
	}
}

// SaveItems copies return lines in one round-trip.
func (r *SupplierReturnRepo) SaveItems(ctx context.Context, returnID id.ID, items []sr.Item) error {
	rows := make([][]any, 0, len(items))
	for _, item := range items {
		rows = append(rows, []any{
			item.ID, returnID, item.LineNo, item.ProductID,
			item.Quantity, postgres.Numeric(item.CostPrice),
			item.ReturnReason, dispositionString(item.ActionTaken),
			item.AcceptedQuantity, item.StockAppliedQuantity,
		})
	}

	if _, err := r.batch.CopyFromSlice(ctx, supplierReturnItemsTable, supplierReturnItemColumns, rows); err != nil {
		return fmt.Errorf("copy return items: %w", postgres.MapConstraintError(err, "return_item"))
	}
	return nil
}

// ReplaceItems deletes the current lines and inserts items.
func (r *SupplierReturnRepo) ReplaceItems(ctx context.Context, returnID id.ID, items []sr.Item) error {
	sql, args, err := r.Builder().
		Delete(supplierReturnItemsTable).
		Where(squirrel.Eq{"return_id": returnID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	if _, err := r.Querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete return items: %w", err)
	}
	return r.SaveItems(ctx, returnID, items)
}

// GetItems retrieves the lines of a return.
func (r *SupplierReturnRepo) GetItems(ctx context.Context, returnID id.ID) ([]sr.Item, error) {
	sql, args, err := r.Builder().
		Select(supplierReturnItemColumns...).
		From(supplierReturnItemsTable).
		Where(squirrel.Eq{"return_id": returnID}).
		OrderBy("line_no").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	items := make([]sr.Item, 0)
	if err := pgxscan.Select(ctx, r.Querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("get return items: %w", err)
	}
	return items, nil
}

// Update writes the mutable header columns.
func (r *SupplierReturnRepo) Update(ctx context.Context, ret *sr.Return) error {
	return r.UpdateColumns(ctx, ret.ID, ret, supplierReturnMutableColumns)
}

// UpdateItem writes the disposition and stock columns of one line.
func (r *SupplierReturnRepo) UpdateItem(ctx context.Context, item *sr.Item) error {
	sql, args, err := r.Builder().
		Update(supplierReturnItemsTable).
		Set("action_taken", dispositionString(item.ActionTaken)).
		Set("accepted_quantity", item.AcceptedQuantity).
		Set("stock_applied_quantity", item.StockAppliedQuantity).
		Where(squirrel.Eq{"id": item.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update return item: %w", postgres.MapConstraintError(err, "return_item"))
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("return_item", item.ID.String())
	}
	return nil
}

// AppendHistory inserts a status history row.
func (r *SupplierReturnRepo) AppendHistory(ctx context.Context, entry *sr.HistoryEntry) error {
	var oldStatus *string
	if entry.OldStatus != nil {
		s := string(*entry.OldStatus)
		oldStatus = &s
	}

	sql, args, err := r.Builder().
		Insert(returnHistoryTable).
		Columns(returnHistoryColumns...).
		Values(entry.ID, entry.ReturnID, oldStatus, string(entry.NewStatus),
			entry.ChangedBy, entry.Reason, entry.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.Querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert return history: %w", err)
	}
	return nil
}

// ListHistory returns the history of a return, oldest first.
func (r *SupplierReturnRepo) ListHistory(ctx context.Context, returnID id.ID) ([]sr.HistoryEntry, error) {
	sql, args, err := r.Builder().
		Select(returnHistoryColumns...).
		From(returnHistoryTable).
		Where(squirrel.Eq{"return_id": returnID}).
		OrderBy("created_at", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	entries := make([]sr.HistoryEntry, 0)
	if err := pgxscan.Select(ctx, r.Querier(ctx), &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("list return history: %w", err)
	}
	return entries, nil
}

func dispositionString(d *sr.Disposition) *string {
	if d == nil {
		return nil
	}
	s := string(*d)
	return &s
}
