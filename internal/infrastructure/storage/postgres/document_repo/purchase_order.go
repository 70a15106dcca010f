package document_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/id"
	"stockflow/internal/core/numerator"
	po "stockflow/internal/domain/documents/purchase_order"
	"stockflow/internal/infrastructure/storage/postgres"
)

const (
	purchaseOrdersTable     = "purchase_orders"
	purchaseOrderItemsTable = "purchase_order_items"

	invoiceNumberConstraint = "purchase_orders_invoice_number_key"
)

var purchaseOrderItemColumns = []string{
	"id", "order_id", "line_no", "product_id", "quantity", "received_quantity", "cost_price",
}

// PurchaseOrderRepo implements purchase_order.Repository.
type PurchaseOrderRepo struct {
	*BaseDocumentRepo[*po.Order]
	batch *postgres.BatchInserter
}

var _ po.Repository = (*PurchaseOrderRepo)(nil)

// NewPurchaseOrderRepo creates a new purchase order repository.
func NewPurchaseOrderRepo(txManager *postgres.TxManager) *PurchaseOrderRepo {
	return &PurchaseOrderRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txManager,
			DocumentTable{Name: purchaseOrdersTable, Entity: "purchase_order", NumberColumn: "order_number"},
			postgres.ExtractDBColumns[po.Order](),
			func() *po.Order { return &po.Order{} },
		),
		batch: postgres.NewBatchInserter(txManager),
	}
}

// SaveItems copies the lines of a new order in one round-trip.
func (r *PurchaseOrderRepo) SaveItems(ctx context.Context, orderID id.ID, items []po.Item) error {
	rows := make([][]any, 0, len(items))
	for _, item := range items {
		rows = append(rows, []any{
			item.ID, orderID, item.LineNo, item.ProductID,
			item.Quantity, item.ReceivedQuantity, postgres.Numeric(item.CostPrice),
		})
	}

	if _, err := r.batch.CopyFromSlice(ctx, purchaseOrderItemsTable, purchaseOrderItemColumns, rows); err != nil {
		return fmt.Errorf("copy order items: %w", postgres.MapConstraintError(err, "purchase_order_item"))
	}
	return nil
}

// GetItems retrieves the lines of an order.
func (r *PurchaseOrderRepo) GetItems(ctx context.Context, orderID id.ID) ([]po.Item, error) {
	sql, args, err := r.Builder().
		Select(purchaseOrderItemColumns...).
		From(purchaseOrderItemsTable).
		Where(squirrel.Eq{"order_id": orderID}).
		OrderBy("line_no").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	items := make([]po.Item, 0)
	if err := pgxscan.Select(ctx, r.Querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	return items, nil
}

// UpdateStatus performs a conditional status change.
func (r *PurchaseOrderRepo) UpdateStatus(ctx context.Context, orderID id.ID, from []po.Status, to po.Status, at time.Time) (bool, error) {
	sql, args, err := r.Builder().
		Update(purchaseOrdersTable).
		Set("status", to).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": orderID}).
		Where(squirrel.Eq{"status": statusStrings(from)}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build update: %w", err)
	}

	result, err := r.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("update order status: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

// MarkReceived claims a receivable order for reception. Only one caller can
// win the claim; the others see zero affected rows.
func (r *PurchaseOrderRepo) MarkReceived(ctx context.Context, orderID id.ID, stamp po.ReceptionStamp) (bool, error) {
	sql, args, err := r.Builder().
		Update(purchaseOrdersTable).
		Set("status", po.StatusReceived).
		Set("received_date", stamp.ReceivedDate).
		Set("received_by", stamp.ReceivedBy).
		Set("supplier_invoice_number", stamp.SupplierInvoiceNumber).
		Set("invoice_notes", stamp.InvoiceNotes).
		Set("updated_at", stamp.ReceivedDate).
		Where(squirrel.Eq{"id": orderID}).
		Where(squirrel.Eq{"status": statusStrings(po.ReceivableStatuses)}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build update: %w", err)
	}

	result, err := r.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("mark order received: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

// UpdateReceivedQuantity sets the received quantity of one line.
func (r *PurchaseOrderRepo) UpdateReceivedQuantity(ctx context.Context, itemID id.ID, quantity int64) error {
	sql, args, err := r.Builder().
		Update(purchaseOrderItemsTable).
		Set("received_quantity", quantity).
		Where(squirrel.Eq{"id": itemID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update received quantity: %w", postgres.MapConstraintError(err, "purchase_order_item"))
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("purchase_order_item", itemID.String())
	}
	return nil
}

// SetInvoiceNumber stores the invoice number together with its scope and sequence.
func (r *PurchaseOrderRepo) SetInvoiceNumber(ctx context.Context, orderID id.ID, n numerator.Number) error {
	sql, args, err := r.Builder().
		Update(purchaseOrdersTable).
		Set("invoice_number", n.Value).
		Set("invoice_scope", n.Scope).
		Set("invoice_seq", n.Seq).
		Where(squirrel.Eq{"id": orderID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		if postgres.IsUniqueViolation(err, invoiceNumberConstraint) {
			return apperror.NewDuplicate("invoice", "invoice_number", n.Value).WithCause(err)
		}
		return fmt.Errorf("set invoice number: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("purchase_order", orderID.String())
	}
	return nil
}

func statusStrings[S ~string](statuses []S) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
