package numerator

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	corenumerator "stockflow/internal/core/numerator"
	"stockflow/internal/infrastructure/storage/postgres"
)

// column describes where a kind keeps its numbers.
type column struct {
	table string
	value string
	scope string
	seq   string
}

var columns = map[corenumerator.Kind]column{
	corenumerator.KindOrder:   {table: "purchase_orders", value: "order_number", scope: "number_scope", seq: "number_seq"},
	corenumerator.KindReturn:  {table: "supplier_returns", value: "return_number", scope: "number_scope", seq: "number_seq"},
	corenumerator.KindInvoice: {table: "purchase_orders", value: "invoice_number", scope: "invoice_scope", seq: "invoice_seq"},
}

// PostgresStore reads numbers from the document tables.
// Queries run on the ambient transaction when there is one.
type PostgresStore struct {
	txManager *postgres.TxManager
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a PostgresStore.
func NewPostgresStore(txManager *postgres.TxManager) *PostgresStore {
	return &PostgresStore{txManager: txManager}
}

func (s *PostgresStore) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func lookup(kind corenumerator.Kind) (column, error) {
	c, ok := columns[kind]
	if !ok {
		return column{}, fmt.Errorf("unknown document kind %q", kind)
	}
	return c, nil
}

// LastSequence implements Store.
func (s *PostgresStore) LastSequence(ctx context.Context, kind corenumerator.Kind, scope string) (int64, error) {
	c, err := lookup(kind)
	if err != nil {
		return 0, err
	}

	sql, args, err := s.builder().
		Select(fmt.Sprintf("COALESCE(MAX(%s), 0)", c.seq)).
		From(c.table).
		Where(squirrel.Eq{c.scope: scope}).
		Where(squirrel.NotEq{c.seq: nil}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build last sequence: %w", err)
	}

	var last int64
	if err := s.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&last); err != nil {
		return 0, fmt.Errorf("last %s sequence: %w", kind, err)
	}
	return last, nil
}

// Exists implements Store.
func (s *PostgresStore) Exists(ctx context.Context, kind corenumerator.Kind, value string) (bool, error) {
	c, err := lookup(kind)
	if err != nil {
		return false, err
	}

	sql := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE %s = $1)", c.table, c.value)

	var exists bool
	if err := s.txManager.GetQuerier(ctx).QueryRow(ctx, sql, value).Scan(&exists); err != nil {
		return false, fmt.Errorf("check %s number: %w", kind, err)
	}
	return exists, nil
}
