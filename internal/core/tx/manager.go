// Package tx provides transaction management abstractions.
// Domain services depend on these interfaces; the pgx implementation lives in
// infrastructure/storage/postgres.
package tx

import (
	"context"
)

// Manager defines the contract for transaction management.
type Manager interface {
	// RunInTransaction executes fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn succeeds, the transaction is committed.
	//
	// Nested calls reuse the existing transaction from context.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// RunNested executes fn inside a savepoint of the ambient transaction.
	// A failing fn rolls back to the savepoint and leaves the outer
	// transaction usable, so callers can retry a statement that hit a
	// constraint violation. Without an ambient transaction it behaves like
	// RunInTransaction.
	RunNested(ctx context.Context, fn func(ctx context.Context) error) error
}
