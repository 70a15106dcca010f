// Package pgtest starts a throwaway PostgreSQL for repository integration tests.
package pgtest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"stockflow/internal/core/id"
	"stockflow/internal/infrastructure/migration"
	"stockflow/internal/infrastructure/storage/postgres"
)

var (
	sharedMu  sync.Mutex
	sharedDSN string
	sharedErr error
)

// tables are truncated between tests, children first.
var tables = []string{
	"activity_log", "stock_movements", "return_status_history",
	"supplier_return_items", "supplier_returns",
	"purchase_order_items", "purchase_orders",
	"settings", "products", "suppliers",
}

// DB is a migrated database with a pool and transaction manager.
type DB struct {
	Pool      *postgres.Pool
	TxManager *postgres.TxManager
	t         *testing.T
}

// New returns a clean database shared by the tests of the package.
// It skips the test under -short or when no container runtime is available.
func New(t *testing.T) *DB {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test skipped in short mode")
	}

	dsn, err := sharedDatabase()
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}

	ctx := context.Background()
	cfg := postgres.DefaultPoolConfig(dsn)
	cfg.MinConns = 0
	pool, err := postgres.NewPool(ctx, cfg)
	require.NoError(t, err)

	db := &DB{Pool: pool, TxManager: postgres.NewTxManager(pool), t: t}
	db.Truncate()
	t.Cleanup(pool.Close)
	return db
}

func sharedDatabase() (string, error) {
	sharedMu.Lock()
	defer sharedMu.Unlock()

	if sharedDSN != "" || sharedErr != nil {
		return sharedDSN, sharedErr
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("stockflow_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		sharedErr = err
		return "", err
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		sharedErr = err
		return "", err
	}

	m, err := migration.New(dsn)
	if err != nil {
		sharedErr = err
		return "", err
	}
	defer m.Close()
	if err := m.Up(ctx); err != nil {
		sharedErr = err
		return "", err
	}

	sharedDSN = dsn
	return dsn, nil
}

// Truncate empties every table.
func (db *DB) Truncate() {
	db.t.Helper()
	_, err := db.Pool.Exec(context.Background(),
		fmt.Sprintf("TRUNCATE TABLE %s CASCADE", strings.Join(tables, ", ")))
	require.NoError(db.t, err)
}

// InsertSupplier creates a supplier row.
func (db *DB) InsertSupplier(name string) id.ID {
	db.t.Helper()
	supplierID := id.New()
	_, err := db.Pool.Exec(context.Background(),
		"INSERT INTO suppliers (id, name) VALUES ($1, $2)", supplierID, name)
	require.NoError(db.t, err)
	return supplierID
}

// InsertProduct creates a product row. An empty cost stores NULL.
func (db *DB) InsertProduct(name, cost string, quantity int64) id.ID {
	db.t.Helper()

	var costPrice *string
	if cost != "" {
		costPrice = &cost
	}

	productID := id.New()
	_, err := db.Pool.Exec(context.Background(),
		"INSERT INTO products (id, name, cost_price, quantity) VALUES ($1, $2, $3::numeric, $4)",
		productID, name, costPrice, quantity)
	require.NoError(db.t, err)
	return productID
}

// Quantity reads the on-hand quantity of a product.
func (db *DB) Quantity(productID id.ID) int64 {
	db.t.Helper()
	var quantity int64
	err := db.Pool.QueryRow(context.Background(),
		"SELECT quantity FROM products WHERE id = $1", productID).Scan(&quantity)
	require.NoError(db.t, err)
	return quantity
}
