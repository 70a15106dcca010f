package postgres_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/id"
	"stockflow/internal/core/types"
	"stockflow/internal/domain/activity"
	"stockflow/internal/domain/registers/stock"
	"stockflow/internal/infrastructure/storage/postgres"
	"stockflow/internal/infrastructure/storage/postgres/catalog_repo"
	"stockflow/internal/infrastructure/storage/postgres/pgtest"
	"stockflow/internal/infrastructure/storage/postgres/register_repo"
)

func TestSettingsStore(t *testing.T) {
	db := pgtest.New(t)
	ctx := context.Background()
	store := postgres.NewSettingsStore(db.TxManager)

	require.NoError(t, store.Put(ctx, "order_number_prefix", "PO"))
	require.NoError(t, store.Put(ctx, "return_auto_approve", "true"))
	require.NoError(t, store.Put(ctx, "order_number_prefix", "PUR"))

	settings, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"order_number_prefix": "PUR",
		"return_auto_approve": "true",
	}, settings)
}

func TestActivityStore_RoundTrip(t *testing.T) {
	db := pgtest.New(t)
	ctx := context.Background()
	store, err := postgres.NewActivityStore(db.TxManager)
	require.NoError(t, err)

	entityID := id.New()
	small := &activity.Entry{
		ID: id.New(), Action: activity.ActionOrderCreated, EntityKind: "purchase_order",
		EntityID: entityID, UserID: "user-1", Details: map[string]any{"items": float64(2)},
		CreatedAt: time.Now().UTC().Add(-time.Minute),
	}
	large := &activity.Entry{
		ID: id.New(), Action: activity.ActionOrderStatusUpdate, EntityKind: "purchase_order",
		EntityID: entityID, UserID: "user-1",
		Details:   map[string]any{"notes": strings.Repeat("late delivery ", 80)},
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.Insert(ctx, small))
	require.NoError(t, store.Insert(ctx, large))

	var encoding string
	require.NoError(t, db.Pool.QueryRow(ctx,
		"SELECT details_encoding FROM activity_log WHERE id = $1", large.ID).Scan(&encoding))
	assert.Equal(t, string(postgres.EncodingZstd), encoding)

	entries, err := store.ListForEntity(ctx, "purchase_order", entityID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, large.ID, entries[0].ID)
	assert.Equal(t, large.Details, entries[0].Details)
	assert.Equal(t, small.Details, entries[1].Details)
}

func TestCatalogRepo(t *testing.T) {
	db := pgtest.New(t)
	ctx := context.Background()
	repo := catalog_repo.NewCatalogRepo(db.TxManager)

	supplierID := db.InsertSupplier("Acme")
	priced := db.InsertProduct("Widget", "12.40", 7)
	unpriced := db.InsertProduct("Sample", "", 0)

	products, err := repo.GetProducts(ctx, []id.ID{priced, unpriced, id.New()})
	require.NoError(t, err)
	require.Len(t, products, 2)
	require.NotNil(t, products[priced].CostPrice)
	assert.True(t, types.MustMoney("12.40").Equal(*products[priced].CostPrice))
	assert.Equal(t, int64(7), products[priced].Quantity)
	assert.Nil(t, products[unpriced].CostPrice)
	assert.False(t, products[unpriced].HasProcurableCost())

	supplier, err := repo.GetSupplier(ctx, supplierID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", supplier.Name)

	_, err = repo.GetSupplier(ctx, id.New())
	assert.True(t, apperror.IsNotFound(err))
}

func TestStockRepo_AdjustUnderTransaction(t *testing.T) {
	db := pgtest.New(t)
	ctx := context.Background()
	ledger := stock.NewService(register_repo.NewStockRepo(db.TxManager), db.TxManager)
	productID := db.InsertProduct("Widget", "1.00", 2)

	adj := stock.Adjustment{
		ProductID: productID, Delta: -3, Reason: stock.ReasonReturnApproval,
		DocumentKind: stock.DocumentSupplierReturn, DocumentID: id.New(),
	}
	_, err := ledger.Adjust(ctx, adj)
	assert.True(t, apperror.HasCode(err, apperror.CodeInsufficientStock))
	assert.Equal(t, int64(2), db.Quantity(productID))

	adj.AllowNegative = true
	after, err := ledger.Adjust(ctx, adj)
	require.NoError(t, err)
	assert.Equal(t, int64(-1), after)
	assert.Equal(t, int64(-1), db.Quantity(productID))

	movements, err := ledger.ListMovements(ctx, stock.MovementFilter{ProductID: productID})
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, int64(-1), movements[0].QuantityAfter)

	_, err = ledger.Adjust(ctx, stock.Adjustment{ProductID: id.New(), Delta: 1, Reason: stock.ReasonOrderReception})
	assert.True(t, apperror.IsNotFound(err))
}
