package stock_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/id"
	"stockflow/internal/domain/domaintest"
	"stockflow/internal/domain/registers/stock"
)

func adjustment(productID id.ID, delta int64) stock.Adjustment {
	return stock.Adjustment{
		ProductID:    productID,
		Delta:        delta,
		Reason:       stock.ReasonOrderReception,
		DocumentKind: stock.DocumentPurchaseOrder,
		DocumentID:   id.New(),
	}
}

func TestAdjust_WritesQuantityAndMovement(t *testing.T) {
	env := domaintest.NewEnv(t)
	pid := env.AddProduct("Widget", "10.00", 7)

	after, err := env.Ledger.Adjust(domaintest.Context(), adjustment(pid, 5))

	require.NoError(t, err)
	assert.Equal(t, int64(12), after)
	assert.Equal(t, int64(12), env.Stock.Quantity(pid))

	movements := env.Stock.Movements()
	require.Len(t, movements, 1)
	assert.Equal(t, int64(5), movements[0].Delta)
	assert.Equal(t, int64(12), movements[0].QuantityAfter)
	assert.Equal(t, stock.ReasonOrderReception, movements[0].Reason)
	assert.Equal(t, domaintest.TestUserID, movements[0].CreatedBy)
	assert.Equal(t, 1, env.Tx.Commits())
}

func TestAdjust_InsufficientStockLeavesNoTrace(t *testing.T) {
	env := domaintest.NewEnv(t)
	pid := env.AddProduct("Widget", "10.00", 3)

	_, err := env.Ledger.Adjust(domaintest.Context(), adjustment(pid, -5))

	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)
	assert.Equal(t, int64(3), appErr.Details["current"])
	assert.Equal(t, int64(5), appErr.Details["required"])
	assert.Equal(t, pid.String(), appErr.Details["product_id"])

	assert.Equal(t, int64(3), env.Stock.Quantity(pid))
	assert.Empty(t, env.Stock.Movements())
}

func TestAdjust_AllowNegative(t *testing.T) {
	env := domaintest.NewEnv(t)
	pid := env.AddProduct("Widget", "10.00", 3)

	adj := adjustment(pid, -5)
	adj.AllowNegative = true
	after, err := env.Ledger.Adjust(domaintest.Context(), adj)

	require.NoError(t, err)
	assert.Equal(t, int64(-2), after)
	assert.Equal(t, int64(-2), env.Stock.Quantity(pid))
}

func TestAdjust_ExactlyToZero(t *testing.T) {
	env := domaintest.NewEnv(t)
	pid := env.AddProduct("Widget", "10.00", 4)

	after, err := env.Ledger.Adjust(domaintest.Context(), adjustment(pid, -4))

	require.NoError(t, err)
	assert.Zero(t, after)
}

func TestAdjust_ZeroDeltaIsNoop(t *testing.T) {
	env := domaintest.NewEnv(t)
	pid := env.AddProduct("Widget", "10.00", 4)

	after, err := env.Ledger.Adjust(domaintest.Context(), adjustment(pid, 0))

	require.NoError(t, err)
	assert.Equal(t, int64(4), after)
	assert.Empty(t, env.Stock.Movements())
}

func TestAdjust_UnknownProduct(t *testing.T) {
	env := domaintest.NewEnv(t)

	_, err := env.Ledger.Adjust(domaintest.Context(), adjustment(id.New(), 1))

	assert.True(t, apperror.IsNotFound(err))
}

func TestAdjust_RejectsMalformedRequest(t *testing.T) {
	env := domaintest.NewEnv(t)

	_, err := env.Ledger.Adjust(domaintest.Context(), stock.Adjustment{Delta: 1, Reason: stock.ReasonOrderReception})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	pid := env.AddProduct("Widget", "10.00", 1)
	_, err = env.Ledger.Adjust(domaintest.Context(), stock.Adjustment{ProductID: pid, Delta: 1})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestAdjust_JoinsCallerTransaction(t *testing.T) {
	env := domaintest.NewEnv(t)
	pid := env.AddProduct("Widget", "10.00", 10)
	boom := errors.New("boom")

	err := env.Tx.RunInTransaction(domaintest.Context(), func(ctx context.Context) error {
		if _, err := env.Ledger.Adjust(ctx, adjustment(pid, -4)); err != nil {
			return err
		}
		return boom
	})

	require.ErrorIs(t, err, boom)
	assert.Equal(t, int64(10), env.Stock.Quantity(pid))
	assert.Empty(t, env.Stock.Movements())
	assert.Equal(t, 1, env.Tx.Rollbacks())
	assert.Zero(t, env.Tx.Commits())
}

func TestListMovements_NewestFirst(t *testing.T) {
	env := domaintest.NewEnv(t)
	pid := env.AddProduct("Widget", "10.00", 0)
	other := env.AddProduct("Gadget", "10.00", 0)
	ctx := domaintest.Context()

	for _, delta := range []int64{1, 2, 3} {
		_, err := env.Ledger.Adjust(ctx, adjustment(pid, delta))
		require.NoError(t, err)
	}
	_, err := env.Ledger.Adjust(ctx, adjustment(other, 9))
	require.NoError(t, err)

	movements, err := env.Ledger.ListMovements(ctx, stock.MovementFilter{ProductID: pid, Limit: 2})

	require.NoError(t, err)
	require.Len(t, movements, 2)
	assert.Equal(t, int64(3), movements[0].Delta)
	assert.Equal(t, int64(6), movements[0].QuantityAfter)
	assert.Equal(t, int64(2), movements[1].Delta)
}

func TestListMovements_RequiresProduct(t *testing.T) {
	env := domaintest.NewEnv(t)

	_, err := env.Ledger.ListMovements(domaintest.Context(), stock.MovementFilter{})

	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}
