package purchase_order_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/id"
	"stockflow/internal/core/numerator"
	"stockflow/internal/core/types"
	"stockflow/internal/domain"
	"stockflow/internal/domain/activity"
	po "stockflow/internal/domain/documents/purchase_order"
	"stockflow/internal/domain/domaintest"
)

type fixture struct {
	env      *domaintest.Env
	svc      *po.Service
	supplier id.ID
	widget   id.ID
	gadget   id.ID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	env := domaintest.NewEnv(t)
	return &fixture{
		env:      env,
		svc:      po.NewService(env.Orders, env.Catalog, env.Numerator, env.Tx, env.Recorder),
		supplier: env.Catalog.AddSupplier("Acme"),
		widget:   env.AddProduct("Widget", "5.00", 0),
		gadget:   env.AddProduct("Gadget", "20.00", 0),
	}
}

func (f *fixture) input() po.CreateInput {
	return po.CreateInput{
		SupplierID: f.supplier,
		Items: []po.ItemInput{
			{ProductID: f.widget, Quantity: 10},
			{ProductID: f.gadget, Quantity: 3},
		},
	}
}

func TestCreateOrder_ComputesTotals(t *testing.T) {
	f := newFixture(t)

	order, err := f.svc.CreateOrder(domaintest.Context(), f.input())

	require.NoError(t, err)
	assert.Equal(t, po.StatusPending, order.Status)
	assert.Equal(t, int64(13), order.TotalItems)
	assert.Equal(t, "110.00", order.TotalAmount.StringFixed(types.MoneyPlaces))
	assert.Equal(t, "order-000001", order.OrderNumber)
	assert.Equal(t, domaintest.TestUserID, order.CreatedBy)
	require.Len(t, order.Items, 2)
	assert.Equal(t, 1, order.Items[0].LineNo)
	assert.Equal(t, order.ID, order.Items[1].OrderID)

	stored, err := f.svc.GetByID(domaintest.Context(), order.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Items, 2)
	assert.Equal(t, []activity.Action{activity.ActionOrderCreated}, f.env.Sink.Actions())
}

func TestCreateOrder_SnapshotsCostOverride(t *testing.T) {
	f := newFixture(t)
	override := types.MustMoney("4.50")
	in := f.input()
	in.Items[0].CostPrice = &override

	order, err := f.svc.CreateOrder(domaintest.Context(), in)

	require.NoError(t, err)
	assert.True(t, order.Items[0].CostPrice.Equal(override))
	assert.Equal(t, "105.00", order.TotalAmount.StringFixed(types.MoneyPlaces))
}

func TestCreateOrder_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *fixture, in *po.CreateInput)
	}{
		{"no items", func(_ *fixture, in *po.CreateInput) { in.Items = nil }},
		{"unknown supplier", func(_ *fixture, in *po.CreateInput) { in.SupplierID = id.New() }},
		{"missing supplier", func(_ *fixture, in *po.CreateInput) { in.SupplierID = id.ID{} }},
		{"unknown product", func(_ *fixture, in *po.CreateInput) { in.Items[0].ProductID = id.New() }},
		{"zero quantity", func(_ *fixture, in *po.CreateInput) { in.Items[1].Quantity = 0 }},
		{"negative override", func(_ *fixture, in *po.CreateInput) {
			c := types.MustMoney("-1")
			in.Items[0].CostPrice = &c
		}},
		{"product without cost", func(f *fixture, in *po.CreateInput) {
			in.Items[0].ProductID = f.env.AddProduct("Free sample", "", 0)
		}},
		{"product without cost despite override", func(f *fixture, in *po.CreateInput) {
			in.Items[0].ProductID = f.env.AddProduct("Free sample", "", 0)
			c := types.MustMoney("1.00")
			in.Items[0].CostPrice = &c
		}},
		{"product with zero cost", func(f *fixture, in *po.CreateInput) {
			in.Items[0].ProductID = f.env.AddProduct("Giveaway", "0", 0)
		}},
		{"expected before order date", func(_ *fixture, in *po.CreateInput) {
			in.OrderDate = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
			expected := in.OrderDate.AddDate(0, 0, -1)
			in.ExpectedDate = &expected
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			in := f.input()
			tt.mutate(f, &in)

			_, err := f.svc.CreateOrder(domaintest.Context(), in)

			assert.True(t, apperror.HasCode(err, apperror.CodeValidation), "got %v", err)
			assert.Zero(t, f.env.Orders.Count())
			assert.Empty(t, f.env.Sink.Entries())
		})
	}
}

func TestCreateOrder_NumberingFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	f.env.Numerator.NextFunc = func(context.Context, numerator.Kind) (numerator.Number, error) {
		return numerator.Number{}, apperror.NewNumberingExhausted("order", numerator.MaxAttempts)
	}

	_, err := f.svc.CreateOrder(domaintest.Context(), f.input())

	assert.True(t, apperror.HasCode(err, apperror.CodeNumberingExhausted))
	assert.Zero(t, f.env.Orders.Count())
}

func TestCreateOrder_DuplicateNumberRollsBackItems(t *testing.T) {
	f := newFixture(t)
	fixed := func(context.Context, numerator.Kind) (numerator.Number, error) {
		return numerator.Number{Value: "ORD-1", Scope: "ORD-"}, nil
	}
	f.env.Numerator.NextFunc = fixed
	_, err := f.svc.CreateOrder(domaintest.Context(), f.input())
	require.NoError(t, err)

	_, err = f.svc.CreateOrder(domaintest.Context(), f.input())

	assert.True(t, apperror.IsDuplicate(err))
	assert.Equal(t, 1, f.env.Orders.Count())
}

func TestGetByNumber(t *testing.T) {
	f := newFixture(t)
	order, err := f.svc.CreateOrder(domaintest.Context(), f.input())
	require.NoError(t, err)

	got, err := f.svc.GetByNumber(domaintest.Context(), order.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)
	assert.Len(t, got.Items, 2)

	_, err = f.svc.GetByNumber(domaintest.Context(), "missing")
	assert.True(t, apperror.IsNotFound(err))
}

func TestSetStatus_FollowsTransitionTable(t *testing.T) {
	f := newFixture(t)
	ctx := domaintest.Context()
	order, err := f.svc.CreateOrder(ctx, f.input())
	require.NoError(t, err)

	_, err = f.svc.MarkWaiting(ctx, order.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidTransition))

	order, err = f.svc.MarkSent(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, po.StatusSent, order.Status)

	order, err = f.svc.MarkWaiting(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, po.StatusWaitingForDelivery, order.Status)

	order, err = f.svc.Cancel(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, po.StatusCancelled, order.Status)

	_, err = f.svc.MarkSent(ctx, order.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidTransition))

	assert.Equal(t, []activity.Action{
		activity.ActionOrderCreated,
		activity.ActionOrderStatusUpdate,
		activity.ActionOrderStatusUpdate,
		activity.ActionOrderStatusUpdate,
	}, f.env.Sink.Actions())
}

func TestSetStatus_RejectsReceivedAndUnknown(t *testing.T) {
	f := newFixture(t)
	ctx := domaintest.Context()
	order, err := f.svc.CreateOrder(ctx, f.input())
	require.NoError(t, err)
	_, err = f.svc.MarkSent(ctx, order.ID)
	require.NoError(t, err)

	_, err = f.svc.SetStatus(ctx, order.ID, po.StatusReceived)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = f.svc.SetStatus(ctx, order.ID, po.Status("lost"))
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = f.svc.SetStatus(ctx, id.New(), po.StatusSent)
	assert.True(t, apperror.IsNotFound(err))
}

func TestList_FiltersByStatus(t *testing.T) {
	f := newFixture(t)
	ctx := domaintest.Context()
	first, err := f.svc.CreateOrder(ctx, f.input())
	require.NoError(t, err)
	_, err = f.svc.CreateOrder(ctx, f.input())
	require.NoError(t, err)
	_, err = f.svc.MarkSent(ctx, first.ID)
	require.NoError(t, err)

	res, err := f.svc.List(ctx, domain.ListFilter{Statuses: []string{string(po.StatusSent)}})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, first.ID, res.Items[0].ID)
	assert.Equal(t, domain.DefaultLimit, res.Limit)

	_, err = f.svc.List(ctx, domain.ListFilter{Statuses: []string{"lost"}})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}
