package activity

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appctx "stockflow/internal/core/context"
	"stockflow/internal/core/id"
)

type sinkFunc func(ctx context.Context, e *Entry) error

func (f sinkFunc) Insert(ctx context.Context, e *Entry) error { return f(ctx, e) }

func TestRecorder_FillsDefaults(t *testing.T) {
	var got *Entry
	r := NewRecorder(sinkFunc(func(_ context.Context, e *Entry) error {
		got = e
		return nil
	}))
	ctx := appctx.WithUser(context.Background(), &appctx.UserContext{UserID: "buyer-1"})
	orderID := id.New()

	r.Record(ctx, Entry{Action: ActionOrderReceived, EntityKind: "purchase_order", EntityID: orderID})

	require.NotNil(t, got)
	assert.False(t, id.IsNil(got.ID))
	assert.Equal(t, "buyer-1", got.UserID)
	assert.Equal(t, orderID, got.EntityID)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestRecorder_SwallowsSinkErrors(t *testing.T) {
	calls := 0
	r := NewRecorder(sinkFunc(func(context.Context, *Entry) error {
		calls++
		return errors.New("disk full")
	}))

	assert.NotPanics(t, func() {
		r.Record(context.Background(), Entry{Action: ActionReturnCreated})
		r.Record(context.Background(), Entry{Action: ActionReturnStatusUpdate})
	})
	assert.Equal(t, 2, calls)
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() { r.Record(context.Background(), Entry{Action: ActionOrderCreated}) })
}
