package cache_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockflow/internal/config"
	sr "stockflow/internal/domain/documents/supplier_return"
	"stockflow/internal/infrastructure/cache"
	"stockflow/internal/infrastructure/storage/postgres"
	"stockflow/internal/infrastructure/storage/postgres/pgtest"
)

type staticLoader struct {
	values map[string]string
	err    error
}

func (l *staticLoader) Load(context.Context) (map[string]string, error) {
	return l.values, l.err
}

func TestSettingsCache_Reload(t *testing.T) {
	loader := &staticLoader{values: map[string]string{
		config.KeyReturnAutoApprove: "true",
		"order_number_prefix":       "PO",
	}}
	c := cache.NewSettingsCache(nil, loader)
	ctx := context.Background()

	assert.False(t, c.Current().ReturnPolicy.AutoApprove)

	var got []config.Settings
	c.OnChange(func(_ context.Context, s config.Settings) { got = append(got, s) })
	c.OnChange(func(context.Context, config.Settings) { panic("listener bug") })

	require.NoError(t, c.Reload(ctx))

	current := c.Current()
	assert.True(t, current.ReturnPolicy.AutoApprove)
	assert.Equal(t, "PO", current.Numbering.Order.Prefix)
	require.Len(t, got, 1)
	assert.Equal(t, current, got[0])
	assert.Equal(t, 1, c.GetStats().Reloads)

	loader.err = errors.New("db down")
	assert.Error(t, c.Reload(ctx))
	assert.True(t, c.Current().ReturnPolicy.AutoApprove)
	assert.Len(t, got, 1)
}

func TestSettingsCache_ReloadsOnNotify(t *testing.T) {
	db := pgtest.New(t)
	store := postgres.NewSettingsStore(db.TxManager)

	c := cache.NewSettingsCache(db.Pool.Pool, store)
	var (
		mu     sync.Mutex
		policy sr.ReturnPolicyConfig
	)
	c.OnChange(func(_ context.Context, s config.Settings) {
		mu.Lock()
		policy = s.ReturnPolicy
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, c.Start(ctx))
	t.Cleanup(c.Stop)

	assert.Equal(t, sr.StatusPending, c.Current().ReturnPolicy.InitialStatus())

	require.NoError(t, store.Put(ctx, config.KeyReturnDefaultStatus, "approved"))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return policy.DefaultStatus == sr.StatusApproved
	}, 10*time.Second, 50*time.Millisecond)
	assert.Equal(t, sr.StatusApproved, c.Current().ReturnPolicy.InitialStatus())
}
