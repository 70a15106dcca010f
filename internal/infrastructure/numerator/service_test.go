package numerator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockflow/internal/core/apperror"
	corenumerator "stockflow/internal/core/numerator"
)

// memStore simulates the document tables.
type memStore struct {
	mu     sync.Mutex
	values map[corenumerator.Kind]map[string]struct{}
	seqs   map[corenumerator.Kind]map[string]int64

	// phantom values report as existing without being stored, simulating a
	// concurrent writer that already took the candidate.
	phantom map[string]struct{}
}

func newMemStore() *memStore {
	return &memStore{
		values:  make(map[corenumerator.Kind]map[string]struct{}),
		seqs:    make(map[corenumerator.Kind]map[string]int64),
		phantom: make(map[string]struct{}),
	}
}

func (m *memStore) LastSequence(_ context.Context, kind corenumerator.Kind, scope string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seqs[kind][scope], nil
}

func (m *memStore) Exists(_ context.Context, kind corenumerator.Kind, value string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.phantom[value]; ok {
		return true, nil
	}
	_, ok := m.values[kind][value]
	return ok, nil
}

// insert behaves like a unique index.
func (m *memStore) insert(kind corenumerator.Kind, n corenumerator.Number) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values[kind] == nil {
		m.values[kind] = make(map[string]struct{})
		m.seqs[kind] = make(map[string]int64)
	}
	if _, ok := m.values[kind][n.Value]; ok {
		return apperror.NewDuplicate(string(kind), "number", n.Value)
	}
	m.values[kind][n.Value] = struct{}{}
	if n.Seq != nil && *n.Seq > m.seqs[kind][n.Scope] {
		m.seqs[kind][n.Scope] = *n.Seq
	}
	return nil
}

func fixedClock() time.Time {
	return time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
}

func testConfig() corenumerator.NumberingConfig {
	cfg := corenumerator.DefaultNumberingConfig()
	cfg.Order.PadWidth = 3
	return cfg
}

func sequence(values ...int) func() int {
	i := 0
	return func() int {
		v := values[i%len(values)]
		i++
		return v
	}
}

func TestService_Claim_SequentialPerDay(t *testing.T) {
	store := newMemStore()
	svc := New(store, testConfig()).WithClock(fixedClock)
	ctx := context.Background()

	first, err := svc.Claim(ctx, corenumerator.KindOrder, func(_ context.Context, n corenumerator.Number) error {
		return store.insert(corenumerator.KindOrder, n)
	})
	require.NoError(t, err)
	second, err := svc.Claim(ctx, corenumerator.KindOrder, func(_ context.Context, n corenumerator.Number) error {
		return store.insert(corenumerator.KindOrder, n)
	})
	require.NoError(t, err)

	assert.Equal(t, "ORD-20250101-001", first.Value)
	assert.Equal(t, "ORD-20250101-002", second.Value)
}

func TestService_Next_KindsAreIndependent(t *testing.T) {
	store := newMemStore()
	svc := New(store, testConfig()).WithClock(fixedClock)
	ctx := context.Background()

	order, err := svc.Next(ctx, corenumerator.KindOrder)
	require.NoError(t, err)
	ret, err := svc.Next(ctx, corenumerator.KindReturn)
	require.NoError(t, err)
	inv, err := svc.Next(ctx, corenumerator.KindInvoice)
	require.NoError(t, err)

	assert.Equal(t, "ORD-20250101-001", order.Value)
	assert.Equal(t, "RET-20250101-0001", ret.Value)
	assert.Equal(t, "INV-20250101-0001", inv.Value)
}

func TestService_Next_CollisionFallsBackToRandom(t *testing.T) {
	store := newMemStore()
	store.phantom["ORD-20250101-001"] = struct{}{}
	svc := New(store, testConfig()).WithClock(fixedClock).WithRandom(sequence(123456))

	n, err := svc.Next(context.Background(), corenumerator.KindOrder)

	require.NoError(t, err)
	assert.Equal(t, "ORD-20250101-123456", n.Value)
	assert.Nil(t, n.Seq, "randomized numbers must not feed the counter")
}

func TestService_Next_RetriesUntilDistinct(t *testing.T) {
	store := newMemStore()
	store.phantom["ORD-20250101-001"] = struct{}{}
	store.phantom["ORD-20250101-000007"] = struct{}{}
	store.phantom["ORD-20250101-000008"] = struct{}{}
	svc := New(store, testConfig()).WithClock(fixedClock).WithRandom(sequence(7, 8, 9))

	n, err := svc.Next(context.Background(), corenumerator.KindOrder)

	require.NoError(t, err)
	assert.Equal(t, "ORD-20250101-000009", n.Value)
}

func TestService_Next_Exhausted(t *testing.T) {
	store := newMemStore()
	store.phantom["ORD-20250101-001"] = struct{}{}
	store.phantom["ORD-20250101-000042"] = struct{}{}
	svc := New(store, testConfig()).WithClock(fixedClock).WithRandom(sequence(42))

	_, err := svc.Next(context.Background(), corenumerator.KindOrder)

	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeNumberingExhausted))
}

func TestService_Next_ManualOrderNumbering(t *testing.T) {
	cfg := testConfig()
	cfg.Order.AutoGenerate = false
	store := newMemStore()
	svc := New(store, cfg).WithClock(fixedClock).WithRandom(sequence(31))

	n, err := svc.Next(context.Background(), corenumerator.KindOrder)

	require.NoError(t, err)
	assert.Equal(t, "ORD-20250101-000031", n.Value)
}

func TestService_Claim_RacingInsertRegenerates(t *testing.T) {
	store := newMemStore()
	svc := New(store, testConfig()).WithClock(fixedClock)
	ctx := context.Background()

	// A concurrent writer inserts 001 between our check and our insert.
	raced := false
	n, err := svc.Claim(ctx, corenumerator.KindOrder, func(_ context.Context, n corenumerator.Number) error {
		if !raced {
			raced = true
			require.NoError(t, store.insert(corenumerator.KindOrder, n))
		}
		return store.insert(corenumerator.KindOrder, n)
	})

	require.NoError(t, err)
	assert.Equal(t, "ORD-20250101-002", n.Value)
}

func TestService_Claim_PropagatesOtherErrors(t *testing.T) {
	svc := New(newMemStore(), testConfig()).WithClock(fixedClock)
	boom := errors.New("connection reset")

	_, err := svc.Claim(context.Background(), corenumerator.KindReturn, func(context.Context, corenumerator.Number) error {
		return boom
	})

	assert.ErrorIs(t, err, boom)
}

func TestService_Claim_ExhaustedOnPersistentDuplicates(t *testing.T) {
	svc := New(newMemStore(), testConfig()).WithClock(fixedClock)
	calls := 0

	_, err := svc.Claim(context.Background(), corenumerator.KindReturn, func(_ context.Context, n corenumerator.Number) error {
		calls++
		return apperror.NewDuplicate("return", "number", n.Value)
	})

	assert.True(t, apperror.HasCode(err, apperror.CodeNumberingExhausted))
	assert.Equal(t, corenumerator.MaxAttempts, calls)
}

func TestService_Claim_ConcurrentCallersGetDistinctNumbers(t *testing.T) {
	store := newMemStore()
	svc := New(store, testConfig()).WithClock(fixedClock)
	ctx := context.Background()

	const workers = 8
	var wg sync.WaitGroup
	results := make(chan string, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := svc.Claim(ctx, corenumerator.KindOrder, func(_ context.Context, n corenumerator.Number) error {
				return store.insert(corenumerator.KindOrder, n)
			})
			if assert.NoError(t, err) {
				results <- n.Value
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[string]struct{})
	for v := range results {
		_, dup := seen[v]
		assert.False(t, dup, "duplicate number %s", v)
		seen[v] = struct{}{}
	}
	assert.Len(t, seen, workers)
}

func TestService_SetConfig(t *testing.T) {
	svc := New(newMemStore(), testConfig()).WithClock(fixedClock)
	ctx := context.Background()

	cfg := testConfig()
	cfg.Order.Prefix = "PO"
	cfg.Order.Format = corenumerator.FormatPrefixNumber
	require.NoError(t, svc.SetConfig(cfg))

	n, err := svc.Next(ctx, corenumerator.KindOrder)
	require.NoError(t, err)
	assert.Equal(t, "PO-001", n.Value)

	broken := testConfig()
	broken.Order.Format = "nonsense"
	assert.Error(t, svc.SetConfig(broken))

	n, err = svc.Next(ctx, corenumerator.KindOrder)
	require.NoError(t, err)
	assert.Equal(t, "PO-001", n.Value)
}
