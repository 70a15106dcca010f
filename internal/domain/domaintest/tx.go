// Package domaintest provides in-memory fakes of the repositories and the
// transaction manager for service tests.
package domaintest

import (
	"context"
	"sync"
)

// Snapshotter is a fake store that can restore an earlier state.
type Snapshotter interface {
	// Snapshot captures the current state and returns a function restoring it.
	Snapshot() (restore func())
}

type txKey struct{}

// TxManager runs functions inline. Top-level transactions are serialized,
// which stands in for row locks, and a failing function rolls every
// registered store back to its state at the start of the transaction or
// savepoint.
type TxManager struct {
	mu     sync.Mutex
	stores []Snapshotter

	statsMu   sync.Mutex
	commits   int
	rollbacks int
}

// NewTxManager creates a TxManager over stores.
func NewTxManager(stores ...Snapshotter) *TxManager {
	return &TxManager{stores: stores}
}

// RunInTransaction implements tx.Manager.
func (m *TxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.run(context.WithValue(ctx, txKey{}, true), fn)
}

// RunNested implements tx.Manager.
func (m *TxManager) RunNested(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) == nil {
		return m.RunInTransaction(ctx, fn)
	}
	return m.run(ctx, fn)
}

func (m *TxManager) run(ctx context.Context, fn func(ctx context.Context) error) error {
	restores := make([]func(), len(m.stores))
	for i, s := range m.stores {
		restores[i] = s.Snapshot()
	}

	if err := fn(ctx); err != nil {
		for i := len(restores) - 1; i >= 0; i-- {
			restores[i]()
		}
		m.statsMu.Lock()
		m.rollbacks++
		m.statsMu.Unlock()
		return err
	}

	m.statsMu.Lock()
	m.commits++
	m.statsMu.Unlock()
	return nil
}

// Rollbacks returns how many transactions or savepoints were rolled back.
func (m *TxManager) Rollbacks() int {
	m.statsMu.Lock()
	defer m.statsMu.Unlock()
	return m.rollbacks
}

// Commits returns how many transactions or savepoints succeeded.
func (m *TxManager) Commits() int {
	m.statsMu.Lock()
	defer m.statsMu.Unlock()
	return m.commits
}
