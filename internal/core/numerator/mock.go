package numerator

import (
	"context"
	"fmt"
	"sync"
)

// MockGenerator is an in-memory Generator for service tests.
// It issues PREFIX-000001 style numbers per kind.
type MockGenerator struct {
	mu       sync.Mutex
	counters map[Kind]int64

	// NextFunc overrides number generation when set.
	NextFunc func(ctx context.Context, kind Kind) (Number, error)
}

// NewMockGenerator creates a MockGenerator.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{counters: make(map[Kind]int64)}
}

// Next implements Generator.
func (m *MockGenerator) Next(ctx context.Context, kind Kind) (Number, error) {
	if m.NextFunc != nil {
		return m.NextFunc(ctx, kind)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[kind]++
	seq := m.counters[kind]
	scope := fmt.Sprintf("%s-", kind)
	return Number{Value: fmt.Sprintf("%s%06d", scope, seq), Scope: scope, Seq: &seq}, nil
}

// Claim implements Generator with a single attempt.
func (m *MockGenerator) Claim(ctx context.Context, kind Kind, insert func(ctx context.Context, n Number) error) (Number, error) {
	n, err := m.Next(ctx, kind)
	if err != nil {
		return Number{}, err
	}
	return n, insert(ctx, n)
}

var _ Generator = (*MockGenerator)(nil)
