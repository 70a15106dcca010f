package domaintest

import (
	"context"
	"slices"
	"sync"

	"stockflow/internal/domain/activity"
)

// ActivitySink collects activity entries. Setting Err makes every insert fail.
type ActivitySink struct {
	mu      sync.Mutex
	entries []activity.Entry
	Err     error
}

// Insert implements activity.Sink.
func (s *ActivitySink) Insert(_ context.Context, e *activity.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.entries = append(s.entries, *e)
	return nil
}

// Entries returns the recorded entries in order.
func (s *ActivitySink) Entries() []activity.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.entries)
}

// Actions returns the actions of the recorded entries in order.
func (s *ActivitySink) Actions() []activity.Action {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]activity.Action, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.Action
	}
	return out
}

var _ activity.Sink = (*ActivitySink)(nil)
