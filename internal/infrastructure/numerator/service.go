// Package numerator implements core/numerator.Generator on top of the
// document tables themselves: the next counter is derived from the last
// stored number, so no sequence table or lock is involved.
package numerator

import (
	"context"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"stockflow/internal/core/apperror"
	corenumerator "stockflow/internal/core/numerator"
	"stockflow/pkg/logger"
)

// Store answers the two questions numbering needs from persisted documents.
type Store interface {
	// LastSequence returns the highest counter stored for kind under scope, 0 if none.
	LastSequence(ctx context.Context, kind corenumerator.Kind, scope string) (int64, error)
	// Exists reports whether value is already used by kind.
	Exists(ctx context.Context, kind corenumerator.Kind, value string) (bool, error)
}

// Service issues document numbers optimistically.
//
// Uniqueness is probabilistic until the insert: a candidate is checked
// against the store, and a racing writer can still take it before our row
// lands. The unique index is the final arbiter and Claim retries on its
// rejection, bounded by MaxAttempts.
type Service struct {
	store  Store
	cfg    atomic.Pointer[corenumerator.NumberingConfig]
	now    func() time.Time
	random func() int
}

var _ corenumerator.Generator = (*Service)(nil)

// New creates a numbering service.
func New(store Store, cfg corenumerator.NumberingConfig) *Service {
	s := &Service{
		store:  store,
		now:    time.Now,
		random: func() int { return rand.IntN(1_000_000) },
	}
	s.cfg.Store(&cfg)
	return s
}

// SetConfig replaces the numbering configuration for subsequent numbers.
func (s *Service) SetConfig(cfg corenumerator.NumberingConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.cfg.Store(&cfg)
	return nil
}

// WithClock replaces the time source used for the date component.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// WithRandom replaces the source of the randomized fallback.
func (s *Service) WithRandom(random func() int) *Service {
	s.random = random
	return s
}

// Next implements corenumerator.Generator.
func (s *Service) Next(ctx context.Context, kind corenumerator.Kind) (corenumerator.Number, error) {
	cfg := s.cfg.Load().For(kind)
	date := s.now()

	for attempt := 0; attempt < corenumerator.MaxAttempts; attempt++ {
		candidate, err := s.candidate(ctx, kind, cfg, date, attempt)
		if err != nil {
			return corenumerator.Number{}, err
		}

		exists, err := s.store.Exists(ctx, kind, candidate.Value)
		if err != nil {
			return corenumerator.Number{}, err
		}
		if !exists {
			return candidate, nil
		}

		logger.Debug(ctx, "document number collision",
			"kind", kind,
			"number", candidate.Value,
			"attempt", attempt+1,
		)
	}

	return corenumerator.Number{}, apperror.NewNumberingExhausted(string(kind), corenumerator.MaxAttempts)
}

// candidate builds the sequential number on the first attempt and the
// randomized fallback afterwards, or always when auto-generation is off.
func (s *Service) candidate(ctx context.Context, kind corenumerator.Kind, cfg corenumerator.Config, date time.Time, attempt int) (corenumerator.Number, error) {
	if attempt > 0 || !cfg.AutoGenerate {
		return cfg.Randomized(date, s.random()), nil
	}

	last, err := s.store.LastSequence(ctx, kind, cfg.Scope(date))
	if err != nil {
		return corenumerator.Number{}, err
	}
	return cfg.Sequential(date, last+1), nil
}

// Claim implements corenumerator.Generator.
func (s *Service) Claim(
	ctx context.Context,
	kind corenumerator.Kind,
	insert func(ctx context.Context, n corenumerator.Number) error,
) (corenumerator.Number, error) {
	for attempt := 1; attempt <= corenumerator.MaxAttempts; attempt++ {
		n, err := s.Next(ctx, kind)
		if err != nil {
			return corenumerator.Number{}, err
		}

		err = insert(ctx, n)
		if err == nil {
			return n, nil
		}
		if !apperror.IsDuplicate(err) {
			return corenumerator.Number{}, err
		}

		logger.Warn(ctx, "document number taken concurrently, regenerating",
			"kind", kind,
			"number", n.Value,
			"attempt", attempt,
		)
	}

	return corenumerator.Number{}, apperror.NewNumberingExhausted(string(kind), corenumerator.MaxAttempts)
}
