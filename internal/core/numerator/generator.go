package numerator

import (
	"context"
)

// MaxAttempts bounds both the candidate search and the insert retry loop.
const MaxAttempts = 10

// Number is an issued document number.
type Number struct {
	Value string
	// Scope is the fixed part preceding the counter.
	Scope string
	// Seq is the counter, nil for randomized numbers.
	Seq *int64
}

// String implements fmt.Stringer.
func (n Number) String() string { return n.Value }

// Generator issues unique document numbers.
//
// Numbers are computed optimistically: the next counter is derived from the
// last stored number and checked for existence, without a global lock. Two
// racing callers may still compute the same candidate, so the insert that
// persists the number is retried through Claim when the unique index rejects it.
type Generator interface {
	// Next returns a number that did not exist when checked. After a
	// collision it falls back to the randomized form, and gives up with
	// NUMBERING_EXHAUSTED after MaxAttempts candidates.
	Next(ctx context.Context, kind Kind) (Number, error)

	// Claim calls insert with fresh numbers until it succeeds, returns an
	// error other than a duplicate, or MaxAttempts is reached.
	Claim(ctx context.Context, kind Kind, insert func(ctx context.Context, n Number) error) (Number, error)
}
