// Package types provides money helpers shared by orders and returns.
package types

import (
	"github.com/shopspring/decimal"
)

// MoneyPlaces is the scale of stored cost prices and totals (NUMERIC(15,2)).
const MoneyPlaces = 2

// Money represents a monetary value with full precision.
type Money = decimal.Decimal

// NewMoneyFromString creates a Money value from a string.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

// LineTotal returns quantity * price rounded to MoneyPlaces.
func LineTotal(quantity int64, price Money) Money {
	return price.Mul(decimal.NewFromInt(quantity)).Round(MoneyPlaces)
}

// Totals accumulates the item count and amount of a document.
type Totals struct {
	Items  int64
	Amount Money
}

// Add accounts for one line.
func (t *Totals) Add(quantity int64, price Money) {
	t.Items += quantity
	t.Amount = t.Amount.Add(LineTotal(quantity, price))
}
