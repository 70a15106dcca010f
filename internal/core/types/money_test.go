package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTotals_Add(t *testing.T) {
	var totals Totals
	totals.Add(10, MustMoney("5.00"))
	totals.Add(3, MustMoney("20.00"))

	assert.Equal(t, int64(13), totals.Items)
	assert.True(t, totals.Amount.Equal(MustMoney("110.00")), "got %s", totals.Amount)
}

func TestLineTotal_Rounds(t *testing.T) {
	assert.Equal(t, "3.34", LineTotal(2, MustMoney("1.666")).StringFixed(MoneyPlaces))
	assert.True(t, LineTotal(0, MustMoney("9.99")).IsZero())
}
