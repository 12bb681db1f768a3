package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestDirectQuote(t *testing.T) {
	engine := NewEngine(map[int64]decimal.Decimal{101: d("200")})

	q := engine.DirectQuote(101, d("150"))

	assert.True(t, q.Discount.Equal(d("25")), "got %s", q.Discount)
	assert.Equal(t, 250, q.Priority)
	assert.Equal(t, 150, q.Sort)
}

func TestDirectQuoteRoundsHalfAwayFromZero(t *testing.T) {
	// (200 - 149.99) / 200 * 100 = 25.005 -> 25.01
	engine := NewEngine(map[int64]decimal.Decimal{101: d("200")})

	q := engine.DirectQuote(101, d("149.99"))

	assert.True(t, q.Discount.Equal(d("25.01")), "got %s", q.Discount)
	assert.Equal(t, 250, q.Priority)
	assert.Equal(t, 149, q.Sort)
}

func TestDirectQuoteZeroBasePrice(t *testing.T) {
	engine := NewEngine(map[int64]decimal.Decimal{101: d("0"), 102: d("-5")})

	for _, id := range []int64{101, 102, 999} {
		q := engine.DirectQuote(id, d("150"))
		assert.True(t, q.Discount.IsZero())
		assert.Equal(t, 1, q.Priority)
	}
}

func TestDirectQuotePriorityClampedToOne(t *testing.T) {
	engine := NewEngine(map[int64]decimal.Decimal{101: d("100")})

	// target above base -> negative discount, priority still 1
	q := engine.DirectQuote(101, d("120"))
	assert.True(t, q.Discount.Equal(d("-20")))
	assert.Equal(t, 1, q.Priority)
}

func TestFloorQuoteRoundsDown(t *testing.T) {
	// (199.99 - 150) / 199.99 * 100 = 24.995... -> 24, not 25
	engine := NewEngine(map[int64]decimal.Decimal{101: d("199.99")})

	q := engine.FloorQuote(101, d("150"))

	assert.True(t, q.Discount.Equal(d("24")), "got %s", q.Discount)
	assert.Equal(t, 240, q.Priority)
	assert.Equal(t, GroupedSortIndex, q.Sort)
}

func TestFloorQuoteExactPercent(t *testing.T) {
	engine := NewEngine(map[int64]decimal.Decimal{101: d("200")})

	q := engine.FloorQuote(101, d("150"))

	assert.True(t, q.Discount.Equal(d("25")), "got %s", q.Discount)
	assert.Equal(t, 250, q.Priority)
}

func TestFloorQuoteNonPositive(t *testing.T) {
	engine := NewEngine(map[int64]decimal.Decimal{101: d("100")})

	equal := engine.FloorQuote(101, d("100"))
	assert.True(t, equal.Discount.IsZero())
	assert.Equal(t, 0, equal.Priority)

	above := engine.FloorQuote(101, d("110"))
	assert.True(t, above.Discount.Sign() < 0)
}

func TestFloorQuoteZeroBasePrice(t *testing.T) {
	engine := NewEngine(nil)

	q := engine.FloorQuote(101, d("50"))
	assert.True(t, q.Discount.IsZero())
	assert.Equal(t, 0, q.Priority)
	assert.Equal(t, GroupedSortIndex, q.Sort)
}
