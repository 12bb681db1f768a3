package pricing

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// GroupedSortIndex is the fixed sort index shared by all grouped rules; one
// rule serves many products so per-product ordering is meaningless.
const GroupedSortIndex = 100

// Quote is the derived discount metric for one record.
type Quote struct {
	// Discount is a percentage: two decimal places under the direct
	// policy, a whole number under the floor policy.
	Discount decimal.Decimal
	Priority int
	Sort     int
}

// Engine derives discount percentages from target prices and the base
// prices fetched once per run. The single batch fetch is a correctness
// requirement, not an optimization: every record in a run must see the same
// base price.
type Engine struct {
	basePrices map[int64]decimal.Decimal
}

func NewEngine(basePrices map[int64]decimal.Decimal) *Engine {
	if basePrices == nil {
		basePrices = map[int64]decimal.Decimal{}
	}
	return &Engine{basePrices: basePrices}
}

// BasePrice returns the product's base price, or zero when it is missing or
// non-positive. Callers are expected to flag zero-base quotes rather than
// hide them.
func (e *Engine) BasePrice(productID int64) decimal.Decimal {
	base, ok := e.basePrices[productID]
	if !ok || !base.IsPositive() {
		return decimal.Zero
	}
	return base
}

// DirectQuote implements the per-product policy: the discount percent is
// rounded half away from zero to two decimals, the priority is the discount
// scaled by ten and truncated toward zero with a floor of 1, and the sort
// index is the whole part of the target price. A zero base price yields a
// zero discount instead of a division fault.
func (e *Engine) DirectQuote(productID int64, target decimal.Decimal) Quote {
	base := e.BasePrice(productID)

	discount := decimal.Zero
	if base.IsPositive() {
		discount = base.Sub(target).Div(base).Mul(hundred).Round(2)
	}

	priority := int(discount.Mul(decimal.NewFromInt(10)).IntPart())
	if priority < 1 {
		priority = 1
	}

	return Quote{
		Discount: discount,
		Priority: priority,
		Sort:     int(target.IntPart()),
	}
}

// FloorQuote implements the grouped policy: fixed-point arithmetic with a
// 2-digit subtraction, 4-digit division and 2-digit multiplication, then
// floored toward negative infinity to a whole percent. The truncation chain
// deliberately under-discounts; never replace it with float math.
func (e *Engine) FloorQuote(productID int64, target decimal.Decimal) Quote {
	base := e.BasePrice(productID)

	discount := decimal.Zero
	if base.IsPositive() {
		discount = base.Sub(target).Truncate(2).
			Div(base).Truncate(4).
			Mul(hundred).Truncate(2).
			Floor()
	}

	return Quote{
		Discount: discount,
		Priority: int(discount.IntPart()) * 10,
		Sort:     GroupedSortIndex,
	}
}
