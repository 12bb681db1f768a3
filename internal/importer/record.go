package importer

import (
	"time"

	"github.com/shopspring/decimal"
)

// Record is one validated spreadsheet row. TargetPrice is the final
// discounted price, not a percentage. Records are immutable after the
// filter stage and live only for the duration of one run.
type Record struct {
	SKU         string
	TargetPrice decimal.Decimal
	ActiveFrom  *time.Time
	ActiveTo    *time.Time
	CategoryID  *int64
	RowIndex    int
}
