package reconcile

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// DiscountUnit says how a rule's discount value is applied.
type DiscountUnit string

const (
	// UnitAbsolute sets the absolute final price for the product.
	UnitAbsolute DiscountUnit = "absolute"
	// UnitPercent reduces the price by a whole-number percentage.
	UnitPercent DiscountUnit = "percent"
)

// UserGroupAll is the fixed audience every generated rule targets.
const UserGroupAll = "all"

// RuleSpec is the proposed state of one pricing rule. Exactly one of
// ProductID and GroupKey is set: direct rules bind to a single product,
// grouped rules bind to every product tagged with the group key.
type RuleSpec struct {
	Name          string
	SiteID        string
	ProductID     int64
	GroupKey      string
	DiscountValue decimal.Decimal
	DiscountUnit  DiscountUnit
	Priority      int
	Sort          int
	ActiveFrom    *time.Time
	ActiveTo      *time.Time

	UserGroups        []string
	LastLevelDiscount bool
	LastDiscount      bool
}

// ExistingRule is the minimal view of a persisted rule needed for the
// name-based diff.
type ExistingRule struct {
	ID   string
	Name string
}

// RuleStore owns pricing-rule persistence. The rule name is the sole
// reconciliation key: only rules whose name carries this system's prefix
// are ever listed or touched.
type RuleStore interface {
	ListByNamePrefix(ctx context.Context, site, prefix string) ([]ExistingRule, error)
	Create(ctx context.Context, spec RuleSpec) (string, error)
	Update(ctx context.Context, id string, spec RuleSpec) error
	Delete(ctx context.Context, id string) error
}

// ProductCatalog resolves products and owns the group-key attribute.
type ProductCatalog interface {
	// ResolveIDs returns only the SKUs that matched; absence means not found.
	ResolveIDs(ctx context.Context, skus []string) (map[string]int64, error)
	// SetGroupKey tags a product with a grouping key; empty key untags.
	SetGroupKey(ctx context.Context, productID int64, key string) error
	// ClearGroupKeysExcept untags every product whose id is not in keep.
	ClearGroupKeysExcept(ctx context.Context, keep []int64) error
	// InvalidateCache asks the catalog to drop cached price displays.
	InvalidateCache(ctx context.Context, scope string) error
}

// PriceLookup serves current base prices. Missing entries mean the price is
// unknown and are treated as zero.
type PriceLookup interface {
	BatchGetBasePrices(ctx context.Context, productIDs []int64) (map[int64]decimal.Decimal, error)
}
