package reconcile

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ashmarket/discount-sync/internal/importer"
	"github.com/ashmarket/discount-sync/internal/pricing"
	"github.com/ashmarket/discount-sync/internal/report"
)

const (
	// GroupedPrefix namespaces every rule owned by the grouped variant.
	GroupedPrefix = "$AUTO_EXCEL_FLOOR"

	groupedNameFormat  = "$AUTO_EXCEL_FLOOR %d%% %s - %s"
	groupKeyDateLayout = "02.01.06 15:04:05"
	variantGrouped     = "grouped"
)

// groupedFarFuture is the sentinel end of window for records without an
// explicit one; grouping keys embed the window, so it must be concrete.
func groupedFarFuture() time.Time {
	return time.Date(2099, time.December, 31, 23, 59, 59, 0, time.Local)
}

// GroupedRuleName derives the bucket key and rule name for one unique
// (whole-percent discount, window) combination.
func GroupedRuleName(discount int64, from, to time.Time) string {
	return fmt.Sprintf(groupedNameFormat, discount, from.Format(groupKeyDateLayout), to.Format(groupKeyDateLayout))
}

// member is one product belonging to a discount bucket.
type member struct {
	productID int64
	sku       string
}

// bucket collects the products sharing one (discount, window) combination.
// Buckets are rebuilt from scratch every run and persisted only indirectly:
// through the products' group-key attribute and the rule's condition value.
type bucket struct {
	discount int64
	from     time.Time
	to       time.Time
	members  []member
}

// Grouped reconciles one rule per unique (discount, window) bucket: every
// qualifying product is tagged with the bucket key, and the rule's condition
// matches that key instead of individual products.
type Grouped struct {
	SiteID  string
	Rules   RuleStore
	Catalog ProductCatalog
	Prices  PriceLookup
	Report  *report.Collector
	Logger  zerolog.Logger

	// Now supplies the clock for default activity windows; nil means
	// time.Now.
	Now func() time.Time
}

// Run executes one reconciliation pass over the filtered records.
func (g *Grouped) Run(ctx context.Context, records []importer.Record) error {
	start := time.Now()
	defer func() {
		runDuration.WithLabelValues(variantGrouped).Observe(time.Since(start).Seconds())
	}()
	recordsProcessed.WithLabelValues(variantGrouped).Add(float64(len(records)))

	now := time.Now()
	if g.Now != nil {
		now = g.Now()
	}
	startOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	farFuture := groupedFarFuture()

	idsBySKU, err := resolveRecordIDs(ctx, g.Catalog, records)
	if err != nil {
		return err
	}

	engine, err := newRunEngine(ctx, g.Prices, idsBySKU)
	if err != nil {
		return err
	}

	buckets := make(map[string]*bucket)
	var touched []int64
	for _, rec := range records {
		productID, found := idsBySKU[rec.SKU]
		if !found {
			g.Report.Addf(report.KindNotFound, 110, rec.RowIndex, rec.SKU, "Product not found")
			continue
		}

		from := startOfToday
		if rec.ActiveFrom != nil {
			from = *rec.ActiveFrom
		}
		to := farFuture
		if rec.ActiveTo != nil {
			to = *rec.ActiveTo
		}

		quote := engine.FloorQuote(productID, rec.TargetPrice)
		discount := quote.Discount.IntPart()
		if discount <= 0 {
			// No rule membership, and the product is deliberately left out
			// of the touched set so its stale tag gets cleared below.
			g.Report.Addf(report.KindNotice, 200, rec.RowIndex, rec.SKU,
				"Discount not applied: zero or negative discount: %d%%; base price %s, new price %s",
				discount, engine.BasePrice(productID), rec.TargetPrice)
			continue
		}

		key := GroupedRuleName(discount, from, to)
		b, exists := buckets[key]
		if !exists {
			b = &bucket{discount: discount, from: from, to: to}
			buckets[key] = b
		}
		b.members = append(b.members, member{productID: productID, sku: rec.SKU})

		if err := g.Catalog.SetGroupKey(ctx, productID, key); err != nil {
			g.Logger.Error().Err(err).Int64("product_id", productID).Str("sku", rec.SKU).Msg("group key tagging failed")
		}
		touched = append(touched, productID)
	}

	// Idempotent cleanup: every product not tagged this run loses its key.
	if err := g.Catalog.ClearGroupKeysExcept(ctx, touched); err != nil {
		g.Logger.Error().Err(err).Msg("stale group key cleanup failed")
	}

	existing, err := g.Rules.ListByNamePrefix(ctx, g.SiteID, GroupedPrefix)
	if err != nil {
		return fmt.Errorf("failed to list existing rules: %w", err)
	}
	existingByName := indexByName(existing)

	wanted := make(map[string]struct{}, len(buckets))
	for key := range buckets {
		wanted[key] = struct{}{}
	}
	deleteStale(ctx, g.Rules, g.Report, g.Logger, variantGrouped, existing, wanted)

	keys := make([]string, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if buckets[keys[i]].discount != buckets[keys[j]].discount {
			return buckets[keys[i]].discount < buckets[keys[j]].discount
		}
		return keys[i] < keys[j]
	})

	for _, key := range keys {
		b := buckets[key]
		products := describeMembers(b.members)

		if ruleID, exists := existingByName[key]; exists {
			// The bucket key is the condition value itself, so an existing
			// rule needs no field changes; membership lives on the products.
			g.Report.Addf(report.KindUpdate, 800, 0, "",
				"Discount already exists. Rule ID: %s; name %q; products: %s", ruleID, key, products)
			continue
		}

		from := b.from
		to := b.to
		spec := RuleSpec{
			Name:          key,
			SiteID:        g.SiteID,
			GroupKey:      key,
			DiscountValue: decimal.NewFromInt(b.discount),
			DiscountUnit:  UnitPercent,
			Priority:      int(b.discount) * 10,
			Sort:          pricing.GroupedSortIndex,
			ActiveFrom:    &from,
			ActiveTo:      &to,
			UserGroups:    []string{UserGroupAll},
		}

		ruleID, err := g.Rules.Create(ctx, spec)
		if err != nil {
			ruleMutationErrors.WithLabelValues(variantGrouped, "add").Inc()
			g.Logger.Error().Err(err).Str("rule_name", key).Msg("rule create failed")
			g.Report.Addf(report.KindError, 120, 0, "", "Discount not added; name %q; products: %s", key, products)
			continue
		}
		ruleMutations.WithLabelValues(variantGrouped, "add").Inc()
		g.Report.Addf(report.KindAdd, 700, 0, "",
			"Discount added. Rule ID: %s; name %q; discount: %d%%; products: %s", ruleID, key, b.discount, products)
	}

	g.Report.Addf(report.KindNotice, 10, 0, "", "%d input records produced %d rules", len(records), len(buckets))

	invalidateCatalogCache(ctx, g.Catalog, g.Logger, g.SiteID)

	return nil
}

func describeMembers(members []member) string {
	parts := make([]string, 0, len(members))
	for _, m := range members {
		parts = append(parts, fmt.Sprintf("productID_%d=>sku_%s", m.productID, m.sku))
	}
	return strings.Join(parts, ", ")
}
