package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ashmarket/discount-sync/internal/importer"
	"github.com/ashmarket/discount-sync/internal/report"
)

const (
	// DirectPrefix namespaces every rule owned by the direct variant; only
	// names under this prefix are ever listed, updated or deleted.
	DirectPrefix = "$AUTO_EXCEL"

	directNameFormat = "$AUTO_EXCEL{%s}[%d]"
	variantDirect    = "direct"
)

// DirectRuleName derives the stable reconciliation key for one product.
// SKU and product id together make the name re-discoverable across runs.
func DirectRuleName(sku string, productID int64) string {
	return fmt.Sprintf(directNameFormat, sku, productID)
}

// Direct reconciles one rule per product: the rule sets the absolute final
// price from the spreadsheet, with priority and sort derived from the
// current base price.
type Direct struct {
	SiteID  string
	Rules   RuleStore
	Catalog ProductCatalog
	Prices  PriceLookup
	Report  *report.Collector
	Logger  zerolog.Logger
}

// Run executes one reconciliation pass over the filtered records. Batch
// lookups failing is fatal; a single record's resolution or persistence
// failure is reported and processing continues.
func (d *Direct) Run(ctx context.Context, records []importer.Record) error {
	start := time.Now()
	defer func() {
		runDuration.WithLabelValues(variantDirect).Observe(time.Since(start).Seconds())
	}()
	recordsProcessed.WithLabelValues(variantDirect).Add(float64(len(records)))

	existing, err := d.Rules.ListByNamePrefix(ctx, d.SiteID, DirectPrefix)
	if err != nil {
		return fmt.Errorf("failed to list existing rules: %w", err)
	}
	existingByName := indexByName(existing)

	idsBySKU, err := resolveRecordIDs(ctx, d.Catalog, records)
	if err != nil {
		return err
	}

	engine, err := newRunEngine(ctx, d.Prices, idsBySKU)
	if err != nil {
		return err
	}

	wanted := make(map[string]struct{}, len(records))
	for _, rec := range records {
		productID, found := idsBySKU[rec.SKU]
		if !found {
			d.Report.Addf(report.KindNotFound, 110, rec.RowIndex, rec.SKU, "Product not found")
			continue
		}

		quote := engine.DirectQuote(productID, rec.TargetPrice)
		name := DirectRuleName(rec.SKU, productID)

		// The name is claimed before the store call so a failed write does
		// not get its rule deleted as stale later in the same run.
		wanted[name] = struct{}{}

		if quote.Discount.Sign() <= 0 {
			d.Report.Addf(report.KindNotice, 200, rec.RowIndex, rec.SKU,
				"Rule written but discount not effective: zero or negative discount: %s%%", quote.Discount)
		}

		spec := RuleSpec{
			Name:          name,
			SiteID:        d.SiteID,
			ProductID:     productID,
			DiscountValue: rec.TargetPrice,
			DiscountUnit:  UnitAbsolute,
			Priority:      quote.Priority,
			Sort:          quote.Sort,
			ActiveFrom:    rec.ActiveFrom,
			ActiveTo:      rec.ActiveTo,
			UserGroups:    []string{UserGroupAll},
		}

		if ruleID, exists := existingByName[name]; exists {
			if err := d.Rules.Update(ctx, ruleID, spec); err != nil {
				ruleMutationErrors.WithLabelValues(variantDirect, "update").Inc()
				d.Logger.Error().Err(err).Str("rule_id", ruleID).Str("sku", rec.SKU).Msg("rule update failed")
				d.Report.Addf(report.KindError, 130, rec.RowIndex, rec.SKU, "Rule ID: %s; discount not updated", ruleID)
				continue
			}
			ruleMutations.WithLabelValues(variantDirect, "update").Inc()
			d.Report.Addf(report.KindUpdate, 800, rec.RowIndex, rec.SKU,
				"Discount updated. Rule ID: %s; priority: %d; discount: %s%%", ruleID, quote.Priority, quote.Discount)
			continue
		}

		ruleID, err := d.Rules.Create(ctx, spec)
		if err != nil {
			ruleMutationErrors.WithLabelValues(variantDirect, "add").Inc()
			d.Logger.Error().Err(err).Str("sku", rec.SKU).Msg("rule create failed")
			d.Report.Addf(report.KindError, 120, rec.RowIndex, rec.SKU, "Discount not added")
			continue
		}
		ruleMutations.WithLabelValues(variantDirect, "add").Inc()
		d.Report.Addf(report.KindAdd, 700, rec.RowIndex, rec.SKU,
			"Discount added. Rule ID: %s; product ID: %d; priority: %d; discount: %s%%",
			ruleID, productID, quote.Priority, quote.Discount)
	}

	deleteStale(ctx, d.Rules, d.Report, d.Logger, variantDirect, existing, wanted)

	invalidateCatalogCache(ctx, d.Catalog, d.Logger, d.SiteID)

	return nil
}
