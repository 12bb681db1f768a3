package reconcile

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ashmarket/discount-sync/internal/importer"
	"github.com/ashmarket/discount-sync/internal/pricing"
	"github.com/ashmarket/discount-sync/internal/report"
)

// resolveRecordIDs batch-resolves the SKUs of all records to product ids.
func resolveRecordIDs(ctx context.Context, catalog ProductCatalog, records []importer.Record) (map[string]int64, error) {
	skus := make([]string, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for _, rec := range records {
		if _, dup := seen[rec.SKU]; dup {
			continue
		}
		seen[rec.SKU] = struct{}{}
		skus = append(skus, rec.SKU)
	}

	ids, err := catalog.ResolveIDs(ctx, skus)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve product ids: %w", err)
	}
	return ids, nil
}

// newRunEngine fetches base prices for every resolved product in one batch
// and builds the pricing engine for the run.
func newRunEngine(ctx context.Context, prices PriceLookup, idsBySKU map[string]int64) (*pricing.Engine, error) {
	productIDs := make([]int64, 0, len(idsBySKU))
	for _, id := range idsBySKU {
		productIDs = append(productIDs, id)
	}

	basePrices, err := prices.BatchGetBasePrices(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch base prices: %w", err)
	}
	return pricing.NewEngine(basePrices), nil
}

// indexByName maps existing rules by their (unique) name.
func indexByName(existing []ExistingRule) map[string]string {
	byName := make(map[string]string, len(existing))
	for _, rule := range existing {
		byName[rule.Name] = rule.ID
	}
	return byName
}

// deleteStale removes every existing rule whose name is not wanted anymore.
// A failed delete is reported and the remaining deletions continue.
func deleteStale(ctx context.Context, rules RuleStore, rep *report.Collector, logger zerolog.Logger, variant string, existing []ExistingRule, wanted map[string]struct{}) {
	for _, rule := range existing {
		if _, keep := wanted[rule.Name]; keep {
			continue
		}

		if err := rules.Delete(ctx, rule.ID); err != nil {
			ruleMutationErrors.WithLabelValues(variant, "delete").Inc()
			logger.Error().Err(err).Str("rule_id", rule.ID).Str("rule_name", rule.Name).Msg("rule delete failed")
			rep.Addf(report.KindError, 140, 0, "", "Rule ID: %s; discount not deleted, name %q", rule.ID, rule.Name)
			continue
		}

		ruleMutations.WithLabelValues(variant, "delete").Inc()
		rep.Addf(report.KindDelete, 900, 0, "", "Discount deleted. Rule ID: %s; name %q", rule.ID, rule.Name)
	}
}

// invalidateCatalogCache requests external cache invalidation; a failure is
// logged but never fails the run.
func invalidateCatalogCache(ctx context.Context, catalog ProductCatalog, logger zerolog.Logger, scope string) {
	if err := catalog.InvalidateCache(ctx, scope); err != nil {
		logger.Warn().Err(err).Str("scope", scope).Msg("catalog cache invalidation failed")
	}
}
