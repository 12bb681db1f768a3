package reconcile

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ashmarket/discount-sync/internal/report"
)

// Purge deletes every rule owned by the given name prefix, regardless of the
// current spreadsheet content, and invalidates the catalog cache. Returns
// the ids of the rules that were deleted; individual delete failures are
// reported and do not stop the remaining deletions.
func Purge(ctx context.Context, rules RuleStore, catalog ProductCatalog, rep *report.Collector, logger zerolog.Logger, site, prefix string) ([]string, error) {
	existing, err := rules.ListByNamePrefix(ctx, site, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list existing rules: %w", err)
	}

	var deleted []string
	for _, rule := range existing {
		if err := rules.Delete(ctx, rule.ID); err != nil {
			logger.Error().Err(err).Str("rule_id", rule.ID).Str("rule_name", rule.Name).Msg("rule delete failed")
			rep.Addf(report.KindError, 190, 0, "", "Rule ID: %s; discount not deleted, name %q", rule.ID, rule.Name)
			continue
		}
		deleted = append(deleted, rule.ID)
		rep.Addf(report.KindDelete, 910, 0, "", "Discount deleted. Rule ID: %s; name %q", rule.ID, rule.Name)
	}

	invalidateCatalogCache(ctx, catalog, logger, site)

	return deleted, nil
}
