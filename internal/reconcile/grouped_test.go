package reconcile

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashmarket/discount-sync/internal/importer"
	"github.com/ashmarket/discount-sync/internal/pricing"
	"github.com/ashmarket/discount-sync/internal/report"
)

func fixedClock() time.Time {
	return time.Date(2026, 8, 28, 14, 30, 0, 0, time.Local)
}

func newGrouped(rules *mockRuleStore, catalog *mockCatalog, prices *mockPrices, rep *report.Collector) *Grouped {
	return &Grouped{
		SiteID:  "s1",
		Rules:   rules,
		Catalog: catalog,
		Prices:  prices,
		Report:  rep,
		Logger:  zerolog.Nop(),
		Now:     fixedClock,
	}
}

func TestGroupedSharedBucket(t *testing.T) {
	rules := newMockRuleStore()
	catalog := newMockCatalog(map[string]int64{"X1": 101, "X2": 102})
	prices := newMockPrices(map[int64]decimal.Decimal{101: d("200"), 102: d("400")})
	rep := report.NewCollector()

	// both records floor to 25% and share the default window -> one bucket
	err := newGrouped(rules, catalog, prices, rep).Run(context.Background(), []importer.Record{
		record("X1", "150", 0),
		record("X2", "300", 1),
	})
	require.NoError(t, err)

	require.Len(t, rules.created, 1)
	created := rules.created[0]

	startOfToday := time.Date(2026, 8, 28, 0, 0, 0, 0, time.Local)
	wantName := GroupedRuleName(25, startOfToday, groupedFarFuture())
	assert.Equal(t, wantName, created.Name)
	assert.Equal(t, wantName, created.GroupKey)
	assert.Equal(t, UnitPercent, created.DiscountUnit)
	assert.True(t, created.DiscountValue.Equal(d("25")))
	assert.Equal(t, 250, created.Priority)
	assert.Equal(t, pricing.GroupedSortIndex, created.Sort)

	// both products carry the shared bucket key
	assert.Equal(t, wantName, catalog.groupKeys[101])
	assert.Equal(t, wantName, catalog.groupKeys[102])

	summary := entriesOfKind(rep, report.KindNotice)
	require.Len(t, summary, 1)
	assert.Equal(t, 10, summary[0].Weight)
	assert.Equal(t, "2 input records produced 1 rules", summary[0].Message)
}

func TestGroupedSecondRunIsIdempotent(t *testing.T) {
	catalog := newMockCatalog(map[string]int64{"X1": 101, "X2": 102})
	prices := newMockPrices(map[int64]decimal.Decimal{101: d("200"), 102: d("100")})
	records := []importer.Record{
		record("X1", "150", 0),
		record("X2", "80", 1),
	}

	first := newMockRuleStore()
	err := newGrouped(first, catalog, prices, report.NewCollector()).Run(context.Background(), records)
	require.NoError(t, err)
	require.Len(t, first.created, 2)

	// second run sees the rules the first run created
	var existing []ExistingRule
	for i, spec := range first.created {
		existing = append(existing, ExistingRule{ID: first.createdIDs[i], Name: spec.Name})
	}
	second := newMockRuleStore(existing...)
	rep := report.NewCollector()
	err = newGrouped(second, catalog, prices, rep).Run(context.Background(), records)
	require.NoError(t, err)

	assert.Empty(t, second.created, "second run must not create rules")
	assert.Empty(t, second.deleted, "second run must not delete rules")

	// existing buckets are logged as informational updates, no mutation
	updates := entriesOfKind(rep, report.KindUpdate)
	require.Len(t, updates, 2)
	for _, e := range updates {
		assert.Equal(t, 800, e.Weight)
	}
}

func TestGroupedNonPositiveDiscountSkipsRuleButClearsTag(t *testing.T) {
	rules := newMockRuleStore()
	catalog := newMockCatalog(map[string]int64{"X1": 101})
	catalog.groupKeys[101] = "stale-key-from-last-run"
	prices := newMockPrices(map[int64]decimal.Decimal{101: d("100")})
	rep := report.NewCollector()

	err := newGrouped(rules, catalog, prices, rep).Run(context.Background(), []importer.Record{
		record("X1", "100", 0), // target equals base -> 0%
	})
	require.NoError(t, err)

	assert.Empty(t, rules.created)

	notices := entriesOfKind(rep, report.KindNotice)
	require.Len(t, notices, 2) // run summary + zero-discount notice
	assert.Equal(t, 10, notices[0].Weight)
	assert.Equal(t, "1 input records produced 0 rules", notices[0].Message)
	assert.Equal(t, 200, notices[1].Weight)
	assert.Contains(t, notices[1].Message, "base price 100, new price 100")

	// the product was not touched, so its stale tag is gone
	require.Len(t, catalog.clearedKeep, 1)
	assert.Empty(t, catalog.clearedKeep[0])
	assert.NotContains(t, catalog.groupKeys, int64(101))
}

func TestGroupedDistinctWindowsDistinctBuckets(t *testing.T) {
	rules := newMockRuleStore()
	catalog := newMockCatalog(map[string]int64{"X1": 101, "X2": 102})
	prices := newMockPrices(map[int64]decimal.Decimal{101: d("200"), 102: d("200")})
	rep := report.NewCollector()

	from := time.Date(2026, 9, 1, 0, 0, 0, 0, time.Local)
	to := time.Date(2026, 9, 30, 23, 59, 0, 0, time.Local)

	windowed := record("X1", "150", 0)
	windowed.ActiveFrom = &from
	windowed.ActiveTo = &to
	open := record("X2", "150", 1)

	err := newGrouped(rules, catalog, prices, rep).Run(context.Background(), []importer.Record{windowed, open})
	require.NoError(t, err)

	require.Len(t, rules.created, 2)
	assert.Equal(t, GroupedRuleName(25, from, to), catalog.groupKeys[101])
	assert.NotEqual(t, catalog.groupKeys[101], catalog.groupKeys[102])
}

func TestGroupedDeletesStaleRules(t *testing.T) {
	stale := ExistingRule{ID: "rule-stale", Name: GroupedPrefix + " 99% 01.01.25 00:00:00 - 31.12.25 23:59:59"}
	rules := newMockRuleStore(stale)
	catalog := newMockCatalog(map[string]int64{"X1": 101})
	prices := newMockPrices(map[int64]decimal.Decimal{101: d("200")})
	rep := report.NewCollector()

	err := newGrouped(rules, catalog, prices, rep).Run(context.Background(), []importer.Record{
		record("X1", "150", 0),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"rule-stale"}, rules.deleted)
	require.Len(t, rules.created, 1)

	deletes := entriesOfKind(rep, report.KindDelete)
	require.Len(t, deletes, 1)
	assert.Equal(t, 900, deletes[0].Weight)
}

func TestGroupedUnknownSKUSkipped(t *testing.T) {
	rules := newMockRuleStore()
	catalog := newMockCatalog(nil)
	prices := newMockPrices(nil)
	rep := report.NewCollector()

	err := newGrouped(rules, catalog, prices, rep).Run(context.Background(), []importer.Record{
		record("NOPE", "10", 5),
	})
	require.NoError(t, err)

	notFound := entriesOfKind(rep, report.KindNotFound)
	require.Len(t, notFound, 1)
	assert.Equal(t, 5, notFound[0].RowIndex)
	assert.Empty(t, rules.created)
}

func TestGroupedBucketsSortedByDiscount(t *testing.T) {
	rules := newMockRuleStore()
	catalog := newMockCatalog(map[string]int64{"X1": 101, "X2": 102})
	prices := newMockPrices(map[int64]decimal.Decimal{101: d("200"), 102: d("200")})
	rep := report.NewCollector()

	err := newGrouped(rules, catalog, prices, rep).Run(context.Background(), []importer.Record{
		record("X1", "100", 0), // 50%
		record("X2", "150", 1), // 25%
	})
	require.NoError(t, err)

	require.Len(t, rules.created, 2)
	assert.True(t, rules.created[0].DiscountValue.Equal(d("25")))
	assert.True(t, rules.created[1].DiscountValue.Equal(d("50")))
}

func TestGroupedRuleName(t *testing.T) {
	from := time.Date(2026, 2, 1, 10, 0, 0, 0, time.Local)
	to := time.Date(2026, 2, 28, 23, 59, 0, 0, time.Local)

	name := GroupedRuleName(24, from, to)
	assert.Equal(t, fmt.Sprintf("%s 24%% 01.02.26 10:00:00 - 28.02.26 23:59:00", GroupedPrefix), name)
}
