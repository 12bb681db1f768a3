package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var errStoreDown = errors.New("store unavailable")

// mockRuleStore is an in-memory RuleStore recording every mutation.
type mockRuleStore struct {
	existing []ExistingRule

	created    []RuleSpec
	createdIDs []string
	updated    map[string]RuleSpec
	deleted    []string

	failList   bool
	failCreate bool
	failUpdate bool
	failDelete bool
}

func newMockRuleStore(existing ...ExistingRule) *mockRuleStore {
	return &mockRuleStore{
		existing: existing,
		updated:  make(map[string]RuleSpec),
	}
}

func (m *mockRuleStore) ListByNamePrefix(ctx context.Context, site, prefix string) ([]ExistingRule, error) {
	if m.failList {
		return nil, errStoreDown
	}
	return m.existing, nil
}

func (m *mockRuleStore) Create(ctx context.Context, spec RuleSpec) (string, error) {
	if m.failCreate {
		return "", errStoreDown
	}
	id := fmt.Sprintf("rule-%d", len(m.created)+1)
	m.created = append(m.created, spec)
	m.createdIDs = append(m.createdIDs, id)
	return id, nil
}

func (m *mockRuleStore) Update(ctx context.Context, id string, spec RuleSpec) error {
	if m.failUpdate {
		return errStoreDown
	}
	m.updated[id] = spec
	return nil
}

func (m *mockRuleStore) Delete(ctx context.Context, id string) error {
	if m.failDelete {
		return errStoreDown
	}
	m.deleted = append(m.deleted, id)
	return nil
}

// mockCatalog is an in-memory ProductCatalog.
type mockCatalog struct {
	ids       map[string]int64
	groupKeys map[int64]string

	clearedKeep  [][]int64
	invalidated  []string
	failResolve  bool
	failGroupKey bool
}

func newMockCatalog(ids map[string]int64) *mockCatalog {
	return &mockCatalog{
		ids:       ids,
		groupKeys: make(map[int64]string),
	}
}

func (m *mockCatalog) ResolveIDs(ctx context.Context, skus []string) (map[string]int64, error) {
	if m.failResolve {
		return nil, errStoreDown
	}
	found := make(map[string]int64)
	for _, sku := range skus {
		if id, ok := m.ids[sku]; ok {
			found[sku] = id
		}
	}
	return found, nil
}

func (m *mockCatalog) SetGroupKey(ctx context.Context, productID int64, key string) error {
	if m.failGroupKey {
		return errStoreDown
	}
	if key == "" {
		delete(m.groupKeys, productID)
		return nil
	}
	m.groupKeys[productID] = key
	return nil
}

func (m *mockCatalog) ClearGroupKeysExcept(ctx context.Context, keep []int64) error {
	m.clearedKeep = append(m.clearedKeep, keep)
	keepSet := make(map[int64]struct{}, len(keep))
	for _, id := range keep {
		keepSet[id] = struct{}{}
	}
	for id := range m.groupKeys {
		if _, ok := keepSet[id]; !ok {
			delete(m.groupKeys, id)
		}
	}
	return nil
}

func (m *mockCatalog) InvalidateCache(ctx context.Context, scope string) error {
	m.invalidated = append(m.invalidated, scope)
	return nil
}

// mockPrices serves base prices from a fixed map and records batch calls.
type mockPrices struct {
	prices  map[int64]decimal.Decimal
	batches [][]int64
}

func newMockPrices(prices map[int64]decimal.Decimal) *mockPrices {
	return &mockPrices{prices: prices}
}

func (m *mockPrices) BatchGetBasePrices(ctx context.Context, productIDs []int64) (map[int64]decimal.Decimal, error) {
	m.batches = append(m.batches, productIDs)
	found := make(map[int64]decimal.Decimal)
	for _, id := range productIDs {
		if price, ok := m.prices[id]; ok {
			found[id] = price
		}
	}
	return found, nil
}
