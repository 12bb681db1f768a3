package store

import (
	"context"
	"fmt"
)

// ResolveIDs maps SKUs to product ids; SKUs without a product are simply
// absent from the result.
func (s *Store) ResolveIDs(ctx context.Context, skus []string) (map[string]int64, error) {
	if len(skus) == 0 {
		return map[string]int64{}, nil
	}

	rows, err := s.pool.Query(ctx, `
		SELECT sku, id
		FROM products
		WHERE sku = ANY($1)
		ORDER BY sort, id
	`, skus)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve skus: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]int64, len(skus))
	for rows.Next() {
		var (
			sku string
			id  int64
		)
		if err := rows.Scan(&sku, &id); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		ids[sku] = id
	}
	return ids, rows.Err()
}

// SetGroupKey tags a product with a grouping key; an empty key untags.
func (s *Store) SetGroupKey(ctx context.Context, productID int64, key string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE products
		SET group_key = NULLIF($2, ''), updated_at = NOW()
		WHERE id = $1
	`, productID, key)
	if err != nil {
		return fmt.Errorf("failed to set group key for product %d: %w", productID, err)
	}
	return nil
}

// ClearGroupKeysExcept untags every product not touched this run. Clearing
// an already-clear product is a no-op, so the cleanup is idempotent.
func (s *Store) ClearGroupKeysExcept(ctx context.Context, keep []int64) error {
	if keep == nil {
		keep = []int64{}
	}

	_, err := s.pool.Exec(ctx, `
		UPDATE products
		SET group_key = NULL, updated_at = NOW()
		WHERE group_key IS NOT NULL
		  AND NOT (id = ANY($1))
	`, keep)
	if err != nil {
		return fmt.Errorf("failed to clear stale group keys: %w", err)
	}
	return nil
}

// InvalidateCache notifies price-display consumers that rules changed for
// the scope (site id).
func (s *Store) InvalidateCache(ctx context.Context, scope string) error {
	_, err := s.pool.Exec(ctx, `SELECT pg_notify('catalog_cache_invalidate', $1)`, scope)
	if err != nil {
		return fmt.Errorf("failed to notify cache invalidation: %w", err)
	}
	return nil
}
