package store

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// BatchGetBasePrices fetches the current base price for every product id in
// one round trip. Missing entries mean the price is unknown; callers treat
// them as zero.
func (s *Store) BatchGetBasePrices(ctx context.Context, productIDs []int64) (map[int64]decimal.Decimal, error) {
	if len(productIDs) == 0 {
		return map[int64]decimal.Decimal{}, nil
	}

	rows, err := s.pool.Query(ctx, `
		SELECT product_id, base_price::text
		FROM product_prices
		WHERE product_id = ANY($1)
	`, productIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch base prices: %w", err)
	}
	defer rows.Close()

	prices := make(map[int64]decimal.Decimal, len(productIDs))
	for rows.Next() {
		var (
			productID int64
			raw       string
		)
		if err := rows.Scan(&productID, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan base price: %w", err)
		}
		price, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid base price %q for product %d: %w", raw, productID, err)
		}
		prices[productID] = price
	}
	return prices, rows.Err()
}
