package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ashmarket/discount-sync/internal/reconcile"
)

// ListByNamePrefix returns id and name of every rule owned by the prefix.
func (s *Store) ListByNamePrefix(ctx context.Context, site, prefix string) ([]reconcile.ExistingRule, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name
		FROM basket_rules
		WHERE site_id = $1
		  AND starts_with(name, $2)
		ORDER BY name
	`, site, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	defer rows.Close()

	var rules []reconcile.ExistingRule
	for rows.Next() {
		var rule reconcile.ExistingRule
		if err := rows.Scan(&rule.ID, &rule.Name); err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

// Create inserts a new rule and returns its generated id.
func (s *Store) Create(ctx context.Context, spec reconcile.RuleSpec) (string, error) {
	id := uuid.New().String()

	_, err := s.pool.Exec(ctx, `
		INSERT INTO basket_rules (
			id, site_id, name, product_id, group_key,
			discount_value, discount_unit, priority, sort,
			active_from, active_to, user_groups,
			last_level_discount, last_discount, active,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, NULLIF($4, 0), NULLIF($5, ''),
			$6, $7, $8, $9,
			$10, $11, $12,
			$13, $14, true,
			NOW(), NOW()
		)
	`, id, spec.SiteID, spec.Name, spec.ProductID, spec.GroupKey,
		spec.DiscountValue, string(spec.DiscountUnit), spec.Priority, spec.Sort,
		spec.ActiveFrom, spec.ActiveTo, spec.UserGroups,
		spec.LastLevelDiscount, spec.LastDiscount)
	if err != nil {
		return "", fmt.Errorf("failed to insert rule %q: %w", spec.Name, err)
	}

	return id, nil
}

// Update rewrites a rule's derived fields in place, preserving its identity.
func (s *Store) Update(ctx context.Context, id string, spec reconcile.RuleSpec) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE basket_rules
		SET discount_value = $2,
		    discount_unit = $3,
		    priority = $4,
		    sort = $5,
		    active_from = $6,
		    active_to = $7,
		    updated_at = NOW()
		WHERE id = $1
	`, id, spec.DiscountValue, string(spec.DiscountUnit), spec.Priority, spec.Sort,
		spec.ActiveFrom, spec.ActiveTo)
	if err != nil {
		return fmt.Errorf("failed to update rule %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("rule %s not found", id)
	}
	return nil
}

// Delete removes a rule by id.
func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM basket_rules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete rule %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("rule %s not found", id)
	}
	return nil
}
