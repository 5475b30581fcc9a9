package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fjacquet/merchant-resolver/internal/models"
)

// UpsertRule inserts a rule or updates the one with the same pattern.
// Empty subcategory or canonical merchant values never blank existing ones,
// and an empty category keeps the stored category (new rows get
// Uncategorized).
func (db *DB) UpsertRule(ctx context.Context, r models.Rule) error {
	pattern := models.NormalizePattern(r.Pattern)
	if pattern == "" {
		return fmt.Errorf("rule pattern is required")
	}
	insertCategory := r.Category
	if insertCategory == "" {
		insertCategory = models.CategoryUncategorized
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO category_rules (merchant_pattern, category, subcategory, merchant_canonical, created_seq)
		VALUES (?, ?, NULLIF(?, ''), NULLIF(?, ''),
			(SELECT COALESCE(MAX(created_seq), 0) + 1 FROM category_rules))
		ON CONFLICT(merchant_pattern) DO UPDATE SET
			category = COALESCE(NULLIF(?, ''), category_rules.category),
			subcategory = COALESCE(excluded.subcategory, category_rules.subcategory),
			merchant_canonical = COALESCE(excluded.merchant_canonical, category_rules.merchant_canonical)
	`, pattern, insertCategory, r.Subcategory, r.MerchantCanonical, r.Category)
	if err != nil {
		return fmt.Errorf("upsert rule %q: %w", pattern, err)
	}
	return nil
}

// ListRules returns every rule, longest pattern first and oldest first
// among equal lengths.
func (db *DB) ListRules(ctx context.Context) ([]models.Rule, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT merchant_pattern, category, COALESCE(subcategory, ''),
			   COALESCE(merchant_canonical, ''), created_seq
		FROM category_rules
		ORDER BY LENGTH(merchant_pattern) DESC, created_seq, merchant_pattern
	`)
	if err != nil {
		return nil, fmt.Errorf("query rules: %w", err)
	}
	defer rows.Close()

	var out []models.Rule
	for rows.Next() {
		var r models.Rule
		if err := rows.Scan(&r.Pattern, &r.Category, &r.Subcategory, &r.MerchantCanonical, &r.Seq); err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetRule returns the rule with exactly this pattern.
func (db *DB) GetRule(ctx context.Context, pattern string) (*models.Rule, error) {
	var r models.Rule
	err := db.QueryRowContext(ctx, `
		SELECT merchant_pattern, category, COALESCE(subcategory, ''),
			   COALESCE(merchant_canonical, ''), created_seq
		FROM category_rules WHERE merchant_pattern = ?
	`, models.NormalizePattern(pattern)).Scan(&r.Pattern, &r.Category, &r.Subcategory, &r.MerchantCanonical, &r.Seq)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query rule: %w", err)
	}
	return &r, nil
}
