//-------------------------------------------------------------------------
//
// martload
//
// Copyright (c) 2025 - 2026, Edgemart Labs
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package cleanse moves staging rows into the production schema, applying
// text normalization, derived fields, and invalid-row filtering with
// set-based SQL.
package cleanse

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edgemart/martload/internal/logging"
	"github.com/edgemart/martload/internal/pricing"
)

// Production customers and products are refreshed by upsert on the business
// key rather than truncate-loaded. Production transactions hold foreign keys
// into both tables, so a truncate would fail while incremental history exists.
const upsertCustomersSQL = `
INSERT INTO production.customers
    (customer_id, first_name, last_name, email, phone,
     registration_date, city, state, country, age_group)
SELECT DISTINCT ON (customer_id)
    customer_id,
    INITCAP(TRIM(first_name)),
    INITCAP(TRIM(last_name)),
    LOWER(TRIM(email)),
    REGEXP_REPLACE(COALESCE(phone, ''), '[^0-9]', '', 'g'),
    registration_date,
    TRIM(city),
    TRIM(state),
    TRIM(country),
    age_group
FROM staging.customers
WHERE customer_id IS NOT NULL
  AND email IS NOT NULL
  AND first_name IS NOT NULL
  AND last_name IS NOT NULL
ON CONFLICT (customer_id) DO UPDATE SET
    first_name        = EXCLUDED.first_name,
    last_name         = EXCLUDED.last_name,
    email             = EXCLUDED.email,
    phone             = EXCLUDED.phone,
    registration_date = EXCLUDED.registration_date,
    city              = EXCLUDED.city,
    state             = EXCLUDED.state,
    country           = EXCLUDED.country,
    age_group         = EXCLUDED.age_group
`

const upsertProductsSQL = `
INSERT INTO production.products
    (product_id, product_name, category, sub_category, price, cost,
     brand, stock_quantity, supplier_id, profit_margin, price_category)
SELECT DISTINCT ON (product_id)
    product_id,
    TRIM(product_name),
    TRIM(category),
    TRIM(sub_category),
    ROUND(price, 2),
    ROUND(cost, 2),
    TRIM(brand),
    stock_quantity,
    supplier_id,
    ROUND((price - cost) / NULLIF(price, 0) * 100, 2),
    CASE
        WHEN price < $1 THEN $3
        WHEN price < $2 THEN $4
        ELSE $5
    END
FROM staging.products
WHERE product_id IS NOT NULL
  AND product_name IS NOT NULL
  AND price IS NOT NULL
  AND cost IS NOT NULL
ON CONFLICT (product_id) DO UPDATE SET
    product_name   = EXCLUDED.product_name,
    category       = EXCLUDED.category,
    sub_category   = EXCLUDED.sub_category,
    price          = EXCLUDED.price,
    cost           = EXCLUDED.cost,
    brand          = EXCLUDED.brand,
    stock_quantity = EXCLUDED.stock_quantity,
    supplier_id    = EXCLUDED.supplier_id,
    profit_margin  = EXCLUDED.profit_margin,
    price_category = EXCLUDED.price_category
`

// Transactions and items load incrementally. Rows already in production are
// left alone, rows with non-positive amounts or broken references are dropped.
const insertTransactionsSQL = `
INSERT INTO production.transactions
    (transaction_id, customer_id, transaction_date, transaction_time,
     payment_method, shipping_address, total_amount)
SELECT
    s.transaction_id,
    s.customer_id,
    s.transaction_date,
    s.transaction_time,
    TRIM(s.payment_method),
    s.shipping_address,
    s.total_amount
FROM staging.transactions s
WHERE s.transaction_id IS NOT NULL
  AND s.transaction_date IS NOT NULL
  AND s.total_amount > 0
  AND EXISTS (
      SELECT 1 FROM production.customers c
      WHERE c.customer_id = s.customer_id)
  AND NOT EXISTS (
      SELECT 1 FROM production.transactions p
      WHERE p.transaction_id = s.transaction_id)
`

const insertItemsSQL = `
INSERT INTO production.transaction_items
    (item_id, transaction_id, product_id, quantity, unit_price,
     discount_percentage, line_total)
SELECT
    s.item_id,
    s.transaction_id,
    s.product_id,
    s.quantity,
    ROUND(s.unit_price, 2),
    COALESCE(s.discount_percentage, 0),
    ROUND(s.quantity * s.unit_price * (1 - COALESCE(s.discount_percentage, 0) / 100), 2)
FROM staging.transaction_items s
WHERE s.item_id IS NOT NULL
  AND s.quantity > 0
  AND s.unit_price IS NOT NULL
  AND EXISTS (
      SELECT 1 FROM production.transactions t
      WHERE t.transaction_id = s.transaction_id)
  AND EXISTS (
      SELECT 1 FROM production.products p
      WHERE p.product_id = s.product_id)
  AND NOT EXISTS (
      SELECT 1 FROM production.transaction_items i
      WHERE i.item_id = s.item_id)
`

// Config controls cleansing behavior.
type Config struct {
	// Tiers is the price tier policy shared with the warehouse stage.
	Tiers pricing.Tiers
}

// Cleanser loads staging data into the production schema.
type Cleanser struct {
	cfg Config
}

// New creates a new production cleanser.
func New(cfg Config) *Cleanser {
	return &Cleanser{cfg: cfg}
}

// Run cleanses all four staging tables into production inside a single
// transaction. Tables with an empty staging source are skipped and the
// production side is left untouched.
func (c *Cleanser) Run(ctx context.Context, pool *pgxpool.Pool) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	steps := []struct {
		name   string
		source string
		sql    string
		args   []any
	}{
		{"customers", "staging.customers", upsertCustomersSQL, nil},
		{"products", "staging.products", upsertProductsSQL, []any{
			c.cfg.Tiers.BudgetMax, c.cfg.Tiers.MidrangeMax,
			pricing.TierBudget, pricing.TierMidrange, pricing.TierPremium,
		}},
		{"transactions", "staging.transactions", insertTransactionsSQL, nil},
		{"transaction_items", "staging.transaction_items", insertItemsSQL, nil},
	}

	for _, step := range steps {
		empty, err := sourceEmpty(ctx, tx, step.source)
		if err != nil {
			return fmt.Errorf("failed to check %s: %w", step.source, err)
		}
		if empty {
			logging.Warn().
				Str("table", step.name).
				Msg("Staging source empty, skipping")
			continue
		}

		tag, err := tx.Exec(ctx, step.sql, step.args...)
		if err != nil {
			return fmt.Errorf("failed to cleanse %s: %w", step.name, err)
		}
		logging.Info().
			Str("table", step.name).
			Int64("rows", tag.RowsAffected()).
			Msg("Cleansed into production")
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit cleanse: %w", err)
	}
	return nil
}

func sourceEmpty(ctx context.Context, tx pgx.Tx, table string) (bool, error) {
	var exists bool
	err := tx.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM "+table+")").Scan(&exists)
	return !exists, err
}
