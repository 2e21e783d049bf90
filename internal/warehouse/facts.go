//-------------------------------------------------------------------------
//
// martload
//
// Copyright (c) 2025 - 2026, Edgemart Labs
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package warehouse

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edgemart/martload/internal/logging"
)

// Inner joins would silently drop source rows with no current dimension
// match. The guard counts them up front so a broken dimension fails the load
// instead of shrinking it.
const factGuardSQL = `
SELECT
    (SELECT COUNT(*) FROM production.transactions t
     WHERE NOT EXISTS (
         SELECT 1 FROM warehouse.dim_customer d
         WHERE d.customer_id = t.customer_id AND d.is_current)),
    (SELECT COUNT(*) FROM production.transaction_items i
     WHERE NOT EXISTS (
         SELECT 1 FROM warehouse.dim_product d
         WHERE d.product_id = i.product_id AND d.is_current)),
    (SELECT COUNT(*) FROM production.transactions t
     WHERE NOT EXISTS (
         SELECT 1 FROM warehouse.dim_payment_method m
         WHERE m.method_name = t.payment_method)),
    (SELECT COUNT(*) FROM production.transactions t
     WHERE NOT EXISTS (
         SELECT 1 FROM warehouse.dim_date dd
         WHERE dd.full_date = t.transaction_date))
`

const loadFactSQL = `
INSERT INTO warehouse.fact_sales
    (transaction_id, item_id, date_key, customer_key, product_key,
     payment_method_key, quantity, unit_price, discount_percentage,
     discount_amount, line_total, profit)
SELECT
    t.transaction_id,
    i.item_id,
    dd.date_key,
    dc.customer_key,
    dp.product_key,
    pm.payment_method_key,
    i.quantity,
    i.unit_price,
    i.discount_percentage,
    ROUND(i.unit_price * i.quantity * (i.discount_percentage / 100), 2),
    i.line_total,
    ROUND(i.line_total - dp.cost * i.quantity, 2)
FROM production.transaction_items i
JOIN production.transactions t ON t.transaction_id = i.transaction_id
JOIN warehouse.dim_date dd ON dd.full_date = t.transaction_date
JOIN warehouse.dim_customer dc ON dc.customer_id = t.customer_id AND dc.is_current
JOIN warehouse.dim_product dp ON dp.product_id = i.product_id AND dp.is_current
JOIN warehouse.dim_payment_method pm ON pm.method_name = t.payment_method
`

// LoadFacts rebuilds fact_sales from the production transaction items in a
// single truncate-and-reload transaction. Surrogate keys resolve against the
// current dimension versions only. An empty source skips the load and keeps
// the existing fact rows.
func LoadFacts(ctx context.Context, pool *pgxpool.Pool) (int64, error) {
	empty, err := tableEmpty(ctx, pool, "production.transaction_items")
	if err != nil {
		return 0, err
	}
	if empty {
		logging.Warn().Msg("No production transaction items, skipping fact load")
		return 0, nil
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var missingCustomers, missingProducts, missingMethods, missingDates int64
	err = tx.QueryRow(ctx, factGuardSQL).Scan(
		&missingCustomers, &missingProducts, &missingMethods, &missingDates)
	if err != nil {
		return 0, fmt.Errorf("failed to check dimension coverage: %w", err)
	}
	switch {
	case missingCustomers > 0:
		return 0, fmt.Errorf("fact load blocked: %d transactions have no current customer dimension row", missingCustomers)
	case missingProducts > 0:
		return 0, fmt.Errorf("fact load blocked: %d items have no current product dimension row", missingProducts)
	case missingMethods > 0:
		return 0, fmt.Errorf("fact load blocked: %d transactions have an unknown payment method", missingMethods)
	case missingDates > 0:
		return 0, fmt.Errorf("fact load blocked: %d transactions fall outside the date dimension", missingDates)
	}

	if _, err := tx.Exec(ctx, "TRUNCATE warehouse.fact_sales"); err != nil {
		return 0, fmt.Errorf("failed to truncate fact_sales: %w", err)
	}

	tag, err := tx.Exec(ctx, loadFactSQL)
	if err != nil {
		return 0, fmt.Errorf("failed to load fact_sales: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit fact load: %w", err)
	}

	logging.Info().Int64("rows", tag.RowsAffected()).Msg("Fact table loaded")
	return tag.RowsAffected(), nil
}
