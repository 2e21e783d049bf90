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
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edgemart/martload/internal/logging"
	"github.com/edgemart/martload/internal/pricing"
)

// SCDResult reports what a dimension load did.
type SCDResult struct {
	// Closed is the number of previously-current versions that were ended.
	Closed int64

	// Inserted is the number of new version rows (changed keys plus keys
	// seen for the first time).
	Inserted int64
}

// Close and insert run as one statement. The insert CTE depends on the
// update CTE's output, which forces the old current rows out of the partial
// unique index before the new versions land in it. Readers never observe a
// key with two current versions or none where one existed.
const loadCustomerDimSQL = `
WITH src AS (
    SELECT customer_id, first_name, last_name, email, phone, city, state,
           country, age_group, $2::varchar AS customer_segment
    FROM production.customers
),
closed AS (
    UPDATE warehouse.dim_customer d
    SET end_date = $1::date, is_current = FALSE
    FROM src s
    WHERE d.customer_id = s.customer_id
      AND d.is_current
      AND (d.first_name, d.last_name, d.email, d.phone, d.city, d.state,
           d.country, d.age_group, d.customer_segment)
          IS DISTINCT FROM
          (s.first_name, s.last_name, s.email, s.phone, s.city, s.state,
           s.country, s.age_group, s.customer_segment)
    RETURNING d.customer_id
),
inserted AS (
    INSERT INTO warehouse.dim_customer
        (customer_id, first_name, last_name, email, phone, city, state,
         country, age_group, customer_segment, effective_date, end_date, is_current)
    SELECT s.customer_id, s.first_name, s.last_name, s.email, s.phone,
           s.city, s.state, s.country, s.age_group, s.customer_segment,
           $1::date, NULL, TRUE
    FROM src s
    WHERE s.customer_id IN (SELECT customer_id FROM closed)
       OR NOT EXISTS (
           SELECT 1 FROM warehouse.dim_customer d
           WHERE d.customer_id = s.customer_id AND d.is_current)
    RETURNING customer_key
)
SELECT (SELECT COUNT(*) FROM closed), (SELECT COUNT(*) FROM inserted)
`

const loadProductDimSQL = `
WITH src AS (
    SELECT product_id, product_name, category, sub_category, brand,
           price, cost,
           CASE
               WHEN price < $2 THEN $4::varchar
               WHEN price < $3 THEN $5::varchar
               ELSE $6::varchar
           END AS price_range
    FROM production.products
),
closed AS (
    UPDATE warehouse.dim_product d
    SET end_date = $1::date, is_current = FALSE
    FROM src s
    WHERE d.product_id = s.product_id
      AND d.is_current
      AND (d.product_name, d.category, d.sub_category, d.brand,
           d.price, d.cost, d.price_range)
          IS DISTINCT FROM
          (s.product_name, s.category, s.sub_category, s.brand,
           s.price, s.cost, s.price_range)
    RETURNING d.product_id
),
inserted AS (
    INSERT INTO warehouse.dim_product
        (product_id, product_name, category, sub_category, brand,
         price, cost, price_range, effective_date, end_date, is_current)
    SELECT s.product_id, s.product_name, s.category, s.sub_category, s.brand,
           s.price, s.cost, s.price_range, $1::date, NULL, TRUE
    FROM src s
    WHERE s.product_id IN (SELECT product_id FROM closed)
       OR NOT EXISTS (
           SELECT 1 FROM warehouse.dim_product d
           WHERE d.product_id = s.product_id AND d.is_current)
    RETURNING product_key
)
SELECT (SELECT COUNT(*) FROM closed), (SELECT COUNT(*) FROM inserted)
`

// LoadCustomerDim applies the current production customer snapshot to
// dim_customer with type 2 versioning. A changed key gets its old version
// closed with end_date set to runDate and a new current version inserted
// with effective_date runDate. An empty production source is a no-op.
func LoadCustomerDim(ctx context.Context, pool *pgxpool.Pool, runDate time.Time, segment string) (SCDResult, error) {
	var res SCDResult

	empty, err := tableEmpty(ctx, pool, "production.customers")
	if err != nil {
		return res, err
	}
	if empty {
		logging.Warn().Msg("No production customers, skipping customer dimension")
		return res, nil
	}

	err = pool.QueryRow(ctx, loadCustomerDimSQL,
		runDate.Format("2006-01-02"), segment).Scan(&res.Closed, &res.Inserted)
	if err != nil {
		return res, fmt.Errorf("failed to load customer dimension: %w", err)
	}

	logging.Info().
		Int64("closed", res.Closed).
		Int64("inserted", res.Inserted).
		Msg("Customer dimension loaded")
	return res, nil
}

// LoadProductDim is the product counterpart of LoadCustomerDim. The tracked
// attributes include price_range derived from the tier policy, so a
// threshold change alone versions every product it reclassifies.
func LoadProductDim(ctx context.Context, pool *pgxpool.Pool, runDate time.Time, tiers pricing.Tiers) (SCDResult, error) {
	var res SCDResult

	empty, err := tableEmpty(ctx, pool, "production.products")
	if err != nil {
		return res, err
	}
	if empty {
		logging.Warn().Msg("No production products, skipping product dimension")
		return res, nil
	}

	err = pool.QueryRow(ctx, loadProductDimSQL,
		runDate.Format("2006-01-02"),
		tiers.BudgetMax, tiers.MidrangeMax,
		pricing.TierBudget, pricing.TierMidrange, pricing.TierPremium,
	).Scan(&res.Closed, &res.Inserted)
	if err != nil {
		return res, fmt.Errorf("failed to load product dimension: %w", err)
	}

	logging.Info().
		Int64("closed", res.Closed).
		Int64("inserted", res.Inserted).
		Msg("Product dimension loaded")
	return res, nil
}

func tableEmpty(ctx context.Context, pool *pgxpool.Pool, table string) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM "+table+")").Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check %s: %w", table, err)
	}
	return !exists, nil
}
