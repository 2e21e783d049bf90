package warehouse

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edgemart/martload/internal/logging"
)

const aggDailySalesSQL = `
INSERT INTO warehouse.agg_daily_sales
    (date_key, transaction_count, total_revenue, total_profit, unique_customers)
SELECT
    date_key,
    COUNT(DISTINCT transaction_id),
    SUM(line_total),
    SUM(profit),
    COUNT(DISTINCT customer_key)
FROM warehouse.fact_sales
GROUP BY date_key
`

const aggProductPerformanceSQL = `
INSERT INTO warehouse.agg_product_performance
    (product_key, total_quantity, total_revenue, total_profit, avg_discount)
SELECT
    product_key,
    SUM(quantity),
    SUM(line_total),
    SUM(profit),
    ROUND(AVG(discount_amount), 2)
FROM warehouse.fact_sales
GROUP BY product_key
`

const aggCustomerMetricsSQL = `
INSERT INTO warehouse.agg_customer_metrics
    (customer_key, transaction_count, total_revenue, avg_order_value, last_purchase_date_key)
SELECT
    customer_key,
    COUNT(DISTINCT transaction_id),
    SUM(line_total),
    ROUND(SUM(line_total) / COUNT(DISTINCT transaction_id), 2),
    MAX(date_key)
FROM warehouse.fact_sales
GROUP BY customer_key
`

// RebuildAggregates recomputes the three aggregate tables from fact_sales in
// one transaction. When the fact table is empty the aggregates are left
// untouched rather than truncated to nothing.
func RebuildAggregates(ctx context.Context, pool *pgxpool.Pool) error {
	empty, err := tableEmpty(ctx, pool, "warehouse.fact_sales")
	if err != nil {
		return err
	}
	if empty {
		logging.Warn().Msg("Fact table empty, skipping aggregate rebuild")
		return nil
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	rebuilds := []struct {
		table string
		sql   string
	}{
		{"warehouse.agg_daily_sales", aggDailySalesSQL},
		{"warehouse.agg_product_performance", aggProductPerformanceSQL},
		{"warehouse.agg_customer_metrics", aggCustomerMetricsSQL},
	}

	for _, r := range rebuilds {
		if _, err := tx.Exec(ctx, "TRUNCATE "+r.table); err != nil {
			return fmt.Errorf("failed to truncate %s: %w", r.table, err)
		}
		tag, err := tx.Exec(ctx, r.sql)
		if err != nil {
			return fmt.Errorf("failed to rebuild %s: %w", r.table, err)
		}
		logging.Info().
			Str("table", r.table).
			Int64("rows", tag.RowsAffected()).
			Msg("Aggregate rebuilt")
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit aggregate rebuild: %w", err)
	}
	return nil
}
