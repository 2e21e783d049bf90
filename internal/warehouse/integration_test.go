//-------------------------------------------------------------------------
//
// martload
//
// Copyright (c) 2025 - 2026, Edgemart Labs
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

//go:build integration
// +build integration

// Integration tests for the warehouse star schema load.
// Run with: go test -tags=integration ./internal/warehouse/...
// Requires PostgreSQL to be available.
// Set MARTLOAD_TEST_CONN environment variable to override connection string.

package warehouse_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edgemart/martload/internal/pricing"
	"github.com/edgemart/martload/internal/schema"
	"github.com/edgemart/martload/internal/testutil"
	"github.com/edgemart/martload/internal/warehouse"
)

func setupWarehouseDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	baseConnStr := testutil.SkipIfNoPostgres(t)
	testConnStr := testutil.CreateTestDB(t, baseConnStr, "warehouse")
	dbName := testutil.GetDBNameFromConnStr(testConnStr)

	cleanup := testutil.NewTestCleanup(t, baseConnStr, dbName)
	t.Cleanup(cleanup.Cleanup)

	pool := testutil.ConnectTestDB(t, testConnStr)
	cleanup.SetPool(pool)

	if err := schema.Create(context.Background(), pool); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return pool
}

func execAll(t *testing.T, pool *pgxpool.Pool, stmts ...string) {
	t.Helper()
	ctx := context.Background()
	for _, s := range stmts {
		if _, err := pool.Exec(ctx, s); err != nil {
			t.Fatalf("Failed to execute %q: %v", s, err)
		}
	}
}

func countRows(t *testing.T, pool *pgxpool.Pool, sql string) int {
	t.Helper()
	var n int
	if err := pool.QueryRow(context.Background(), sql).Scan(&n); err != nil {
		t.Fatalf("Failed to count (%s): %v", sql, err)
	}
	return n
}

func seedProductionData(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	execAll(t, pool,
		`INSERT INTO production.customers
		 (customer_id, first_name, last_name, email, phone, registration_date, city, state, country, age_group)
		 VALUES ('CUST0001', 'Asha', 'Rao', 'asha.rao@example.com', '9876543210',
		         '2022-03-15', 'Pune', 'Maharashtra', 'India', '26-35')`,
		`INSERT INTO production.products
		 (product_id, product_name, category, sub_category, price, cost, brand,
		  stock_quantity, supplier_id, profit_margin, price_category)
		 VALUES ('PROD0001', 'Widget', 'Electronics', 'Accessories', 100.00, 60.00,
		         'Acme', 50, 'SUP001', 40.00, 'Mid-range')`,
		`INSERT INTO production.transactions
		 (transaction_id, customer_id, transaction_date, transaction_time,
		  payment_method, shipping_address, total_amount)
		 VALUES ('TXN000001', 'CUST0001', '2024-06-01', '10:30:00',
		         'Credit Card', '1 Main St, Pune', 270.00)`,
		`INSERT INTO production.transaction_items
		 (item_id, transaction_id, product_id, quantity, unit_price,
		  discount_percentage, line_total)
		 VALUES ('ITEM000001', 'TXN000001', 'PROD0001', 3, 100.00, 10, 270.00)`,
	)
}

func loadDimensions(t *testing.T, pool *pgxpool.Pool, runDate time.Time) {
	t.Helper()
	ctx := context.Background()

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	if _, err := warehouse.LoadDateDim(ctx, pool, start, end); err != nil {
		t.Fatalf("LoadDateDim failed: %v", err)
	}
	if err := warehouse.LoadPaymentMethodDim(ctx, pool); err != nil {
		t.Fatalf("LoadPaymentMethodDim failed: %v", err)
	}
	if _, err := warehouse.LoadCustomerDim(ctx, pool, runDate, "Standard"); err != nil {
		t.Fatalf("LoadCustomerDim failed: %v", err)
	}
	if _, err := warehouse.LoadProductDim(ctx, pool, runDate, pricing.DefaultTiers()); err != nil {
		t.Fatalf("LoadProductDim failed: %v", err)
	}
}

func TestCustomerDimVersioning(t *testing.T) {
	pool := setupWarehouseDB(t)
	ctx := context.Background()
	seedProductionData(t, pool)

	day1 := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)

	t.Run("InitialLoad", func(t *testing.T) {
		res, err := warehouse.LoadCustomerDim(ctx, pool, day1, "Standard")
		if err != nil {
			t.Fatalf("LoadCustomerDim failed: %v", err)
		}
		if res.Closed != 0 || res.Inserted != 1 {
			t.Errorf("Expected 0 closed / 1 inserted, got %d / %d", res.Closed, res.Inserted)
		}
	})

	t.Run("RerunIsIdempotent", func(t *testing.T) {
		res, err := warehouse.LoadCustomerDim(ctx, pool, day1, "Standard")
		if err != nil {
			t.Fatalf("LoadCustomerDim failed: %v", err)
		}
		if res.Closed != 0 || res.Inserted != 0 {
			t.Errorf("Unchanged rerun should be a no-op, got %d closed / %d inserted",
				res.Closed, res.Inserted)
		}
	})

	t.Run("CityChangeVersions", func(t *testing.T) {
		execAll(t, pool,
			`UPDATE production.customers SET city = 'Mumbai' WHERE customer_id = 'CUST0001'`)

		res, err := warehouse.LoadCustomerDim(ctx, pool, day2, "Standard")
		if err != nil {
			t.Fatalf("LoadCustomerDim failed: %v", err)
		}
		if res.Closed != 1 || res.Inserted != 1 {
			t.Errorf("Expected 1 closed / 1 inserted, got %d / %d", res.Closed, res.Inserted)
		}

		current := countRows(t, pool,
			`SELECT COUNT(*) FROM warehouse.dim_customer
			 WHERE customer_id = 'CUST0001' AND is_current`)
		if current != 1 {
			t.Errorf("Expected exactly 1 current version, got %d", current)
		}

		closed := countRows(t, pool,
			`SELECT COUNT(*) FROM warehouse.dim_customer
			 WHERE customer_id = 'CUST0001' AND NOT is_current
			   AND end_date = '2024-06-02'`)
		if closed != 1 {
			t.Errorf("Expected 1 closed version with end_date set, got %d", closed)
		}

		total := countRows(t, pool,
			`SELECT COUNT(*) FROM warehouse.dim_customer WHERE customer_id = 'CUST0001'`)
		if total != 2 {
			t.Errorf("Expected 2 versions total, got %d", total)
		}
	})
}

func TestProductDimTierChange(t *testing.T) {
	pool := setupWarehouseDB(t)
	ctx := context.Background()
	seedProductionData(t, pool)

	day1 := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)

	if _, err := warehouse.LoadProductDim(ctx, pool, day1, pricing.DefaultTiers()); err != nil {
		t.Fatalf("LoadProductDim failed: %v", err)
	}

	var priceRange string
	err := pool.QueryRow(ctx,
		`SELECT price_range FROM warehouse.dim_product
		 WHERE product_id = 'PROD0001' AND is_current`).Scan(&priceRange)
	if err != nil {
		t.Fatalf("Failed to read price_range: %v", err)
	}
	if priceRange != pricing.TierMidrange {
		t.Errorf("Expected %s for price 100, got %s", pricing.TierMidrange, priceRange)
	}

	// Shrinking the midrange tier reclassifies the product and versions it
	res, err := warehouse.LoadProductDim(ctx, pool, day2,
		pricing.Tiers{BudgetMax: 20, MidrangeMax: 80})
	if err != nil {
		t.Fatalf("LoadProductDim failed: %v", err)
	}
	if res.Closed != 1 || res.Inserted != 1 {
		t.Errorf("Expected tier change to version the product, got %d closed / %d inserted",
			res.Closed, res.Inserted)
	}
}

func TestFactLoadMeasures(t *testing.T) {
	pool := setupWarehouseDB(t)
	ctx := context.Background()
	seedProductionData(t, pool)

	runDate := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	loadDimensions(t, pool, runDate)

	n, err := warehouse.LoadFacts(ctx, pool)
	if err != nil {
		t.Fatalf("LoadFacts failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("Expected 1 fact row, got %d", n)
	}

	// qty 3 at 100.00 with 10% discount against cost 60.00
	var dateKey int
	var discountAmount, lineTotal, profit float64
	err = pool.QueryRow(ctx,
		`SELECT date_key, discount_amount, line_total, profit
		 FROM warehouse.fact_sales WHERE item_id = 'ITEM000001'`).
		Scan(&dateKey, &discountAmount, &lineTotal, &profit)
	if err != nil {
		t.Fatalf("Failed to read fact row: %v", err)
	}
	if dateKey != 20240601 {
		t.Errorf("Expected date_key 20240601, got %d", dateKey)
	}
	if discountAmount != 30.00 {
		t.Errorf("Expected discount_amount 30.00, got %.2f", discountAmount)
	}
	if lineTotal != 270.00 {
		t.Errorf("Expected line_total 270.00, got %.2f", lineTotal)
	}
	if profit != 90.00 {
		t.Errorf("Expected profit 90.00, got %.2f", profit)
	}
}

func TestFactLoadBlockedByMissingDimension(t *testing.T) {
	pool := setupWarehouseDB(t)
	ctx := context.Background()
	seedProductionData(t, pool)

	runDate := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	loadDimensions(t, pool, runDate)

	if _, err := warehouse.LoadFacts(ctx, pool); err != nil {
		t.Fatalf("Initial fact load failed: %v", err)
	}

	// Close every version of the customer so the source row has no current
	// dimension match
	execAll(t, pool,
		`UPDATE warehouse.dim_customer SET is_current = FALSE, end_date = '2024-06-01'
		 WHERE customer_id = 'CUST0001'`)

	if _, err := warehouse.LoadFacts(ctx, pool); err == nil {
		t.Fatal("Expected fact load to fail with missing current customer")
	}

	// The failed load must not have truncated the existing facts
	if n := countRows(t, pool, `SELECT COUNT(*) FROM warehouse.fact_sales`); n != 1 {
		t.Errorf("Expected previous fact rows to survive failed load, got %d", n)
	}
}

func TestAggregates(t *testing.T) {
	pool := setupWarehouseDB(t)
	ctx := context.Background()
	seedProductionData(t, pool)

	runDate := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	loadDimensions(t, pool, runDate)

	if _, err := warehouse.LoadFacts(ctx, pool); err != nil {
		t.Fatalf("LoadFacts failed: %v", err)
	}
	if err := warehouse.RebuildAggregates(ctx, pool); err != nil {
		t.Fatalf("RebuildAggregates failed: %v", err)
	}

	var txnCount int
	var revenue, profit float64
	err := pool.QueryRow(ctx,
		`SELECT transaction_count, total_revenue, total_profit
		 FROM warehouse.agg_daily_sales WHERE date_key = 20240601`).
		Scan(&txnCount, &revenue, &profit)
	if err != nil {
		t.Fatalf("Failed to read agg_daily_sales: %v", err)
	}
	if txnCount != 1 {
		t.Errorf("Expected 1 transaction, got %d", txnCount)
	}
	if revenue != 270.00 {
		t.Errorf("Expected revenue 270.00, got %.2f", revenue)
	}
	if profit != 90.00 {
		t.Errorf("Expected profit 90.00, got %.2f", profit)
	}

	var avgOrder float64
	err = pool.QueryRow(ctx,
		`SELECT avg_order_value FROM warehouse.agg_customer_metrics LIMIT 1`).
		Scan(&avgOrder)
	if err != nil {
		t.Fatalf("Failed to read agg_customer_metrics: %v", err)
	}
	if avgOrder != 270.00 {
		t.Errorf("Expected avg_order_value 270.00, got %.2f", avgOrder)
	}
}

func TestAggregatesSkipWhenFactEmpty(t *testing.T) {
	pool := setupWarehouseDB(t)
	ctx := context.Background()

	// Pre-seed an aggregate row that an empty-fact rebuild must not destroy
	execAll(t, pool,
		`INSERT INTO warehouse.agg_daily_sales
		 (date_key, transaction_count, total_revenue, total_profit, unique_customers)
		 VALUES (20240101, 5, 100.00, 20.00, 3)`)

	if err := warehouse.RebuildAggregates(ctx, pool); err != nil {
		t.Fatalf("RebuildAggregates failed: %v", err)
	}
	if n := countRows(t, pool, `SELECT COUNT(*) FROM warehouse.agg_daily_sales`); n != 1 {
		t.Errorf("Expected aggregates untouched with empty fact table, got %d rows", n)
	}
}

func TestDateDimRerunNoDuplicates(t *testing.T) {
	pool := setupWarehouseDB(t)
	ctx := context.Background()

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	n1, err := warehouse.LoadDateDim(ctx, pool, start, end)
	if err != nil {
		t.Fatalf("LoadDateDim failed: %v", err)
	}
	if n1 != 31 {
		t.Errorf("Expected 31 rows for January, got %d", n1)
	}

	n2, err := warehouse.LoadDateDim(ctx, pool, start, end)
	if err != nil {
		t.Fatalf("LoadDateDim rerun failed: %v", err)
	}
	if n2 != 0 {
		t.Errorf("Expected rerun to insert 0 rows, got %d", n2)
	}

	if n := countRows(t, pool, `SELECT COUNT(*) FROM warehouse.dim_date`); n != 31 {
		t.Errorf("Expected 31 date rows after rerun, got %d", n)
	}
}
