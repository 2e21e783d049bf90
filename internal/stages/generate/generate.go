// Package generate produces synthetic e-commerce rows and bulk loads them
// into the staging schema.
package generate

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edgemart/martload/internal/datagen"
	"github.com/edgemart/martload/internal/logging"
)

// Reference data
var paymentMethods = []string{
	"Credit Card", "Debit Card", "UPI",
	"Cash on Delivery", "Net Banking",
}

var discountChoices = []int{0, 5, 10, 15}

var ageGroups = []string{"18-25", "26-35", "36-45", "46-60", "60+"}

var productCategories = map[string][]string{
	"Electronics":    {"Mobiles", "Laptops", "Accessories"},
	"Clothing":       {"Men", "Women", "Kids"},
	"Home & Kitchen": {"Furniture", "Appliances", "Decor"},
	"Books":          {"Fiction", "Education", "Comics"},
	"Sports":         {"Outdoor", "Indoor", "Fitness"},
	"Beauty":         {"Skincare", "Makeup", "Haircare"},
}

// Config controls how much synthetic data is generated.
type Config struct {
	// Customers, Products, and Transactions are target row counts.
	Customers    int
	Products     int
	Transactions int

	// Seed makes generation reproducible when non-zero.
	Seed uint64

	// DateStart and DateEnd bound transaction dates. Keeping them inside
	// the calendar dimension range guarantees every fact row can resolve
	// a date key.
	DateStart time.Time
	DateEnd   time.Time
}

// Generator generates synthetic data for the staging schema.
type Generator struct {
	faker *datagen.Faker
	batch datagen.BatchInsertConfig
	cfg   Config
}

// New creates a new staging data generator.
func New(cfg Config) *Generator {
	faker := datagen.NewFaker()
	if cfg.Seed != 0 {
		faker = datagen.NewFakerWithSeed(cfg.Seed)
	}
	return &Generator{
		faker: faker,
		batch: datagen.DefaultBatchConfig(),
		cfg:   cfg,
	}
}

// Run truncates the staging tables, loads a fresh synthetic dataset, and
// validates row counts. Everything happens in a single transaction so a
// partial load never survives a failure.
func (g *Generator) Run(ctx context.Context, pool *pgxpool.Pool) error {
	logging.Info().
		Int("customers", g.cfg.Customers).
		Int("products", g.cfg.Products).
		Int("transactions", g.cfg.Transactions).
		Msg("Generating staging data")

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Children first
	truncates := []string{
		"TRUNCATE staging.transaction_items",
		"TRUNCATE staging.transactions",
		"TRUNCATE staging.products",
		"TRUNCATE staging.customers",
	}
	for _, sql := range truncates {
		if _, err := tx.Exec(ctx, sql); err != nil {
			return fmt.Errorf("failed to truncate staging: %w", err)
		}
	}

	customerIDs, err := g.generateCustomers(ctx, tx)
	if err != nil {
		return fmt.Errorf("failed to generate customers: %w", err)
	}

	productIDs, productPrices, err := g.generateProducts(ctx, tx)
	if err != nil {
		return fmt.Errorf("failed to generate products: %w", err)
	}

	itemCount, err := g.generateTransactions(ctx, tx, customerIDs, productIDs, productPrices)
	if err != nil {
		return fmt.Errorf("failed to generate transactions: %w", err)
	}

	// Count validation: loaded rows must match generated rows
	expected := map[string]int{
		"staging.customers":         g.cfg.Customers,
		"staging.products":          g.cfg.Products,
		"staging.transactions":      g.cfg.Transactions,
		"staging.transaction_items": itemCount,
	}
	for table, want := range expected {
		var got int
		if err := tx.QueryRow(ctx, "SELECT COUNT(*) FROM "+table).Scan(&got); err != nil {
			return fmt.Errorf("failed to count %s: %w", table, err)
		}
		if got != want {
			return fmt.Errorf("row count validation failed for %s: loaded %d, generated %d", table, got, want)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit staging load: %w", err)
	}

	logging.Info().
		Int("transaction_items", itemCount).
		Msg("Staging load complete")
	return nil
}

func (g *Generator) generateCustomers(ctx context.Context, tx pgx.Tx) ([]string, error) {
	ids := make([]string, 0, g.cfg.Customers)
	usedEmails := make(map[string]bool, g.cfg.Customers)
	batch := make([]string, 0, g.batch.BatchSize)

	regStart := g.cfg.DateStart.AddDate(-3, 0, 0)

	for i := 1; i <= g.cfg.Customers; i++ {
		id := fmt.Sprintf("CUST%04d", i)
		ids = append(ids, id)

		email := g.faker.Email()
		for usedEmails[email] {
			email = g.faker.Email()
		}
		usedEmails[email] = true

		batch = append(batch, fmt.Sprintf("('%s', '%s', '%s', '%s', '%s', '%s', '%s', '%s', 'India', '%s')",
			id,
			escapeSingleQuote(g.faker.FirstName()),
			escapeSingleQuote(g.faker.LastName()),
			escapeSingleQuote(email),
			g.faker.Phone(),
			g.faker.DateRange(regStart, g.cfg.DateStart).Format("2006-01-02"),
			escapeSingleQuote(g.faker.City()),
			escapeSingleQuote(g.faker.State()),
			datagen.Choose(g.faker, ageGroups),
		))

		if len(batch) >= g.batch.BatchSize {
			if err := executeBatchInsert(ctx, tx, "staging.customers",
				"(customer_id, first_name, last_name, email, phone, registration_date, city, state, country, age_group)", batch); err != nil {
				return nil, err
			}
			batch = batch[:0]
		}
	}

	if len(batch) > 0 {
		if err := executeBatchInsert(ctx, tx, "staging.customers",
			"(customer_id, first_name, last_name, email, phone, registration_date, city, state, country, age_group)", batch); err != nil {
			return nil, err
		}
	}

	logging.Info().Int("count", g.cfg.Customers).Msg("customers complete")
	return ids, nil
}

func (g *Generator) generateProducts(ctx context.Context, tx pgx.Tx) ([]string, map[string]float64, error) {
	// Sorted so the faker draw sequence maps to the same categories on
	// every same-seed run
	categories := categoryNames()

	ids := make([]string, 0, g.cfg.Products)
	prices := make(map[string]float64, g.cfg.Products)
	batch := make([]string, 0, g.batch.BatchSize)

	for i := 1; i <= g.cfg.Products; i++ {
		id := fmt.Sprintf("PROD%04d", i)
		ids = append(ids, id)
		category := datagen.Choose(g.faker, categories)
		subCategory := datagen.Choose(g.faker, productCategories[category])

		price := round2(g.faker.Float64(200, 5000))
		cost := round2(price * g.faker.Float64(0.5, 0.8)) // cost < price
		prices[id] = price

		name := capitalize(g.faker.Word())

		batch = append(batch, fmt.Sprintf("('%s', '%s', '%s', '%s', %.2f, %.2f, '%s', %d, 'SUP%03d')",
			id,
			escapeSingleQuote(name),
			escapeSingleQuote(category),
			escapeSingleQuote(subCategory),
			price,
			cost,
			escapeSingleQuote(g.faker.Company()),
			g.faker.Int(10, 500),
			g.faker.Int(1, 100),
		))

		if len(batch) >= g.batch.BatchSize {
			if err := executeBatchInsert(ctx, tx, "staging.products",
				"(product_id, product_name, category, sub_category, price, cost, brand, stock_quantity, supplier_id)", batch); err != nil {
				return nil, nil, err
			}
			batch = batch[:0]
		}
	}

	if len(batch) > 0 {
		if err := executeBatchInsert(ctx, tx, "staging.products",
			"(product_id, product_name, category, sub_category, price, cost, brand, stock_quantity, supplier_id)", batch); err != nil {
			return nil, nil, err
		}
	}

	logging.Info().Int("count", g.cfg.Products).Msg("products complete")
	return ids, prices, nil
}

func (g *Generator) generateTransactions(ctx context.Context, tx pgx.Tx, customerIDs, productIDs []string, productPrices map[string]float64) (int, error) {
	txnBatch := make([]string, 0, g.batch.BatchSize)
	itemBatch := make([]string, 0, g.batch.BatchSize)
	progress := datagen.NewProgressReporter("staging.transactions",
		int64(g.cfg.Transactions), g.batch.ProgressInterval)

	itemID := 0
	for i := 1; i <= g.cfg.Transactions; i++ {
		txnID := fmt.Sprintf("TXN%06d", i)
		txnDate := g.faker.DateRange(g.cfg.DateStart, g.cfg.DateEnd)
		txnTime := fmt.Sprintf("%02d:%02d:%02d",
			g.faker.Int(0, 23), g.faker.Int(0, 59), g.faker.Int(0, 59))

		// 1-5 distinct products per transaction, in draw order
		numItems := g.faker.Int(1, 5)
		chosen := pickDistinct(g.faker, productIDs, numItems)

		var total float64
		for _, prodID := range chosen {
			itemID++
			quantity := g.faker.Int(1, 4)
			unitPrice := productPrices[prodID]
			discount := datagen.Choose(g.faker, discountChoices)

			lineTotal := round2(float64(quantity) * unitPrice * (1 - float64(discount)/100))
			total += lineTotal

			itemBatch = append(itemBatch, fmt.Sprintf("('ITEM%06d', '%s', '%s', %d, %.2f, %d, %.2f)",
				itemID, txnID, prodID, quantity, unitPrice, discount, lineTotal,
			))
		}

		txnBatch = append(txnBatch, fmt.Sprintf("('%s', '%s', '%s', '%s', '%s', '%s', %.2f)",
			txnID,
			datagen.Choose(g.faker, customerIDs),
			txnDate.Format("2006-01-02"),
			txnTime,
			datagen.Choose(g.faker, paymentMethods),
			escapeSingleQuote(g.faker.Street()+", "+g.faker.City()),
			round2(total),
		))

		if len(txnBatch) >= g.batch.BatchSize {
			if err := executeBatchInsert(ctx, tx, "staging.transactions",
				"(transaction_id, customer_id, transaction_date, transaction_time, payment_method, shipping_address, total_amount)", txnBatch); err != nil {
				return 0, err
			}
			if err := executeBatchInsert(ctx, tx, "staging.transaction_items",
				"(item_id, transaction_id, product_id, quantity, unit_price, discount_percentage, line_total)", itemBatch); err != nil {
				return 0, err
			}
			progress.Update(int64(len(txnBatch)))
			txnBatch = txnBatch[:0]
			itemBatch = itemBatch[:0]
		}
	}

	if len(txnBatch) > 0 {
		if err := executeBatchInsert(ctx, tx, "staging.transactions",
			"(transaction_id, customer_id, transaction_date, transaction_time, payment_method, shipping_address, total_amount)", txnBatch); err != nil {
			return 0, err
		}
		if err := executeBatchInsert(ctx, tx, "staging.transaction_items",
			"(item_id, transaction_id, product_id, quantity, unit_price, discount_percentage, line_total)", itemBatch); err != nil {
			return 0, err
		}
		progress.Update(int64(len(txnBatch)))
	}
	progress.Done()

	return itemID, nil
}

// categoryNames returns the product categories in sorted order. Map
// iteration order would otherwise vary per process and break same-seed
// reproducibility.
func categoryNames() []string {
	names := make([]string, 0, len(productCategories))
	for c := range productCategories {
		names = append(names, c)
	}
	sort.Strings(names)
	return names
}

// pickDistinct draws n distinct items, preserving draw order so the result
// is fully determined by the faker's seed.
func pickDistinct(f *datagen.Faker, items []string, n int) []string {
	picked := make([]string, 0, n)
	seen := make(map[string]bool, n)
	for len(picked) < n {
		item := datagen.Choose(f, items)
		if !seen[item] {
			seen[item] = true
			picked = append(picked, item)
		}
	}
	return picked
}

func executeBatchInsert(ctx context.Context, tx pgx.Tx, table, columns string, values []string) error {
	if len(values) == 0 {
		return nil
	}
	sql := fmt.Sprintf("INSERT INTO %s %s VALUES %s", table, columns, strings.Join(values, ", "))
	_, err := tx.Exec(ctx, sql)
	return err
}

func escapeSingleQuote(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
