package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/edgemart/martload/internal/db"
	"github.com/edgemart/martload/internal/pricing"
	"github.com/edgemart/martload/internal/stages/cleanse"
	"github.com/edgemart/martload/internal/stages/generate"
	"github.com/edgemart/martload/internal/warehouse"
)

var (
	genCustomers    int
	genProducts     int
	genTransactions int
	genSeed         uint64

	whRunDate       string
	whCalendarStart string
	whCalendarEnd   string
	whSegment       string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate synthetic data into the staging schema",
	Long: `Generate synthetic customers, products, transactions, and transaction
items, replacing whatever is currently in the staging tables.

Example:
  martload generate --customers 1000 --products 300 --transactions 20000`,
	RunE: runGenerate,
}

var cleanseCmd = &cobra.Command{
	Use:   "cleanse",
	Short: "Cleanse staging data into the production schema",
	Long: `Normalize, validate, and derive fields from staging rows into the
production schema. Customers and products are fully refreshed; transactions
and their items load incrementally.`,
	RunE: runCleanse,
}

var warehouseCmd = &cobra.Command{
	Use:   "warehouse",
	Short: "Load the warehouse star schema from production data",
	Long: `Build the date and payment method dimensions, apply type 2 versioning
to the customer and product dimensions, reload the sales fact table, and
rebuild the aggregate tables.

Example:
  martload warehouse --run-date 2026-08-30`,
	RunE: runWarehouse,
}

func init() {
	generateCmd.Flags().IntVar(&genCustomers, "customers", 0,
		"number of customers to generate")
	generateCmd.Flags().IntVar(&genProducts, "products", 0,
		"number of products to generate")
	generateCmd.Flags().IntVar(&genTransactions, "transactions", 0,
		"number of transactions to generate")
	generateCmd.Flags().Uint64Var(&genSeed, "seed", 0,
		"random seed for reproducible data (0 = random)")

	warehouseCmd.Flags().StringVar(&whRunDate, "run-date", "",
		"effective date for dimension versions (YYYY-MM-DD, default today)")
	warehouseCmd.Flags().StringVar(&whCalendarStart, "calendar-start", "",
		"first date of the calendar dimension (YYYY-MM-DD)")
	warehouseCmd.Flags().StringVar(&whCalendarEnd, "calendar-end", "",
		"last date of the calendar dimension (YYYY-MM-DD)")
	warehouseCmd.Flags().StringVar(&whSegment, "segment", "",
		"customer segment label for dimension versions")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if genCustomers > 0 {
		cfg.Generate.Customers = genCustomers
	}
	if genProducts > 0 {
		cfg.Generate.Products = genProducts
	}
	if genTransactions > 0 {
		cfg.Generate.Transactions = genTransactions
	}
	if genSeed != 0 {
		cfg.Generate.Seed = genSeed
	}

	if err := cfg.ValidateGenerate(); err != nil {
		return err
	}
	if err := cfg.ValidateWarehouse(); err != nil {
		return err
	}
	calStart, calEnd, err := cfg.CalendarRange()
	if err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.Connection)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	gen := generate.New(generate.Config{
		Customers:    cfg.Generate.Customers,
		Products:     cfg.Generate.Products,
		Transactions: cfg.Generate.Transactions,
		Seed:         cfg.Generate.Seed,
		DateStart:    calStart,
		DateEnd:      calEnd,
	})
	return gen.Run(ctx, pool)
}

func runCleanse(cmd *cobra.Command, args []string) error {
	if err := cfg.ValidateWarehouse(); err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.Connection)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	cl := cleanse.New(cleanse.Config{
		Tiers: pricing.Tiers{
			BudgetMax:   cfg.Warehouse.BudgetMax,
			MidrangeMax: cfg.Warehouse.MidrangeMax,
		},
	})
	return cl.Run(ctx, pool)
}

func runWarehouse(cmd *cobra.Command, args []string) error {
	if whCalendarStart != "" {
		cfg.Warehouse.CalendarStart = whCalendarStart
	}
	if whCalendarEnd != "" {
		cfg.Warehouse.CalendarEnd = whCalendarEnd
	}
	if whSegment != "" {
		cfg.Warehouse.CustomerSegment = whSegment
	}

	if err := cfg.ValidateWarehouse(); err != nil {
		return err
	}
	calStart, calEnd, err := cfg.CalendarRange()
	if err != nil {
		return err
	}
	runDate, err := parseRunDate(whRunDate)
	if err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.Connection)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	return warehouse.Load(ctx, pool, warehouse.LoadConfig{
		CalendarStart: calStart,
		CalendarEnd:   calEnd,
		RunDate:       runDate,
		Tiers: pricing.Tiers{
			BudgetMax:   cfg.Warehouse.BudgetMax,
			MidrangeMax: cfg.Warehouse.MidrangeMax,
		},
		CustomerSegment: cfg.Warehouse.CustomerSegment,
	})
}
