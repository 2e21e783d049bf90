package warehouse

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edgemart/martload/internal/logging"
	"github.com/edgemart/martload/internal/pricing"
)

// LoadConfig controls a warehouse stage run.
type LoadConfig struct {
	// CalendarStart and CalendarEnd bound the date dimension.
	CalendarStart time.Time
	CalendarEnd   time.Time

	// RunDate stamps effective_date and end_date on dimension versions.
	RunDate time.Time

	// Tiers is the price tier policy, shared with the cleanse stage.
	Tiers pricing.Tiers

	// CustomerSegment is assigned to every customer version.
	CustomerSegment string
}

// Load runs the full warehouse stage: calendar and reference dimensions,
// then the slowly changing dimensions, then the fact reload, then the
// aggregate rebuild. Stages run in this order so every fact row can resolve
// its surrogate keys against current dimension versions.
func Load(ctx context.Context, pool *pgxpool.Pool, cfg LoadConfig) error {
	start := time.Now()

	if _, err := LoadDateDim(ctx, pool, cfg.CalendarStart, cfg.CalendarEnd); err != nil {
		return fmt.Errorf("date dimension: %w", err)
	}
	if err := LoadPaymentMethodDim(ctx, pool); err != nil {
		return fmt.Errorf("payment method dimension: %w", err)
	}
	if _, err := LoadCustomerDim(ctx, pool, cfg.RunDate, cfg.CustomerSegment); err != nil {
		return fmt.Errorf("customer dimension: %w", err)
	}
	if _, err := LoadProductDim(ctx, pool, cfg.RunDate, cfg.Tiers); err != nil {
		return fmt.Errorf("product dimension: %w", err)
	}
	if _, err := LoadFacts(ctx, pool); err != nil {
		return fmt.Errorf("fact load: %w", err)
	}
	if err := RebuildAggregates(ctx, pool); err != nil {
		return fmt.Errorf("aggregate rebuild: %w", err)
	}

	logging.Info().
		Dur("elapsed", time.Since(start)).
		Msg("Warehouse stage complete")
	return nil
}
