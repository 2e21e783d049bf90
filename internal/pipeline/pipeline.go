//-------------------------------------------------------------------------
//
// martload
//
// Copyright (c) 2025 - 2026, Edgemart Labs
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package pipeline runs the full staging, production, and warehouse flow as
// one sequential job.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edgemart/martload/internal/config"
	"github.com/edgemart/martload/internal/db"
	"github.com/edgemart/martload/internal/logging"
	"github.com/edgemart/martload/internal/pricing"
	"github.com/edgemart/martload/internal/stages/cleanse"
	"github.com/edgemart/martload/internal/stages/generate"
	"github.com/edgemart/martload/internal/warehouse"
)

// Run executes all four stages in order, stopping at the first failure.
// Run metadata is written only after every stage has committed.
func Run(ctx context.Context, pool *pgxpool.Pool, cfg *config.Config, runDate time.Time) error {
	runID := uuid.NewString()
	start := time.Now()

	logging.Info().
		Str("run_id", runID).
		Str("run_date", runDate.Format(config.DateFormat)).
		Msg("Pipeline starting")

	calStart, calEnd, err := cfg.CalendarRange()
	if err != nil {
		return fmt.Errorf("invalid calendar range: %w", err)
	}
	tiers := pricing.Tiers{
		BudgetMax:   cfg.Warehouse.BudgetMax,
		MidrangeMax: cfg.Warehouse.MidrangeMax,
	}

	gen := generate.New(generate.Config{
		Customers:    cfg.Generate.Customers,
		Products:     cfg.Generate.Products,
		Transactions: cfg.Generate.Transactions,
		Seed:         cfg.Generate.Seed,
		DateStart:    calStart,
		DateEnd:      calEnd,
	})
	if err := gen.Run(ctx, pool); err != nil {
		return fmt.Errorf("generate stage: %w", err)
	}

	if err := cleanse.New(cleanse.Config{Tiers: tiers}).Run(ctx, pool); err != nil {
		return fmt.Errorf("cleanse stage: %w", err)
	}

	err = warehouse.Load(ctx, pool, warehouse.LoadConfig{
		CalendarStart:   calStart,
		CalendarEnd:     calEnd,
		RunDate:         runDate,
		Tiers:           tiers,
		CustomerSegment: cfg.Warehouse.CustomerSegment,
	})
	if err != nil {
		return fmt.Errorf("warehouse stage: %w", err)
	}

	if err := db.SaveRunMetadata(ctx, pool, runID, runDate); err != nil {
		return fmt.Errorf("failed to save run metadata: %w", err)
	}

	logging.Info().
		Str("run_id", runID).
		Dur("elapsed", time.Since(start)).
		Msg("Pipeline complete")
	return nil
}
