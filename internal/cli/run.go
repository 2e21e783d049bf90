package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/edgemart/martload/internal/db"
	"github.com/edgemart/martload/internal/pipeline"
)

var runRunDate string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: generate, cleanse, and warehouse",
	Long: `Run all pipeline stages in order against an initialized database.
The pipeline stops at the first failing stage and records run metadata
only after every stage has committed.

Example:
  martload run --connection "postgres://..." --run-date 2026-08-30`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runRunDate, "run-date", "",
		"effective date for dimension versions (YYYY-MM-DD, default today)")
}

func runRun(cmd *cobra.Command, args []string) error {
	if err := cfg.ValidateGenerate(); err != nil {
		return err
	}
	if err := cfg.ValidateWarehouse(); err != nil {
		return err
	}
	runDate, err := parseRunDate(runRunDate)
	if err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.Connection)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	return pipeline.Run(ctx, pool, cfg, runDate)
}
