package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/edgemart/martload/internal/db"
	"github.com/edgemart/martload/internal/logging"
	"github.com/edgemart/martload/internal/schema"
)

var initDropExisting bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the staging, production, and warehouse schemas",
	Long: `Create the three pipeline schemas and all their tables. Existing
tables are left in place unless --drop-existing is given.

Example:
  martload init --connection "postgres://..." --drop-existing`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initDropExisting, "drop-existing", false,
		"drop existing schemas before initialization")
}

func runInit(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.Connection)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	if initDropExisting {
		logging.Info().Msg("Dropping existing schemas")
		if err := schema.Drop(ctx, pool); err != nil {
			return fmt.Errorf("failed to drop schemas: %w", err)
		}
		if err := db.DropMetadata(ctx, pool); err != nil {
			logging.Debug().Err(err).Msg("No metadata table to drop")
		}
	}

	logging.Info().Msg("Creating schemas")
	if err := schema.Create(ctx, pool); err != nil {
		return fmt.Errorf("failed to create schemas: %w", err)
	}

	logging.Info().Msg("Database initialization complete")
	return nil
}
