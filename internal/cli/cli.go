//-------------------------------------------------------------------------
//
// martload
//
// Copyright (c) 2025 - 2026, Edgemart Labs
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package cli implements the command-line interface for martload.
package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/edgemart/martload/internal/config"
	"github.com/edgemart/martload/internal/logging"
	"github.com/edgemart/martload/pkg/version"
)

var (
	// Global flags
	cfgFile    string
	connection string
	logLevel   string

	// Global config
	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:   "martload",
		Short: "Synthetic e-commerce data mart loader for PostgreSQL",
		Long: `martload generates synthetic e-commerce data and moves it through a
four-stage batch pipeline in a single PostgreSQL database:

  generate  - synthetic customers, products, and transactions into staging
  cleanse   - normalized, validated rows into the production schema
  warehouse - star schema load: calendar and reference dimensions, type 2
              customer/product dimensions, the sales fact table, and
              aggregate rebuilds
  run       - all of the above in order

The warehouse stage tracks dimension history with slowly changing type 2
versioning, so repeated runs preserve prior attribute versions.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: ./martload.yaml)")
	rootCmd.PersistentFlags().StringVar(&connection, "connection", "",
		"PostgreSQL connection string")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level (debug, info, warn, error)")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(cleanseCmd)
	rootCmd.AddCommand(warehouseCmd)
	rootCmd.AddCommand(runCmd)
}

func initConfig() error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return err
	}

	// Override with CLI flags
	if connection != "" {
		cfg.Connection = connection
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	// Reinitialize logger with config
	logging.Init(logging.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
	})

	return nil
}

// parseRunDate resolves the --run-date flag, defaulting to today in UTC.
func parseRunDate(s string) (time.Time, error) {
	if s == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	d, err := time.Parse(config.DateFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid run date %q: %w", s, err)
	}
	return d, nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println(version.Info())
	},
}
