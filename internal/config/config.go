//-------------------------------------------------------------------------
//
// martload
//
// Copyright (c) 2025 - 2026, Edgemart Labs
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package config handles configuration management for martload.
// Configuration is loaded from config files and CLI flags (no environment
// variables). CLI flags take precedence over config file values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// DateFormat is the layout for all configured calendar dates.
const DateFormat = "2006-01-02"

// Config holds all configuration for martload.
type Config struct {
	// Connection is the PostgreSQL connection string.
	Connection string `mapstructure:"connection"`

	// LogLevel controls logging verbosity (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level"`

	// Generate holds configuration for the synthetic data stage.
	Generate GenerateConfig `mapstructure:"generate"`

	// Warehouse holds configuration for the warehouse load stage.
	Warehouse WarehouseConfig `mapstructure:"warehouse"`
}

// GenerateConfig holds configuration for synthetic data generation.
type GenerateConfig struct {
	// Customers is the number of synthetic customers to generate.
	Customers int `mapstructure:"customers"`

	// Products is the number of synthetic products to generate.
	Products int `mapstructure:"products"`

	// Transactions is the number of synthetic transactions to generate.
	Transactions int `mapstructure:"transactions"`

	// Seed makes generation reproducible when non-zero.
	Seed uint64 `mapstructure:"seed"`
}

// WarehouseConfig holds configuration for the warehouse load.
type WarehouseConfig struct {
	// CalendarStart is the first date of the calendar dimension (YYYY-MM-DD).
	CalendarStart string `mapstructure:"calendar_start"`

	// CalendarEnd is the last date of the calendar dimension (YYYY-MM-DD).
	CalendarEnd string `mapstructure:"calendar_end"`

	// BudgetMax is the exclusive upper price bound for the Budget tier.
	BudgetMax float64 `mapstructure:"budget_max"`

	// MidrangeMax is the exclusive upper price bound for the Mid-range tier.
	MidrangeMax float64 `mapstructure:"midrange_max"`

	// CustomerSegment is the segment assigned to customer dimension rows.
	CustomerSegment string `mapstructure:"customer_segment"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Generate: GenerateConfig{
			Customers:    500,
			Products:     200,
			Transactions: 5000,
		},
		Warehouse: WarehouseConfig{
			CalendarStart:   "2023-01-01",
			CalendarEnd:     "2025-12-31",
			BudgetMax:       50,
			MidrangeMax:     200,
			CustomerSegment: "Standard",
		},
	}
}

// Load reads configuration from config files.
// Config file locations (in order of precedence):
// 1. Path specified by configFile parameter
// 2. ./martload.yaml
// 3. ~/.config/martload/config.yaml
func Load(configFile string) (*Config, error) {
	v := viper.New()

	// Set config name and type
	v.SetConfigName("martload")
	v.SetConfigType("yaml")

	// Add config paths
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "martload"))
	}

	// Use specific config file if provided
	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Start with defaults
	cfg := DefaultConfig()

	// Unmarshal config file values
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.Connection == "" {
		return fmt.Errorf("connection string is required")
	}
	return nil
}

// ValidateGenerate checks configuration required for the generate stage.
func (c *Config) ValidateGenerate() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Generate.Customers < 1 {
		return fmt.Errorf("generate.customers must be at least 1")
	}
	if c.Generate.Products < 1 {
		return fmt.Errorf("generate.products must be at least 1")
	}
	if c.Generate.Transactions < 1 {
		return fmt.Errorf("generate.transactions must be at least 1")
	}
	return nil
}

// ValidateWarehouse checks configuration required for the warehouse stage.
// An inverted calendar range is not an error: the date dimension builder
// treats it as an empty no-op.
func (c *Config) ValidateWarehouse() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if _, err := time.Parse(DateFormat, c.Warehouse.CalendarStart); err != nil {
		return fmt.Errorf("invalid warehouse.calendar_start: %w", err)
	}
	if _, err := time.Parse(DateFormat, c.Warehouse.CalendarEnd); err != nil {
		return fmt.Errorf("invalid warehouse.calendar_end: %w", err)
	}
	if c.Warehouse.BudgetMax <= 0 {
		return fmt.Errorf("warehouse.budget_max must be positive")
	}
	if c.Warehouse.MidrangeMax <= c.Warehouse.BudgetMax {
		return fmt.Errorf("warehouse.midrange_max must be greater than budget_max")
	}
	if c.Warehouse.CustomerSegment == "" {
		return fmt.Errorf("warehouse.customer_segment is required")
	}
	return nil
}

// CalendarRange parses the configured calendar dates.
func (c *Config) CalendarRange() (time.Time, time.Time, error) {
	start, err := time.Parse(DateFormat, c.Warehouse.CalendarStart)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid calendar_start: %w", err)
	}
	end, err := time.Parse(DateFormat, c.Warehouse.CalendarEnd)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid calendar_end: %w", err)
	}
	return start, end, nil
}
