// Package datagen provides data generation utilities for martload.
package datagen

import (
	"github.com/edgemart/martload/internal/logging"
)

// BatchInsertConfig configures batch insert behavior.
type BatchInsertConfig struct {
	// BatchSize is the number of rows per batch insert.
	BatchSize int

	// ProgressInterval is how often to log progress (in rows).
	ProgressInterval int64
}

// DefaultBatchConfig returns default batch insert configuration.
func DefaultBatchConfig() BatchInsertConfig {
	return BatchInsertConfig{
		BatchSize:        1000,
		ProgressInterval: 100000,
	}
}

// ProgressReporter tracks and reports data generation progress.
type ProgressReporter struct {
	tableName        string
	totalRows        int64
	currentRow       int64
	progressInterval int64
}

// NewProgressReporter creates a new progress reporter.
func NewProgressReporter(tableName string, totalRows int64, interval int64) *ProgressReporter {
	if interval < 1 {
		interval = 1
	}
	return &ProgressReporter{
		tableName:        tableName,
		totalRows:        totalRows,
		progressInterval: interval,
	}
}

// Update updates the progress and logs if necessary.
func (p *ProgressReporter) Update(rowsInserted int64) {
	oldRow := p.currentRow
	p.currentRow += rowsInserted

	// Check if we crossed a progress interval
	if p.currentRow/p.progressInterval > oldRow/p.progressInterval {
		pct := float64(p.currentRow) / float64(p.totalRows) * 100
		logging.Info().
			Str("table", p.tableName).
			Int64("rows", p.currentRow).
			Int64("total", p.totalRows).
			Float64("percent", pct).
			Msg("Generating data")
	}
}

// Done logs completion.
func (p *ProgressReporter) Done() {
	logging.Info().
		Str("table", p.tableName).
		Int64("rows", p.currentRow).
		Msg("Table complete")
}
