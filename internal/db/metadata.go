//-------------------------------------------------------------------------
//
// martload
//
// Copyright (c) 2025 - 2026, Edgemart Labs
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edgemart/martload/internal/logging"
	"github.com/edgemart/martload/pkg/version"
)

const metadataTable = "martload_metadata"

// createMetadataTableSQL creates the metadata table if it doesn't exist.
const createMetadataTableSQL = `
CREATE TABLE IF NOT EXISTS martload_metadata (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
)`

// SaveRunMetadata records the outcome of a completed pipeline run.
func SaveRunMetadata(ctx context.Context, pool *pgxpool.Pool, runID string, runDate time.Time) error {
	// Create table if it doesn't exist
	_, err := pool.Exec(ctx, createMetadataTableSQL)
	if err != nil {
		return fmt.Errorf("failed to create metadata table: %w", err)
	}

	// Insert or update metadata
	metadata := map[string]string{
		"last_run_id":   runID,
		"last_run_date": runDate.Format("2006-01-02"),
		"completed_at":  time.Now().UTC().Format(time.RFC3339),
		"version":       version.Short(),
	}

	for key, value := range metadata {
		_, err := pool.Exec(ctx, `
            INSERT INTO martload_metadata (key, value) VALUES ($1, $2)
            ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
        `, key, value)
		if err != nil {
			return fmt.Errorf("failed to save metadata %s: %w", key, err)
		}
	}

	logging.Debug().
		Str("run_id", runID).
		Msg("Saved run metadata")

	return nil
}

// GetMetadataValue retrieves a single metadata value by key.
func GetMetadataValue(ctx context.Context, pool *pgxpool.Pool, key string) (string, error) {
	var value string
	err := pool.QueryRow(ctx, `
        SELECT value FROM martload_metadata WHERE key = $1
    `, key).Scan(&value)
	if err != nil {
		return "", err
	}
	return value, nil
}

// GetAllMetadata retrieves all metadata as a map.
func GetAllMetadata(ctx context.Context, pool *pgxpool.Pool) (map[string]string, error) {
	rows, err := pool.Query(ctx, `SELECT key, value FROM martload_metadata`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	metadata := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		metadata[key] = value
	}

	return metadata, rows.Err()
}

// DropMetadata drops the metadata table.
func DropMetadata(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", metadataTable))
	return err
}
