//-------------------------------------------------------------------------
//
// martload
//
// Copyright (c) 2025 - 2026, Edgemart Labs
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package warehouse builds the star schema: calendar and reference
// dimensions, slowly changing customer and product dimensions, the sales
// fact table, and the aggregate tables on top of it.
package warehouse

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edgemart/martload/internal/logging"
)

const dateBatchSize = 1000

// DateKey encodes a date as a yyyymmdd integer.
func DateKey(t time.Time) int {
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}

// LoadDateDim fills dim_date for every day from start through end inclusive.
// Existing date keys are left untouched, so reruns and range extensions are
// safe. An inverted range loads nothing.
func LoadDateDim(ctx context.Context, pool *pgxpool.Pool, start, end time.Time) (int, error) {
	if start.After(end) {
		logging.Warn().
			Str("start", start.Format("2006-01-02")).
			Str("end", end.Format("2006-01-02")).
			Msg("Calendar range is empty, skipping date dimension")
		return 0, nil
	}

	total := 0
	batch := make([]string, 0, dateBatchSize)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		batch = append(batch, dateRowValues(d))
		if len(batch) >= dateBatchSize {
			n, err := insertDateBatch(ctx, pool, batch)
			if err != nil {
				return total, err
			}
			total += n
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		n, err := insertDateBatch(ctx, pool, batch)
		if err != nil {
			return total, err
		}
		total += n
	}

	logging.Info().Int("rows", total).Msg("Date dimension loaded")
	return total, nil
}

func dateRowValues(d time.Time) string {
	_, isoWeek := d.ISOWeek()
	weekday := d.Weekday()
	return fmt.Sprintf("(%d, '%s', %d, %d, %d, %d, '%s', '%s', %d, %t)",
		DateKey(d),
		d.Format("2006-01-02"),
		d.Year(),
		(int(d.Month())-1)/3+1,
		int(d.Month()),
		d.Day(),
		d.Month().String(),
		weekday.String(),
		isoWeek,
		weekday == time.Saturday || weekday == time.Sunday,
	)
}

func insertDateBatch(ctx context.Context, pool *pgxpool.Pool, values []string) (int, error) {
	sql := `INSERT INTO warehouse.dim_date
    (date_key, full_date, year, quarter, month, day, month_name, weekday_name, iso_week, is_weekend)
VALUES ` + strings.Join(values, ", ") + `
ON CONFLICT (date_key) DO NOTHING`

	tag, err := pool.Exec(ctx, sql)
	if err != nil {
		return 0, fmt.Errorf("failed to insert date dimension batch: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
