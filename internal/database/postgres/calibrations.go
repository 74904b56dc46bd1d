package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kozaktomas/face-threshold/internal/database"
)

// CalibrationRepository stores threshold calibration runs.
type CalibrationRepository struct {
	pool *Pool
}

// NewCalibrationRepository creates a new calibration repository.
func NewCalibrationRepository(pool *Pool) *CalibrationRepository {
	return &CalibrationRepository{pool: pool}
}

// SaveCalibration stores a calibration run, assigning an ID and timestamp when missing.
func (r *CalibrationRepository) SaveCalibration(ctx context.Context, c *database.Calibration) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO calibrations (id, source, measure, metric, range_start, range_end, range_step,
		                          threshold, score, pair_count, match_count, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, c.ID, c.Source, c.Measure, c.Metric, c.RangeStart, c.RangeEnd, c.RangeStep,
		c.Threshold, c.Score, c.PairCount, c.MatchCount, c.DurationMs, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert calibration: %w", err)
	}
	return nil
}

// ListCalibrations returns the most recent calibration runs first.
func (r *CalibrationRepository) ListCalibrations(ctx context.Context, limit int) ([]database.Calibration, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, source, measure, metric, range_start, range_end, range_step,
		       threshold, score, pair_count, match_count, duration_ms, created_at
		FROM calibrations
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query calibrations: %w", err)
	}
	defer rows.Close()

	var out []database.Calibration
	for rows.Next() {
		var c database.Calibration
		if err := rows.Scan(&c.ID, &c.Source, &c.Measure, &c.Metric, &c.RangeStart, &c.RangeEnd, &c.RangeStep,
			&c.Threshold, &c.Score, &c.PairCount, &c.MatchCount, &c.DurationMs, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan calibration: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate calibrations: %w", err)
	}
	return out, nil
}
