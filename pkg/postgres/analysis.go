package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/shiftlens/shiftlens/pkg/core/model"
	"github.com/shiftlens/shiftlens/pkg/db"
)

// SaveAnalysis persists a run and all of its output tables in one
// transaction. A failure anywhere rolls everything back, so callers never see
// a half-populated run.
func (d *DB) SaveAnalysis(ctx context.Context, run *db.AnalysisRun, outputs *db.AnalysisOutputs) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	createdAt, err := time.Parse(time.RFC3339, run.CreatedAt)
	if err != nil {
		return fmt.Errorf("invalid run created_at %q: %w", run.CreatedAt, err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO analysis_run (id, created_at, window_start, window_end, statistic, slot_width_minutes, low_confidence_grid, warnings)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, run.ID, createdAt, run.WindowStart, run.WindowEnd, run.Statistic, run.SlotWidthMinutes, run.LowConfidenceGrid, run.Warnings)
	if err != nil {
		return fmt.Errorf("failed to insert analysis run: %w", err)
	}

	for _, e := range outputs.Estimates {
		_, err = tx.Exec(ctx, `
			INSERT INTO need_estimate (run_id, time_of_day, role, employment, statistic, value, sample_size)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, run.ID, e.TimeOfDay, e.Role, e.Employment, string(e.Statistic), e.Value, e.SampleSize)
		if err != nil {
			return fmt.Errorf("failed to insert need estimate: %w", err)
		}
	}

	for _, s := range outputs.Slots {
		_, err = tx.Exec(ctx, `
			INSERT INTO shortage_record (run_id, slot_date, time_of_day, role, employment, need_hours, actual_hours, shortage_hours, excess_hours)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, run.ID, s.Date, s.TimeOfDay, s.Role, s.Employment, s.NeedHours, s.ActualHours, s.ShortageHours, s.ExcessHours)
		if err != nil {
			return fmt.Errorf("failed to insert shortage record: %w", err)
		}
	}

	for _, dec := range outputs.Decompositions {
		_, err = tx.Exec(ctx, `
			INSERT INTO decomposition (run_id, axis, method, group_key, shortage_hours, total_hours)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, run.ID, dec.Axis, dec.Method, dec.GroupKey, dec.ShortageHours, dec.TotalHours)
		if err != nil {
			return fmt.Errorf("failed to insert decomposition: %w", err)
		}
	}

	for _, r := range outputs.Reports {
		_, err = tx.Exec(ctx, `
			INSERT INTO reconciliation_report (run_id, comparison, method_a_total, method_b_total, absolute_difference, relative_difference, within_tolerance)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, run.ID, r.Comparison, r.MethodATotal, r.MethodBTotal, r.AbsoluteDifference, r.RelativeDifference, r.WithinTolerance)
		if err != nil {
			return fmt.Errorf("failed to insert reconciliation report: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit analysis run: %w", err)
	}
	return nil
}

// GetRun retrieves one analysis run's metadata
func (d *DB) GetRun(ctx context.Context, runID string) (*db.AnalysisRun, error) {
	var run db.AnalysisRun
	var createdAt time.Time
	var windowStart, windowEnd time.Time
	err := d.pool.QueryRow(ctx, `
		SELECT id, created_at, window_start, window_end, statistic, slot_width_minutes, low_confidence_grid, warnings
		FROM analysis_run
		WHERE id = $1
	`, runID).Scan(&run.ID, &createdAt, &windowStart, &windowEnd, &run.Statistic, &run.SlotWidthMinutes, &run.LowConfidenceGrid, &run.Warnings)
	if err != nil {
		return nil, fmt.Errorf("failed to query analysis run %s: %w", runID, err)
	}
	run.CreatedAt = createdAt.UTC().Format(time.RFC3339)
	run.WindowStart = windowStart.Format(model.DateLayout)
	run.WindowEnd = windowEnd.Format(model.DateLayout)
	return &run, nil
}

// ListRuns retrieves all analysis runs, newest first
func (d *DB) ListRuns(ctx context.Context) ([]db.AnalysisRun, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, created_at, window_start, window_end, statistic, slot_width_minutes, low_confidence_grid, warnings
		FROM analysis_run
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query analysis runs: %w", err)
	}
	defer rows.Close()

	var runs []db.AnalysisRun
	for rows.Next() {
		var run db.AnalysisRun
		var createdAt, windowStart, windowEnd time.Time
		if err := rows.Scan(&run.ID, &createdAt, &windowStart, &windowEnd, &run.Statistic, &run.SlotWidthMinutes, &run.LowConfidenceGrid, &run.Warnings); err != nil {
			return nil, fmt.Errorf("failed to scan analysis run: %w", err)
		}
		run.CreatedAt = createdAt.UTC().Format(time.RFC3339)
		run.WindowStart = windowStart.Format(model.DateLayout)
		run.WindowEnd = windowEnd.Format(model.DateLayout)
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating analysis runs: %w", err)
	}

	return runs, nil
}

// GetSlotShortages retrieves the per-slot shortage table for a run
func (d *DB) GetSlotShortages(ctx context.Context, runID string) ([]model.SlotShortage, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT slot_date, time_of_day, role, employment, need_hours, actual_hours, shortage_hours, excess_hours
		FROM shortage_record
		WHERE run_id = $1
		ORDER BY slot_date, time_of_day, role, employment
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query shortage records: %w", err)
	}
	defer rows.Close()

	var slots []model.SlotShortage
	for rows.Next() {
		var s model.SlotShortage
		var slotDate time.Time
		if err := rows.Scan(&slotDate, &s.TimeOfDay, &s.Role, &s.Employment, &s.NeedHours, &s.ActualHours, &s.ShortageHours, &s.ExcessHours); err != nil {
			return nil, fmt.Errorf("failed to scan shortage record: %w", err)
		}
		s.Date = slotDate.Format(model.DateLayout)
		slots = append(slots, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating shortage records: %w", err)
	}

	return slots, nil
}

// GetDecompositions retrieves the decomposition table for a run
func (d *DB) GetDecompositions(ctx context.Context, runID string) ([]db.Decomposition, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT run_id, axis, method, group_key, shortage_hours, total_hours
		FROM decomposition
		WHERE run_id = $1
		ORDER BY axis, method, group_key
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query decompositions: %w", err)
	}
	defer rows.Close()

	var decompositions []db.Decomposition
	for rows.Next() {
		var dec db.Decomposition
		if err := rows.Scan(&dec.RunID, &dec.Axis, &dec.Method, &dec.GroupKey, &dec.ShortageHours, &dec.TotalHours); err != nil {
			return nil, fmt.Errorf("failed to scan decomposition: %w", err)
		}
		decompositions = append(decompositions, dec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating decompositions: %w", err)
	}

	return decompositions, nil
}
