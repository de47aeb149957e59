package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/shiftlens/shiftlens/pkg/core/model"
)

// GetOccupancy retrieves occupancy records with timestamps in [from, to)
func (d *DB) GetOccupancy(ctx context.Context, from, to time.Time) ([]model.OccupancyRecord, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT ts, person_id, role, employment, worked_slots, day_type
		FROM occupancy
		WHERE ts >= $1 AND ts < $2
		ORDER BY ts, person_id
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query occupancy: %w", err)
	}
	defer rows.Close()

	var records []model.OccupancyRecord
	for rows.Next() {
		var r model.OccupancyRecord
		var dayType string
		if err := rows.Scan(&r.Timestamp, &r.PersonID, &r.Role, &r.Employment, &r.WorkedSlots, &dayType); err != nil {
			return nil, fmt.Errorf("failed to scan occupancy record: %w", err)
		}
		r.DayType = model.DayType(dayType)
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating occupancy records: %w", err)
	}

	return records, nil
}

// ReplaceOccupancy atomically swaps the occupancy window [from, to] for the
// given records.
func (d *DB) ReplaceOccupancy(ctx context.Context, from, to time.Time, records []model.OccupancyRecord) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM occupancy WHERE ts >= $1 AND ts <= $2`, from, to); err != nil {
		return fmt.Errorf("failed to clear occupancy window: %w", err)
	}

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"occupancy"},
		[]string{"ts", "person_id", "role", "employment", "worked_slots", "day_type"},
		pgx.CopyFromSlice(len(records), func(i int) ([]interface{}, error) {
			r := records[i]
			return []interface{}{r.Timestamp, r.PersonID, r.Role, r.Employment, r.WorkedSlots, string(r.DayType)}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to copy occupancy records: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit occupancy replace: %w", err)
	}
	return nil
}
