// Package ingest parses the occupancy input contract from tabular sources
// (spreadsheet files, Google Sheets ranges) into engine records.
package ingest

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shiftlens/shiftlens/pkg/core/model"
)

// Required input columns, matched case-insensitively against the header row.
// Extra columns are ignored.
const (
	ColumnTimestamp   = "timestamp"
	ColumnPersonID    = "person_id"
	ColumnRole        = "role"
	ColumnEmployment  = "employment"
	ColumnWorkedSlots = "worked_slots"
	ColumnDayType     = "day_type"
)

// timestampLayouts are the accepted timestamp formats, tried in order.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02 15:04",
}

// ParseResult carries the parsed records plus per-row warnings. Malformed
// rows are skipped with a warning so one bad cell never aborts an import.
type ParseResult struct {
	Records  []model.OccupancyRecord
	Warnings []string
}

// ParseRows parses a raw table (header row plus data rows) into occupancy
// records. A missing required column is an input-shape error and fails the
// whole parse with a descriptive reason; everything row-level is absorbed
// into warnings.
func ParseRows(rows [][]string) (*ParseResult, error) {
	headerIdx := -1
	for i, row := range rows {
		if len(row) > 0 && !isBlankRow(row) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil, fmt.Errorf("input table is empty: no header row found")
	}

	columns, err := locateColumns(rows[headerIdx])
	if err != nil {
		return nil, err
	}

	result := &ParseResult{}
	for i, row := range rows[headerIdx+1:] {
		rowNum := headerIdx + i + 2 // 1-based, like a spreadsheet
		if isBlankRow(row) {
			continue
		}

		record, warning := parseRow(row, columns)
		if warning != "" {
			result.Warnings = append(result.Warnings, fmt.Sprintf("row %d: %s", rowNum, warning))
			continue
		}
		result.Records = append(result.Records, record)
	}
	return result, nil
}

type columnIndex struct {
	timestamp   int
	personID    int
	role        int
	employment  int
	workedSlots int
	dayType     int
}

func locateColumns(header []string) (columnIndex, error) {
	positions := make(map[string]int, len(header))
	for i, name := range header {
		positions[strings.ToLower(strings.TrimSpace(name))] = i
	}

	idx := columnIndex{}
	var missing []string
	lookup := func(name string, dest *int) {
		pos, ok := positions[name]
		if !ok {
			missing = append(missing, name)
			return
		}
		*dest = pos
	}
	lookup(ColumnTimestamp, &idx.timestamp)
	lookup(ColumnPersonID, &idx.personID)
	lookup(ColumnRole, &idx.role)
	lookup(ColumnEmployment, &idx.employment)
	lookup(ColumnWorkedSlots, &idx.workedSlots)
	lookup(ColumnDayType, &idx.dayType)

	if len(missing) > 0 {
		return idx, fmt.Errorf("input table is missing required columns: %s", strings.Join(missing, ", "))
	}
	return idx, nil
}

func parseRow(row []string, idx columnIndex) (model.OccupancyRecord, string) {
	timestamp, err := parseTimestamp(cell(row, idx.timestamp))
	if err != nil {
		return model.OccupancyRecord{}, err.Error()
	}

	personID := cell(row, idx.personID)
	if personID == "" {
		return model.OccupancyRecord{}, "empty person_id"
	}

	workedSlots, err := strconv.Atoi(cell(row, idx.workedSlots))
	if err != nil {
		return model.OccupancyRecord{}, fmt.Sprintf("invalid worked_slots %q", cell(row, idx.workedSlots))
	}
	if workedSlots < 0 {
		return model.OccupancyRecord{}, fmt.Sprintf("negative worked_slots %d", workedSlots)
	}

	dayType, err := parseDayType(cell(row, idx.dayType))
	if err != nil {
		return model.OccupancyRecord{}, err.Error()
	}

	return model.OccupancyRecord{
		Timestamp:   timestamp,
		PersonID:    personID,
		Role:        cell(row, idx.role),
		Employment:  cell(row, idx.employment),
		WorkedSlots: workedSlots,
		DayType:     dayType,
	}, ""
}

func parseTimestamp(value string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

func parseDayType(value string) (model.DayType, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	switch normalized {
	case "", string(model.DayTypeOrdinary):
		return model.DayTypeOrdinary, nil
	case string(model.DayTypeLeaveRequested):
		return model.DayTypeLeaveRequested, nil
	case string(model.DayTypeLeavePaid):
		return model.DayTypeLeavePaid, nil
	}
	return "", fmt.Errorf("unknown day_type %q", value)
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
