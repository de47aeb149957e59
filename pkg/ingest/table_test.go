package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftlens/shiftlens/pkg/core/model"
)

var header = []string{"timestamp", "person_id", "role", "employment", "worked_slots", "day_type"}

func TestParseRows(t *testing.T) {
	rows := [][]string{
		header,
		{"2025-03-03 09:00", "p1", "carer", "staff", "1", "ordinary"},
		{"2025-03-03T09:30:00Z", "p2", "nurse", "agency", "1", ""},
	}

	result, err := ParseRows(rows)
	require.NoError(t, err)
	require.Len(t, result.Records, 2)
	assert.Empty(t, result.Warnings)

	first := result.Records[0]
	assert.Equal(t, time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC), first.Timestamp)
	assert.Equal(t, "p1", first.PersonID)
	assert.Equal(t, "carer", first.Role)
	assert.Equal(t, 1, first.WorkedSlots)
	assert.Equal(t, model.DayTypeOrdinary, first.DayType)

	// Empty day_type defaults to ordinary.
	assert.Equal(t, model.DayTypeOrdinary, result.Records[1].DayType)
}

func TestParseRows_HeaderVariants(t *testing.T) {
	rows := [][]string{
		{},
		{"", ""},
		{"Timestamp", " PERSON_ID ", "Role", "Employment", "Worked_Slots", "Day_Type", "notes"},
		{"2025-03-03 09:00", "p1", "carer", "staff", "2", "leave-paid", "ignored"},
	}

	result, err := ParseRows(rows)
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	assert.Equal(t, model.DayTypeLeavePaid, result.Records[0].DayType)
	assert.Equal(t, 2, result.Records[0].WorkedSlots)
}

func TestParseRows_MissingColumns(t *testing.T) {
	rows := [][]string{
		{"timestamp", "person_id", "role"},
		{"2025-03-03 09:00", "p1", "carer"},
	}

	_, err := ParseRows(rows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "employment")
	assert.Contains(t, err.Error(), "worked_slots")
}

func TestParseRows_MalformedRowsAreWarnings(t *testing.T) {
	rows := [][]string{
		header,
		{"not-a-time", "p1", "carer", "staff", "1", "ordinary"},
		{"2025-03-03 09:00", "", "carer", "staff", "1", "ordinary"},
		{"2025-03-03 09:00", "p2", "carer", "staff", "lots", "ordinary"},
		{"2025-03-03 09:00", "p3", "carer", "staff", "-1", "ordinary"},
		{"2025-03-03 09:00", "p4", "carer", "staff", "1", "sabbatical"},
		{"2025-03-03 09:30", "p5", "carer", "staff", "1", "ordinary"},
	}

	result, err := ParseRows(rows)
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	assert.Equal(t, "p5", result.Records[0].PersonID)

	require.Len(t, result.Warnings, 5)
	assert.Contains(t, result.Warnings[0], "row 2")
	assert.Contains(t, result.Warnings[0], "unrecognized timestamp")
	assert.Contains(t, result.Warnings[1], "empty person_id")
	assert.Contains(t, result.Warnings[2], "invalid worked_slots")
	assert.Contains(t, result.Warnings[3], "negative worked_slots")
	assert.Contains(t, result.Warnings[4], "unknown day_type")
}

func TestParseRows_Empty(t *testing.T) {
	_, err := ParseRows(nil)
	assert.Error(t, err)

	_, err = ParseRows([][]string{{"", ""}, {}})
	assert.Error(t, err)
}
