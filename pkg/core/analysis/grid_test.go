package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ts(hour, minute int) time.Time {
	return time.Date(2025, 3, 10, hour, minute, 0, 0, time.UTC)
}

func TestDetectSlotWidth_ModalSpacing(t *testing.T) {
	// Mostly 30-minute spacing with one 60-minute gap
	timestamps := []time.Time{
		ts(9, 0), ts(9, 30), ts(10, 0), ts(10, 30), ts(11, 30),
	}

	grid := DetectSlotWidth(timestamps, 15)

	assert.Equal(t, 30, grid.WidthMinutes)
	assert.False(t, grid.LowConfidence)
	assert.InDelta(t, 0.5, grid.SlotHours(), 1e-9)
}

func TestDetectSlotWidth_TieBreaksToSmaller(t *testing.T) {
	// Two 15-minute gaps and two 30-minute gaps
	timestamps := []time.Time{
		ts(9, 0), ts(9, 15), ts(9, 30), ts(10, 0), ts(10, 30),
	}

	grid := DetectSlotWidth(timestamps, 60)

	assert.Equal(t, 15, grid.WidthMinutes)
	assert.False(t, grid.LowConfidence)
}

func TestDetectSlotWidth_DuplicatesIgnored(t *testing.T) {
	// Duplicate timestamps must not produce zero deltas
	timestamps := []time.Time{
		ts(9, 0), ts(9, 0), ts(9, 0), ts(10, 0), ts(11, 0),
	}

	grid := DetectSlotWidth(timestamps, 30)

	assert.Equal(t, 60, grid.WidthMinutes)
	assert.False(t, grid.LowConfidence)
}

func TestDetectSlotWidth_Fallbacks(t *testing.T) {
	tests := []struct {
		name          string
		timestamps    []time.Time
		defaultMins   int
		expectedWidth int
	}{
		{"no timestamps", nil, 30, 30},
		{"single timestamp", []time.Time{ts(9, 0)}, 45, 45},
		{"bad default replaced", nil, -5, DefaultSlotWidthMinutes},
		{"default above ceiling replaced", nil, 36 * 60, DefaultSlotWidthMinutes},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grid := DetectSlotWidth(tt.timestamps, tt.defaultMins)
			assert.Equal(t, tt.expectedWidth, grid.WidthMinutes)
			assert.True(t, grid.LowConfidence)
		})
	}
}

func TestDetectSlotWidth_SpacingAboveCeiling(t *testing.T) {
	// Consecutive days: a 25-hour spacing must not become the slot width
	timestamps := []time.Time{
		ts(9, 0),
		ts(9, 0).AddDate(0, 0, 1).Add(time.Hour),
	}

	grid := DetectSlotWidth(timestamps, 30)

	assert.Equal(t, 30, grid.WidthMinutes)
	assert.True(t, grid.LowConfidence)
}
