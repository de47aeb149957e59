package analysis

import (
	"math"
	"sort"
	"time"
)

const (
	// DefaultSlotWidthMinutes is used when the width cannot be detected from data.
	DefaultSlotWidthMinutes = 30

	// maxSlotWidthMinutes is the sanity ceiling for a detected width (24 hours).
	maxSlotWidthMinutes = 24 * 60
)

// SlotGrid is the time discretization every other component works on. All
// slots within one analysis share the same width.
type SlotGrid struct {
	WidthMinutes int

	// LowConfidence is set when the width came from a fallback rather than
	// being detected from the data.
	LowConfidence bool
}

// SlotHours returns the width of one slot in hours.
func (g SlotGrid) SlotHours() float64 {
	return float64(g.WidthMinutes) / 60.0
}

// DetectSlotWidth infers the slot width from the modal spacing between
// consecutive distinct timestamps, breaking ties toward the smaller spacing.
// With fewer than two distinct timestamps, or a detected width outside
// (0, 24h], it falls back to defaultMinutes and flags low confidence. It
// never fails.
func DetectSlotWidth(timestamps []time.Time, defaultMinutes int) SlotGrid {
	if defaultMinutes <= 0 || defaultMinutes > maxSlotWidthMinutes {
		defaultMinutes = DefaultSlotWidthMinutes
	}

	distinct := distinctSorted(timestamps)
	if len(distinct) < 2 {
		return SlotGrid{WidthMinutes: defaultMinutes, LowConfidence: true}
	}

	// Count consecutive deltas in whole minutes.
	counts := make(map[int]int)
	for i := 1; i < len(distinct); i++ {
		delta := int(math.Round(distinct[i].Sub(distinct[i-1]).Minutes()))
		if delta > 0 {
			counts[delta]++
		}
	}
	if len(counts) == 0 {
		return SlotGrid{WidthMinutes: defaultMinutes, LowConfidence: true}
	}

	modal := 0
	modalCount := 0
	for delta, count := range counts {
		if count > modalCount || (count == modalCount && delta < modal) {
			modal = delta
			modalCount = count
		}
	}

	if modal <= 0 || modal > maxSlotWidthMinutes {
		return SlotGrid{WidthMinutes: defaultMinutes, LowConfidence: true}
	}

	return SlotGrid{WidthMinutes: modal}
}

func distinctSorted(timestamps []time.Time) []time.Time {
	seen := make(map[int64]bool, len(timestamps))
	distinct := make([]time.Time, 0, len(timestamps))
	for _, ts := range timestamps {
		key := ts.UnixNano()
		if seen[key] {
			continue
		}
		seen[key] = true
		distinct = append(distinct, ts)
	}
	sort.Slice(distinct, func(i, j int) bool { return distinct[i].Before(distinct[j]) })
	return distinct
}
