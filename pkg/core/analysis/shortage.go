package analysis

import (
	"math"
	"sort"

	"github.com/shiftlens/shiftlens/pkg/core/model"
)

// ShortageResult is the time-axis method's output: per-slot shortage/excess
// plus the role-axis and employment-axis breakdowns. All three totals are sums
// over the same per-slot values, so they agree by construction.
type ShortageResult struct {
	Slots              []model.SlotShortage
	ByRole             model.DecompositionResult
	ByEmployment       model.DecompositionResult
	TotalShortageHours float64
	TotalExcessHours   float64
	Warnings           []string
}

// ComputeShortage compares the selected need scenario against actual staffing,
// slot by slot. For every calendar date present in the actuals, each group
// from either table is evaluated: a need group with no actual record that day
// is fully short, and an actual group with no need estimate is treated as
// need 0 (surplus, not shortage). Hours are headcount gaps multiplied by the
// slot width. An empty actuals table yields an empty, warned result.
func ComputeShortage(estimates []model.NeedEstimate, stat model.Statistic, actuals []model.ActualCount, grid SlotGrid) ShortageResult {
	result := ShortageResult{
		ByRole:       model.DecompositionResult{Axis: model.AxisRole, Method: model.MethodTimeAxis, Shares: map[string]float64{}},
		ByEmployment: model.DecompositionResult{Axis: model.AxisEmployment, Method: model.MethodTimeAxis, Shares: map[string]float64{}},
	}

	needByGroup := make(map[groupKey]float64)
	for _, e := range estimates {
		if e.Statistic != stat {
			continue
		}
		needByGroup[groupKey{timeOfDay: e.TimeOfDay, role: e.Role, employment: e.Employment}] = e.Value
	}

	actualBySlot := make(map[slotKey]int, len(actuals))
	dateSet := make(map[string]bool)
	for _, a := range actuals {
		actualBySlot[slotKey{date: a.Date, timeOfDay: a.TimeOfDay, role: a.Role, employment: a.Employment}] = a.Headcount
		dateSet[a.Date] = true
	}

	if len(dateSet) == 0 {
		result.Warnings = append(result.Warnings, "no actual occupancy records in window; shortage table is empty")
		return result
	}
	if len(needByGroup) == 0 {
		result.Warnings = append(result.Warnings, "no need estimates for statistic "+string(stat)+"; all staffing counts as excess")
	}

	dates := make([]string, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	slotHours := grid.SlotHours()
	for _, date := range dates {
		// Union of need groups and the groups actually staffed on this date.
		groups := make(map[groupKey]bool, len(needByGroup))
		for g := range needByGroup {
			groups[g] = true
		}
		for key := range actualBySlot {
			if key.date == date {
				groups[groupKey{timeOfDay: key.timeOfDay, role: key.role, employment: key.employment}] = true
			}
		}

		ordered := make([]groupKey, 0, len(groups))
		for g := range groups {
			ordered = append(ordered, g)
		}
		sort.Slice(ordered, func(i, j int) bool {
			a, b := ordered[i], ordered[j]
			if a.timeOfDay != b.timeOfDay {
				return a.timeOfDay < b.timeOfDay
			}
			if a.role != b.role {
				return a.role < b.role
			}
			return a.employment < b.employment
		})

		for _, g := range ordered {
			need := needByGroup[g]
			actual := float64(actualBySlot[slotKey{date: date, timeOfDay: g.timeOfDay, role: g.role, employment: g.employment}])
			shortage := math.Max(0, need-actual) * slotHours
			excess := math.Max(0, actual-need) * slotHours

			result.Slots = append(result.Slots, model.SlotShortage{
				Date:          date,
				TimeOfDay:     g.timeOfDay,
				Role:          g.role,
				Employment:    g.employment,
				NeedHours:     need * slotHours,
				ActualHours:   actual * slotHours,
				ShortageHours: shortage,
				ExcessHours:   excess,
			})

			result.ByRole.Shares[g.role] += shortage
			result.ByEmployment.Shares[g.employment] += shortage
			result.TotalShortageHours += shortage
			result.TotalExcessHours += excess
		}
	}

	result.ByRole.Total = result.TotalShortageHours
	result.ByEmployment.Total = result.TotalShortageHours
	return result
}
