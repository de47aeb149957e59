package analysis

import (
	"fmt"

	"github.com/shiftlens/shiftlens/pkg/core/model"
)

// AllocateProportional distributes one externally computed global shortage
// total across the role axis and the employment axis, in proportion to each
// group's share of ordinary-day working records. It never reads the need
// curve: the total is an opaque scalar supplied by the caller, which is what
// keeps this method from feeding a derived figure back into its own baseline.
//
// Shares on each axis sum to 1 by construction, so each breakdown sums to the
// supplied total to within floating-point error.
func AllocateProportional(records []model.OccupancyRecord, totalShortageHours float64) (byRole, byEmployment model.DecompositionResult, warnings []string) {
	byRole = model.DecompositionResult{Axis: model.AxisRole, Method: model.MethodProportional, Shares: map[string]float64{}}
	byEmployment = model.DecompositionResult{Axis: model.AxisEmployment, Method: model.MethodProportional, Shares: map[string]float64{}}

	if totalShortageHours < 0 {
		warnings = append(warnings, fmt.Sprintf("negative total shortage %.4f treated as 0", totalShortageHours))
		totalShortageHours = 0
	}
	byRole.Total = totalShortageHours
	byEmployment.Total = totalShortageHours

	roleCounts := make(map[string]int)
	employmentCounts := make(map[string]int)
	total := 0
	for _, r := range records {
		if r.DayType != model.DayTypeOrdinary || !r.IsWorking() {
			continue
		}
		roleCounts[r.Role]++
		employmentCounts[r.Employment]++
		total++
	}

	if total == 0 {
		warnings = append(warnings, "no ordinary-day working records; proportional allocation is empty")
		return byRole, byEmployment, warnings
	}

	for role, count := range roleCounts {
		byRole.Shares[role] = totalShortageHours * float64(count) / float64(total)
	}
	for employment, count := range employmentCounts {
		byEmployment.Shares[employment] = totalShortageHours * float64(count) / float64(total)
	}
	return byRole, byEmployment, warnings
}
