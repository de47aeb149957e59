package analysis

import (
	"sort"

	"github.com/shiftlens/shiftlens/pkg/core/model"
)

// slotKey identifies one concrete slot on one calendar date.
type slotKey struct {
	date       string
	timeOfDay  string
	role       string
	employment string
}

// AggregateActual reduces the occupancy table to the actual distinct-person
// headcount per (date, time-of-day, role, employment). All day types count -
// someone who worked on a leave-requested day still staffed the slot - but the
// working predicate is the same one the need estimator uses.
func AggregateActual(records []model.OccupancyRecord) []model.ActualCount {
	persons := make(map[slotKey]map[string]bool)
	for _, r := range records {
		if !r.IsWorking() {
			continue
		}
		key := slotKey{
			date:       r.DateKey(),
			timeOfDay:  r.TimeOfDayKey(),
			role:       r.Role,
			employment: r.Employment,
		}
		if persons[key] == nil {
			persons[key] = make(map[string]bool)
		}
		persons[key][r.PersonID] = true
	}

	counts := make([]model.ActualCount, 0, len(persons))
	for key, people := range persons {
		counts = append(counts, model.ActualCount{
			Date:       key.date,
			TimeOfDay:  key.timeOfDay,
			Role:       key.role,
			Employment: key.employment,
			Headcount:  len(people),
		})
	}
	sort.Slice(counts, func(i, j int) bool {
		a, b := counts[i], counts[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.TimeOfDay != b.TimeOfDay {
			return a.TimeOfDay < b.TimeOfDay
		}
		if a.Role != b.Role {
			return a.Role < b.Role
		}
		return a.Employment < b.Employment
	})
	return counts
}
