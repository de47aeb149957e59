package analysis

import (
	"sort"

	"github.com/shiftlens/shiftlens/pkg/core/model"
)

// groupKey identifies one need-curve group. Need is keyed by time-of-day, not
// calendar date.
type groupKey struct {
	timeOfDay  string
	role       string
	employment string
}

// EstimateNeed computes the need curve from historical occupancy. Only
// ordinary-day working records contribute. For each (time-of-day, role,
// employment) group it collects one observation per calendar date present for
// that group - the distinct-person headcount - and summarizes the series with
// every supported statistic. Groups never observed simply yield no estimates;
// callers treat a missing group as need 0.
//
// The statistics operate on the raw headcount series. Percentiles interpolate
// linearly between ranks; the percentile of a single observation is that
// observation.
func EstimateNeed(records []model.OccupancyRecord) []model.NeedEstimate {
	// (group, date) -> distinct persons
	type observation struct {
		group groupKey
		date  string
	}
	persons := make(map[observation]map[string]bool)
	for _, r := range records {
		if r.DayType != model.DayTypeOrdinary || !r.IsWorking() {
			continue
		}
		obs := observation{
			group: groupKey{timeOfDay: r.TimeOfDayKey(), role: r.Role, employment: r.Employment},
			date:  r.DateKey(),
		}
		if persons[obs] == nil {
			persons[obs] = make(map[string]bool)
		}
		persons[obs][r.PersonID] = true
	}

	// group -> headcount series, one entry per observed date
	series := make(map[groupKey][]float64)
	for obs, people := range persons {
		series[obs.group] = append(series[obs.group], float64(len(people)))
	}

	groups := make([]groupKey, 0, len(series))
	for g := range series {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool {
		a, b := groups[i], groups[j]
		if a.timeOfDay != b.timeOfDay {
			return a.timeOfDay < b.timeOfDay
		}
		if a.role != b.role {
			return a.role < b.role
		}
		return a.employment < b.employment
	})

	estimates := make([]model.NeedEstimate, 0, len(groups)*len(model.Statistics()))
	for _, g := range groups {
		values := series[g]
		sort.Float64s(values)
		for _, stat := range model.Statistics() {
			estimates = append(estimates, model.NeedEstimate{
				TimeOfDay:  g.timeOfDay,
				Role:       g.role,
				Employment: g.employment,
				Statistic:  stat,
				Value:      summarize(values, stat),
				SampleSize: len(values),
			})
		}
	}
	return estimates
}

// summarize computes one statistic over an ascending-sorted series.
func summarize(sorted []float64, stat model.Statistic) float64 {
	if len(sorted) == 0 {
		return 0
	}
	switch stat {
	case model.StatisticMean:
		var sum float64
		for _, v := range sorted {
			sum += v
		}
		return sum / float64(len(sorted))
	case model.StatisticMedian:
		return percentile(sorted, 0.5)
	case model.StatisticP25:
		return percentile(sorted, 0.25)
	case model.StatisticP75:
		return percentile(sorted, 0.75)
	}
	return 0
}

// percentile computes a percentile over an ascending-sorted series using
// linear interpolation between ranks.
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}
	rank := p * float64(n-1)
	lower := int(rank)
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}
	fraction := rank - float64(lower)
	return sorted[lower] + fraction*(sorted[upper]-sorted[lower])
}
