package rollup

import (
	"sort"

	"github.com/shiftlens/shiftlens/pkg/core/model"
)

// DailySummary aggregates slot-level shortage/excess for one calendar date.
// On a closure date there is no demand: shortage and need are zeroed and any
// actual staffing counts entirely as excess.
type DailySummary struct {
	Date          string
	Closure       bool
	NeedHours     float64
	ActualHours   float64
	ShortageHours float64
	ExcessHours   float64
}

// MonthlySummary aggregates daily summaries for one calendar month. Working
// day counts exclude closures, so the per-working-day average never dilutes
// across days the facility was shut.
type MonthlySummary struct {
	Month                    string // "2006-01"
	WorkingDays              int
	ClosureDays              int
	NeedHours                float64
	ActualHours              float64
	ShortageHours            float64
	ExcessHours              float64
	AvgShortagePerWorkingDay float64
	PeakDate                 string
	PeakShortageHours        float64
}

// RollupDaily sums per-slot shortage/excess by date, applying the closure
// calendar. A nil calendar means no closures.
func RollupDaily(slots []model.SlotShortage, cal *Calendar) []DailySummary {
	byDate := make(map[string]*DailySummary)
	for _, s := range slots {
		day := byDate[s.Date]
		if day == nil {
			day = &DailySummary{Date: s.Date, Closure: cal.IsClosure(s.Date)}
			byDate[s.Date] = day
		}
		day.ActualHours += s.ActualHours
		if day.Closure {
			// No demand on a closure day: everything staffed is excess.
			day.ExcessHours += s.ActualHours
			continue
		}
		day.NeedHours += s.NeedHours
		day.ShortageHours += s.ShortageHours
		day.ExcessHours += s.ExcessHours
	}

	days := make([]DailySummary, 0, len(byDate))
	for _, day := range byDate {
		days = append(days, *day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })
	return days
}

// RollupMonthly aggregates daily summaries into calendar months.
func RollupMonthly(daily []DailySummary) []MonthlySummary {
	byMonth := make(map[string]*MonthlySummary)
	for _, day := range daily {
		if len(day.Date) < 7 {
			continue
		}
		month := day.Date[:7]
		m := byMonth[month]
		if m == nil {
			m = &MonthlySummary{Month: month}
			byMonth[month] = m
		}
		if day.Closure {
			m.ClosureDays++
		} else {
			m.WorkingDays++
		}
		m.NeedHours += day.NeedHours
		m.ActualHours += day.ActualHours
		m.ShortageHours += day.ShortageHours
		m.ExcessHours += day.ExcessHours
		if day.ShortageHours > m.PeakShortageHours {
			m.PeakShortageHours = day.ShortageHours
			m.PeakDate = day.Date
		}
	}

	months := make([]MonthlySummary, 0, len(byMonth))
	for _, m := range byMonth {
		if m.WorkingDays > 0 {
			m.AvgShortagePerWorkingDay = m.ShortageHours / float64(m.WorkingDays)
		}
		months = append(months, *m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Month < months[j].Month })
	return months
}
