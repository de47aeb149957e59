package model

import "time"

// DateLayout is the canonical calendar-date key format used across the engine.
const DateLayout = "2006-01-02"

// TimeOfDayLayout is the canonical time-of-day key format used across the engine.
const TimeOfDayLayout = "15:04"

// DayType classifies an occupancy record's calendar day.
type DayType string

const (
	DayTypeOrdinary       DayType = "ordinary"
	DayTypeLeaveRequested DayType = "leave_requested"
	DayTypeLeavePaid      DayType = "leave_paid"
)

func (d DayType) IsValid() bool {
	return d == DayTypeOrdinary || d == DayTypeLeaveRequested || d == DayTypeLeavePaid
}

// OccupancyRecord is one normalized long-form staffing record: a person observed
// (or on leave) at a timestamp, in a role and employment category.
type OccupancyRecord struct {
	Timestamp   time.Time
	PersonID    string
	Role        string
	Employment  string
	WorkedSlots int
	DayType     DayType
}

// IsWorking reports whether this record counts toward headcount. This is the
// single working predicate shared by the need estimator and the actual
// aggregator; a second definition anywhere else is a bug.
func (r OccupancyRecord) IsWorking() bool {
	return r.WorkedSlots > 0
}

// DateKey returns the record's calendar-date key.
func (r OccupancyRecord) DateKey() string {
	return r.Timestamp.Format(DateLayout)
}

// TimeOfDayKey returns the record's time-of-day key.
func (r OccupancyRecord) TimeOfDayKey() string {
	return r.Timestamp.Format(TimeOfDayLayout)
}

// Statistic selects which summary statistic of the historical headcount
// distribution a need estimate is based on.
type Statistic string

const (
	StatisticMean   Statistic = "mean"
	StatisticMedian Statistic = "median"
	StatisticP25    Statistic = "p25"
	StatisticP75    Statistic = "p75"
)

// Statistics lists all supported statistics in canonical order.
func Statistics() []Statistic {
	return []Statistic{StatisticMean, StatisticMedian, StatisticP25, StatisticP75}
}

func (s Statistic) IsValid() bool {
	switch s {
	case StatisticMean, StatisticMedian, StatisticP25, StatisticP75:
		return true
	}
	return false
}

// NeedEstimate is one point of the need curve: the estimated headcount required
// at a time-of-day for a (role, employment) group under one statistic. Need is
// a function of time-of-day, not of calendar date.
type NeedEstimate struct {
	TimeOfDay  string
	Role       string
	Employment string
	Statistic  Statistic
	Value      float64
	// SampleSize is the number of historical observations behind the estimate.
	// A size of 0 or 1 marks a low-confidence estimate, not an error.
	SampleSize int
}

// ActualCount is the observed distinct-person headcount for one slot and group
// on one calendar date.
type ActualCount struct {
	Date       string
	TimeOfDay  string
	Role       string
	Employment string
	Headcount  int
}

// SlotShortage is the per-slot comparison of need against actual staffing,
// expressed in hours. At most one of ShortageHours/ExcessHours is non-zero.
type SlotShortage struct {
	Date          string
	TimeOfDay     string
	Role          string
	Employment    string
	NeedHours     float64
	ActualHours   float64
	ShortageHours float64
	ExcessHours   float64
}

// Axis identifies the grouping dimension of a decomposition.
type Axis string

const (
	AxisRole       Axis = "role"
	AxisEmployment Axis = "employment"
)

// DecompositionMethod identifies how a decomposition was derived.
type DecompositionMethod string

const (
	// MethodTimeAxis sums per-slot shortage values along one axis.
	MethodTimeAxis DecompositionMethod = "time_axis"
	// MethodProportional splits an externally supplied total by record share.
	MethodProportional DecompositionMethod = "proportional"
)

// DecompositionResult maps group keys on one axis to shortage hours, together
// with the grand total the breakdown derives from.
type DecompositionResult struct {
	Axis   Axis
	Method DecompositionMethod
	Shares map[string]float64
	Total  float64
}

// Sum returns the total shortage hours across all groups in the decomposition.
func (d DecompositionResult) Sum() float64 {
	var total float64
	for _, v := range d.Shares {
		total += v
	}
	return total
}

// ReconciliationReport records how two independently derived totals compare.
// A failed reconciliation is surfaced to the caller, never silently corrected.
type ReconciliationReport struct {
	Comparison         string
	MethodATotal       float64
	MethodBTotal       float64
	AbsoluteDifference float64
	RelativeDifference float64
	WithinTolerance    bool
}
