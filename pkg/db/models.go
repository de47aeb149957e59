package db

// AnalysisRun is the stored metadata for one engine invocation. Output tables
// reference the run by ID and are written once, read-only afterward.
type AnalysisRun struct {
	ID                string
	CreatedAt         string // RFC3339
	WindowStart       string // date
	WindowEnd         string // date
	Statistic         string
	SlotWidthMinutes  int
	LowConfidenceGrid bool
	Warnings          []string
}

// Decomposition is one stored row of a decomposition table: the shortage hours
// attributed to one group on one axis by one method.
type Decomposition struct {
	RunID         string
	Axis          string
	Method        string
	GroupKey      string
	ShortageHours float64
	TotalHours    float64
}
