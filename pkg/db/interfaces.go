package db

import (
	"context"
	"time"

	"github.com/shiftlens/shiftlens/pkg/core/model"
)

// OccupancyStore provides the normalized occupancy table. The engine only
// ever reads it; ingestion replaces whole windows.
type OccupancyStore interface {
	GetOccupancy(ctx context.Context, from, to time.Time) ([]model.OccupancyRecord, error)
	ReplaceOccupancy(ctx context.Context, from, to time.Time, records []model.OccupancyRecord) error
}

// AnalysisOutputs bundles every table one run produces. SaveAnalysis persists
// the bundle atomically: a failed run leaves no partial tables behind.
type AnalysisOutputs struct {
	Estimates      []model.NeedEstimate
	Slots          []model.SlotShortage
	Decompositions []Decomposition
	Reports        []model.ReconciliationReport
}

// AnalysisStore persists and retrieves analysis runs and their outputs.
type AnalysisStore interface {
	OccupancyStore

	SaveAnalysis(ctx context.Context, run *AnalysisRun, outputs *AnalysisOutputs) error
	GetRun(ctx context.Context, runID string) (*AnalysisRun, error)
	ListRuns(ctx context.Context) ([]AnalysisRun, error)
	GetSlotShortages(ctx context.Context, runID string) ([]model.SlotShortage, error)
	GetDecompositions(ctx context.Context, runID string) ([]Decomposition, error)
}
