package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shiftlens/shiftlens/internal/config"
	"github.com/shiftlens/shiftlens/pkg/core/analysis"
	"github.com/shiftlens/shiftlens/pkg/core/model"
	"github.com/shiftlens/shiftlens/pkg/db"
)

// mockStore is a hand-rolled in-memory db.AnalysisStore for service tests.
type mockStore struct {
	records []model.OccupancyRecord

	savedRun     *db.AnalysisRun
	savedOutputs *db.AnalysisOutputs

	getErr     error
	saveErr    error
	replaceErr error

	replacedFrom time.Time
	replacedTo   time.Time
}

func (m *mockStore) GetOccupancy(_ context.Context, from, to time.Time) ([]model.OccupancyRecord, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	var out []model.OccupancyRecord
	for _, r := range m.records {
		if !r.Timestamp.Before(from) && r.Timestamp.Before(to) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockStore) ReplaceOccupancy(_ context.Context, from, to time.Time, records []model.OccupancyRecord) error {
	if m.replaceErr != nil {
		return m.replaceErr
	}
	m.replacedFrom = from
	m.replacedTo = to
	m.records = records
	return nil
}

func (m *mockStore) SaveAnalysis(_ context.Context, run *db.AnalysisRun, outputs *db.AnalysisOutputs) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.savedRun = run
	m.savedOutputs = outputs
	return nil
}

func (m *mockStore) GetRun(_ context.Context, runID string) (*db.AnalysisRun, error) {
	if m.savedRun == nil || m.savedRun.ID != runID {
		return nil, errors.New("run not found")
	}
	return m.savedRun, nil
}

func (m *mockStore) ListRuns(_ context.Context) ([]db.AnalysisRun, error) {
	if m.savedRun == nil {
		return nil, nil
	}
	return []db.AnalysisRun{*m.savedRun}, nil
}

func (m *mockStore) GetSlotShortages(_ context.Context, runID string) ([]model.SlotShortage, error) {
	if m.savedRun == nil || m.savedRun.ID != runID {
		return nil, errors.New("run not found")
	}
	return m.savedOutputs.Slots, nil
}

func (m *mockStore) GetDecompositions(_ context.Context, runID string) ([]db.Decomposition, error) {
	if m.savedRun == nil || m.savedRun.ID != runID {
		return nil, errors.New("run not found")
	}
	return m.savedOutputs.Decompositions, nil
}

func occupancy(day, clock, person, role, employment string, workedSlots int) model.OccupancyRecord {
	ts, err := time.Parse("2006-01-02 15:04", day+" "+clock)
	if err != nil {
		panic(err)
	}
	return model.OccupancyRecord{
		Timestamp:   ts,
		PersonID:    person,
		Role:        role,
		Employment:  employment,
		WorkedSlots: workedSlots,
		DayType:     model.DayTypeOrdinary,
	}
}

// historyStore builds a store where two carers covered 09:00 on two past days
// but only one shows up on the third, giving a known half-hour shortage.
func historyStore() *mockStore {
	return &mockStore{records: []model.OccupancyRecord{
		occupancy("2025-03-03", "09:00", "p1", "carer", "staff", 1),
		occupancy("2025-03-03", "09:00", "p2", "carer", "staff", 1),
		occupancy("2025-03-03", "09:30", "p1", "carer", "staff", 1),
		occupancy("2025-03-04", "09:00", "p1", "carer", "staff", 1),
		occupancy("2025-03-04", "09:00", "p2", "carer", "staff", 1),
		occupancy("2025-03-04", "09:30", "p1", "carer", "staff", 1),
		occupancy("2025-03-05", "09:00", "p1", "carer", "staff", 1),
		occupancy("2025-03-05", "09:30", "p1", "carer", "staff", 1),
	}}
}

func analysisWindow() AnalysisOptions {
	return AnalysisOptions{
		From: time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2025, 3, 6, 0, 0, 0, 0, time.UTC),
	}
}

func TestRunAnalysis(t *testing.T) {
	store := historyStore()
	cfg := &config.Config{}

	result, err := RunAnalysis(context.Background(), store, zap.NewNop(), cfg, analysisWindow())
	require.NoError(t, err)

	// 30-minute grid detected from the data.
	assert.Equal(t, 30, result.Grid.WidthMinutes)
	assert.False(t, result.Grid.LowConfidence)

	// Median need at 09:00 is 2; on 2025-03-05 only one carer showed, so the
	// shortage is one person-slot of half an hour.
	assert.InDelta(t, 0.5, result.TimeAxisRole.Total, 1e-9)
	assert.InDelta(t, 0.5, result.TimeAxisRole.Shares["carer"], 1e-9)
	assert.InDelta(t, 0.5, result.TimeAxisEmp.Shares["staff"], 1e-9)

	// One group means the proportional method must agree exactly.
	assert.InDelta(t, 0.5, result.PropRole.Shares["carer"], 1e-9)

	require.Len(t, result.Reports, 6)
	for _, report := range result.Reports {
		assert.True(t, report.WithinTolerance, report.Comparison)
	}

	// Everything persisted under the fresh run.
	require.NotNil(t, store.savedRun)
	assert.Equal(t, result.Run.ID, store.savedRun.ID)
	assert.Equal(t, "median", store.savedRun.Statistic)
	assert.Equal(t, 30, store.savedRun.SlotWidthMinutes)
	assert.NotEmpty(t, store.savedOutputs.Estimates)
	assert.NotEmpty(t, store.savedOutputs.Slots)
	assert.Len(t, store.savedOutputs.Reports, 6)
}

func TestRunAnalysis_InvalidWindow(t *testing.T) {
	opts := analysisWindow()
	opts.To = opts.From

	_, err := RunAnalysis(context.Background(), historyStore(), zap.NewNop(), &config.Config{}, opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be after")
}

func TestRunAnalysis_EmptyWindow(t *testing.T) {
	store := &mockStore{}

	result, err := RunAnalysis(context.Background(), store, zap.NewNop(), &config.Config{}, analysisWindow())
	require.NoError(t, err)

	assert.Empty(t, result.Slots)
	assert.Zero(t, result.TimeAxisRole.Total)
	assert.NotEmpty(t, result.Warnings)
	// An empty run is still recorded, warnings and all.
	require.NotNil(t, store.savedRun)
	assert.NotEmpty(t, store.savedRun.Warnings)
}

func TestRunAnalysis_StatisticFallback(t *testing.T) {
	opts := analysisWindow()
	opts.Statistic = "p99"

	result, err := RunAnalysis(context.Background(), historyStore(), zap.NewNop(), &config.Config{}, opts)
	require.NoError(t, err)

	assert.Equal(t, "median", result.Run.Statistic)
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[0], "p99")
}

func TestRunAnalysis_ConfigStatistic(t *testing.T) {
	cfg := &config.Config{Statistic: "mean"}

	result, err := RunAnalysis(context.Background(), historyStore(), zap.NewNop(), cfg, analysisWindow())
	require.NoError(t, err)
	assert.Equal(t, "mean", result.Run.Statistic)
}

func TestRunAnalysis_CapabilityMapping(t *testing.T) {
	cfg := &config.Config{RoleCapabilities: map[string]string{"carer": "care"}}

	result, err := RunAnalysis(context.Background(), historyStore(), zap.NewNop(), cfg, analysisWindow())
	require.NoError(t, err)

	assert.Contains(t, result.TimeAxisRole.Shares, "care")
	assert.NotContains(t, result.TimeAxisRole.Shares, "carer")
}

func TestRunAnalysis_SlotWidthOverride(t *testing.T) {
	cfg := &config.Config{SlotWidthMinutes: 60}

	result, err := RunAnalysis(context.Background(), historyStore(), zap.NewNop(), cfg, analysisWindow())
	require.NoError(t, err)
	assert.Equal(t, 60, result.Grid.WidthMinutes)

	// An override beyond a day falls back to detection with a warning.
	cfg.SlotWidthMinutes = 25 * 60
	result, err = RunAnalysis(context.Background(), historyStore(), zap.NewNop(), cfg, analysisWindow())
	require.NoError(t, err)
	assert.Equal(t, 30, result.Grid.WidthMinutes)
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[0], "exceeds 24h")
}

func TestRunAnalysis_CachePopulatedAndReused(t *testing.T) {
	cache := analysis.NewNeedCache()
	opts := analysisWindow()
	opts.Cache = cache

	first, err := RunAnalysis(context.Background(), historyStore(), zap.NewNop(), &config.Config{}, opts)
	require.NoError(t, err)
	// One entry per statistic for the window.
	assert.Equal(t, len(model.Statistics()), cache.Len())

	second, err := RunAnalysis(context.Background(), historyStore(), zap.NewNop(), &config.Config{}, opts)
	require.NoError(t, err)
	assert.Equal(t, first.TimeAxisRole.Total, second.TimeAxisRole.Total)
	assert.Len(t, second.Estimates, len(first.Estimates))
}

func TestRunAnalysis_WarmCacheOutputTablesIdentical(t *testing.T) {
	// A warm-cache rerun of the same input must persist the same output
	// tables in the same row order as the cold-cache run.
	opts := analysisWindow()
	opts.Cache = analysis.NewNeedCache()

	cold := historyStore()
	_, err := RunAnalysis(context.Background(), cold, zap.NewNop(), &config.Config{}, opts)
	require.NoError(t, err)

	warm := historyStore()
	_, err = RunAnalysis(context.Background(), warm, zap.NewNop(), &config.Config{}, opts)
	require.NoError(t, err)

	assert.Equal(t, cold.savedOutputs.Estimates, warm.savedOutputs.Estimates)
	assert.Equal(t, cold.savedOutputs.Slots, warm.savedOutputs.Slots)
	assert.Equal(t, cold.savedOutputs.Reports, warm.savedOutputs.Reports)

	require.Len(t, warm.savedOutputs.Decompositions, len(cold.savedOutputs.Decompositions))
	for i, row := range cold.savedOutputs.Decompositions {
		row.RunID = ""
		other := warm.savedOutputs.Decompositions[i]
		other.RunID = ""
		assert.Equal(t, row, other)
	}
}

func TestRunAnalysis_StoreErrors(t *testing.T) {
	store := historyStore()
	store.getErr = errors.New("connection refused")
	_, err := RunAnalysis(context.Background(), store, zap.NewNop(), &config.Config{}, analysisWindow())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load occupancy window")

	store = historyStore()
	store.saveErr = errors.New("connection refused")
	_, err = RunAnalysis(context.Background(), store, zap.NewNop(), &config.Config{}, analysisWindow())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to persist analysis run")
}
