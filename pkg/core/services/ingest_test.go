package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shiftlens/shiftlens/internal/config"
	"github.com/shiftlens/shiftlens/pkg/core/analysis"
	"github.com/shiftlens/shiftlens/pkg/core/model"
)

// fakeSheetSource serves canned rows in place of the Sheets client.
type fakeSheetSource struct {
	rows [][]string
	err  error

	requestedID    string
	requestedRange string
}

func (f *fakeSheetSource) GetStringValues(spreadsheetID, sheetRange string) ([][]string, error) {
	f.requestedID = spreadsheetID
	f.requestedRange = sheetRange
	return f.rows, f.err
}

func sheetConfig() *config.Config {
	return &config.Config{
		OccupancySheetID:    "sheet-123",
		OccupancySheetRange: "Occupancy!A:F",
	}
}

func occupancyRows() [][]string {
	return [][]string{
		{"timestamp", "person_id", "role", "employment", "worked_slots", "day_type"},
		{"2025-03-03 09:00", "p1", "carer", "staff", "1", "ordinary"},
		{"2025-03-04 09:30", "p2", "nurse", "agency", "1", "ordinary"},
		{"garbage", "p3", "carer", "staff", "1", "ordinary"},
	}
}

func TestIngestSheet(t *testing.T) {
	store := &mockStore{}
	source := &fakeSheetSource{rows: occupancyRows()}
	cache := analysis.NewNeedCache()
	cache.Put(analysis.NeedCacheKey{Scope: "stale"}, []model.NeedEstimate{{Value: 1}})

	result, err := IngestSheet(context.Background(), store, zap.NewNop(), sheetConfig(), source, cache)
	require.NoError(t, err)

	assert.Equal(t, "sheet-123", source.requestedID)
	assert.Equal(t, "Occupancy!A:F", source.requestedRange)

	assert.Equal(t, 2, result.Records)
	assert.Equal(t, "2025-03-03", result.WindowStart)
	assert.Equal(t, "2025-03-04", result.WindowEnd)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "unrecognized timestamp")

	// The stored window spans the parsed records.
	require.Len(t, store.records, 2)
	assert.Equal(t, "p1", store.records[0].PersonID)
	assert.Equal(t, store.records[0].Timestamp, store.replacedFrom)
	assert.Equal(t, store.records[1].Timestamp, store.replacedTo)

	// The occupancy table changed, so every cached need curve is stale.
	assert.Zero(t, cache.Len())
}

func TestIngestSheet_RequiresConfig(t *testing.T) {
	_, err := IngestSheet(context.Background(), &mockStore{}, zap.NewNop(), &config.Config{}, &fakeSheetSource{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be configured")
}

func TestIngestSheet_SourceError(t *testing.T) {
	source := &fakeSheetSource{err: errors.New("quota exceeded")}
	_, err := IngestSheet(context.Background(), &mockStore{}, zap.NewNop(), sheetConfig(), source, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read occupancy sheet")
}

func TestIngestSheet_NoValidRecords(t *testing.T) {
	source := &fakeSheetSource{rows: [][]string{
		{"timestamp", "person_id", "role", "employment", "worked_slots", "day_type"},
		{"garbage", "p1", "carer", "staff", "1", "ordinary"},
	}}

	_, err := IngestSheet(context.Background(), &mockStore{}, zap.NewNop(), sheetConfig(), source, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no valid occupancy records")
}

func TestIngestSheet_StoreError(t *testing.T) {
	store := &mockStore{replaceErr: errors.New("connection refused")}
	source := &fakeSheetSource{rows: occupancyRows()}

	_, err := IngestSheet(context.Background(), store, zap.NewNop(), sheetConfig(), source, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to replace occupancy window")
}

func TestIngestWorkbook_MissingFile(t *testing.T) {
	_, err := IngestWorkbook(context.Background(), &mockStore{}, zap.NewNop(), &config.Config{}, "does-not-exist.xlsx", nil)
	assert.Error(t, err)
}
