package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/shiftlens/shiftlens/internal/config"
	"github.com/shiftlens/shiftlens/pkg/core/analysis"
	"github.com/shiftlens/shiftlens/pkg/core/model"
	"github.com/shiftlens/shiftlens/pkg/db"
	"github.com/shiftlens/shiftlens/pkg/ingest"
	"github.com/shiftlens/shiftlens/pkg/ingest/xlsx"
)

// IngestResult reports what an import replaced in the occupancy table.
type IngestResult struct {
	Records     int
	WindowStart string
	WindowEnd   string
	Warnings    []string
}

// SheetSource is the subset of the sheets client the ingestion service needs.
type SheetSource interface {
	GetStringValues(spreadsheetID, sheetRange string) ([][]string, error)
}

// IngestWorkbook reads the occupancy contract from an Excel workbook and
// replaces the covered window in the store. Any caller-owned need cache must
// be invalidated, since the underlying table changed.
func IngestWorkbook(ctx context.Context, store db.OccupancyStore, logger *zap.Logger, cfg *config.Config, path string, cache *analysis.NeedCache) (*IngestResult, error) {
	logger.Info("Ingesting occupancy workbook", zap.String("path", path), zap.String("sheet", cfg.WorkbookSheet))

	parsed, err := xlsx.ReadWorkbook(path, cfg.WorkbookSheet)
	if err != nil {
		return nil, err
	}

	return replaceWindow(ctx, store, logger, parsed, cache)
}

// IngestSheet reads the occupancy contract from the configured Google Sheets
// range and replaces the covered window in the store.
func IngestSheet(ctx context.Context, store db.OccupancyStore, logger *zap.Logger, cfg *config.Config, source SheetSource, cache *analysis.NeedCache) (*IngestResult, error) {
	if cfg.OccupancySheetID == "" || cfg.OccupancySheetRange == "" {
		return nil, fmt.Errorf("occupancySheetID and occupancySheetRange must be configured for sheet ingestion")
	}

	logger.Info("Ingesting occupancy sheet",
		zap.String("sheet_id", cfg.OccupancySheetID),
		zap.String("range", cfg.OccupancySheetRange))

	rows, err := source.GetStringValues(cfg.OccupancySheetID, cfg.OccupancySheetRange)
	if err != nil {
		return nil, fmt.Errorf("failed to read occupancy sheet: %w", err)
	}

	parsed, err := ingest.ParseRows(rows)
	if err != nil {
		return nil, err
	}

	return replaceWindow(ctx, store, logger, parsed, cache)
}

func replaceWindow(ctx context.Context, store db.OccupancyStore, logger *zap.Logger, parsed *ingest.ParseResult, cache *analysis.NeedCache) (*IngestResult, error) {
	for _, warning := range parsed.Warnings {
		logger.Warn("Skipped occupancy row", zap.String("reason", warning))
	}

	if len(parsed.Records) == 0 {
		return nil, fmt.Errorf("no valid occupancy records found in source")
	}

	from, to := recordWindow(parsed.Records)
	if err := store.ReplaceOccupancy(ctx, from, to, parsed.Records); err != nil {
		return nil, fmt.Errorf("failed to replace occupancy window: %w", err)
	}

	if cache != nil {
		cache.Invalidate()
	}

	logger.Info("Occupancy window replaced",
		zap.Int("records", len(parsed.Records)),
		zap.String("from", from.Format(model.DateLayout)),
		zap.String("to", to.Format(model.DateLayout)))

	return &IngestResult{
		Records:     len(parsed.Records),
		WindowStart: from.Format(model.DateLayout),
		WindowEnd:   to.Format(model.DateLayout),
		Warnings:    parsed.Warnings,
	}, nil
}

func recordWindow(records []model.OccupancyRecord) (time.Time, time.Time) {
	from, to := records[0].Timestamp, records[0].Timestamp
	for _, r := range records[1:] {
		if r.Timestamp.Before(from) {
			from = r.Timestamp
		}
		if r.Timestamp.After(to) {
			to = r.Timestamp
		}
	}
	return from, to
}
