package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/shiftlens/shiftlens/internal/config"
	"github.com/shiftlens/shiftlens/pkg/core/model"
	"github.com/shiftlens/shiftlens/pkg/core/rollup"
	"github.com/shiftlens/shiftlens/pkg/db"
)

// SummaryResult is the daily/monthly view of one stored run, with the costed
// role breakdown when wage rates are configured.
type SummaryResult struct {
	Run          *db.AnalysisRun
	ClosureDates []string
	Daily        []rollup.DailySummary
	Monthly      []rollup.MonthlySummary
	Cost         *rollup.CostSummary
}

// Summarize rolls a stored run's slot table up into daily and monthly
// summaries, honoring the configured closure calendar. Costing is a pure
// post-multiplication over the role-axis time-axis decomposition and is only
// produced when wage rates are configured.
func Summarize(ctx context.Context, store db.AnalysisStore, logger *zap.Logger, cfg *config.Config, runID string) (*SummaryResult, error) {
	run, err := store.GetRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to load analysis run %s: %w", runID, err)
	}

	slots, err := store.GetSlotShortages(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to load slot shortages for run %s: %w", runID, err)
	}

	logger.Info("Summarizing analysis run",
		zap.String("run_id", runID),
		zap.Int("slots", len(slots)))

	from, err := time.Parse(model.DateLayout, run.WindowStart)
	if err != nil {
		return nil, fmt.Errorf("invalid run window start %q: %w", run.WindowStart, err)
	}
	to, err := time.Parse(model.DateLayout, run.WindowEnd)
	if err != nil {
		return nil, fmt.Errorf("invalid run window end %q: %w", run.WindowEnd, err)
	}

	calendar, err := rollup.NewCalendar(cfg.ClosureDates, cfg.ClosureRules, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to build closure calendar: %w", err)
	}

	result := &SummaryResult{
		Run:          run,
		ClosureDates: calendar.ClosureDates(),
	}
	result.Daily = rollup.RollupDaily(slots, calendar)
	result.Monthly = rollup.RollupMonthly(result.Daily)

	if len(cfg.WageRates) > 0 {
		byRole, err := roleDecomposition(ctx, store, runID)
		if err != nil {
			return nil, err
		}
		cost := rollup.CostByRole(byRole, cfg.WageRates)
		result.Cost = &cost
	}

	logger.Debug("Summary complete",
		zap.Int("days", len(result.Daily)),
		zap.Int("months", len(result.Monthly)),
		zap.Int("closures", len(result.ClosureDates)))

	return result, nil
}

// roleDecomposition rebuilds the time-axis role decomposition from the stored
// decomposition table.
func roleDecomposition(ctx context.Context, store db.AnalysisStore, runID string) (model.DecompositionResult, error) {
	rows, err := store.GetDecompositions(ctx, runID)
	if err != nil {
		return model.DecompositionResult{}, fmt.Errorf("failed to load decompositions for run %s: %w", runID, err)
	}

	byRole := model.DecompositionResult{
		Axis:   model.AxisRole,
		Method: model.MethodTimeAxis,
		Shares: map[string]float64{},
	}
	for _, row := range rows {
		if row.Axis != string(model.AxisRole) || row.Method != string(model.MethodTimeAxis) {
			continue
		}
		byRole.Shares[row.GroupKey] = row.ShortageHours
		byRole.Total = row.TotalHours
	}
	return byRole, nil
}
