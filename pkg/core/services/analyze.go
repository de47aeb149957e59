package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shiftlens/shiftlens/internal/config"
	"github.com/shiftlens/shiftlens/pkg/core/analysis"
	"github.com/shiftlens/shiftlens/pkg/core/model"
	"github.com/shiftlens/shiftlens/pkg/db"
)

// AnalysisOptions selects the window and scenario for one engine run.
type AnalysisOptions struct {
	From      time.Time
	To        time.Time
	Statistic model.Statistic

	// Cache is an optional caller-owned need cache. The caller must
	// invalidate it whenever the occupancy table changes.
	Cache *analysis.NeedCache
}

// AnalysisResult carries every output table of one run.
type AnalysisResult struct {
	Run          *db.AnalysisRun
	Grid         analysis.SlotGrid
	Estimates    []model.NeedEstimate
	Slots        []model.SlotShortage
	TimeAxisRole model.DecompositionResult
	TimeAxisEmp  model.DecompositionResult
	PropRole     model.DecompositionResult
	PropEmp      model.DecompositionResult
	Reports      []model.ReconciliationReport
	Warnings     []string
}

// RunAnalysis executes one full analysis: load the occupancy window, detect
// the slot grid, estimate need, aggregate actual staffing, compute the
// time-axis shortage decompositions, proportionally allocate the resulting
// grand total as the independent cross-check, reconcile the two methods, and
// persist everything under a fresh run ID in a single transaction.
//
// Data problems (empty window, missing groups) produce warned, zero-valued
// outputs rather than errors; only store failures and genuinely invalid
// requests fail the run.
func RunAnalysis(ctx context.Context, store db.AnalysisStore, logger *zap.Logger, cfg *config.Config, opts AnalysisOptions) (*AnalysisResult, error) {
	if !opts.To.After(opts.From) {
		return nil, fmt.Errorf("analysis window end %s must be after start %s",
			opts.To.Format(model.DateLayout), opts.From.Format(model.DateLayout))
	}

	result := &AnalysisResult{}

	// Bad statistic knobs fall back to median rather than failing the run.
	stat := opts.Statistic
	if stat == "" && cfg.Statistic != "" {
		stat = model.Statistic(cfg.Statistic)
	}
	if !stat.IsValid() {
		if stat != "" {
			result.Warnings = append(result.Warnings, fmt.Sprintf("unknown statistic %q, falling back to median", stat))
		}
		stat = model.StatisticMedian
	}

	logger.Info("Running shortage analysis",
		zap.String("from", opts.From.Format(model.DateLayout)),
		zap.String("to", opts.To.Format(model.DateLayout)),
		zap.String("statistic", string(stat)))

	records, err := store.GetOccupancy(ctx, opts.From, opts.To)
	if err != nil {
		return nil, fmt.Errorf("failed to load occupancy window: %w", err)
	}
	logger.Debug("Loaded occupancy records", zap.Int("count", len(records)))

	if len(records) == 0 {
		result.Warnings = append(result.Warnings, "occupancy window is empty; all outputs are empty")
	}

	records = applyCapabilities(records, cfg.RoleCapabilities)

	// Slot grid: explicit override wins, otherwise detect from the data.
	result.Grid = resolveGrid(records, cfg.SlotWidthMinutes, &result.Warnings)
	logger.Debug("Resolved slot grid",
		zap.Int("width_minutes", result.Grid.WidthMinutes),
		zap.Bool("low_confidence", result.Grid.LowConfidence))

	result.Estimates = estimateWithCache(records, opts, result.Grid)

	actuals := analysis.AggregateActual(records)

	shortage := analysis.ComputeShortage(result.Estimates, stat, actuals, result.Grid)
	result.Slots = shortage.Slots
	result.TimeAxisRole = shortage.ByRole
	result.TimeAxisEmp = shortage.ByEmployment
	result.Warnings = append(result.Warnings, shortage.Warnings...)

	// The time-axis grand total is the one externally supplied scalar the
	// proportional method sees. It never reads the need curve.
	propRole, propEmp, propWarnings := analysis.AllocateProportional(records, shortage.TotalShortageHours)
	result.PropRole = propRole
	result.PropEmp = propEmp
	result.Warnings = append(result.Warnings, propWarnings...)

	tol := resolveTolerance(cfg, &result.Warnings)
	grandTotal := shortage.TotalShortageHours
	result.Reports = []model.ReconciliationReport{
		analysis.ReconcileAgainstTotal(result.TimeAxisRole, grandTotal, tol),
		analysis.ReconcileAgainstTotal(result.TimeAxisEmp, grandTotal, tol),
		analysis.ReconcileAgainstTotal(result.PropRole, grandTotal, tol),
		analysis.ReconcileAgainstTotal(result.PropEmp, grandTotal, tol),
		analysis.ReconcileMethods(result.TimeAxisRole, result.PropRole, tol),
		analysis.ReconcileMethods(result.TimeAxisEmp, result.PropEmp, tol),
	}
	for _, report := range result.Reports {
		if !report.WithinTolerance {
			logger.Warn("Reconciliation failed",
				zap.String("comparison", report.Comparison),
				zap.Float64("method_a_total", report.MethodATotal),
				zap.Float64("method_b_total", report.MethodBTotal),
				zap.Float64("absolute_difference", report.AbsoluteDifference))
		}
	}

	result.Run = &db.AnalysisRun{
		ID:                uuid.New().String(),
		CreatedAt:         time.Now().UTC().Format(time.RFC3339),
		WindowStart:       opts.From.Format(model.DateLayout),
		WindowEnd:         opts.To.Format(model.DateLayout),
		Statistic:         string(stat),
		SlotWidthMinutes:  result.Grid.WidthMinutes,
		LowConfidenceGrid: result.Grid.LowConfidence,
		Warnings:          result.Warnings,
	}

	outputs := &db.AnalysisOutputs{
		Estimates:      result.Estimates,
		Slots:          result.Slots,
		Decompositions: flattenDecompositions(result.Run.ID, result.TimeAxisRole, result.TimeAxisEmp, result.PropRole, result.PropEmp),
		Reports:        result.Reports,
	}
	if err := store.SaveAnalysis(ctx, result.Run, outputs); err != nil {
		return nil, fmt.Errorf("failed to persist analysis run: %w", err)
	}

	logger.Info("Analysis run complete",
		zap.String("run_id", result.Run.ID),
		zap.Float64("total_shortage_hours", grandTotal),
		zap.Float64("total_excess_hours", shortage.TotalExcessHours),
		zap.Int("warnings", len(result.Warnings)))

	return result, nil
}

// applyCapabilities re-keys roles through the caller-supplied capability map.
// Roles without a mapping pass through unchanged.
func applyCapabilities(records []model.OccupancyRecord, capabilities map[string]string) []model.OccupancyRecord {
	if len(capabilities) == 0 {
		return records
	}
	mapped := make([]model.OccupancyRecord, len(records))
	for i, r := range records {
		if capability, ok := capabilities[r.Role]; ok {
			r.Role = capability
		}
		mapped[i] = r
	}
	return mapped
}

func resolveGrid(records []model.OccupancyRecord, overrideMinutes int, warnings *[]string) analysis.SlotGrid {
	if overrideMinutes > 0 {
		if overrideMinutes > 24*60 {
			*warnings = append(*warnings, fmt.Sprintf("slot width override %d exceeds 24h, falling back to auto-detection", overrideMinutes))
		} else {
			return analysis.SlotGrid{WidthMinutes: overrideMinutes}
		}
	}
	timestamps := make([]time.Time, len(records))
	for i, r := range records {
		timestamps[i] = r.Timestamp
	}
	grid := analysis.DetectSlotWidth(timestamps, analysis.DefaultSlotWidthMinutes)
	if grid.LowConfidence {
		*warnings = append(*warnings, fmt.Sprintf("slot width could not be detected, using default %d minutes", grid.WidthMinutes))
	}
	return grid
}

// estimateWithCache computes the need curve, going through the caller-owned
// cache when one is supplied. Cache entries are keyed per statistic so a
// scenario switch on the same window still hits. The returned slice is in
// canonical order either way, so persisted tables do not depend on whether
// the cache was warm.
func estimateWithCache(records []model.OccupancyRecord, opts AnalysisOptions, grid analysis.SlotGrid) []model.NeedEstimate {
	if opts.Cache == nil {
		return analysis.EstimateNeed(records)
	}

	scope := opts.From.Format(model.DateLayout) + ".." + opts.To.Format(model.DateLayout)
	var estimates []model.NeedEstimate
	complete := true
	for _, stat := range model.Statistics() {
		key := analysis.NeedCacheKey{Scope: scope, Statistic: stat, SlotWidthMinutes: grid.WidthMinutes}
		cached, ok := opts.Cache.Get(key)
		if !ok {
			complete = false
			break
		}
		estimates = append(estimates, cached...)
	}
	if complete && len(estimates) > 0 {
		sortEstimates(estimates)
		return estimates
	}

	estimates = analysis.EstimateNeed(records)
	for _, stat := range model.Statistics() {
		var subset []model.NeedEstimate
		for _, e := range estimates {
			if e.Statistic == stat {
				subset = append(subset, e)
			}
		}
		key := analysis.NeedCacheKey{Scope: scope, Statistic: stat, SlotWidthMinutes: grid.WidthMinutes}
		opts.Cache.Put(key, subset)
	}
	sortEstimates(estimates)
	return estimates
}

func sortEstimates(estimates []model.NeedEstimate) {
	sort.Slice(estimates, func(i, j int) bool {
		a, b := estimates[i], estimates[j]
		if a.TimeOfDay != b.TimeOfDay {
			return a.TimeOfDay < b.TimeOfDay
		}
		if a.Role != b.Role {
			return a.Role < b.Role
		}
		if a.Employment != b.Employment {
			return a.Employment < b.Employment
		}
		return a.Statistic < b.Statistic
	})
}

func resolveTolerance(cfg *config.Config, warnings *[]string) analysis.Tolerance {
	tol := analysis.DefaultTolerance()
	if cfg.ToleranceAbsHours != nil {
		tol.AbsHours = *cfg.ToleranceAbsHours
	}
	if cfg.ToleranceRel != nil {
		tol.Rel = *cfg.ToleranceRel
	}
	normalized, fellBack := tol.Normalized()
	if fellBack {
		*warnings = append(*warnings, "non-positive reconciliation tolerance configured, using defaults")
	}
	return normalized
}

func flattenDecompositions(runID string, decompositions ...model.DecompositionResult) []db.Decomposition {
	var rows []db.Decomposition
	for _, d := range decompositions {
		groups := make([]string, 0, len(d.Shares))
		for group := range d.Shares {
			groups = append(groups, group)
		}
		sort.Strings(groups)
		for _, group := range groups {
			rows = append(rows, db.Decomposition{
				RunID:         runID,
				Axis:          string(d.Axis),
				Method:        string(d.Method),
				GroupKey:      group,
				ShortageHours: d.Shares[group],
				TotalHours:    d.Total,
			})
		}
	}
	return rows
}
