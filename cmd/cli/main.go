package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shiftlens/shiftlens/internal/config"
	"github.com/shiftlens/shiftlens/pkg/clients/sheetsclient"
	"github.com/shiftlens/shiftlens/pkg/core/analysis"
	"github.com/shiftlens/shiftlens/pkg/core/model"
	"github.com/shiftlens/shiftlens/pkg/core/services"
	"github.com/shiftlens/shiftlens/pkg/postgres"
	"github.com/shiftlens/shiftlens/pkg/utils/logging"
)

// App holds the application dependencies
type App struct {
	cfg      *config.Config
	database *postgres.DB
	logger   *zap.Logger
	cache    *analysis.NeedCache
	ctx      context.Context
}

var (
	env string
	app *App
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "shiftlens",
		Short: "Shiftlens - staffing need estimation and shortage analysis",
		Long:  `A CLI tool for ingesting historical staffing records and computing statistically grounded staffing requirements, shortages, and their decompositions.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app != nil {
				if app.database != nil {
					app.database.Close()
				}
				if app.logger != nil {
					app.logger.Sync()
				}
			}
		},
	}

	// Add persistent environment flag
	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (required: test, prod, etc.)")
	rootCmd.MarkPersistentFlagRequired("env")

	rootCmd.AddCommand(ingestCmd())
	rootCmd.AddCommand(ingestSheetCmd())
	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(summaryCmd())
	rootCmd.AddCommand(runsCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initApp sets up logger, config, and database
func initApp() error {
	var err error
	app = &App{
		ctx:   context.Background(),
		cache: analysis.NewNeedCache(),
	}

	app.logger, err = logging.InitLogger(env)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.logger.Info("Starting application", zap.String("environment", env))

	app.cfg, err = config.LoadWithEnv(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.logger.Debug("Configuration loaded successfully")

	app.database, err = postgres.NewDB(app.ctx, app.cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := app.database.RunMigrations(app.ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	app.logger.Info("Database initialized successfully")

	return nil
}

// Command definitions

func ingestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <workbook.xlsx>",
		Short: "Ingest occupancy records from an Excel workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := services.IngestWorkbook(app.ctx, app.database, app.logger, app.cfg, args[0], app.cache)
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Occupancy window replaced\n\n")
			fmt.Printf("Records:  %d\n", result.Records)
			fmt.Printf("Window:   %s .. %s\n", result.WindowStart, result.WindowEnd)
			printWarnings(result.Warnings)
			return nil
		},
	}
}

func ingestSheetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest-sheet",
		Short: "Ingest occupancy records from the configured Google Sheets range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			oauthCfg, err := config.LoadOAuthClientWithEnv(env)
			if err != nil {
				return fmt.Errorf("failed to load OAuth client config: %w", err)
			}

			client, err := sheetsclient.NewClient(app.ctx, oauthCfg, env)
			if err != nil {
				return fmt.Errorf("failed to create sheets client: %w", err)
			}

			result, err := services.IngestSheet(app.ctx, app.database, app.logger, app.cfg, client, app.cache)
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Occupancy window replaced\n\n")
			fmt.Printf("Records:  %d\n", result.Records)
			fmt.Printf("Window:   %s .. %s\n", result.WindowStart, result.WindowEnd)
			printWarnings(result.Warnings)
			return nil
		},
	}
}

func analyzeCmd() *cobra.Command {
	var from, to, statistic string

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run a shortage analysis over an occupancy window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fromDate, err := time.Parse(model.DateLayout, from)
			if err != nil {
				return fmt.Errorf("invalid --from date %q: %w", from, err)
			}
			toDate, err := time.Parse(model.DateLayout, to)
			if err != nil {
				return fmt.Errorf("invalid --to date %q: %w", to, err)
			}

			result, err := services.RunAnalysis(app.ctx, app.database, app.logger, app.cfg, services.AnalysisOptions{
				From:      fromDate,
				To:        toDate.AddDate(0, 0, 1), // inclusive end date
				Statistic: model.Statistic(statistic),
				Cache:     app.cache,
			})
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Analysis complete\n\n")
			fmt.Printf("Run ID:     %s\n", result.Run.ID)
			fmt.Printf("Statistic:  %s\n", result.Run.Statistic)
			fmt.Printf("Slot width: %d minutes\n", result.Run.SlotWidthMinutes)
			fmt.Printf("Shortage:   %.2f hours\n\n", result.TimeAxisRole.Total)

			fmt.Printf("By role:\n")
			printShares(result.TimeAxisRole.Shares)
			fmt.Printf("\nBy employment:\n")
			printShares(result.TimeAxisEmp.Shares)

			fmt.Printf("\nReconciliation:\n")
			for _, report := range result.Reports {
				status := "✓"
				if !report.WithinTolerance {
					status = "✗"
				}
				fmt.Printf("  %s %s (diff %.4f h)\n", status, report.Comparison, report.AbsoluteDifference)
			}

			printWarnings(result.Warnings)
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Window start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Window end date, inclusive (YYYY-MM-DD)")
	cmd.Flags().StringVar(&statistic, "statistic", "", "Need scenario: mean, median, p25 or p75 (default from config)")
	cmd.MarkFlagRequired("from")
	cmd.MarkFlagRequired("to")

	return cmd
}

func summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary <run-id>",
		Short: "Show daily and monthly summaries for a stored analysis run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := services.Summarize(app.ctx, app.database, app.logger, app.cfg, args[0])
			if err != nil {
				return err
			}

			fmt.Printf("\nRun %s (%s .. %s, %s)\n\n", result.Run.ID, result.Run.WindowStart, result.Run.WindowEnd, result.Run.Statistic)

			fmt.Printf("Daily:\n")
			for _, day := range result.Daily {
				marker := ""
				if day.Closure {
					marker = " (closed)"
				}
				fmt.Printf("  %s%s  shortage %6.2f h  excess %6.2f h\n", day.Date, marker, day.ShortageHours, day.ExcessHours)
			}

			fmt.Printf("\nMonthly:\n")
			for _, month := range result.Monthly {
				fmt.Printf("  %s  shortage %7.2f h  excess %7.2f h  working days %d  avg/day %.2f h",
					month.Month, month.ShortageHours, month.ExcessHours, month.WorkingDays, month.AvgShortagePerWorkingDay)
				if month.PeakDate != "" {
					fmt.Printf("  peak %s (%.2f h)", month.PeakDate, month.PeakShortageHours)
				}
				fmt.Println()
			}

			if result.Cost != nil {
				fmt.Printf("\nEstimated cost of shortage:\n")
				for _, role := range result.Cost.Roles {
					fmt.Printf("  %-20s %7.2f h × %s/h = %s\n", role.Role, role.ShortageHours, role.HourlyRate.StringFixed(2), role.Cost.StringFixed(2))
				}
				fmt.Printf("  Total: %s\n", result.Cost.Total.StringFixed(2))
			}

			if len(result.ClosureDates) > 0 {
				fmt.Printf("\nClosure dates applied: %d\n", len(result.ClosureDates))
			}

			return nil
		},
	}
}

func runsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "runs",
		Short: "List stored analysis runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := app.database.ListRuns(app.ctx)
			if err != nil {
				return err
			}

			if len(runs) == 0 {
				fmt.Println("No analysis runs stored yet.")
				return nil
			}

			for _, run := range runs {
				fmt.Printf("%s  %s .. %s  %-6s  %3d min", run.ID, run.WindowStart, run.WindowEnd, run.Statistic, run.SlotWidthMinutes)
				if len(run.Warnings) > 0 {
					fmt.Printf("  (%d warnings)", len(run.Warnings))
				}
				fmt.Println()
			}
			return nil
		},
	}
}

func printShares(shares map[string]float64) {
	if len(shares) == 0 {
		fmt.Println("  (empty)")
		return
	}
	for group, hours := range shares {
		fmt.Printf("  %-20s %7.2f h\n", group, hours)
	}
}

func printWarnings(warnings []string) {
	if len(warnings) == 0 {
		return
	}
	fmt.Printf("\n⚠️  Warnings:\n")
	for _, w := range warnings {
		fmt.Printf("  - %s\n", w)
	}
}
