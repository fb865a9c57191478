// Package main provides the entry point for the backtesting CLI tool.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/one-spear/internal/backtest"
	"github.com/yourusername/one-spear/internal/config"
	"github.com/yourusername/one-spear/internal/logger"
	"github.com/yourusername/one-spear/internal/metrics"
	"github.com/yourusername/one-spear/internal/service"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	configFile   string
	overrides    runOverrides
	historyLimit int
	appLog       *logrus.Logger
	cfg          *config.Config
	container    *service.Container
)

// runOverrides are flag values applied on top of the config file
type runOverrides struct {
	strategy  string
	model     string
	startDate string
	endDate   string
	output    string
	csv       string
	persist   bool
	workers   int
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")

	flags := rootCmd.Flags()
	flags.StringVarP(&overrides.strategy, "strategy", "s", "", "Ticket strategy: trifecta, trifecta_box or trio")
	flags.StringVarP(&overrides.model, "model", "m", "", "Scoring model: popularity, random, linear or http")
	flags.StringVar(&overrides.startDate, "start-date", "", "First race date (YYYY-MM-DD)")
	flags.StringVar(&overrides.endDate, "end-date", "", "Last race date (YYYY-MM-DD)")
	flags.StringVarP(&overrides.output, "output", "o", "", "Path for the JSON report")
	flags.StringVar(&overrides.csv, "csv", "", "Path for the per-race CSV")
	flags.BoolVar(&overrides.persist, "persist", false, "Store the run summary in Postgres")
	flags.IntVarP(&overrides.workers, "workers", "w", 0, "Races evaluated in parallel")

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "Number of runs to list")
	rootCmd.AddCommand(historyCmd, versionCmd)
}

var rootCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Replay trifecta predictions over historical races",
	Long: `Replays every race in the date range with point-in-time statistics,
scores runners with the configured model, buys the top three under the chosen
strategy and reports hit rate, ROI and the random baseline.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == versionCmd.Name() {
			return nil
		}
		if err := loadConfig(cmd); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if err := setupDependencies(cmd.Context()); err != nil {
			return fmt.Errorf("failed to setup dependencies: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if container != nil {
			container.Close()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBacktest(cmd.Context())
	},
}

var historyCmd = &cobra.Command{
	Use:   "history [strategy]",
	Short: "List persisted backtest runs, newest first",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		strategy := ""
		if len(args) == 1 {
			strategy = args[0]
		}
		return listHistory(cmd.Context(), strategy)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("backtest %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
	},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func loadConfig(cmd *cobra.Command) error {
	var err error
	cfg, err = config.LoadWithDefaults(configFile)
	if err != nil {
		return err
	}
	applyOverrides(cmd, cfg)

	if err := config.ApplySecretsFromEnv(cmd.Context(), cfg); err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}
	return config.Validate(cfg)
}

func applyOverrides(cmd *cobra.Command, cfg *config.Config) {
	if overrides.strategy != "" {
		cfg.Backtest.Strategy = overrides.strategy
	}
	if overrides.model != "" {
		cfg.Scoring.Model = overrides.model
	}
	if overrides.startDate != "" {
		cfg.Backtest.StartDate = overrides.startDate
	}
	if overrides.endDate != "" {
		cfg.Backtest.EndDate = overrides.endDate
	}
	if overrides.output != "" {
		cfg.Backtest.OutputPath = overrides.output
	}
	if overrides.csv != "" {
		cfg.Backtest.CSVPath = overrides.csv
	}
	if cmd.Flags().Changed("persist") {
		cfg.Backtest.PersistResults = overrides.persist
	}
	if overrides.workers > 0 {
		cfg.Backtest.Workers = overrides.workers
	}
}

func setupDependencies(ctx context.Context) error {
	appLog = logger.NewLogger(cfg.App.LogLevel)
	logger.SetFormat(appLog, cfg.App.LogFormat)
	metrics.InitRegistry()

	var err error
	container, err = service.NewContainer(ctx, cfg, appLog)
	return err
}

func runBacktest(ctx context.Context) error {
	btConfig, err := backtest.FromConfig(cfg)
	if err != nil {
		return fmt.Errorf("invalid backtest config: %w", err)
	}
	strat, err := backtest.StrategyByName(cfg.Backtest.Strategy)
	if err != nil {
		return err
	}

	appLog.WithFields(logrus.Fields{
		"strategy":   strat.Name(),
		"model":      container.Model.Name(),
		"start_date": btConfig.StartDate.Format(time.DateOnly),
		"end_date":   btConfig.EndDate.Format(time.DateOnly),
		"version":    Version,
	}).Info("Starting backtest")

	report, err := container.Backtests.Run(ctx, btConfig, strat)
	if err != nil {
		return fmt.Errorf("backtest failed: %w", err)
	}

	fmt.Print(backtest.GenerateConsoleReport(report))
	return nil
}

func listHistory(ctx context.Context, strategy string) error {
	results, err := container.Backtests.RecentResults(ctx, strategy, historyLimit)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Println("No persisted backtest runs")
		return nil
	}

	fmt.Printf("%-20s %-13s %-10s %-23s %7s %6s %9s %9s\n", "RUN DATE", "STRATEGY", "MODEL", "RANGE", "RACES", "HITS", "HIT RATE", "ROI")
	for _, r := range results {
		fmt.Printf("%-20s %-13s %-10s %-23s %7d %6d %8.2f%% %8.2f%%\n",
			r.RunDate.Format("2006-01-02 15:04:05"),
			r.Strategy,
			r.Model,
			r.StartDate.Format(time.DateOnly)+".."+r.EndDate.Format(time.DateOnly),
			r.RacesEvaluated,
			r.Hits,
			r.HitRate*100,
			r.ROI*100,
		)
	}
	return nil
}
