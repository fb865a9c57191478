// Package main runs the snapshot refresh and backtest jobs on a schedule.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/one-spear/internal/backtest"
	"github.com/yourusername/one-spear/internal/config"
	"github.com/yourusername/one-spear/internal/health"
	"github.com/yourusername/one-spear/internal/logger"
	"github.com/yourusername/one-spear/internal/metrics"
	"github.com/yourusername/one-spear/internal/scheduler"
	"github.com/yourusername/one-spear/internal/service"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
)

var configFile string

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
}

var rootCmd = &cobra.Command{
	Use:          "scheduler",
	Short:        "Run snapshot refreshes and backtests on cron schedules",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context())
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func run(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadWithDefaults(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := config.ApplySecretsFromEnv(ctx, cfg); err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	appLog := logger.NewLogger(cfg.App.LogLevel)
	logger.SetFormat(appLog, cfg.App.LogFormat)
	metrics.InitRegistry()

	container, err := service.NewContainer(ctx, cfg, appLog)
	if err != nil {
		return err
	}
	defer container.Close()

	sched, err := buildScheduler(cfg, container, appLog)
	if err != nil {
		return err
	}

	statusOpts := health.Options{
		Service: cfg.App.Name + "-scheduler",
		Version: Version,
		Commit:  GitCommit,
		Logger:  appLog,
		Store:   container,
		Jobs: map[string]health.Job{
			"snapshot_refresh": container.Snapshots.Stats(),
			"backtest_run":     container.Backtests.Stats(),
		},
	}
	if cfg.Schedule.HealthPort > 0 {
		statusOpts.Addr = ":" + strconv.Itoa(cfg.Schedule.HealthPort)
	}
	if cfg.Metrics.Enabled {
		statusOpts.Metrics = metrics.Handler()
		statusOpts.MetricsPath = cfg.Metrics.Path
	}
	healthServer := health.New(statusOpts)
	if err := healthServer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start health server: %w", err)
	}

	if err := sched.Start(); err != nil {
		return err
	}
	healthServer.SetReady(true)
	appLog.WithFields(logrus.Fields{
		"version":  Version,
		"next_run": sched.GetNextRun(),
	}).Info("Scheduler running")

	<-ctx.Done()
	appLog.Info("Shutdown signal received")
	healthServer.SetReady(false)

	if err := sched.Stop(); err != nil {
		appLog.WithError(err).Warn("Scheduler did not stop cleanly")
	}
	return healthServer.Shutdown()
}

func buildScheduler(cfg *config.Config, container *service.Container, log *logrus.Logger) (*scheduler.Scheduler, error) {
	sched := scheduler.NewScheduler(container.Snapshots, container.Backtests, log)

	if cfg.Schedule.SnapshotRefresh != "" {
		if err := sched.ScheduleSnapshotRefresh(cfg.Schedule.SnapshotRefresh); err != nil {
			return nil, err
		}
	}

	if cfg.Schedule.BacktestRun != "" {
		btConfig, err := backtest.FromConfig(cfg)
		if err != nil {
			return nil, fmt.Errorf("invalid backtest config: %w", err)
		}
		strat, err := backtest.StrategyByName(cfg.Backtest.Strategy)
		if err != nil {
			return nil, err
		}
		if err := sched.ScheduleBacktest(cfg.Schedule.BacktestRun, btConfig, strat, cfg.Schedule.BacktestWindowDays); err != nil {
			return nil, err
		}
	}

	return sched, nil
}
