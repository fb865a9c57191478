// Package scheduler runs the snapshot refresh and backtest jobs on cron
// expressions for the daemon in cmd/scheduler.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/one-spear/internal/backtest"
	"github.com/yourusername/one-spear/internal/service"
)

// SnapshotRefresher rebuilds the persisted snapshots
type SnapshotRefresher interface {
	Refresh(ctx context.Context) (*service.RefreshResult, error)
}

// BacktestRunner replays one backtest configuration
type BacktestRunner interface {
	Run(ctx context.Context, cfg backtest.BacktestConfig, strat backtest.Strategy) (*backtest.Report, error)
}

// Scheduler manages the scheduled jobs
type Scheduler struct {
	cron            *cron.Cron
	snapshots       SnapshotRefresher
	backtests       BacktestRunner
	logger          *logrus.Logger
	mu              sync.RWMutex
	isRunning       bool
	jobIDs          []cron.EntryID
	jobTimeout      time.Duration
	gracefulTimeout time.Duration
	now             func() time.Time
}

// NewScheduler creates a new scheduler. Runs of the same job never overlap.
func NewScheduler(snapshots SnapshotRefresher, backtests BacktestRunner, log *logrus.Logger) *Scheduler {
	if log == nil {
		log = logrus.New()
	}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		snapshots:       snapshots,
		backtests:       backtests,
		logger:          log,
		jobIDs:          make([]cron.EntryID, 0),
		jobTimeout:      4 * time.Hour,
		gracefulTimeout: 30 * time.Second,
		now:             time.Now,
	}
}

// ScheduleSnapshotRefresh rebuilds snapshots on cronExpression
func (s *Scheduler) ScheduleSnapshotRefresh(cronExpression string) error {
	if s.snapshots == nil {
		return fmt.Errorf("no snapshot service configured")
	}
	return s.addJob(cronExpression, "snapshot_refresh", func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
		defer cancel()
		s.refreshSnapshots(ctx)
	})
}

// ScheduleBacktest replays cfg with strat on cronExpression. A positive
// windowDays replaces the configured range with the trailing window ending
// the day before each run.
func (s *Scheduler) ScheduleBacktest(cronExpression string, cfg backtest.BacktestConfig, strat backtest.Strategy, windowDays int) error {
	if s.backtests == nil {
		return fmt.Errorf("no backtest service configured")
	}
	if strat == nil {
		return fmt.Errorf("strategy is required")
	}
	return s.addJob(cronExpression, "backtest_run", func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
		defer cancel()
		s.runBacktest(ctx, cfg, strat, windowDays)
	})
}

func (s *Scheduler) addJob(cronExpression, name string, job func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}

	entryID, err := s.cron.AddFunc(cronExpression, job)
	if err != nil {
		return fmt.Errorf("failed to add job: %w", err)
	}

	s.jobIDs = append(s.jobIDs, entryID)
	s.logger.WithFields(logrus.Fields{
		"job":  name,
		"cron": cronExpression,
	}).Info("Scheduled job")

	return nil
}

func (s *Scheduler) refreshSnapshots(ctx context.Context) {
	s.logger.Info("Starting scheduled snapshot refresh")

	result, err := s.snapshots.Refresh(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Scheduled snapshot refresh failed")
		return
	}
	s.logger.WithFields(logrus.Fields{
		"rows":      result.Rows,
		"snapshots": result.Snapshots,
		"persisted": result.Persisted,
		"duration":  result.Duration.String(),
	}).Info("Scheduled snapshot refresh completed")
}

func (s *Scheduler) runBacktest(ctx context.Context, cfg backtest.BacktestConfig, strat backtest.Strategy, windowDays int) {
	cfg = service.TrailingWindow(cfg, s.now(), windowDays)
	fields := logrus.Fields{
		"strategy":   strat.Name(),
		"start_date": cfg.StartDate.Format(time.DateOnly),
		"end_date":   cfg.EndDate.Format(time.DateOnly),
	}
	s.logger.WithFields(fields).Info("Starting scheduled backtest")

	report, err := s.backtests.Run(ctx, cfg, strat)
	if err != nil {
		s.logger.WithFields(fields).WithError(err).Error("Scheduled backtest failed")
		return
	}
	s.logger.WithFields(fields).WithFields(logrus.Fields{
		"run_id":         report.RunID.String(),
		"races":          report.Summary.RacesEvaluated,
		"hit_rate":       report.Summary.HitRate,
		"roi":            report.Summary.ROI,
		"recommendation": report.Assessment.Recommendation,
	}).Info("Scheduled backtest completed")
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}

	if len(s.jobIDs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.WithField("jobs", len(s.jobIDs)).Info("Scheduler started")

	return nil
}

// Stop waits for running jobs up to the graceful timeout
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	s.isRunning = false
	select {
	case <-s.cron.Stop().Done():
		s.logger.Info("Scheduler stopped")
		return nil
	case <-time.After(s.gracefulTimeout):
		return fmt.Errorf("scheduler stop timed out after %s with jobs still running", s.gracefulTimeout)
	}
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRun returns the time of the next scheduled job run
func (s *Scheduler) GetNextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning || len(s.jobIDs) == 0 {
		return time.Time{}
	}

	nextRun := time.Time{}
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() {
			nextTime := entry.Next
			if nextRun.IsZero() || nextTime.Before(nextRun) {
				nextRun = nextTime
			}
		}
	}

	return nextRun
}

// Entries returns information about scheduled entries
func (s *Scheduler) Entries() []cron.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]cron.Entry, 0, len(s.jobIDs))
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() {
			entries = append(entries, entry)
		}
	}

	return entries
}
