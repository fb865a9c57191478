package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/one-spear/internal/backtest"
	"github.com/yourusername/one-spear/internal/models"
	"github.com/yourusername/one-spear/internal/repository"
	"github.com/yourusername/one-spear/internal/scoring"
	"github.com/yourusername/one-spear/internal/snapshot"
)

// BacktestService runs a backtest and handles its outputs
type BacktestService struct {
	store   repository.OutcomeStore
	builder *snapshot.Builder
	model   scoring.Model
	results repository.BacktestResultRepository
	logger  *logrus.Logger
	stats   *JobStats
}

// NewBacktestService creates the service. results may be nil when runs are
// not persisted.
func NewBacktestService(
	store repository.OutcomeStore,
	builder *snapshot.Builder,
	model scoring.Model,
	results repository.BacktestResultRepository,
	log *logrus.Logger,
) *BacktestService {
	if log == nil {
		log = logrus.New()
	}
	return &BacktestService{
		store:   store,
		builder: builder,
		model:   model,
		results: results,
		logger:  log,
		stats:   NewJobStats("backtest_run"),
	}
}

// Run replays cfg with strat, writes the configured report files and
// persists the summary when requested
func (s *BacktestService) Run(ctx context.Context, cfg backtest.BacktestConfig, strat backtest.Strategy) (*backtest.Report, error) {
	started := time.Now()
	report, err := s.run(ctx, cfg, strat)
	if err != nil {
		s.stats.RecordFailure(started, err)
		return nil, err
	}
	s.stats.RecordSuccess(started)
	return report, nil
}

func (s *BacktestService) run(ctx context.Context, cfg backtest.BacktestConfig, strat backtest.Strategy) (*backtest.Report, error) {
	engine, err := backtest.NewEngine(cfg, s.store, s.builder, s.model, strat, s.logger)
	if err != nil {
		return nil, err
	}
	report, err := engine.Run(ctx)
	if err != nil {
		return nil, err
	}

	if err := backtest.WriteOutputs(report, cfg); err != nil {
		return nil, fmt.Errorf("failed to write reports: %w", err)
	}

	if cfg.PersistResults {
		if s.results == nil {
			return nil, fmt.Errorf("result persistence requested without a result repository")
		}
		if err := backtest.ExportToDatabase(ctx, report, s.results); err != nil {
			return nil, err
		}
		s.logger.WithField("run_id", report.RunID).Info("Backtest result persisted")
	}
	return report, nil
}

// RecentResults lists persisted runs, newest first
func (s *BacktestService) RecentResults(ctx context.Context, strategy string, limit int) ([]*models.BacktestResult, error) {
	if s.results == nil {
		return nil, fmt.Errorf("no result repository configured")
	}
	if strategy == "" {
		return s.results.GetLatest(ctx, limit)
	}
	return s.results.GetByStrategy(ctx, strategy, limit)
}

// Stats returns the run history of this service
func (s *BacktestService) Stats() *JobStats {
	return s.stats
}

// TrailingWindow returns cfg with its range replaced by the days ending the
// day before now. days <= 0 leaves cfg unchanged.
func TrailingWindow(cfg backtest.BacktestConfig, now time.Time, days int) backtest.BacktestConfig {
	if days <= 0 {
		return cfg
	}
	end := models.Day(now).AddDate(0, 0, -1)
	cfg.EndDate = end
	cfg.StartDate = end.AddDate(0, 0, -(days - 1))
	return cfg
}
