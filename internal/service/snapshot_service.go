// Package service wires the outcome store, snapshot builder and backtest
// engine into the jobs run by the command line tools and the scheduler.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/one-spear/internal/logger"
	"github.com/yourusername/one-spear/internal/models"
	"github.com/yourusername/one-spear/internal/repository"
	"github.com/yourusername/one-spear/internal/snapshot"
)

// RefreshResult summarises one snapshot refresh
type RefreshResult struct {
	Rows      int
	Snapshots int
	Persisted int64
	ByKind    map[models.EntityKind]int64
	Duration  time.Duration
}

// SnapshotService rebuilds the point-in-time statistics from the full outcome history
type SnapshotService struct {
	store   repository.OutcomeStore
	builder *snapshot.Builder
	repo    repository.SnapshotRepository
	logger  *logrus.Logger
	events  *logger.SnapshotLogger
	stats   *JobStats
}

// NewSnapshotService creates the service. repo may be nil, in which case
// snapshots are built but not persisted.
func NewSnapshotService(store repository.OutcomeStore, builder *snapshot.Builder, repo repository.SnapshotRepository, log *logrus.Logger) *SnapshotService {
	if log == nil {
		log = logrus.New()
	}
	return &SnapshotService{
		store:   store,
		builder: builder,
		repo:    repo,
		logger:  log,
		events:  logger.NewSnapshotLogger(log),
		stats:   NewJobStats("snapshot_refresh"),
	}
}

// Refresh builds snapshots from every finished performance and replaces the
// persisted copy when a repository is configured
func (s *SnapshotService) Refresh(ctx context.Context) (*RefreshResult, error) {
	started := time.Now()
	result, err := s.refresh(ctx)
	if err != nil {
		s.stats.RecordFailure(started, err)
		return nil, err
	}
	result.Duration = time.Since(started)
	s.stats.RecordSuccess(started)
	return result, nil
}

func (s *SnapshotService) refresh(ctx context.Context) (*RefreshResult, error) {
	rows, err := s.store.ListFinishedPerformances(ctx, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("failed to load performances: %w", err)
	}
	index, err := s.builder.Build(ctx, rows)
	if err != nil {
		return nil, err
	}

	result := &RefreshResult{Rows: len(rows), Snapshots: index.Len()}
	if s.repo == nil {
		s.logger.WithField("snapshots", index.Len()).Info("Snapshot persistence disabled, skipping write")
		return result, nil
	}

	result.Persisted, err = s.repo.ReplaceAll(ctx, index.All())
	if err != nil {
		return nil, fmt.Errorf("failed to persist snapshots: %w", err)
	}
	result.ByKind, err = s.repo.CountByKind(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count persisted snapshots: %w", err)
	}
	for kind, n := range result.ByKind {
		s.events.LogSnapshotsPersisted(string(kind), n)
	}
	return result, nil
}

// Stats returns the run history of this service
func (s *SnapshotService) Stats() *JobStats {
	return s.stats
}
