package repository

import (
	"context"
	"time"

	"github.com/yourusername/one-spear/internal/models"
)

// OutcomeStore reads historical race outcomes. Dates are compared at day granularity.
type OutcomeStore interface {
	// ListFinishedPerformances returns rows with a finishing position from races
	// strictly before until, ordered by race date, race id and horse number.
	// A zero until returns every finished row.
	ListFinishedPerformances(ctx context.Context, until time.Time) ([]*models.RacePerformance, error)
	// ListRaceEntries returns every entry, finished or not, for races in [start, end]
	ListRaceEntries(ctx context.Context, start, end time.Time) ([]*models.RacePerformance, error)
	// ListPayouts returns payout records for races in [start, end]
	ListPayouts(ctx context.Context, start, end time.Time) ([]*models.PayoutRecord, error)
}

// SnapshotRepository persists built snapshots for downstream consumers
type SnapshotRepository interface {
	ReplaceAll(ctx context.Context, snapshots []models.EntitySnapshot) (int64, error)
	CountByKind(ctx context.Context) (map[models.EntityKind]int64, error)
}

// BacktestResultRepository stores run summaries
type BacktestResultRepository interface {
	SaveResult(ctx context.Context, result *models.BacktestResult) error
	GetLatest(ctx context.Context, limit int) ([]*models.BacktestResult, error)
	GetByStrategy(ctx context.Context, strategy string, limit int) ([]*models.BacktestResult, error)
}
