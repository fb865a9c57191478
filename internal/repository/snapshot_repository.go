package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/yourusername/one-spear/internal/database"
	"github.com/yourusername/one-spear/internal/models"
)

var snapshotColumns = []string{
	"entity_kind", "entity_id", "as_of_date", "total_races", "wins", "places",
	"win_rate", "place_rate", "avg_finish_position", "days_since_last_race",
}

// PostgresSnapshotRepository implements SnapshotRepository for PostgreSQL
type PostgresSnapshotRepository struct {
	db *database.DB
}

// NewPostgresSnapshotRepository creates a new snapshot repository
func NewPostgresSnapshotRepository(db *database.DB) SnapshotRepository {
	return &PostgresSnapshotRepository{db: db}
}

// ReplaceAll swaps the persisted snapshot table for snapshots in one transaction
func (r *PostgresSnapshotRepository) ReplaceAll(ctx context.Context, snapshots []models.EntitySnapshot) (int64, error) {
	var count int64
	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "DELETE FROM stat_entity_snapshots"); err != nil {
			return fmt.Errorf("failed to clear snapshots: %w", err)
		}
		if len(snapshots) == 0 {
			return nil
		}

		n, err := tx.CopyFrom(ctx, pgx.Identifier{"stat_entity_snapshots"}, snapshotColumns, snapshotRows(snapshots))
		if err != nil {
			return fmt.Errorf("failed to copy snapshots: %w", err)
		}
		if n != int64(len(snapshots)) {
			return fmt.Errorf("inserted %d rows, expected %d", n, len(snapshots))
		}
		count = n
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// CountByKind reports how many snapshots are persisted per entity kind
func (r *PostgresSnapshotRepository) CountByKind(ctx context.Context) (map[models.EntityKind]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT entity_kind, COUNT(*) FROM stat_entity_snapshots GROUP BY entity_kind`)
	if err != nil {
		return nil, fmt.Errorf("failed to count snapshots: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.EntityKind]int64)
	for rows.Next() {
		var (
			kind  string
			count int64
		)
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot count: %w", err)
		}
		counts[models.EntityKind(kind)] = count
	}
	return counts, rows.Err()
}

func snapshotRows(snapshots []models.EntitySnapshot) pgx.CopyFromSource {
	return pgx.CopyFromSlice(len(snapshots), func(i int) ([]any, error) {
		s := snapshots[i]
		return []any{
			string(s.Kind), s.EntityID, s.AsOfDate, s.TotalRaces, s.Wins, s.Places,
			s.WinRate, s.PlaceRate, s.AvgFinishPosition, s.DaysSinceLastRace,
		}, nil
	})
}
