package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/one-spear/internal/database"
	"github.com/yourusername/one-spear/internal/models"
)

const performanceColumns = `
	rp.race_id, rp.horse_id, COALESCE(rp.jockey_id, ''), COALESCE(rp.trainer_id, ''),
	COALESCE(rp.horse_number, 0), COALESCE(rp.gate_number, 0), rp.finish_position, rp.popularity,
	r.date, r.distance, COALESCE(r.track_condition, '')`

// PostgresOutcomeStore implements OutcomeStore for PostgreSQL
type PostgresOutcomeStore struct {
	db  *database.DB
	log *logrus.Logger
}

// NewPostgresOutcomeStore creates a new outcome store
func NewPostgresOutcomeStore(db *database.DB, log *logrus.Logger) OutcomeStore {
	return &PostgresOutcomeStore{db: db, log: log}
}

// ListFinishedPerformances implements OutcomeStore
func (s *PostgresOutcomeStore) ListFinishedPerformances(ctx context.Context, until time.Time) ([]*models.RacePerformance, error) {
	query := `SELECT ` + performanceColumns + `
		FROM race_performances rp
		JOIN races r ON rp.race_id = r.race_id
		WHERE rp.finish_position IS NOT NULL`
	var args []any
	if !until.IsZero() {
		query += ` AND r.date::date < $1::date`
		args = append(args, until.UTC().Format(dateLayout))
	}
	query += ` ORDER BY r.date, rp.race_id, rp.horse_number`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query finished performances: %w", err)
	}
	return scanPerformances(rows)
}

// ListRaceEntries implements OutcomeStore
func (s *PostgresOutcomeStore) ListRaceEntries(ctx context.Context, start, end time.Time) ([]*models.RacePerformance, error) {
	from, to := dayBounds(start, end)
	query := `SELECT ` + performanceColumns + `
		FROM race_performances rp
		JOIN races r ON rp.race_id = r.race_id
		WHERE r.date::date >= $1::date AND r.date::date < $2::date
		ORDER BY r.date, rp.race_id, rp.horse_number`

	rows, err := s.db.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query race entries: %w", err)
	}
	return scanPerformances(rows)
}

// ListPayouts implements OutcomeStore
func (s *PostgresOutcomeStore) ListPayouts(ctx context.Context, start, end time.Time) ([]*models.PayoutRecord, error) {
	from, to := dayBounds(start, end)
	query := `
		SELECT p.race_id, p.payout_type, COALESCE(p.combo, ''), COALESCE(p.payout, 0)::text, p.popularity
		FROM payouts p
		JOIN races r ON p.race_id = r.race_id
		WHERE r.date::date >= $1::date AND r.date::date < $2::date
		ORDER BY r.date, p.race_id, p.payout_id
	`

	rows, err := s.db.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query payouts: %w", err)
	}
	defer rows.Close()

	var raw []payoutRow
	for rows.Next() {
		var (
			row    payoutRow
			amount string
		)
		if err := rows.Scan(&row.RaceID, &row.PayoutType, &row.Combo, &amount, &row.Popularity); err != nil {
			return nil, fmt.Errorf("failed to scan payout: %w", err)
		}
		if row.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("%w: race %s amount %q", models.ErrInvalidPayout, row.RaceID, amount)
		}
		raw = append(raw, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read payouts: %w", err)
	}

	return toPayoutRecords(raw, s.log), nil
}

func scanPerformances(rows pgx.Rows) ([]*models.RacePerformance, error) {
	defer rows.Close()

	var performances []*models.RacePerformance
	for rows.Next() {
		p := &models.RacePerformance{}
		if err := rows.Scan(
			&p.RaceID, &p.HorseID, &p.JockeyID, &p.TrainerID,
			&p.HorseNumber, &p.GateNumber, &p.FinishPosition, &p.Popularity,
			&p.RaceDate, &p.Distance, &p.TrackCondition,
		); err != nil {
			return nil, fmt.Errorf("failed to scan performance: %w", err)
		}
		p.RaceDate = models.Day(p.RaceDate)
		performances = append(performances, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read performances: %w", err)
	}
	return performances, nil
}
