package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/yourusername/one-spear/internal/database"
	"github.com/yourusername/one-spear/internal/models"
)

const (
	errScanBacktestResult = "failed to scan backtest result: %w"

	selectBacktestResults = `
		SELECT id, run_date, strategy, model, start_date, end_date,
			races_evaluated, races_excluded, hits, hit_rate,
			total_stake::text, total_payout::text, roi, payout_gaps, full_results, created_at
		FROM backtest_results`
)

// PostgresBacktestResultRepository implements BacktestResultRepository for PostgreSQL
type PostgresBacktestResultRepository struct {
	db *database.DB
}

// NewPostgresBacktestResultRepository creates a new backtest result repository
func NewPostgresBacktestResultRepository(db *database.DB) BacktestResultRepository {
	return &PostgresBacktestResultRepository{db: db}
}

// SaveResult inserts a backtest result
func (r *PostgresBacktestResultRepository) SaveResult(ctx context.Context, result *models.BacktestResult) error {
	query := `
		INSERT INTO backtest_results (
			id, run_date, strategy, model, start_date, end_date,
			races_evaluated, races_excluded, hits, hit_rate,
			total_stake, total_payout, roi, payout_gaps, full_results, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11::text::numeric,$12::text::numeric,$13,$14,$15,$16)
	`

	_, err := r.db.Exec(ctx, query,
		result.ID, result.RunDate, result.Strategy, result.Model, result.StartDate, result.EndDate,
		result.RacesEvaluated, result.RacesExcluded, result.Hits, result.HitRate,
		result.TotalStake.String(), result.TotalPayout.String(), result.ROI, result.PayoutGaps,
		result.FullResults, result.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save backtest result: %w", err)
	}
	return nil
}

// GetLatest retrieves the most recent backtest results
func (r *PostgresBacktestResultRepository) GetLatest(ctx context.Context, limit int) ([]*models.BacktestResult, error) {
	rows, err := r.db.Query(ctx, selectBacktestResults+` ORDER BY run_date DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest backtest results: %w", err)
	}
	return scanBacktestResults(rows)
}

// GetByStrategy retrieves the most recent results for one strategy
func (r *PostgresBacktestResultRepository) GetByStrategy(ctx context.Context, strategy string, limit int) ([]*models.BacktestResult, error) {
	rows, err := r.db.Query(ctx, selectBacktestResults+` WHERE strategy = $1 ORDER BY run_date DESC LIMIT $2`, strategy, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query backtest results by strategy: %w", err)
	}
	return scanBacktestResults(rows)
}

func scanBacktestResults(rows pgx.Rows) ([]*models.BacktestResult, error) {
	defer rows.Close()

	var results []*models.BacktestResult
	for rows.Next() {
		var (
			result       = &models.BacktestResult{}
			stake, total string
		)
		if err := rows.Scan(
			&result.ID, &result.RunDate, &result.Strategy, &result.Model, &result.StartDate, &result.EndDate,
			&result.RacesEvaluated, &result.RacesExcluded, &result.Hits, &result.HitRate,
			&stake, &total, &result.ROI, &result.PayoutGaps, &result.FullResults, &result.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf(errScanBacktestResult, err)
		}
		result.TotalStake, _ = decimal.NewFromString(stake)
		result.TotalPayout, _ = decimal.NewFromString(total)
		results = append(results, result)
	}
	return results, rows.Err()
}
