package backtest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/yourusername/one-spear/internal/models"
	"github.com/yourusername/one-spear/internal/repository"
)

// ToBacktestResult converts a report into its persisted summary row
func ToBacktestResult(report *Report) (*models.BacktestResult, error) {
	full, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}
	s := report.Summary
	return &models.BacktestResult{
		ID:             report.RunID,
		RunDate:        time.Now().UTC(),
		Strategy:       s.Strategy,
		Model:          s.Model,
		StartDate:      s.StartDate,
		EndDate:        s.EndDate,
		RacesEvaluated: s.RacesEvaluated,
		RacesExcluded:  s.RacesExcluded,
		Hits:           s.Hits,
		HitRate:        s.HitRate,
		TotalStake:     s.TotalStake,
		TotalPayout:    s.TotalPayout,
		ROI:            s.ROI,
		PayoutGaps:     s.PayoutGaps,
		FullResults:    full,
	}, nil
}

// ExportToDatabase persists the run summary
func ExportToDatabase(ctx context.Context, report *Report, repo repository.BacktestResultRepository) error {
	if repo == nil {
		return fmt.Errorf("backtest result repository is required")
	}
	result, err := ToBacktestResult(report)
	if err != nil {
		return err
	}
	if err := repo.SaveResult(ctx, result); err != nil {
		return fmt.Errorf("failed to save backtest result: %w", err)
	}
	return nil
}
