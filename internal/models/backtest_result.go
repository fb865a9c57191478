package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BacktestResult represents a persisted backtest run
type BacktestResult struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	RunDate        time.Time       `db:"run_date" json:"run_date"`
	Strategy       string          `db:"strategy" json:"strategy"`
	Model          string          `db:"model" json:"model"`
	StartDate      time.Time       `db:"start_date" json:"start_date"`
	EndDate        time.Time       `db:"end_date" json:"end_date"`
	RacesEvaluated int             `db:"races_evaluated" json:"races_evaluated"`
	RacesExcluded  int             `db:"races_excluded" json:"races_excluded"`
	Hits           int             `db:"hits" json:"hits"`
	HitRate        float64         `db:"hit_rate" json:"hit_rate"`
	TotalStake     decimal.Decimal `db:"total_stake" json:"total_stake"`
	TotalPayout    decimal.Decimal `db:"total_payout" json:"total_payout"`
	ROI            float64         `db:"roi" json:"roi"`
	PayoutGaps     int             `db:"payout_gaps" json:"payout_gaps"`
	FullResults    json.RawMessage `db:"full_results" json:"full_results"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
}
