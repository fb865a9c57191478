package backtest

import (
	"encoding/json"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Summary is the aggregate over one replay
type Summary struct {
	Strategy          string                  `json:"strategy"`
	Model             string                  `json:"model"`
	StartDate         time.Time               `json:"start_date"`
	EndDate           time.Time               `json:"end_date"`
	RacesEvaluated    int                     `json:"races_evaluated"`
	Hits              int                     `json:"hits"`
	HitRate           float64                 `json:"hit_rate"`
	TotalStake        decimal.Decimal         `json:"total_stake"`
	TotalPayout       decimal.Decimal         `json:"total_payout"`
	Profit            decimal.Decimal         `json:"profit"`
	ROI               float64                 `json:"roi"`
	AvgPayoutGivenHit decimal.Decimal         `json:"avg_payout_given_hit"`
	PayoutGaps        int                     `json:"payout_gaps"`
	RacesExcluded     int                     `json:"races_excluded"`
	ExcludedByReason  map[ExclusionReason]int `json:"excluded_by_reason"`
}

// Summarize derives the aggregate metrics from a tally. Zero denominators yield 0.
func Summarize(t Tally, strategy, model string, start, end time.Time) Summary {
	s := Summary{
		Strategy:          strategy,
		Model:             model,
		StartDate:         start,
		EndDate:           end,
		RacesEvaluated:    t.Races,
		Hits:              t.Hits,
		TotalStake:        t.Stake,
		TotalPayout:       t.Payout,
		Profit:            t.Payout.Sub(t.Stake),
		AvgPayoutGivenHit: decimal.Zero,
		PayoutGaps:        t.PayoutGaps,
		RacesExcluded:     t.ExcludedTotal(),
		ExcludedByReason:  make(map[ExclusionReason]int, len(t.Excluded)),
	}
	for reason, n := range t.Excluded {
		s.ExcludedByReason[reason] = n
	}

	if t.Races > 0 {
		s.HitRate = float64(t.Hits) / float64(t.Races)
	}
	if !t.Stake.IsZero() {
		s.ROI = t.Payout.Div(t.Stake).InexactFloat64()
	}
	if t.Hits > 0 {
		s.AvgPayoutGivenHit = t.Payout.Div(decimal.NewFromInt(int64(t.Hits)))
	}
	return s
}

// ToJSON exports the summary to JSON
func (s Summary) ToJSON() string {
	data, _ := json.Marshal(s)
	return string(data)
}

func meanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	variance := 0.0
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	variance /= float64(len(values))
	return mean, math.Sqrt(variance)
}

func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64{}, values...)
	sort.Float64s(sorted)
	idx := int(math.Floor(p * float64(len(sorted)-1)))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
