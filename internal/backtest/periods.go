package backtest

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/yourusername/one-spear/internal/models"
)

const periodLayout = "2006-01"

// PeriodSummary aggregates settled races of one calendar month
type PeriodSummary struct {
	Period  string          `json:"period"`
	Races   int             `json:"races"`
	Hits    int             `json:"hits"`
	HitRate float64         `json:"hit_rate"`
	Stake   decimal.Decimal `json:"stake"`
	Payout  decimal.Decimal `json:"payout"`
	Profit  decimal.Decimal `json:"profit"`
	ROI     float64         `json:"roi"`
}

// BreakdownByPeriod groups records by race month, in ascending order
func BreakdownByPeriod(records []*models.PredictionRecord) []PeriodSummary {
	byPeriod := make(map[string]*PeriodSummary)
	for _, r := range records {
		key := r.RaceDate.Format(periodLayout)
		p, ok := byPeriod[key]
		if !ok {
			p = &PeriodSummary{Period: key, Stake: decimal.Zero, Payout: decimal.Zero}
			byPeriod[key] = p
		}
		p.Races++
		if r.Hit {
			p.Hits++
		}
		p.Stake = p.Stake.Add(r.Stake)
		p.Payout = p.Payout.Add(r.Payout)
	}

	periods := make([]PeriodSummary, 0, len(byPeriod))
	for _, p := range byPeriod {
		p.Profit = p.Payout.Sub(p.Stake)
		if p.Races > 0 {
			p.HitRate = float64(p.Hits) / float64(p.Races)
		}
		if !p.Stake.IsZero() {
			p.ROI = p.Payout.Div(p.Stake).InexactFloat64()
		}
		periods = append(periods, *p)
	}
	sort.Slice(periods, func(i, j int) bool { return periods[i].Period < periods[j].Period })
	return periods
}

// CalculateConsistency is the share of periods that finished in profit
func CalculateConsistency(periods []PeriodSummary) float64 {
	if len(periods) == 0 {
		return 0
	}
	profitable := 0
	for _, p := range periods {
		if p.Profit.IsPositive() {
			profitable++
		}
	}
	return float64(profitable) / float64(len(periods))
}
