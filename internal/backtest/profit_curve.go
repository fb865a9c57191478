package backtest

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yourusername/one-spear/internal/models"
)

// CurvePoint is the running position after one settled race
type CurvePoint struct {
	Date       time.Time       `json:"date"`
	RaceID     string          `json:"race_id"`
	Races      int             `json:"races"`
	Hits       int             `json:"hits"`
	CumStake   decimal.Decimal `json:"cum_stake"`
	CumPayout  decimal.Decimal `json:"cum_payout"`
	CumProfit  decimal.Decimal `json:"cum_profit"`
	Drawdown   decimal.Decimal `json:"drawdown"`
	RunningHit float64         `json:"running_hit_rate"`
}

// ProfitCurve is the chronological running report of a replay
type ProfitCurve struct {
	Points []CurvePoint `json:"points"`
}

// NewProfitCurve folds records, already in chronological order, into running totals
func NewProfitCurve(records []*models.PredictionRecord) *ProfitCurve {
	curve := &ProfitCurve{Points: make([]CurvePoint, 0, len(records))}
	stake, payout, peak := decimal.Zero, decimal.Zero, decimal.Zero
	hits := 0
	for i, r := range records {
		stake = stake.Add(r.Stake)
		payout = payout.Add(r.Payout)
		if r.Hit {
			hits++
		}
		profit := payout.Sub(stake)
		if profit.GreaterThan(peak) {
			peak = profit
		}
		curve.Points = append(curve.Points, CurvePoint{
			Date:       r.RaceDate,
			RaceID:     r.RaceID,
			Races:      i + 1,
			Hits:       hits,
			CumStake:   stake,
			CumPayout:  payout,
			CumProfit:  profit,
			Drawdown:   peak.Sub(profit),
			RunningHit: float64(hits) / float64(i+1),
		})
	}
	return curve
}

// MaxDrawdown is the largest fall from a running profit peak
func (c *ProfitCurve) MaxDrawdown() decimal.Decimal {
	worst := decimal.Zero
	for _, p := range c.Points {
		if p.Drawdown.GreaterThan(worst) {
			worst = p.Drawdown
		}
	}
	return worst
}

// Final returns the last point, or a zero point for an empty curve
func (c *ProfitCurve) Final() CurvePoint {
	if len(c.Points) == 0 {
		return CurvePoint{}
	}
	return c.Points[len(c.Points)-1]
}

// ToCSV exports the curve to CSV string
func (c *ProfitCurve) ToCSV() string {
	var buf bytes.Buffer
	buf.WriteString("date,race_id,races,hits,cum_stake,cum_payout,cum_profit,drawdown,running_hit_rate\n")
	for _, p := range c.Points {
		buf.WriteString(p.Date.Format(time.DateOnly))
		buf.WriteString(",")
		buf.WriteString(p.RaceID)
		buf.WriteString(",")
		buf.WriteString(strconv.Itoa(p.Races))
		buf.WriteString(",")
		buf.WriteString(strconv.Itoa(p.Hits))
		buf.WriteString(",")
		buf.WriteString(p.CumStake.String())
		buf.WriteString(",")
		buf.WriteString(p.CumPayout.String())
		buf.WriteString(",")
		buf.WriteString(p.CumProfit.String())
		buf.WriteString(",")
		buf.WriteString(p.Drawdown.String())
		buf.WriteString(",")
		buf.WriteString(formatFloat(p.RunningHit))
		buf.WriteString("\n")
	}
	return buf.String()
}

// ToJSON exports the curve to JSON string
func (c *ProfitCurve) ToJSON() string {
	data, _ := json.Marshal(c)
	return string(data)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
