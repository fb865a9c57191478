package backtest

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/one-spear/internal/models"
)

func settled(raceID string, d time.Time, hit bool, stake, payout int64) RaceOutcome {
	return RaceOutcome{
		RaceID: raceID,
		State:  StateSettled,
		Record: record(raceID, d, hit, stake, payout),
	}
}

func record(raceID string, d time.Time, hit bool, stake, payout int64) *models.PredictionRecord {
	return &models.PredictionRecord{
		RaceID:    raceID,
		RaceDate:  d,
		FieldSize: 10,
		Strategy:  StrategyTrifecta,
		Predicted: models.Triple{1, 2, 3},
		Actual:    models.Triple{1, 2, 3},
		Hit:       hit,
		Stake:     decimal.NewFromInt(stake),
		Payout:    decimal.NewFromInt(payout),
	}
}

func excluded(reason ExclusionReason) RaceOutcome {
	return RaceOutcome{State: StateExcluded, Reason: reason}
}

func tallyOf(outcomes ...RaceOutcome) Tally {
	var t Tally
	for _, o := range outcomes {
		t.Add(o)
	}
	return t
}

func TestTallyMergeIsAssociative(t *testing.T) {
	d := day(2024, 3, 1)
	a := tallyOf(settled("a", d, true, 100, 5000), excluded(ReasonIncompleteOutcome))
	b := tallyOf(settled("b", d, false, 100, 0), excluded(ReasonScoringUnavailable))
	c := tallyOf(settled("c", d, false, 100, 0), excluded(ReasonIncompleteOutcome))

	left := a.Merge(b).Merge(c)
	right := a.Merge(b.Merge(c))
	swapped := c.Merge(a).Merge(b)

	for _, got := range []Tally{right, swapped} {
		assert.Equal(t, left.Races, got.Races)
		assert.Equal(t, left.Hits, got.Hits)
		assert.True(t, left.Stake.Equal(got.Stake))
		assert.True(t, left.Payout.Equal(got.Payout))
		assert.Equal(t, left.Excluded, got.Excluded)
	}
	assert.Equal(t, 3, left.Races)
	assert.Equal(t, 2, left.Excluded[ReasonIncompleteOutcome])
	assert.Equal(t, 3, left.ExcludedTotal())

	whole := tallyOf(settled("a", d, true, 100, 5000), excluded(ReasonIncompleteOutcome),
		settled("b", d, false, 100, 0), excluded(ReasonScoringUnavailable),
		settled("c", d, false, 100, 0), excluded(ReasonIncompleteOutcome))
	assert.True(t, whole.Payout.Equal(left.Payout))
	assert.Equal(t, whole.Excluded, left.Excluded)
}

func TestSummarize(t *testing.T) {
	d := day(2024, 3, 1)
	tally := tallyOf(
		settled("a", d, true, 100, 12340),
		settled("b", d, false, 100, 0),
		settled("c", d, true, 100, 660),
		settled("d", d, false, 100, 0),
	)

	s := Summarize(tally, "trifecta", "popularity", d, d)
	assert.Equal(t, 4, s.RacesEvaluated)
	assert.Equal(t, 2, s.Hits)
	assert.InDelta(t, 0.5, s.HitRate, 1e-12)
	assert.True(t, s.TotalStake.Equal(decimal.NewFromInt(400)))
	assert.True(t, s.Profit.Equal(decimal.NewFromInt(12600)))
	assert.InDelta(t, 32.5, s.ROI, 1e-12)
	assert.True(t, s.AvgPayoutGivenHit.Equal(decimal.NewFromInt(6500)))
}

func TestSummarize_ZeroDenominators(t *testing.T) {
	s := Summarize(Tally{}, "trifecta", "random", time.Time{}, time.Time{})
	assert.Zero(t, s.HitRate)
	assert.Zero(t, s.ROI)
	assert.True(t, s.AvgPayoutGivenHit.IsZero())
	assert.NotNil(t, s.ExcludedByReason)
	assert.Contains(t, s.ToJSON(), `"races_evaluated":0`)
}

func TestProfitCurve(t *testing.T) {
	d := day(2024, 3, 1)
	curve := NewProfitCurve([]*models.PredictionRecord{
		record("a", d, true, 100, 1000),
		record("b", d, false, 100, 0),
		record("c", d, false, 100, 0),
		record("d", d, true, 100, 150),
	})

	require.Len(t, curve.Points, 4)
	assert.True(t, curve.Points[0].CumProfit.Equal(decimal.NewFromInt(900)))
	assert.True(t, curve.Points[2].Drawdown.Equal(decimal.NewFromInt(200)))
	assert.True(t, curve.MaxDrawdown().Equal(decimal.NewFromInt(200)))
	assert.InDelta(t, 0.5, curve.Final().RunningHit, 1e-12)
	assert.True(t, curve.Final().CumProfit.Equal(decimal.NewFromInt(850)))

	csv := curve.ToCSV()
	assert.Contains(t, csv, "date,race_id,races,hits")
	assert.Contains(t, csv, "2024-03-01,d,4,2,400,1150,750,")

	empty := NewProfitCurve(nil)
	assert.Equal(t, CurvePoint{}, empty.Final())
	assert.True(t, empty.MaxDrawdown().IsZero())
}

func TestBreakdownByPeriod(t *testing.T) {
	periods := BreakdownByPeriod([]*models.PredictionRecord{
		record("m1", day(2024, 4, 3), false, 100, 0),
		record("j1", day(2024, 3, 2), true, 100, 1000),
		record("j2", day(2024, 3, 9), false, 100, 0),
		record("m2", day(2024, 5, 1), true, 100, 50),
	})

	require.Len(t, periods, 3)
	assert.Equal(t, "2024-03", periods[0].Period)
	assert.Equal(t, 2, periods[0].Races)
	assert.InDelta(t, 5.0, periods[0].ROI, 1e-12)
	assert.Equal(t, "2024-04", periods[1].Period)
	assert.Zero(t, periods[1].ROI)

	assert.InDelta(t, 1.0/3, CalculateConsistency(periods), 1e-12)
	assert.Zero(t, CalculateConsistency(nil))
}

func TestRandomBaseline(t *testing.T) {
	records := make([]*models.PredictionRecord, 0, 200)
	for i := 0; i < 200; i++ {
		r := record("r", day(2024, 3, 1), i%20 == 0, 100, 0)
		r.FieldSize = 8 + i%2*4
		records = append(records, r)
	}

	baseline := RandomBaseline(records, Trio{}, BaselineConfig{Iterations: 500, Seed: 3})
	want := (6.0/336 + 6.0/1320) / 2
	assert.InDelta(t, want, baseline.ExpectedHitRate, 1e-12)
	assert.InDelta(t, 0.05, baseline.ObservedHitRate, 1e-12)
	assert.InDelta(t, 0.05/want, baseline.Lift, 1e-9)
	assert.InDelta(t, want, baseline.SimulatedMean, 0.01)
	assert.Contains(t, baseline.ConfidenceIntervals, "95%")
	ci := baseline.ConfidenceIntervals["95%"]
	assert.LessOrEqual(t, ci[0], ci[1])

	again := RandomBaseline(records, Trio{}, BaselineConfig{Iterations: 500, Seed: 3})
	assert.Equal(t, baseline.SimulatedMean, again.SimulatedMean)

	empty := RandomBaseline(nil, Trifecta{}, BaselineConfig{})
	assert.Zero(t, empty.ExpectedHitRate)
	assert.Zero(t, empty.Lift)
}

func TestAssess(t *testing.T) {
	tests := []struct {
		name     string
		summary  Summary
		baseline BaselineResult
		periods  []PeriodSummary
		want     string
	}{
		{
			name:     "no races",
			summary:  Summary{},
			baseline: BaselineResult{},
			want:     RecommendationNeedsReview,
		},
		{
			name:     "beats random and profitable",
			summary:  Summary{RacesEvaluated: 500, ROI: 1.3},
			baseline: BaselineResult{Lift: 3, ProbabilityAtObserved: 0.001},
			periods:  []PeriodSummary{{Profit: decimal.NewFromInt(10)}, {Profit: decimal.NewFromInt(5)}},
			want:     RecommendationAccept,
		},
		{
			name:     "no better than random",
			summary:  Summary{RacesEvaluated: 500, ROI: 1.3},
			baseline: BaselineResult{Lift: 0.9, ProbabilityAtObserved: 0.6},
			periods:  []PeriodSummary{{Profit: decimal.NewFromInt(10)}},
			want:     RecommendationReject,
		},
		{
			name:     "lift without significance",
			summary:  Summary{RacesEvaluated: 500, ROI: 0.9},
			baseline: BaselineResult{Lift: 1.4, ProbabilityAtObserved: 0.2},
			periods:  []PeriodSummary{{Profit: decimal.NewFromInt(10)}, {Profit: decimal.NewFromInt(-5)}},
			want:     RecommendationNeedsReview,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Assess(tt.summary, tt.baseline, tt.periods)
			assert.Equal(t, tt.want, a.Recommendation)
			assert.GreaterOrEqual(t, a.CompositeScore, 0.0)
			assert.LessOrEqual(t, a.CompositeScore, 1.0)
		})
	}
}
