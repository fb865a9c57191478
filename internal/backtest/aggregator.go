package backtest

import (
	"encoding/json"
	"math"
)

// Recommendations produced by Assess
const (
	RecommendationAccept      = "ACCEPT"
	RecommendationReject      = "REJECT"
	RecommendationNeedsReview = "NEEDS_REVIEW"
)

const significanceLevel = 0.05

// Assessment combines the run summary, the random baseline and the monthly
// breakdown into a single verdict
type Assessment struct {
	Lift           float64            `json:"lift"`
	ROI            float64            `json:"roi"`
	Consistency    float64            `json:"consistency"`
	Significant    bool               `json:"significant"`
	CompositeScore float64            `json:"composite_score"`
	Recommendation string             `json:"recommendation"`
	Features       map[string]float64 `json:"features"`
}

// Assess scores a run. A model must beat random rankings and be profitable in
// most months to be accepted.
func Assess(summary Summary, baseline BaselineResult, periods []PeriodSummary) Assessment {
	a := Assessment{
		Lift:        baseline.Lift,
		ROI:         summary.ROI,
		Consistency: CalculateConsistency(periods),
		Significant: summary.RacesEvaluated > 0 && baseline.ProbabilityAtObserved < significanceLevel,
	}
	a.CompositeScore = compositeScore(a)
	a.Recommendation = GenerateRecommendation(summary.RacesEvaluated, a)
	a.Features = map[string]float64{
		"hit_rate":             summary.HitRate,
		"expected_random_rate": baseline.ExpectedHitRate,
		"lift":                 a.Lift,
		"roi":                  a.ROI,
		"consistency":          a.Consistency,
		"payout_gap_share":     share(summary.PayoutGaps, summary.Hits),
		"excluded_share":       share(summary.RacesExcluded, summary.RacesExcluded+summary.RacesEvaluated),
	}
	return a
}

// GenerateRecommendation determines if a model is acceptable
func GenerateRecommendation(races int, a Assessment) string {
	if races == 0 {
		return RecommendationNeedsReview
	}
	if a.Significant && a.Lift > 1 && a.ROI > 1 && a.Consistency > 0.6 {
		return RecommendationAccept
	}
	if a.Lift <= 1 || a.ROI < 0.75 || a.Consistency < 0.4 {
		return RecommendationReject
	}
	return RecommendationNeedsReview
}

func compositeScore(a Assessment) float64 {
	weighted := 0.0
	weighted += normalize(a.Lift, 0, 5) * 0.35
	weighted += normalize(a.ROI, 0.5, 1.5) * 0.35
	weighted += a.Consistency * 0.20
	if a.Significant {
		weighted += 0.10
	}
	return weighted
}

// ToJSON exports the assessment to JSON string
func (a Assessment) ToJSON() string {
	data, _ := json.Marshal(a)
	return string(data)
}

func share(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole)
}

func normalize(value, lo, hi float64) float64 {
	if hi-lo == 0 {
		return 0
	}
	v := (value - lo) / (hi - lo)
	return math.Max(0, math.Min(1, v))
}
