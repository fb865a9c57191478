package backtest

import (
	"encoding/json"
	"fmt"
	"math/rand"

	"github.com/yourusername/one-spear/internal/models"
)

const defaultBaselineIterations = 1000

// BaselineConfig configures the random-ranking comparison
type BaselineConfig struct {
	Iterations      int
	ConfidenceLevel float64
	Seed            int64
}

// BaselineResult compares the observed hit rate with uniformly random rankings
// over the same races
type BaselineResult struct {
	Races                 int                   `json:"races"`
	ObservedHitRate       float64               `json:"observed_hit_rate"`
	ExpectedHitRate       float64               `json:"expected_hit_rate"`
	Lift                  float64               `json:"lift"`
	Iterations            int                   `json:"iterations"`
	SimulatedMean         float64               `json:"simulated_mean"`
	SimulatedStd          float64               `json:"simulated_std"`
	ConfidenceIntervals   map[string][2]float64 `json:"confidence_intervals"`
	ProbabilityAtObserved float64               `json:"probability_at_or_above_observed"`
}

// RandomBaseline computes the expected random hit rate, the mean of the
// per-race hit probability over the evaluated field sizes, and a seeded Monte
// Carlo distribution of random hit rates
func RandomBaseline(records []*models.PredictionRecord, strat Strategy, cfg BaselineConfig) BaselineResult {
	if cfg.Iterations <= 0 {
		cfg.Iterations = defaultBaselineIterations
	}
	if cfg.ConfidenceLevel <= 0 || cfg.ConfidenceLevel >= 1 {
		cfg.ConfidenceLevel = 0.95
	}

	result := BaselineResult{
		Races:               len(records),
		Iterations:          cfg.Iterations,
		ConfidenceIntervals: map[string][2]float64{},
	}
	if len(records) == 0 {
		return result
	}

	probs := make([]float64, len(records))
	hits := 0
	sum := 0.0
	for i, r := range records {
		probs[i] = RandomHitProbability(strat, r.FieldSize)
		sum += probs[i]
		if r.Hit {
			hits++
		}
	}
	result.ObservedHitRate = float64(hits) / float64(len(records))
	result.ExpectedHitRate = sum / float64(len(records))
	if result.ExpectedHitRate > 0 {
		result.Lift = result.ObservedHitRate / result.ExpectedHitRate
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	distribution := make([]float64, cfg.Iterations)
	for i := range distribution {
		simHits := 0
		for _, p := range probs {
			if rng.Float64() < p {
				simHits++
			}
		}
		distribution[i] = float64(simHits) / float64(len(probs))
	}

	result.SimulatedMean, result.SimulatedStd = meanStd(distribution)
	result.ConfidenceIntervals = CalculateConfidenceIntervals(distribution, []float64{0.9, cfg.ConfidenceLevel, 0.99})
	result.ProbabilityAtObserved = probabilityAtOrAbove(distribution, result.ObservedHitRate)
	return result
}

// CalculateConfidenceIntervals returns the central interval of distribution per level
func CalculateConfidenceIntervals(distribution []float64, levels []float64) map[string][2]float64 {
	results := make(map[string][2]float64, len(levels))
	for _, level := range levels {
		p := (1.0 - level) / 2.0
		results[formatPercent(level)] = [2]float64{percentile(distribution, p), percentile(distribution, 1.0-p)}
	}
	return results
}

// ToJSON exports the baseline to JSON string
func (b BaselineResult) ToJSON() string {
	data, _ := json.Marshal(b)
	return string(data)
}

func probabilityAtOrAbove(values []float64, threshold float64) float64 {
	if len(values) == 0 {
		return 0
	}
	count := 0
	for _, v := range values {
		if v >= threshold {
			count++
		}
	}
	return float64(count) / float64(len(values))
}

func formatPercent(level float64) string {
	return fmt.Sprintf("%.0f%%", level*100)
}
