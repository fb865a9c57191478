package scoring

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"

	"github.com/yourusername/one-spear/internal/features"
	"github.com/yourusername/one-spear/internal/models"
)

// PopularityModel ranks runners by betting popularity, favourite first
type PopularityModel struct{}

// Name implements Model
func (PopularityModel) Name() string { return "popularity" }

// Score implements Model
func (PopularityModel) Score(_ context.Context, race *models.Race, vectors []features.Vector) ([]float64, error) {
	scores := make([]float64, len(vectors))
	for i, v := range vectors {
		if v.Popularity == nil || *v.Popularity <= 0 {
			return nil, fmt.Errorf("%w: race %s horse %d has no popularity", ErrScoringUnavailable, race.ID, v.HorseNumber)
		}
		scores[i] = -float64(*v.Popularity)
	}
	return scores, nil
}

// RandomModel assigns uniform random scores. The stream is seeded per race
// so a run is reproducible regardless of evaluation order.
type RandomModel struct {
	Seed int64
}

// Name implements Model
func (m RandomModel) Name() string { return "random" }

// Score implements Model
func (m RandomModel) Score(_ context.Context, race *models.Race, vectors []features.Vector) ([]float64, error) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(race.ID))
	rng := rand.New(rand.NewSource(m.Seed ^ int64(h.Sum64())))

	scores := make([]float64, len(vectors))
	for i := range scores {
		scores[i] = rng.Float64()
	}
	return scores, nil
}

// FeatureModel scores with a fixed linear combination of features. Useful as
// a hand-tuned baseline and for wiring checks without a remote scorer.
type FeatureModel struct {
	Label   string
	Weights map[string]float64
}

// Name implements Model
func (m FeatureModel) Name() string {
	if m.Label == "" {
		return "linear"
	}
	return m.Label
}

// Score implements Model
func (m FeatureModel) Score(_ context.Context, _ *models.Race, vectors []features.Vector) ([]float64, error) {
	scores := make([]float64, len(vectors))
	for i, v := range vectors {
		for name, w := range m.Weights {
			scores[i] += w * v.Values[name]
		}
	}
	return scores, nil
}

// DefaultFeatureWeights favours recent form and jockey quality
func DefaultFeatureWeights() map[string]float64 {
	return map[string]float64{
		"horse_win_rate":    2.0,
		"horse_place_rate":  1.0,
		"horse_avg_finish":  -0.15,
		"jockey_win_rate":   1.5,
		"jockey_place_rate": 0.5,
		"trainer_win_rate":  0.5,
	}
}
