// Package scoring defines the boundary to win-likelihood models and a few
// reference implementations.
package scoring

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/yourusername/one-spear/internal/features"
	"github.com/yourusername/one-spear/internal/models"
)

var (
	// ErrScoringUnavailable means no usable scores exist for a race
	ErrScoringUnavailable = errors.New("scoring unavailable")

	// ErrCircuitOpen is returned while the remote scorer is failing
	ErrCircuitOpen = errors.New("scoring circuit breaker open")
)

// Model scores every runner of one race; higher is more likely to win.
// Implementations must be pure with respect to their inputs.
type Model interface {
	Name() string
	Score(ctx context.Context, race *models.Race, vectors []features.Vector) ([]float64, error)
}

// Check validates a score slice against the runners it was produced for
func Check(scores []float64, runners int) error {
	if len(scores) != runners {
		return fmt.Errorf("%w: got %d scores for %d runners", ErrScoringUnavailable, len(scores), runners)
	}
	for i, s := range scores {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return fmt.Errorf("%w: non-finite score at position %d", ErrScoringUnavailable, i)
		}
	}
	return nil
}
