package backtest

import (
	"fmt"
	"sort"

	"github.com/yourusername/one-spear/internal/models"
)

// Strategy names accepted by StrategyByName
const (
	StrategyTrifecta    = "trifecta"
	StrategyTrifectaBox = "trifecta_box"
	StrategyTrio        = "trio"
)

// Strategy decides which tickets are bought from a ranked prediction and when they win
type Strategy interface {
	Name() string
	// BetType selects the payout table used to settle a hit
	BetType() models.BetType
	// Tickets is the number of unit tickets bought per race
	Tickets() int
	Hit(predicted, actual models.Triple) bool
}

// Trifecta buys the predicted top three in exact order
type Trifecta struct{}

func (Trifecta) Name() string { return StrategyTrifecta }
func (Trifecta) BetType() models.BetType { return models.BetTypeTrifecta }
func (Trifecta) Tickets() int { return 1 }
func (Trifecta) Hit(predicted, actual models.Triple) bool { return predicted == actual }

// TrifectaBox buys all six orderings of the predicted top three
type TrifectaBox struct{}

func (TrifectaBox) Name() string { return StrategyTrifectaBox }
func (TrifectaBox) BetType() models.BetType { return models.BetTypeTrifecta }
func (TrifectaBox) Tickets() int { return 6 }
func (TrifectaBox) Hit(predicted, actual models.Triple) bool { return predicted.SameSet(actual) }

// Trio buys the predicted top three as an unordered set
type Trio struct{}

func (Trio) Name() string { return StrategyTrio }
func (Trio) BetType() models.BetType { return models.BetTypeTrio }
func (Trio) Tickets() int { return 1 }
func (Trio) Hit(predicted, actual models.Triple) bool { return predicted.SameSet(actual) }

var strategies = map[string]Strategy{
	StrategyTrifecta:    Trifecta{},
	StrategyTrifectaBox: TrifectaBox{},
	StrategyTrio:        Trio{},
}

// StrategyByName looks up a registered strategy
func StrategyByName(name string) (Strategy, error) {
	s, ok := strategies[name]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q", name)
	}
	return s, nil
}

// StrategyNames lists registered strategies in sorted order
func StrategyNames() []string {
	names := make([]string, 0, len(strategies))
	for name := range strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RandomHitProbability is the chance that a uniformly random ranking hits under s
// in a field of n starters
func RandomHitProbability(s Strategy, n int) float64 {
	if n < 3 {
		return 0
	}
	permutations := float64(n * (n - 1) * (n - 2))
	if s != nil && s.Name() != StrategyTrifecta {
		return 6 / permutations
	}
	return 1 / permutations
}
