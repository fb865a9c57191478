package backtest

import (
	"errors"
	"fmt"
)

// RaceState is the lifecycle position of one race within a run
type RaceState string

const (
	StatePending  RaceState = "pending"
	StateScored   RaceState = "scored"
	StateRanked   RaceState = "ranked"
	StateSettled  RaceState = "settled"
	StateExcluded RaceState = "excluded"
)

// ExclusionReason explains why a race never reached Settled
type ExclusionReason string

const (
	ReasonTooFewRunners      ExclusionReason = "too_few_runners"
	ReasonIncompleteOutcome  ExclusionReason = "incomplete_outcome"
	ReasonAmbiguousOutcome   ExclusionReason = "ambiguous_outcome"
	ReasonScoringUnavailable ExclusionReason = "scoring_unavailable"
)

// ErrInvalidTransition is returned for any move the lifecycle does not allow
var ErrInvalidTransition = errors.New("invalid race state transition")

var transitions = map[RaceState][]RaceState{
	StatePending: {StateScored, StateExcluded},
	StateScored:  {StateRanked, StateExcluded},
	StateRanked:  {StateSettled},
}

// raceLifecycle enforces forward-only progress through the race states
type raceLifecycle struct {
	state RaceState
}

func newRaceLifecycle() *raceLifecycle {
	return &raceLifecycle{state: StatePending}
}

func (l *raceLifecycle) advance(to RaceState) error {
	for _, next := range transitions[l.state] {
		if next == to {
			l.state = to
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, l.state, to)
}

// Terminal reports whether no further transition is possible
func (s RaceState) Terminal() bool {
	return s == StateSettled || s == StateExcluded
}
