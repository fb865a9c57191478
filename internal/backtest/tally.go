package backtest

import (
	"github.com/shopspring/decimal"
)

// Tally accumulates settled and excluded races. Merge is associative and
// commutative, so partial tallies from any partition of races combine to the same total.
type Tally struct {
	Races      int
	Hits       int
	Stake      decimal.Decimal
	Payout     decimal.Decimal
	PayoutGaps int
	Excluded   map[ExclusionReason]int
}

// Add folds one race outcome into the tally
func (t *Tally) Add(o RaceOutcome) {
	if o.State == StateExcluded {
		if t.Excluded == nil {
			t.Excluded = make(map[ExclusionReason]int)
		}
		t.Excluded[o.Reason]++
		return
	}
	if o.Record == nil {
		return
	}
	t.Races++
	if o.Record.Hit {
		t.Hits++
	}
	if o.Record.PayoutMissing {
		t.PayoutGaps++
	}
	t.Stake = t.Stake.Add(o.Record.Stake)
	t.Payout = t.Payout.Add(o.Record.Payout)
}

// Merge returns the combination of two tallies without modifying either
func (t Tally) Merge(o Tally) Tally {
	merged := Tally{
		Races:      t.Races + o.Races,
		Hits:       t.Hits + o.Hits,
		Stake:      t.Stake.Add(o.Stake),
		Payout:     t.Payout.Add(o.Payout),
		PayoutGaps: t.PayoutGaps + o.PayoutGaps,
	}
	if len(t.Excluded)+len(o.Excluded) > 0 {
		merged.Excluded = make(map[ExclusionReason]int, len(t.Excluded)+len(o.Excluded))
		for reason, n := range t.Excluded {
			merged.Excluded[reason] += n
		}
		for reason, n := range o.Excluded {
			merged.Excluded[reason] += n
		}
	}
	return merged
}

// ExcludedTotal sums exclusions across reasons
func (t Tally) ExcludedTotal() int {
	total := 0
	for _, n := range t.Excluded {
		total += n
	}
	return total
}
