package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Triple is an ordered set of three horse numbers: first, second, third
type Triple [3]int

// String renders the triple as "3-7-1"
func (t Triple) String() string {
	return fmt.Sprintf("%d-%d-%d", t[0], t[1], t[2])
}

// Slice returns the triple as a slice for payout matching
func (t Triple) Slice() []int {
	return []int{t[0], t[1], t[2]}
}

// SameSet reports whether two triples contain the same horses in any order
func (t Triple) SameSet(o Triple) bool {
	for _, a := range t {
		found := false
		for _, b := range o {
			if a == b {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// PredictionRecord is the settled outcome of one race under one strategy
type PredictionRecord struct {
	RaceID        string          `json:"race_id"`
	RaceDate      time.Time       `json:"race_date"`
	FieldSize     int             `json:"field_size"`
	Strategy      string          `json:"strategy"`
	Predicted     Triple          `json:"predicted"`
	Actual        Triple          `json:"actual"`
	Hit           bool            `json:"hit"`
	Stake         decimal.Decimal `json:"stake"`
	Payout        decimal.Decimal `json:"payout"`
	PayoutMissing bool            `json:"payout_missing"`
}

// Profit returns payout minus stake
func (p *PredictionRecord) Profit() decimal.Decimal {
	return p.Payout.Sub(p.Stake)
}
