package models

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// BetType identifies a wager type as published in payout tables
type BetType string

const (
	BetTypeWin      BetType = "win"
	BetTypePlace    BetType = "place"
	BetTypeExacta   BetType = "exacta"
	BetTypeQuinella BetType = "quinella"
	BetTypeWide     BetType = "wide"
	BetTypeTrio     BetType = "trio"
	BetTypeTrifecta BetType = "trifecta"
)

// ParseBetType maps a stored payout type, English or Japanese, to a BetType
func ParseBetType(s string) (BetType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "win", "単勝":
		return BetTypeWin, true
	case "place", "複勝":
		return BetTypePlace, true
	case "exacta", "馬単":
		return BetTypeExacta, true
	case "quinella", "馬連":
		return BetTypeQuinella, true
	case "wide", "ワイド":
		return BetTypeWide, true
	case "trio", "3連複", "三連複":
		return BetTypeTrio, true
	case "trifecta", "3連単", "三連単":
		return BetTypeTrifecta, true
	}
	return "", false
}

// OrderSensitive reports whether the combination order matters for a hit
func (b BetType) OrderSensitive() bool {
	switch b {
	case BetTypeWin, BetTypeExacta, BetTypeTrifecta:
		return true
	}
	return false
}

// PayoutRecord is the official return per unit stake for one winning combination
type PayoutRecord struct {
	RaceID      string          `db:"race_id" json:"race_id"`
	BetType     BetType         `db:"payout_type" json:"payout_type"`
	Combination []int           `db:"combination" json:"combination"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	Popularity  *int            `db:"popularity" json:"popularity,omitempty"`
}

// Matches compares the record's combination with combo.
// An empty recorded combination matches anything.
func (p *PayoutRecord) Matches(combo []int) bool {
	if len(p.Combination) == 0 {
		return true
	}
	if len(p.Combination) != len(combo) {
		return false
	}
	if p.BetType.OrderSensitive() {
		for i := range combo {
			if combo[i] != p.Combination[i] {
				return false
			}
		}
		return true
	}
	a := append([]int(nil), p.Combination...)
	b := append([]int(nil), combo...)
	sort.Ints(a)
	sort.Ints(b)
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// PayoutKey indexes payout records
type PayoutKey struct {
	RaceID  string
	BetType BetType
}

// ParseCombination parses "4-2-9" style combinations. Accepts '-', '>', '→', ',' and spaces as separators.
func ParseCombination(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == '-' || r == '>' || r == '→' || r == ' ' || r == ','
	})
	combo := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("%w: combination %q", ErrInvalidPayout, s)
		}
		combo = append(combo, n)
	}
	return combo, nil
}

// FormatCombination renders a combination as "4-2-9"
func FormatCombination(combo []int) string {
	parts := make([]string, len(combo))
	for i, n := range combo {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, "-")
}
