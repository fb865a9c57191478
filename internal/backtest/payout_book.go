package backtest

import (
	"github.com/yourusername/one-spear/internal/logger"
	"github.com/yourusername/one-spear/internal/models"
)

// PayoutBook indexes payout records by race and bet type.
// The first record for a key is authoritative; later ones are logged and ignored.
type PayoutBook struct {
	records    map[models.PayoutKey]*models.PayoutRecord
	duplicates int
}

// NewPayoutBook indexes records, logging duplicates through events when non-nil
func NewPayoutBook(records []*models.PayoutRecord, events *logger.BacktestLogger) *PayoutBook {
	book := &PayoutBook{records: make(map[models.PayoutKey]*models.PayoutRecord, len(records))}
	for _, r := range records {
		if r == nil {
			continue
		}
		key := models.PayoutKey{RaceID: r.RaceID, BetType: r.BetType}
		if _, exists := book.records[key]; exists {
			book.duplicates++
			if events != nil {
				events.LogDuplicatePayout(r.RaceID, string(r.BetType))
			}
			continue
		}
		book.records[key] = r
	}
	return book
}

// Lookup returns the authoritative record for a race and bet type
func (b *PayoutBook) Lookup(raceID string, betType models.BetType) (*models.PayoutRecord, bool) {
	r, ok := b.records[models.PayoutKey{RaceID: raceID, BetType: betType}]
	return r, ok
}

// Len is the number of authoritative records
func (b *PayoutBook) Len() int { return len(b.records) }

// Duplicates counts ignored records
func (b *PayoutBook) Duplicates() int { return b.duplicates }
