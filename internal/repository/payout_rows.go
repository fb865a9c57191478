package repository

import (
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/one-spear/internal/models"
)

// payoutRow is a payout as stored, before the type and combination are parsed
type payoutRow struct {
	RaceID     string
	PayoutType string
	Combo      string
	Amount     decimal.Decimal
	Popularity *int
}

// toPayoutRecords parses stored payouts. Bet types the simulator never settles and
// unreadable combinations are dropped with a warning.
func toPayoutRecords(rows []payoutRow, log *logrus.Logger) []*models.PayoutRecord {
	records := make([]*models.PayoutRecord, 0, len(rows))
	for _, row := range rows {
		betType, ok := models.ParseBetType(row.PayoutType)
		if !ok {
			continue
		}
		combo, err := models.ParseCombination(row.Combo)
		if err != nil {
			if log != nil {
				log.WithFields(logrus.Fields{
					"race_id":     row.RaceID,
					"payout_type": row.PayoutType,
					"combination": row.Combo,
				}).Warn("Skipping payout with unreadable combination")
			}
			continue
		}
		records = append(records, &models.PayoutRecord{
			RaceID:      row.RaceID,
			BetType:     betType,
			Combination: combo,
			Amount:      row.Amount,
			Popularity:  row.Popularity,
		})
	}
	return records
}
