package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/yourusername/one-spear/internal/models"
)

const sqlitePerformanceColumns = `
	rp.race_id AS race_id, rp.horse_id AS horse_id,
	COALESCE(e.jockey_id, '') AS jockey_id, COALESCE(e.trainer_id, '') AS trainer_id,
	COALESCE(rp.horse_number, 0) AS horse_number, COALESCE(rp.gate_number, 0) AS gate_number,
	rp.finish_position AS finish_position, rp.popularity AS popularity,
	date(r.date) AS race_day, COALESCE(r.distance, 0) AS distance,
	COALESCE(r.track_condition, '') AS track_condition`

// Tables of the source system's SQLite database. Only read by the store.
type sqliteRace struct {
	RaceID         string    `gorm:"column:race_id;primaryKey"`
	Date           time.Time `gorm:"column:date;index"`
	RaceNumber     int
	Name           string
	Distance       int
	TrackCondition string
	Weather        string
}

func (sqliteRace) TableName() string { return "races" }

type sqliteEntry struct {
	EntryID     string `gorm:"column:entry_id;primaryKey"`
	RaceID      string `gorm:"column:race_id;index"`
	HorseID     string
	GateNumber  int
	HorseNumber int
	JockeyID    string
	TrainerID   string
}

func (sqliteEntry) TableName() string { return "entries" }

type sqlitePerformance struct {
	PerformanceID  string `gorm:"column:performance_id;primaryKey"`
	RaceID         string `gorm:"column:race_id;index"`
	EntryID        string
	HorseID        string
	GateNumber     *int
	HorseNumber    *int
	FinishPosition *int
	Popularity     *int
}

func (sqlitePerformance) TableName() string { return "race_performances" }

type sqlitePayout struct {
	PayoutID   string `gorm:"column:payout_id;primaryKey"`
	RaceID     string `gorm:"column:race_id;index"`
	PayoutType string
	Combo      string
	Payout     int64
	Popularity *int
}

func (sqlitePayout) TableName() string { return "payouts" }

type sqlitePerformanceRow struct {
	RaceID         string
	HorseID        string
	JockeyID       string
	TrainerID      string
	HorseNumber    int
	GateNumber     int
	FinishPosition *int
	Popularity     *int
	RaceDay        string
	Distance       int
	TrackCondition string
}

type sqlitePayoutRow struct {
	RaceID     string
	PayoutType string
	Combo      string
	Amount     string
	Popularity *int
}

// SQLiteOutcomeStore reads outcomes from the source system's SQLite database
type SQLiteOutcomeStore struct {
	db  *gorm.DB
	log *logrus.Logger
}

// NewSQLiteOutcomeStore creates an outcome store over an open gorm handle
func NewSQLiteOutcomeStore(db *gorm.DB, log *logrus.Logger) OutcomeStore {
	return &SQLiteOutcomeStore{db: db, log: log}
}

// ListFinishedPerformances implements OutcomeStore
func (s *SQLiteOutcomeStore) ListFinishedPerformances(ctx context.Context, until time.Time) ([]*models.RacePerformance, error) {
	q := s.performanceQuery(ctx).Where("rp.finish_position IS NOT NULL")
	if !until.IsZero() {
		q = q.Where("date(r.date) < ?", until.UTC().Format(dateLayout))
	}

	var rows []sqlitePerformanceRow
	if err := q.Order("race_day, rp.race_id, rp.horse_number").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query finished performances: %w", err)
	}
	return toPerformances(rows)
}

// ListRaceEntries implements OutcomeStore
func (s *SQLiteOutcomeStore) ListRaceEntries(ctx context.Context, start, end time.Time) ([]*models.RacePerformance, error) {
	from, to := dayBounds(start, end)

	var rows []sqlitePerformanceRow
	err := s.performanceQuery(ctx).
		Where("date(r.date) >= ? AND date(r.date) < ?", from, to).
		Order("race_day, rp.race_id, rp.horse_number").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query race entries: %w", err)
	}
	return toPerformances(rows)
}

// ListPayouts implements OutcomeStore
func (s *SQLiteOutcomeStore) ListPayouts(ctx context.Context, start, end time.Time) ([]*models.PayoutRecord, error) {
	from, to := dayBounds(start, end)

	var rows []sqlitePayoutRow
	err := s.db.WithContext(ctx).
		Table("payouts AS p").
		Select(`p.race_id AS race_id, p.payout_type AS payout_type, COALESCE(p.combo, '') AS combo,
			CAST(COALESCE(p.payout, 0) AS TEXT) AS amount, p.popularity AS popularity`).
		Joins("JOIN races r ON p.race_id = r.race_id").
		Where("date(r.date) >= ? AND date(r.date) < ?", from, to).
		Order("date(r.date), p.race_id, p.payout_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query payouts: %w", err)
	}

	raw := make([]payoutRow, 0, len(rows))
	for _, row := range rows {
		amount, err := decimal.NewFromString(row.Amount)
		if err != nil {
			return nil, fmt.Errorf("%w: race %s amount %q", models.ErrInvalidPayout, row.RaceID, row.Amount)
		}
		raw = append(raw, payoutRow{
			RaceID:     row.RaceID,
			PayoutType: row.PayoutType,
			Combo:      row.Combo,
			Amount:     amount,
			Popularity: row.Popularity,
		})
	}
	return toPayoutRecords(raw, s.log), nil
}

func (s *SQLiteOutcomeStore) performanceQuery(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Table("race_performances AS rp").
		Select(sqlitePerformanceColumns).
		Joins("JOIN races r ON rp.race_id = r.race_id").
		Joins("LEFT JOIN entries e ON rp.entry_id = e.entry_id")
}

func toPerformances(rows []sqlitePerformanceRow) ([]*models.RacePerformance, error) {
	performances := make([]*models.RacePerformance, 0, len(rows))
	for _, row := range rows {
		day, err := time.Parse(dateLayout, row.RaceDay)
		if err != nil {
			return nil, fmt.Errorf("%w: race %s date %q", models.ErrInvalidPerformance, row.RaceID, row.RaceDay)
		}
		performances = append(performances, &models.RacePerformance{
			RaceID:         row.RaceID,
			HorseID:        row.HorseID,
			JockeyID:       row.JockeyID,
			TrainerID:      row.TrainerID,
			HorseNumber:    row.HorseNumber,
			GateNumber:     row.GateNumber,
			FinishPosition: row.FinishPosition,
			Popularity:     row.Popularity,
			RaceDate:       day,
			Distance:       row.Distance,
			TrackCondition: row.TrackCondition,
		})
	}
	return performances, nil
}
