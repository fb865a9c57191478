package models

import (
	"fmt"
	"time"
)

// RacePerformance is one horse's entry and result in one race
type RacePerformance struct {
	RaceID         string    `db:"race_id" json:"race_id" validate:"required"`
	HorseID        string    `db:"horse_id" json:"horse_id" validate:"required"`
	JockeyID       string    `db:"jockey_id" json:"jockey_id"`
	TrainerID      string    `db:"trainer_id" json:"trainer_id"`
	HorseNumber    int       `db:"horse_number" json:"horse_number" validate:"gt=0"`
	GateNumber     int       `db:"gate_number" json:"gate_number"`
	FinishPosition *int      `db:"finish_position" json:"finish_position,omitempty"`
	Popularity     *int      `db:"popularity" json:"popularity,omitempty"`
	RaceDate       time.Time `db:"race_date" json:"race_date" validate:"required"`
	Distance       int       `db:"distance" json:"distance"`
	TrackCondition string    `db:"track_condition" json:"track_condition"`
}

// Finished reports whether the entry has an official finishing position
func (p *RacePerformance) Finished() bool {
	return p.FinishPosition != nil
}

// Won reports a first-place finish
func (p *RacePerformance) Won() bool {
	return p.FinishPosition != nil && *p.FinishPosition == 1
}

// Placed reports a top-three finish
func (p *RacePerformance) Placed() bool {
	return p.FinishPosition != nil && *p.FinishPosition >= 1 && *p.FinishPosition <= 3
}

// Validate checks the fields the statistics pipeline relies on
func (p *RacePerformance) Validate() error {
	if p.RaceID == "" || p.HorseID == "" {
		return fmt.Errorf("%w: race and horse ids are required", ErrInvalidPerformance)
	}
	if p.RaceDate.IsZero() {
		return fmt.Errorf("%w: race %s has no date", ErrInvalidPerformance, p.RaceID)
	}
	if p.FinishPosition != nil && *p.FinishPosition < 1 {
		return fmt.Errorf("%w: race %s horse %s finish position %d", ErrInvalidPerformance, p.RaceID, p.HorseID, *p.FinishPosition)
	}
	return nil
}

// IntPtr is a small helper for optional integer columns
func IntPtr(v int) *int {
	return &v
}
