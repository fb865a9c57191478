package models

import (
	"sort"
	"time"
)

// Race represents one official race with its entries
type Race struct {
	ID             string             `db:"race_id" json:"race_id" validate:"required"`
	Date           time.Time          `db:"date" json:"date" validate:"required"`
	RaceNumber     int                `db:"race_number" json:"race_number"`
	Name           string             `db:"race_name" json:"race_name"`
	Distance       int                `db:"distance" json:"distance" validate:"gte=0"`
	TrackCondition string             `db:"track_condition" json:"track_condition"`
	Weather        string             `db:"weather" json:"weather"`
	Entries        []*RacePerformance `json:"entries"`
}

// Day returns the race date truncated to its calendar day
func (r *Race) Day() time.Time {
	return Day(r.Date)
}

// Starters returns entries that took part in the race, in horse number order
func (r *Race) Starters() []*RacePerformance {
	starters := make([]*RacePerformance, 0, len(r.Entries))
	for _, e := range r.Entries {
		if e.Finished() {
			starters = append(starters, e)
		}
	}
	sort.SliceStable(starters, func(i, j int) bool {
		return starters[i].HorseNumber < starters[j].HorseNumber
	})
	return starters
}

// FieldSize counts the starters
func (r *Race) FieldSize() int {
	return len(r.Starters())
}

// ActualTriple returns the horse numbers that finished first, second and third.
// ok is false if any of the three positions is vacant or shared.
func (r *Race) ActualTriple() (triple Triple, ok bool, deadHeat bool) {
	var counts [3]int
	for _, e := range r.Entries {
		if e.FinishPosition == nil {
			continue
		}
		pos := *e.FinishPosition
		if pos < 1 || pos > 3 {
			continue
		}
		counts[pos-1]++
		triple[pos-1] = e.HorseNumber
	}
	for _, c := range counts {
		if c > 1 {
			return Triple{}, false, true
		}
	}
	for _, c := range counts {
		if c == 0 {
			return Triple{}, false, false
		}
	}
	return triple, true, false
}

// GroupRaces folds performance rows into races ordered by date then race id.
func GroupRaces(rows []*RacePerformance) []*Race {
	byID := make(map[string]*Race)
	order := make([]*Race, 0)
	for _, p := range rows {
		race, ok := byID[p.RaceID]
		if !ok {
			race = &Race{
				ID:             p.RaceID,
				Date:           Day(p.RaceDate),
				Distance:       p.Distance,
				TrackCondition: p.TrackCondition,
			}
			byID[p.RaceID] = race
			order = append(order, race)
		}
		race.Entries = append(race.Entries, p)
	}
	sort.SliceStable(order, func(i, j int) bool {
		if !order[i].Date.Equal(order[j].Date) {
			return order[i].Date.Before(order[j].Date)
		}
		return order[i].ID < order[j].ID
	})
	return order
}

// Day truncates t to midnight UTC of its calendar day
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
