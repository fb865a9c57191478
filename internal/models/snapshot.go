package models

import "time"

// EntityKind names the type of entity a snapshot aggregates
type EntityKind string

const (
	EntityHorse          EntityKind = "horse"
	EntityJockey         EntityKind = "jockey"
	EntityTrainer        EntityKind = "trainer"
	EntityHorseJockey    EntityKind = "horse_jockey"
	EntityHorseCondition EntityKind = "horse_condition"
	EntityPopularity     EntityKind = "popularity"
)

// CoreEntityKinds are always built
var CoreEntityKinds = []EntityKind{EntityHorse, EntityJockey, EntityTrainer}

// ExtendedEntityKinds are optional aggregates: pairings and the popularity-rank table
var ExtendedEntityKinds = []EntityKind{EntityHorseJockey, EntityHorseCondition, EntityPopularity}

// Valid reports whether k is a known kind
func (k EntityKind) Valid() bool {
	switch k {
	case EntityHorse, EntityJockey, EntityTrainer, EntityHorseJockey, EntityHorseCondition, EntityPopularity:
		return true
	}
	return false
}

// EntitySnapshot is an entity's cumulative record as of the end of AsOfDate
type EntitySnapshot struct {
	Kind              EntityKind `db:"entity_kind" json:"entity_kind"`
	EntityID          string     `db:"entity_id" json:"entity_id"`
	AsOfDate          time.Time  `db:"as_of_date" json:"as_of_date"`
	TotalRaces        int        `db:"total_races" json:"total_races"`
	Wins              int        `db:"wins" json:"wins"`
	Places            int        `db:"places" json:"places"`
	WinRate           float64    `db:"win_rate" json:"win_rate"`
	PlaceRate         float64    `db:"place_rate" json:"place_rate"`
	AvgFinishPosition float64    `db:"avg_finish_position" json:"avg_finish_position"`
	DaysSinceLastRace *int       `db:"days_since_last_race" json:"days_since_last_race,omitempty"`
}

// HasHistory reports whether the snapshot reflects at least one prior race
func (s EntitySnapshot) HasHistory() bool {
	return s.TotalRaces > 0
}
