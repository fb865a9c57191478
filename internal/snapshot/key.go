// Package snapshot builds and resolves point-in-time entity statistics.
//
// Every snapshot summarises an entity's races up to and including its as-of
// date. Resolution for a race on day D only ever returns a snapshot dated
// strictly before D, so a race's own result can never leak into its features.
package snapshot

import (
	"strconv"

	"github.com/yourusername/one-spear/internal/models"
)

// Key identifies one snapshot series
type Key struct {
	Kind models.EntityKind
	ID   string
}

func (k Key) String() string {
	return string(k.Kind) + ":" + k.ID
}

// HorseKey returns the series key for a horse
func HorseKey(horseID string) Key {
	return Key{Kind: models.EntityHorse, ID: horseID}
}

// JockeyKey returns the series key for a jockey
func JockeyKey(jockeyID string) Key {
	return Key{Kind: models.EntityJockey, ID: jockeyID}
}

// TrainerKey returns the series key for a trainer
func TrainerKey(trainerID string) Key {
	return Key{Kind: models.EntityTrainer, ID: trainerID}
}

// HorseJockeyKey returns the series key for a horse ridden by a given jockey
func HorseJockeyKey(horseID, jockeyID string) Key {
	return Key{Kind: models.EntityHorseJockey, ID: horseID + "|" + jockeyID}
}

// HorseConditionKey returns the series key for a horse on a given going
func HorseConditionKey(horseID, condition string) Key {
	return Key{Kind: models.EntityHorseCondition, ID: horseID + "@" + condition}
}

// PopularityKey returns the series key for a betting popularity rank
func PopularityKey(rank int) Key {
	return Key{Kind: models.EntityPopularity, ID: strconv.Itoa(rank)}
}

// keysFor lists every series a performance row contributes to.
func keysFor(p *models.RacePerformance, extended bool) []Key {
	keys := make([]Key, 0, 6)
	keys = append(keys, HorseKey(p.HorseID))
	if p.JockeyID != "" {
		keys = append(keys, JockeyKey(p.JockeyID))
	}
	if p.TrainerID != "" {
		keys = append(keys, TrainerKey(p.TrainerID))
	}
	if !extended {
		return keys
	}
	if p.JockeyID != "" {
		keys = append(keys, HorseJockeyKey(p.HorseID, p.JockeyID))
	}
	if p.TrackCondition != "" {
		keys = append(keys, HorseConditionKey(p.HorseID, p.TrackCondition))
	}
	if p.Popularity != nil && *p.Popularity > 0 {
		keys = append(keys, PopularityKey(*p.Popularity))
	}
	return keys
}
