// Package features turns a race and point-in-time snapshots into per-runner
// feature vectors for a scoring model.
package features

import (
	"sort"
	"strings"
	"time"

	"github.com/yourusername/one-spear/internal/models"
	"github.com/yourusername/one-spear/internal/snapshot"
)

// Track conditions recognised for one-hot encoding
var TrackConditions = []string{"good", "slightly_heavy", "heavy", "bad"}

var conditionAliases = map[string]string{
	"良":   "good",
	"稍重":  "slightly_heavy",
	"稍":   "slightly_heavy",
	"重":   "heavy",
	"不良":  "bad",
	"不":   "bad",
	"firm": "good",
	"soft": "heavy",
}

// NormalizeCondition maps source spellings onto TrackConditions
func NormalizeCondition(c string) string {
	c = strings.TrimSpace(strings.ToLower(c))
	if alias, ok := conditionAliases[c]; ok {
		return alias
	}
	return strings.ReplaceAll(c, " ", "_")
}

// DistanceCategory buckets a race distance in metres
func DistanceCategory(distance int) string {
	switch {
	case distance <= 0:
		return ""
	case distance <= 1400:
		return "1300_1400"
	case distance <= 1600:
		return "1500_1600"
	case distance <= 1800:
		return "1700_1800"
	case distance <= 2000:
		return "1900_2000"
	default:
		return "2100_plus"
	}
}

var distanceCategories = []string{"1300_1400", "1500_1600", "1700_1800", "1900_2000", "2100_plus"}

// Config selects optional feature groups
type Config struct {
	// IncludePopularity adds the betting popularity rank and the
	// historical win rate of that rank. Off for the "no odds" model.
	IncludePopularity bool
	// Extended adds horse×jockey and horse×condition pairings.
	Extended bool
}

// Vector is the feature row for one runner
type Vector struct {
	RaceID      string
	HorseID     string
	HorseNumber int
	Popularity  *int
	Values      map[string]float64
}

// Names returns the feature names in sorted order
func (v Vector) Names() []string {
	names := make([]string, 0, len(v.Values))
	for name := range v.Values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Row returns the values for names in order; absent features are 0
func (v Vector) Row(names []string) []float64 {
	row := make([]float64, len(names))
	for i, name := range names {
		row[i] = v.Values[name]
	}
	return row
}

// Assembler builds feature vectors from resolved snapshots
type Assembler struct {
	resolver snapshot.Resolver
	config   Config
}

// NewAssembler creates an assembler over resolver
func NewAssembler(resolver snapshot.Resolver, cfg Config) *Assembler {
	return &Assembler{resolver: resolver, config: cfg}
}

// Assemble returns one vector per starter, in horse number order. Every
// snapshot is resolved against the race's own date.
func (a *Assembler) Assemble(race *models.Race) []Vector {
	starters := race.Starters()
	vectors := make([]Vector, 0, len(starters))
	for _, entry := range starters {
		vectors = append(vectors, a.vector(race, entry, len(starters)))
	}
	return vectors
}

func (a *Assembler) vector(race *models.Race, e *models.RacePerformance, fieldSize int) Vector {
	day := race.Day()
	values := make(map[string]float64, 40)

	horse := a.resolve(snapshot.HorseKey(e.HorseID), day)
	putStats(values, "horse", horse)
	days := float64(snapshot.DaysSentinel)
	if horse.DaysSinceLastRace != nil {
		days = float64(*horse.DaysSinceLastRace)
	}
	values["horse_days_since_last_race"] = days
	values["horse_days_rest"] = daysRest(horse, day)

	putStats(values, "jockey", a.resolve(snapshot.JockeyKey(e.JockeyID), day))
	putStats(values, "trainer", a.resolve(snapshot.TrainerKey(e.TrainerID), day))

	condition := NormalizeCondition(firstNonEmpty(e.TrackCondition, race.TrackCondition))
	if a.config.Extended {
		combo := a.resolve(snapshot.HorseJockeyKey(e.HorseID, e.JockeyID), day)
		values["horse_jockey_races"] = float64(combo.TotalRaces)
		values["horse_jockey_win_rate"] = combo.WinRate
		values["horse_jockey_place_rate"] = combo.PlaceRate

		onGoing := a.resolve(snapshot.HorseConditionKey(e.HorseID, firstNonEmpty(e.TrackCondition, race.TrackCondition)), day)
		values["horse_condition_races"] = float64(onGoing.TotalRaces)
		values["horse_condition_win_rate"] = onGoing.WinRate
	}

	if a.config.IncludePopularity {
		if e.Popularity != nil {
			values["popularity"] = float64(*e.Popularity)
			rank := a.resolve(snapshot.PopularityKey(*e.Popularity), day)
			values["popularity_win_rate"] = rank.WinRate
			values["popularity_place_rate"] = rank.PlaceRate
		} else {
			values["popularity"] = float64(fieldSize)
		}
	}

	distance := e.Distance
	if distance == 0 {
		distance = race.Distance
	}
	values["distance"] = float64(distance)
	values["field_size"] = float64(fieldSize)
	values["horse_number"] = float64(e.HorseNumber)
	values["gate_number"] = float64(e.GateNumber)

	for _, c := range TrackConditions {
		values["track_"+c] = boolToFloat(c == condition)
	}
	category := DistanceCategory(distance)
	for _, c := range distanceCategories {
		values["distance_"+c] = boolToFloat(c == category)
	}

	return Vector{
		RaceID:      race.ID,
		HorseID:     e.HorseID,
		HorseNumber: e.HorseNumber,
		Popularity:  e.Popularity,
		Values:      values,
	}
}

func (a *Assembler) resolve(key snapshot.Key, day time.Time) models.EntitySnapshot {
	return a.resolver.Resolve(key.Kind, key.ID, day)
}

func putStats(values map[string]float64, prefix string, s models.EntitySnapshot) {
	values[prefix+"_total_races"] = float64(s.TotalRaces)
	values[prefix+"_win_rate"] = s.WinRate
	values[prefix+"_place_rate"] = s.PlaceRate
	values[prefix+"_avg_finish"] = s.AvgFinishPosition
}

// daysRest is the gap between the race and the horse's previous race day
func daysRest(s models.EntitySnapshot, day time.Time) float64 {
	if !s.HasHistory() || s.AsOfDate.IsZero() {
		return float64(snapshot.DaysSentinel)
	}
	return day.Sub(s.AsOfDate).Hours() / 24
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
