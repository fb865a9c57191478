package snapshot

import (
	"runtime"

	"github.com/yourusername/one-spear/internal/models"
)

// DaysSentinel marks "no previous race" in days_since_last_race
const DaysSentinel = 999

// Defaults holds the neutral values used when an entity has no prior history
type Defaults struct {
	HorseAvgFinish   float64
	JockeyAvgFinish  float64
	TrainerAvgFinish float64
	ComboAvgFinish   float64
	DaysSentinel     int
}

// DefaultDefaults returns the neutral values the feature set was tuned with
func DefaultDefaults() Defaults {
	return Defaults{
		HorseAvgFinish:   8.0,
		JockeyAvgFinish:  5.0,
		TrainerAvgFinish: 5.0,
		ComboAvgFinish:   8.0,
		DaysSentinel:     DaysSentinel,
	}
}

// Snapshot returns the zero-history snapshot for key
func (d Defaults) Snapshot(key Key) models.EntitySnapshot {
	s := models.EntitySnapshot{
		Kind:     key.Kind,
		EntityID: key.ID,
	}
	switch key.Kind {
	case models.EntityHorse:
		s.AvgFinishPosition = d.HorseAvgFinish
		days := d.DaysSentinel
		s.DaysSinceLastRace = &days
	case models.EntityJockey:
		s.AvgFinishPosition = d.JockeyAvgFinish
	case models.EntityTrainer:
		s.AvgFinishPosition = d.TrainerAvgFinish
	default:
		s.AvgFinishPosition = d.ComboAvgFinish
	}
	return s
}

// Config controls a snapshot build
type Config struct {
	Workers       int
	ExtendedKinds bool
	Defaults      Defaults
}

// DefaultConfig returns a config sized to the machine
func DefaultConfig() Config {
	return Config{
		Workers:       runtime.NumCPU(),
		ExtendedKinds: true,
		Defaults:      DefaultDefaults(),
	}
}
