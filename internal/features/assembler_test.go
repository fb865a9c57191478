package features

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/one-spear/internal/models"
	"github.com/yourusername/one-spear/internal/snapshot"
)

// recordingResolver records every lookup and returns fixed stats
type recordingResolver struct {
	calls []time.Time
	kinds []models.EntityKind
}

func (r *recordingResolver) Resolve(kind models.EntityKind, id string, date time.Time) models.EntitySnapshot {
	r.calls = append(r.calls, date)
	r.kinds = append(r.kinds, kind)
	s := models.EntitySnapshot{
		Kind:              kind,
		EntityID:          id,
		AsOfDate:          date.AddDate(0, 0, -14),
		TotalRaces:        4,
		Wins:              1,
		Places:            2,
		WinRate:           0.25,
		PlaceRate:         0.5,
		AvgFinishPosition: 4.5,
	}
	if kind == models.EntityHorse {
		days := 21
		s.DaysSinceLastRace = &days
	}
	return s
}

func sampleRace() *models.Race {
	day := time.Date(2024, 5, 12, 15, 40, 0, 0, time.UTC)
	entry := func(n int, finish *int, pop int) *models.RacePerformance {
		return &models.RacePerformance{
			RaceID:         "202405120511",
			HorseID:        "h" + string(rune('a'+n)),
			JockeyID:       "j1",
			TrainerID:      "t1",
			HorseNumber:    n,
			GateNumber:     (n + 1) / 2,
			FinishPosition: finish,
			Popularity:     models.IntPtr(pop),
			RaceDate:       day,
			Distance:       1600,
			TrackCondition: "稍重",
		}
	}
	return &models.Race{
		ID:             "202405120511",
		Date:           day,
		Distance:       1600,
		TrackCondition: "稍重",
		Entries: []*models.RacePerformance{
			entry(3, models.IntPtr(2), 1),
			entry(1, models.IntPtr(1), 3),
			entry(2, nil, 2),
			entry(4, models.IntPtr(3), 4),
		},
	}
}

func TestAssemble_ResolvesAgainstRaceDay(t *testing.T) {
	r := &recordingResolver{}
	a := NewAssembler(r, Config{IncludePopularity: true, Extended: true})

	vectors := a.Assemble(sampleRace())

	require.Len(t, vectors, 3)
	require.NotEmpty(t, r.calls)
	want := time.Date(2024, 5, 12, 0, 0, 0, 0, time.UTC)
	for _, d := range r.calls {
		assert.Equal(t, want, d)
	}
}

func TestAssemble_SkipsNonStartersAndOrdersByNumber(t *testing.T) {
	a := NewAssembler(&recordingResolver{}, Config{})

	vectors := a.Assemble(sampleRace())

	require.Len(t, vectors, 3)
	assert.Equal(t, 1, vectors[0].HorseNumber)
	assert.Equal(t, 3, vectors[1].HorseNumber)
	assert.Equal(t, 4, vectors[2].HorseNumber)
	assert.Equal(t, 3.0, vectors[0].Values["field_size"])
}

func TestAssemble_Values(t *testing.T) {
	a := NewAssembler(&recordingResolver{}, Config{IncludePopularity: true, Extended: true})

	v := a.Assemble(sampleRace())[0]

	assert.Equal(t, 0.25, v.Values["horse_win_rate"])
	assert.Equal(t, 4.5, v.Values["jockey_avg_finish"])
	assert.Equal(t, 21.0, v.Values["horse_days_since_last_race"])
	assert.Equal(t, 14.0, v.Values["horse_days_rest"])
	assert.Equal(t, 3.0, v.Values["popularity"])
	assert.Equal(t, 1.0, v.Values["track_slightly_heavy"])
	assert.Equal(t, 0.0, v.Values["track_good"])
	assert.Equal(t, 1.0, v.Values["distance_1500_1600"])
	assert.Equal(t, 0.0, v.Values["distance_1300_1400"])
	assert.Contains(t, v.Values, "horse_jockey_win_rate")
}

func TestAssemble_WithoutPopularity(t *testing.T) {
	r := &recordingResolver{}
	a := NewAssembler(r, Config{})

	v := a.Assemble(sampleRace())[0]

	assert.NotContains(t, v.Values, "popularity")
	assert.NotContains(t, v.Values, "horse_jockey_win_rate")
	assert.NotContains(t, r.kinds, models.EntityPopularity)
}

func TestAssemble_WithRealIndexHasNoLeakage(t *testing.T) {
	race := sampleRace()
	var rows []*models.RacePerformance
	rows = append(rows, race.Entries...)

	b := snapshot.NewBuilder(snapshot.Config{Workers: 2}, nil)
	ix, err := b.Build(context.Background(), rows)
	require.NoError(t, err)

	a := NewAssembler(ix, Config{})
	for _, v := range a.Assemble(race) {
		assert.Equal(t, 0.0, v.Values["horse_total_races"], "horse %s sees its own race", v.HorseID)
		assert.Equal(t, 8.0, v.Values["horse_avg_finish"])
		assert.Equal(t, 999.0, v.Values["horse_days_rest"])
	}
}

func TestVectorNamesAndRow(t *testing.T) {
	v := Vector{Values: map[string]float64{"b": 2, "a": 1}}

	assert.Equal(t, []string{"a", "b"}, v.Names())
	assert.Equal(t, []float64{1, 2, 0}, v.Row([]string{"a", "b", "c"}))
}

func TestDistanceCategory(t *testing.T) {
	tests := map[int]string{
		1200: "1300_1400",
		1400: "1300_1400",
		1600: "1500_1600",
		1800: "1700_1800",
		2000: "1900_2000",
		2400: "2100_plus",
		0:    "",
	}
	for distance, want := range tests {
		assert.Equal(t, want, DistanceCategory(distance), "distance %d", distance)
	}
}

func TestNormalizeCondition(t *testing.T) {
	assert.Equal(t, "good", NormalizeCondition("良"))
	assert.Equal(t, "bad", NormalizeCondition("不良"))
	assert.Equal(t, "slightly_heavy", NormalizeCondition("Slightly Heavy"))
}
