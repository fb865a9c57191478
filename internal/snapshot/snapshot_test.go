package snapshot

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/one-spear/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func perf(raceID, horse, jockey string, day time.Time, finish int) *models.RacePerformance {
	return &models.RacePerformance{
		RaceID:         raceID,
		HorseID:        horse,
		JockeyID:       jockey,
		TrainerID:      "t-" + horse,
		HorseNumber:    1,
		FinishPosition: models.IntPtr(finish),
		RaceDate:       day,
		TrackCondition: "good",
	}
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func build(t *testing.T, rows []*models.RacePerformance) *Index {
	t.Helper()
	b := NewBuilder(Config{Workers: 4, ExtendedKinds: true, Defaults: DefaultDefaults()}, quietLogger())
	ix, err := b.Build(context.Background(), rows)
	require.NoError(t, err)
	return ix
}

func TestResolve_StrictlyBeforeRaceDate(t *testing.T) {
	rows := []*models.RacePerformance{
		perf("r1", "H", "J", date(2024, 1, 1), 1),
		perf("r2", "H", "J", date(2024, 2, 1), 3),
		perf("r3", "H", "J", date(2024, 3, 1), 5),
	}
	ix := build(t, rows)

	s := ix.Resolve(models.EntityHorse, "H", date(2024, 2, 15))
	assert.Equal(t, 2, s.TotalRaces)
	assert.Equal(t, 1, s.Wins)
	assert.Equal(t, 2, s.Places)
	assert.Equal(t, 0.5, s.WinRate)
	assert.Equal(t, 1.0, s.PlaceRate)
	assert.Equal(t, 2.0, s.AvgFinishPosition)
	assert.Equal(t, date(2024, 2, 1), s.AsOfDate)

	// race day itself must not see the race's own result
	s = ix.Resolve(models.EntityHorse, "H", date(2024, 2, 1).Add(14*time.Hour))
	assert.Equal(t, 1, s.TotalRaces)
	assert.Equal(t, date(2024, 1, 1), s.AsOfDate)
}

func TestResolve_DefaultsWithoutHistory(t *testing.T) {
	ix := build(t, []*models.RacePerformance{
		perf("r1", "H", "J", date(2024, 1, 1), 2),
	})

	horse := ix.Resolve(models.EntityHorse, "H", date(2024, 1, 1))
	assert.Equal(t, 0, horse.TotalRaces)
	assert.Equal(t, 0.0, horse.WinRate)
	assert.Equal(t, 0.0, horse.PlaceRate)
	assert.Equal(t, 8.0, horse.AvgFinishPosition)
	require.NotNil(t, horse.DaysSinceLastRace)
	assert.Equal(t, 999, *horse.DaysSinceLastRace)

	jockey := ix.Resolve(models.EntityJockey, "nobody", date(2024, 6, 1))
	assert.Equal(t, 5.0, jockey.AvgFinishPosition)
	assert.Nil(t, jockey.DaysSinceLastRace)
	assert.False(t, jockey.HasHistory())
}

func TestBuild_SameDayRowsCollapse(t *testing.T) {
	d := date(2024, 4, 6)
	rows := []*models.RacePerformance{
		perf("r1", "A", "J", d, 1),
		perf("r2", "B", "J", d, 4),
		perf("r3", "C", "J", d, 2),
	}
	ix := build(t, rows)

	history := ix.History(JockeyKey("J"))
	require.Len(t, history, 1)
	assert.Equal(t, 3, history[0].TotalRaces)
	assert.Equal(t, 1, history[0].Wins)
	assert.Equal(t, 2, history[0].Places)

	next := ix.Resolve(models.EntityJockey, "J", d.AddDate(0, 0, 1))
	assert.Equal(t, 3, next.TotalRaces)
}

func TestBuild_DaysSinceLastRace(t *testing.T) {
	ix := build(t, []*models.RacePerformance{
		perf("r1", "H", "J", date(2024, 1, 1), 4),
		perf("r2", "H", "J", date(2024, 1, 29), 2),
	})

	history := ix.History(HorseKey("H"))
	require.Len(t, history, 2)
	assert.Equal(t, 999, *history[0].DaysSinceLastRace)
	assert.Equal(t, 28, *history[1].DaysSinceLastRace)
}

func TestBuild_SkipsUnfinishedRows(t *testing.T) {
	scratched := perf("r2", "H", "J", date(2024, 2, 1), 1)
	scratched.FinishPosition = nil

	ix := build(t, []*models.RacePerformance{
		perf("r1", "H", "J", date(2024, 1, 1), 3),
		scratched,
	})

	history := ix.History(HorseKey("H"))
	require.Len(t, history, 1)
	assert.Equal(t, 1, history[0].TotalRaces)
}

func TestBuild_ExtendedKinds(t *testing.T) {
	p := perf("r1", "H", "J", date(2024, 1, 1), 1)
	p.Popularity = models.IntPtr(2)
	ix := build(t, []*models.RacePerformance{p})

	assert.Len(t, ix.History(HorseJockeyKey("H", "J")), 1)
	assert.Len(t, ix.History(HorseConditionKey("H", "good")), 1)
	assert.Len(t, ix.History(PopularityKey(2)), 1)
	assert.Equal(t, 6, ix.Len())

	core := NewBuilder(Config{Workers: 1}, quietLogger())
	cix, err := core.Build(context.Background(), []*models.RacePerformance{p})
	require.NoError(t, err)
	assert.Equal(t, 3, cix.Len())
	assert.Empty(t, cix.OfKind(models.EntityPopularity))
}

func TestBuild_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := NewBuilder(DefaultConfig(), quietLogger())
	_, err := b.Build(ctx, []*models.RacePerformance{perf("r1", "H", "J", date(2024, 1, 1), 1)})
	assert.ErrorIs(t, err, context.Canceled)
}

func randomHistory(seed int64, races int) []*models.RacePerformance {
	rng := rand.New(rand.NewSource(seed))
	var rows []*models.RacePerformance
	day := date(2023, 1, 1)
	for r := 0; r < races; r++ {
		day = day.AddDate(0, 0, rng.Intn(3))
		field := 5 + rng.Intn(8)
		order := rng.Perm(field)
		for i := 0; i < field; i++ {
			p := perf(fmt.Sprintf("r%04d", r), fmt.Sprintf("h%02d", rng.Intn(40)), fmt.Sprintf("j%d", rng.Intn(10)), day, order[i]+1)
			p.HorseNumber = i + 1
			p.Popularity = models.IntPtr(rng.Intn(field) + 1)
			rows = append(rows, p)
		}
	}
	return rows
}

func TestBuild_MonotonicAndBounded(t *testing.T) {
	ix := build(t, randomHistory(7, 300))

	for _, key := range ix.Keys() {
		history := ix.History(key)
		for i, s := range history {
			assert.GreaterOrEqual(t, s.WinRate, 0.0)
			assert.LessOrEqual(t, s.WinRate, 1.0)
			assert.GreaterOrEqual(t, s.PlaceRate, 0.0)
			assert.LessOrEqual(t, s.PlaceRate, 1.0)
			assert.LessOrEqual(t, s.Wins, s.Places)
			assert.InDelta(t, float64(s.Wins)/float64(s.TotalRaces), s.WinRate, 1e-12)
			if i > 0 {
				assert.True(t, history[i-1].AsOfDate.Before(s.AsOfDate), "%s not strictly increasing", key)
				assert.GreaterOrEqual(t, s.TotalRaces, history[i-1].TotalRaces)
			}
		}
	}
}

func TestResolve_FutureResultsDoNotLeak(t *testing.T) {
	rows := randomHistory(11, 200)
	cutoff := rows[len(rows)/2].RaceDate

	before := build(t, rows)

	mutated := make([]*models.RacePerformance, len(rows))
	for i, p := range rows {
		cp := *p
		if !models.Day(cp.RaceDate).Before(models.Day(cutoff)) {
			cp.FinishPosition = models.IntPtr(1)
		}
		mutated[i] = &cp
	}
	after := build(t, mutated)

	for _, p := range rows {
		if !models.Day(p.RaceDate).After(models.Day(cutoff)) {
			continue
		}
		for _, kind := range []models.EntityKind{models.EntityHorse, models.EntityJockey} {
			id := p.HorseID
			if kind == models.EntityJockey {
				id = p.JockeyID
			}
			assert.Equal(t, before.Resolve(kind, id, cutoff), after.Resolve(kind, id, cutoff))
		}
	}
}

func TestBuild_DeterministicAcrossWorkerCounts(t *testing.T) {
	rows := randomHistory(3, 120)

	one, err := NewBuilder(Config{Workers: 1, ExtendedKinds: true}, quietLogger()).Build(context.Background(), rows)
	require.NoError(t, err)
	many, err := NewBuilder(Config{Workers: 16, ExtendedKinds: true}, quietLogger()).Build(context.Background(), rows)
	require.NoError(t, err)

	require.Equal(t, one.Keys(), many.Keys())
	for _, key := range one.Keys() {
		assert.Equal(t, one.History(key), many.History(key))
	}
}

func TestNewIndex_FromMaterialised(t *testing.T) {
	built := build(t, randomHistory(5, 50))

	var all []models.EntitySnapshot
	for _, key := range built.Keys() {
		all = append(all, built.History(key)...)
	}
	loaded, err := NewIndex(all, DefaultDefaults())
	require.NoError(t, err)
	assert.Equal(t, built.Len(), loaded.Len())

	asOf := date(2023, 3, 1)
	for _, key := range built.Keys() {
		assert.Equal(t, built.ResolveKey(key, asOf), loaded.ResolveKey(key, asOf))
	}
}

func TestAppend_RejectsOutOfOrder(t *testing.T) {
	ix := newIndex(DefaultDefaults())
	require.NoError(t, ix.Append(models.EntitySnapshot{Kind: models.EntityHorse, EntityID: "H", AsOfDate: date(2024, 2, 1), TotalRaces: 1}))

	err := ix.Append(models.EntitySnapshot{Kind: models.EntityHorse, EntityID: "H", AsOfDate: date(2024, 2, 1), TotalRaces: 2})
	assert.ErrorIs(t, err, ErrOutOfOrder)

	err = ix.Append(models.EntitySnapshot{Kind: models.EntityHorse, EntityID: "H", AsOfDate: date(2024, 1, 1), TotalRaces: 2})
	assert.ErrorIs(t, err, ErrOutOfOrder)
}
