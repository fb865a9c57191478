package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(race string, horse int, finish *int) *RacePerformance {
	return &RacePerformance{
		RaceID:         race,
		HorseID:        "h" + FormatCombination([]int{horse}),
		HorseNumber:    horse,
		FinishPosition: finish,
		RaceDate:       time.Date(2024, 3, 1, 15, 40, 0, 0, time.UTC),
	}
}

func TestActualTriple(t *testing.T) {
	race := &Race{ID: "r1", Entries: []*RacePerformance{
		entry("r1", 1, IntPtr(3)),
		entry("r1", 3, IntPtr(1)),
		entry("r1", 7, IntPtr(2)),
		entry("r1", 9, IntPtr(4)),
	}}

	triple, ok, deadHeat := race.ActualTriple()
	require.True(t, ok)
	assert.False(t, deadHeat)
	assert.Equal(t, Triple{3, 7, 1}, triple)
}

func TestActualTriple_TwoFinishers(t *testing.T) {
	race := &Race{ID: "r1", Entries: []*RacePerformance{
		entry("r1", 1, IntPtr(1)),
		entry("r1", 2, IntPtr(2)),
		entry("r1", 3, nil),
	}}

	_, ok, deadHeat := race.ActualTriple()
	assert.False(t, ok)
	assert.False(t, deadHeat)
}

func TestActualTriple_DeadHeat(t *testing.T) {
	race := &Race{ID: "r1", Entries: []*RacePerformance{
		entry("r1", 1, IntPtr(1)),
		entry("r1", 2, IntPtr(2)),
		entry("r1", 3, IntPtr(2)),
		entry("r1", 4, IntPtr(4)),
	}}

	_, ok, deadHeat := race.ActualTriple()
	assert.False(t, ok)
	assert.True(t, deadHeat)
}

func TestStarters(t *testing.T) {
	race := &Race{Entries: []*RacePerformance{
		entry("r1", 5, IntPtr(1)),
		entry("r1", 2, nil),
		entry("r1", 1, IntPtr(2)),
	}}

	starters := race.Starters()
	require.Len(t, starters, 2)
	assert.Equal(t, 1, starters[0].HorseNumber)
	assert.Equal(t, 5, starters[1].HorseNumber)
	assert.Equal(t, 2, race.FieldSize())
}

func TestGroupRaces(t *testing.T) {
	d1 := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	d0 := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	rows := []*RacePerformance{
		{RaceID: "b", HorseID: "x", HorseNumber: 1, RaceDate: d1},
		{RaceID: "a", HorseID: "y", HorseNumber: 1, RaceDate: d1},
		{RaceID: "c", HorseID: "z", HorseNumber: 1, RaceDate: d0},
		{RaceID: "a", HorseID: "w", HorseNumber: 2, RaceDate: d1},
	}

	races := GroupRaces(rows)
	require.Len(t, races, 3)
	assert.Equal(t, "c", races[0].ID)
	assert.Equal(t, "a", races[1].ID)
	assert.Equal(t, "b", races[2].ID)
	assert.Len(t, races[1].Entries, 2)
	assert.Equal(t, Day(d1), races[1].Date)
}

func TestPayoutRecordMatches(t *testing.T) {
	trifecta := &PayoutRecord{BetType: BetTypeTrifecta, Combination: []int{4, 2, 9}, Amount: decimal.NewFromInt(12340)}
	assert.True(t, trifecta.Matches([]int{4, 2, 9}))
	assert.False(t, trifecta.Matches([]int{2, 4, 9}))

	trio := &PayoutRecord{BetType: BetTypeTrio, Combination: []int{2, 4, 9}}
	assert.True(t, trio.Matches([]int{9, 4, 2}))
	assert.False(t, trio.Matches([]int{9, 4, 1}))

	unknown := &PayoutRecord{BetType: BetTypeTrifecta}
	assert.True(t, unknown.Matches([]int{1, 2, 3}))
}

func TestParseCombination(t *testing.T) {
	tests := []struct {
		in      string
		want    []int
		wantErr bool
	}{
		{"4-2-9", []int{4, 2, 9}, false},
		{"4 > 2 > 9", []int{4, 2, 9}, false},
		{"4→2→9", []int{4, 2, 9}, false},
		{"", nil, false},
		{"4-x-9", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCombination(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPayout)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseBetType(t *testing.T) {
	tests := []struct {
		in   string
		want BetType
	}{
		{"trifecta", BetTypeTrifecta},
		{"3連単", BetTypeTrifecta},
		{"三連複", BetTypeTrio},
		{" Wide ", BetTypeWide},
	}
	for _, tt := range tests {
		got, ok := ParseBetType(tt.in)
		assert.True(t, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, ok := ParseBetType("枠連")
	assert.False(t, ok)
}

func TestTripleSameSet(t *testing.T) {
	assert.True(t, Triple{3, 7, 1}.SameSet(Triple{7, 3, 1}))
	assert.False(t, Triple{3, 7, 1}.SameSet(Triple{3, 7, 2}))
	assert.Equal(t, "3-7-1", Triple{3, 7, 1}.String())
}

func TestRacePerformanceValidate(t *testing.T) {
	p := &RacePerformance{RaceID: "r", HorseID: "h", RaceDate: time.Now(), FinishPosition: IntPtr(0)}
	assert.ErrorIs(t, p.Validate(), ErrInvalidPerformance)

	p.FinishPosition = IntPtr(1)
	assert.NoError(t, p.Validate())
	assert.True(t, p.Won())
	assert.True(t, p.Placed())
}
