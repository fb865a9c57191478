package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/one-spear/internal/database"
	"github.com/yourusername/one-spear/internal/models"
)

func TestPostgresSnapshotRepository_ReplaceAll(t *testing.T) {
	db := database.SetupTestDB(t)
	repos, err := NewRepositories(db, quietLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	snapshots := []models.EntitySnapshot{
		{Kind: models.EntityHorse, EntityID: "h1", AsOfDate: day("2024-01-01"), TotalRaces: 1, Wins: 1, Places: 1, WinRate: 1, PlaceRate: 1, AvgFinishPosition: 1},
		{Kind: models.EntityJockey, EntityID: "j1", AsOfDate: day("2024-01-01"), TotalRaces: 1, Places: 1, PlaceRate: 1, AvgFinishPosition: 2, DaysSinceLastRace: models.IntPtr(999)},
	}

	n, err := repos.Snapshots.ReplaceAll(ctx, snapshots)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	counts, err := repos.Snapshots.CountByKind(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[models.EntityHorse])
	assert.Equal(t, int64(1), counts[models.EntityJockey])
}

func TestPostgresBacktestResultRepository_RoundTrip(t *testing.T) {
	db := database.SetupTestDB(t)
	repo := NewPostgresBacktestResultRepository(db)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	strategy := "trifecta-" + uuid.NewString()[:8]
	result := &models.BacktestResult{
		ID:             uuid.New(),
		RunDate:        time.Now().UTC().Truncate(time.Second),
		Strategy:       strategy,
		Model:          "popularity",
		StartDate:      day("2024-01-01"),
		EndDate:        day("2024-12-31"),
		RacesEvaluated: 10,
		Hits:           1,
		HitRate:        0.1,
		TotalStake:     decimal.NewFromInt(1000),
		TotalPayout:    decimal.NewFromInt(12340),
		ROI:            12.34,
		FullResults:    json.RawMessage(`{"hits":1}`),
		CreatedAt:      time.Now().UTC(),
	}
	require.NoError(t, repo.SaveResult(ctx, result))

	got, err := repo.GetByStrategy(ctx, strategy, 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, result.ID, got[0].ID)
	assert.True(t, result.TotalPayout.Equal(got[0].TotalPayout))
}
