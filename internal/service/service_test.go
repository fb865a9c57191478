package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/one-spear/internal/backtest"
	"github.com/yourusername/one-spear/internal/config"
	"github.com/yourusername/one-spear/internal/models"
	"github.com/yourusername/one-spear/internal/scoring"
	"github.com/yourusername/one-spear/internal/snapshot"
)

// MockOutcomeStore mocks the outcome store
type MockOutcomeStore struct {
	mock.Mock
}

func (m *MockOutcomeStore) ListFinishedPerformances(ctx context.Context, until time.Time) ([]*models.RacePerformance, error) {
	args := m.Called(ctx, until)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RacePerformance), args.Error(1)
}

func (m *MockOutcomeStore) ListRaceEntries(ctx context.Context, start, end time.Time) ([]*models.RacePerformance, error) {
	args := m.Called(ctx, start, end)
	return args.Get(0).([]*models.RacePerformance), args.Error(1)
}

func (m *MockOutcomeStore) ListPayouts(ctx context.Context, start, end time.Time) ([]*models.PayoutRecord, error) {
	args := m.Called(ctx, start, end)
	return args.Get(0).([]*models.PayoutRecord), args.Error(1)
}

// MockSnapshotRepository mocks snapshot persistence
type MockSnapshotRepository struct {
	mock.Mock
}

func (m *MockSnapshotRepository) ReplaceAll(ctx context.Context, snapshots []models.EntitySnapshot) (int64, error) {
	args := m.Called(ctx, snapshots)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSnapshotRepository) CountByKind(ctx context.Context) (map[models.EntityKind]int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(map[models.EntityKind]int64), args.Error(1)
}

// MockBacktestResultRepository mocks result persistence
type MockBacktestResultRepository struct {
	mock.Mock
}

func (m *MockBacktestResultRepository) SaveResult(ctx context.Context, result *models.BacktestResult) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

func (m *MockBacktestResultRepository) GetLatest(ctx context.Context, limit int) ([]*models.BacktestResult, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]*models.BacktestResult), args.Error(1)
}

func (m *MockBacktestResultRepository) GetByStrategy(ctx context.Context, strategy string, limit int) ([]*models.BacktestResult, error) {
	args := m.Called(ctx, strategy, limit)
	return args.Get(0).([]*models.BacktestResult), args.Error(1)
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func field(raceID string, d time.Time) []*models.RacePerformance {
	rows := make([]*models.RacePerformance, 0, 5)
	for n := 1; n <= 5; n++ {
		rows = append(rows, &models.RacePerformance{
			RaceID:         raceID,
			HorseID:        "h" + string(rune('a'+n)),
			JockeyID:       "j" + string(rune('a'+n)),
			TrainerID:      "t1",
			HorseNumber:    n,
			FinishPosition: models.IntPtr(n),
			Popularity:     models.IntPtr(n),
			RaceDate:       d,
			TrackCondition: "良",
		})
	}
	return rows
}

func builder() *snapshot.Builder {
	return snapshot.NewBuilder(snapshot.Config{Workers: 2, ExtendedKinds: true}, quietLogger())
}

func TestSnapshotService_RefreshPersists(t *testing.T) {
	rows := append(field("r1", day(2024, 1, 6)), field("r2", day(2024, 1, 13))...)

	store := new(MockOutcomeStore)
	store.On("ListFinishedPerformances", mock.Anything, time.Time{}).Return(rows, nil)

	repo := new(MockSnapshotRepository)
	repo.On("ReplaceAll", mock.Anything, mock.MatchedBy(func(s []models.EntitySnapshot) bool {
		return len(s) > 0
	})).Return(int64(42), nil)
	repo.On("CountByKind", mock.Anything).Return(map[models.EntityKind]int64{models.EntityHorse: 10}, nil)

	svc := NewSnapshotService(store, builder(), repo, quietLogger())
	result, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 10, result.Rows)
	assert.Positive(t, result.Snapshots)
	assert.Equal(t, int64(42), result.Persisted)
	assert.Equal(t, int64(10), result.ByKind[models.EntityHorse])
	assert.True(t, svc.Stats().Healthy())
	store.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestSnapshotService_WithoutRepository(t *testing.T) {
	store := new(MockOutcomeStore)
	store.On("ListFinishedPerformances", mock.Anything, time.Time{}).Return(field("r1", day(2024, 1, 6)), nil)

	result, err := NewSnapshotService(store, builder(), nil, quietLogger()).Refresh(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Persisted)
	assert.Nil(t, result.ByKind)
}

func TestSnapshotService_StoreFailure(t *testing.T) {
	store := new(MockOutcomeStore)
	store.On("ListFinishedPerformances", mock.Anything, mock.Anything).Return(nil, errors.New("timeout"))

	svc := NewSnapshotService(store, builder(), nil, quietLogger())
	_, err := svc.Refresh(context.Background())
	require.Error(t, err)
	assert.False(t, svc.Stats().Healthy())
	assert.Equal(t, 1, svc.Stats().Failures)
}

func backtestStore(t *testing.T) *MockOutcomeStore {
	t.Helper()
	history := field("r0", day(2024, 2, 24))
	race := field("r1", day(2024, 3, 2))

	store := new(MockOutcomeStore)
	store.On("ListFinishedPerformances", mock.Anything, mock.Anything).Return(history, nil)
	store.On("ListRaceEntries", mock.Anything, mock.Anything, mock.Anything).Return(race, nil)
	store.On("ListPayouts", mock.Anything, mock.Anything, mock.Anything).Return([]*models.PayoutRecord{
		{RaceID: "r1", BetType: models.BetTypeTrifecta, Combination: []int{1, 2, 3}, Amount: decimal.NewFromInt(1230)},
	}, nil)
	return store
}

func TestBacktestService_RunWritesAndPersists(t *testing.T) {
	dir := t.TempDir()
	cfg := backtest.BacktestConfig{
		StartDate:      day(2024, 3, 1),
		EndDate:        day(2024, 3, 31),
		UnitStake:      backtest.DefaultUnitStake,
		Workers:        2,
		OutputPath:     filepath.Join(dir, "report.json"),
		CSVPath:        filepath.Join(dir, "records.csv"),
		PersistResults: true,
	}

	results := new(MockBacktestResultRepository)
	results.On("SaveResult", mock.Anything, mock.MatchedBy(func(r *models.BacktestResult) bool {
		return r.Hits == 1 && r.TotalPayout.Equal(decimal.NewFromInt(1230))
	})).Return(nil)

	svc := NewBacktestService(backtestStore(t), builder(), scoring.PopularityModel{}, results, quietLogger())
	report, err := svc.Run(context.Background(), cfg, backtest.Trifecta{})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Summary.Hits)
	assert.Equal(t, models.Triple{1, 2, 3}, report.Records[0].Predicted)
	assert.FileExists(t, cfg.OutputPath)
	assert.FileExists(t, cfg.CSVPath)
	results.AssertExpectations(t)
}

func TestBacktestService_PersistWithoutRepository(t *testing.T) {
	cfg := backtest.BacktestConfig{
		StartDate:      day(2024, 3, 1),
		EndDate:        day(2024, 3, 31),
		UnitStake:      backtest.DefaultUnitStake,
		PersistResults: true,
	}
	svc := NewBacktestService(backtestStore(t), builder(), scoring.PopularityModel{}, nil, quietLogger())
	_, err := svc.Run(context.Background(), cfg, backtest.Trifecta{})
	assert.Error(t, err)
	assert.Equal(t, 1, svc.Stats().Failures)
}

func TestBacktestService_RecentResults(t *testing.T) {
	results := new(MockBacktestResultRepository)
	results.On("GetLatest", mock.Anything, 5).Return([]*models.BacktestResult{{Strategy: "trio"}}, nil)
	results.On("GetByStrategy", mock.Anything, "trifecta", 5).Return([]*models.BacktestResult{}, nil)

	svc := NewBacktestService(nil, builder(), scoring.PopularityModel{}, results, quietLogger())
	latest, err := svc.RecentResults(context.Background(), "", 5)
	require.NoError(t, err)
	assert.Len(t, latest, 1)
	byStrategy, err := svc.RecentResults(context.Background(), "trifecta", 5)
	require.NoError(t, err)
	assert.Empty(t, byStrategy)
	results.AssertExpectations(t)
}

func TestTrailingWindow(t *testing.T) {
	base := backtest.BacktestConfig{StartDate: day(2024, 1, 1), EndDate: day(2024, 12, 31)}
	now := time.Date(2025, 3, 10, 5, 30, 0, 0, time.UTC)

	window := TrailingWindow(base, now, 7)
	assert.Equal(t, day(2025, 3, 9), window.EndDate)
	assert.Equal(t, day(2025, 3, 3), window.StartDate)

	assert.Equal(t, base, TrailingWindow(base, now, 0))
}

func TestScoringOptionsAndSnapshotConfig(t *testing.T) {
	cfg := &config.Config{
		Scoring: config.ScoringConfig{
			Model:               "http",
			BaseURL:             "http://scorer:8000",
			TimeoutSeconds:      3,
			RetryAttempts:       5,
			CircuitResetSeconds: 45,
			CacheTTLSeconds:     60,
			CacheMaxSize:        100,
		},
		Snapshot: config.SnapshotConfig{Workers: 3, JockeyAvgFinish: 6.5},
	}

	opts := ScoringOptions(cfg)
	assert.Equal(t, "http", opts.Model)
	assert.Equal(t, 3*time.Second, opts.HTTP.Timeout)
	assert.Equal(t, 5, opts.HTTP.MaxRetries)
	assert.Equal(t, 45*time.Second, opts.HTTP.CircuitResetTimeout)
	assert.Equal(t, time.Minute, opts.CacheTTL)

	sc := SnapshotConfig(cfg)
	assert.Equal(t, 3, sc.Workers)
	assert.Equal(t, 6.5, sc.Defaults.JockeyAvgFinish)
	assert.Equal(t, 8.0, sc.Defaults.HorseAvgFinish)
	assert.Equal(t, snapshot.DaysSentinel, sc.Defaults.DaysSentinel)
}

func TestJobStats(t *testing.T) {
	stats := NewJobStats("nightly")
	assert.True(t, stats.LastRunAt().IsZero())
	stats.RecordSuccess(time.Now())
	failedAt := time.Now()
	stats.RecordFailure(failedAt, errors.New("boom"))
	assert.Equal(t, failedAt, stats.LastRunAt())
	assert.False(t, stats.Healthy())
	assert.Contains(t, stats.String(), "Runs=2, Failures=1 (50.0% ok)")
	stats.RecordSuccess(time.Now())
	assert.True(t, stats.Healthy())
}
