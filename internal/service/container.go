package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/yourusername/one-spear/internal/config"
	"github.com/yourusername/one-spear/internal/database"
	"github.com/yourusername/one-spear/internal/repository"
	"github.com/yourusername/one-spear/internal/scoring"
	"github.com/yourusername/one-spear/internal/snapshot"
)

// Container holds the long-lived dependencies shared by the command line
// tools and the scheduler
type Container struct {
	Config    *config.Config
	Logger    *logrus.Logger
	DB        *database.DB
	SQLite    *gorm.DB
	Store     repository.OutcomeStore
	Repos     *repository.Repositories
	Builder   *snapshot.Builder
	Model     scoring.Model
	Snapshots *SnapshotService
	Backtests *BacktestService
}

// NewContainer opens the configured outcome store, and Postgres when any
// component needs it, then builds the services on top
func NewContainer(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*Container, error) {
	if log == nil {
		log = logrus.New()
	}
	c := &Container{Config: cfg, Logger: log}

	if cfg.NeedsPostgres() {
		db, err := database.Initialize(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		c.DB = db
		c.Repos, err = repository.NewRepositories(db, log)
		if err != nil {
			c.Close()
			return nil, err
		}
	}

	switch cfg.Source.Driver {
	case "sqlite":
		sqlite, err := database.OpenSQLite(cfg.Source.SQLitePath)
		if err != nil {
			c.Close()
			return nil, err
		}
		c.SQLite = sqlite
		c.Store = repository.NewSQLiteOutcomeStore(sqlite, log)
	case "postgres":
		c.Store = c.Repos.Outcomes
	default:
		c.Close()
		return nil, fmt.Errorf("unsupported source driver %q", cfg.Source.Driver)
	}

	model, err := scoring.New(ScoringOptions(cfg), log)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Model = model
	c.Builder = snapshot.NewBuilder(SnapshotConfig(cfg), log)

	var snapshotRepo repository.SnapshotRepository
	var resultRepo repository.BacktestResultRepository
	if c.Repos != nil {
		resultRepo = c.Repos.BacktestResult
		if cfg.Snapshot.Persist {
			snapshotRepo = c.Repos.Snapshots
		}
	}
	c.Snapshots = NewSnapshotService(c.Store, c.Builder, snapshotRepo, log)
	c.Backtests = NewBacktestService(c.Store, c.Builder, c.Model, resultRepo, log)
	return c, nil
}

// Ping checks the connections the container holds
func (c *Container) Ping(ctx context.Context) error {
	if c.DB != nil {
		if err := c.DB.Ping(ctx); err != nil {
			return err
		}
	}
	if c.SQLite != nil {
		sqlDB, err := c.SQLite.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
	return nil
}

// Close releases every open connection
func (c *Container) Close() {
	if closer, ok := c.Model.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			c.Logger.WithError(err).Warn("Failed to close scoring model")
		}
	}
	if c.SQLite != nil {
		if err := database.CloseSQLite(c.SQLite); err != nil {
			c.Logger.WithError(err).Warn("Failed to close sqlite source")
		}
	}
	if c.DB != nil {
		c.DB.Close()
	}
}

// ScoringOptions maps the scoring section onto model options
func ScoringOptions(cfg *config.Config) scoring.Options {
	httpCfg := scoring.DefaultHTTPClientConfig()
	if cfg.Scoring.TimeoutSeconds > 0 {
		httpCfg.Timeout = time.Duration(cfg.Scoring.TimeoutSeconds) * time.Second
	}
	if cfg.Scoring.RetryAttempts > 0 {
		httpCfg.MaxRetries = cfg.Scoring.RetryAttempts
	}
	if cfg.Scoring.RateLimit > 0 {
		httpCfg.RateLimit = cfg.Scoring.RateLimit
	}
	if cfg.Scoring.CircuitBreakerMax > 0 {
		httpCfg.CircuitBreakerMax = cfg.Scoring.CircuitBreakerMax
	}
	if cfg.Scoring.CircuitResetSeconds > 0 {
		httpCfg.CircuitResetTimeout = time.Duration(cfg.Scoring.CircuitResetSeconds) * time.Second
	}

	return scoring.Options{
		Model:     cfg.Scoring.Model,
		Seed:      cfg.Scoring.Seed,
		BaseURL:   cfg.Scoring.BaseURL,
		APIKey:    cfg.Scoring.APIKey,
		HTTP:      httpCfg,
		Weights:   cfg.Scoring.Weights,
		CacheTTL:  time.Duration(cfg.Scoring.CacheTTLSeconds) * time.Second,
		CacheSize: cfg.Scoring.CacheMaxSize,
	}
}

// SnapshotConfig maps the snapshot section onto builder settings
func SnapshotConfig(cfg *config.Config) snapshot.Config {
	defaults := snapshot.DefaultDefaults()
	if cfg.Snapshot.HorseAvgFinish > 0 {
		defaults.HorseAvgFinish = cfg.Snapshot.HorseAvgFinish
	}
	if cfg.Snapshot.JockeyAvgFinish > 0 {
		defaults.JockeyAvgFinish = cfg.Snapshot.JockeyAvgFinish
	}
	if cfg.Snapshot.TrainerAvgFinish > 0 {
		defaults.TrainerAvgFinish = cfg.Snapshot.TrainerAvgFinish
	}
	if cfg.Snapshot.ComboAvgFinish > 0 {
		defaults.ComboAvgFinish = cfg.Snapshot.ComboAvgFinish
	}
	if cfg.Snapshot.DaysSentinel > 0 {
		defaults.DaysSentinel = cfg.Snapshot.DaysSentinel
	}
	return snapshot.Config{
		Workers:       cfg.Snapshot.Workers,
		ExtendedKinds: cfg.Snapshot.ExtendedKinds,
		Defaults:      defaults,
	}
}
