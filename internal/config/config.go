// Package config provides configuration management for the one-spear backtester.
package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	App      AppConfig      `mapstructure:"app" validate:"required"`
	Source   SourceConfig   `mapstructure:"source" validate:"required"`
	Database DatabaseConfig `mapstructure:"database"`
	Snapshot SnapshotConfig `mapstructure:"snapshot"`
	Scoring  ScoringConfig  `mapstructure:"scoring" validate:"required"`
	Backtest BacktestConfig `mapstructure:"backtest" validate:"required"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
	LogFormat   string `mapstructure:"log_format" validate:"omitempty,oneof=json text"`
}

// SourceConfig selects where race outcomes are read from
type SourceConfig struct {
	Driver     string `mapstructure:"driver" validate:"required,source_driver"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

// DatabaseConfig represents PostgreSQL connection configuration
type DatabaseConfig struct {
	Host               string `mapstructure:"host"`
	Port               int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Name               string `mapstructure:"name"`
	User               string `mapstructure:"user"`
	Password           string `mapstructure:"password"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"omitempty,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"gte=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"gte=0"`
}

// SnapshotConfig controls the point-in-time statistics build
type SnapshotConfig struct {
	Workers          int     `mapstructure:"workers" validate:"gte=0"`
	ExtendedKinds    bool    `mapstructure:"extended_kinds"`
	HorseAvgFinish   float64 `mapstructure:"horse_avg_finish" validate:"gte=0"`
	JockeyAvgFinish  float64 `mapstructure:"jockey_avg_finish" validate:"gte=0"`
	TrainerAvgFinish float64 `mapstructure:"trainer_avg_finish" validate:"gte=0"`
	ComboAvgFinish   float64 `mapstructure:"combo_avg_finish" validate:"gte=0"`
	DaysSentinel     int     `mapstructure:"days_sentinel" validate:"gte=0"`
	Persist          bool    `mapstructure:"persist"`
}

// ScoringConfig selects and configures the win-likelihood model
type ScoringConfig struct {
	Model               string             `mapstructure:"model" validate:"required,scoring_model"`
	BaseURL             string             `mapstructure:"base_url" validate:"omitempty,url"`
	APIKey              string             `mapstructure:"api_key"`
	TimeoutSeconds      int                `mapstructure:"timeout_seconds" validate:"gte=0"`
	RetryAttempts       int                `mapstructure:"retry_attempts" validate:"gte=0"`
	RateLimit           float64            `mapstructure:"rate_limit" validate:"gte=0"`
	CircuitBreakerMax   int                `mapstructure:"circuit_breaker_max" validate:"gte=0"`
	CircuitResetSeconds int                `mapstructure:"circuit_reset_seconds" validate:"gte=0"`
	CacheTTLSeconds     int                `mapstructure:"cache_ttl_seconds" validate:"gte=0"`
	CacheMaxSize        int                `mapstructure:"cache_max_size" validate:"gte=0"`
	Seed                int64              `mapstructure:"seed"`
	IncludePopularity   bool               `mapstructure:"include_popularity"`
	Weights             map[string]float64 `mapstructure:"weights"`
}

// BacktestConfig represents backtesting configuration
type BacktestConfig struct {
	StartDate          string  `mapstructure:"start_date" validate:"required,date"`
	EndDate            string  `mapstructure:"end_date" validate:"required,date"`
	Strategy           string  `mapstructure:"strategy" validate:"required,strategy"`
	UnitStake          float64 `mapstructure:"unit_stake" validate:"required,gt=0"`
	Workers            int     `mapstructure:"workers" validate:"gte=0"`
	OutputPath         string  `mapstructure:"output_path"`
	CSVPath            string  `mapstructure:"csv_path"`
	PersistResults     bool    `mapstructure:"persist_results"`
	BaselineIterations int     `mapstructure:"baseline_iterations" validate:"gte=0"`
	Seed               int64   `mapstructure:"seed"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Path    string `mapstructure:"path"`
}

// ScheduleConfig holds cron expressions for the scheduler daemon.
// A non-zero BacktestWindowDays replays the trailing window ending yesterday
// instead of the configured backtest range.
type ScheduleConfig struct {
	SnapshotRefresh    string `mapstructure:"snapshot_refresh"`
	BacktestRun        string `mapstructure:"backtest_run"`
	BacktestWindowDays int    `mapstructure:"backtest_window_days" validate:"gte=0"`
	HealthPort         int    `mapstructure:"health_port" validate:"omitempty,min=1,max=65535"`
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// NeedsPostgres reports whether any configured component talks to PostgreSQL
func (c *Config) NeedsPostgres() bool {
	return c.Source.Driver == "postgres" || c.Snapshot.Persist || c.Backtest.PersistResults
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// BacktestRange parses the configured backtest dates
func (c *Config) BacktestRange() (time.Time, time.Time, error) {
	start, err := time.Parse(dateLayout, c.Backtest.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid backtest start_date: %w", err)
	}
	end, err := time.Parse(dateLayout, c.Backtest.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid backtest end_date: %w", err)
	}
	return start, end, nil
}

const dateLayout = "2006-01-02"
