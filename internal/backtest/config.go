package backtest

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yourusername/one-spear/internal/config"
	"github.com/yourusername/one-spear/internal/features"
)

// DefaultUnitStake is the price of one ticket
var DefaultUnitStake = decimal.NewFromInt(100)

// BacktestConfig holds everything a run needs; nothing is read from ambient state
type BacktestConfig struct {
	StartDate          time.Time
	EndDate            time.Time
	UnitStake          decimal.Decimal
	Workers            int
	OutputPath         string
	CSVPath            string
	PersistResults     bool
	BaselineIterations int
	Seed               int64
	Features           features.Config
}

// FromConfig converts app config to backtest config
func FromConfig(cfg *config.Config) (BacktestConfig, error) {
	if cfg == nil {
		return BacktestConfig{}, fmt.Errorf("config is required")
	}
	start, end, err := cfg.BacktestRange()
	if err != nil {
		return BacktestConfig{}, err
	}

	bt := BacktestConfig{
		StartDate:          start,
		EndDate:            end,
		UnitStake:          decimal.NewFromFloat(cfg.Backtest.UnitStake),
		Workers:            cfg.Backtest.Workers,
		OutputPath:         cfg.Backtest.OutputPath,
		CSVPath:            cfg.Backtest.CSVPath,
		PersistResults:     cfg.Backtest.PersistResults,
		BaselineIterations: cfg.Backtest.BaselineIterations,
		Seed:               cfg.Backtest.Seed,
		Features: features.Config{
			IncludePopularity: cfg.Scoring.IncludePopularity,
			Extended:          cfg.Snapshot.ExtendedKinds,
		},
	}

	return bt, bt.Validate()
}

// Validate validates backtest config parameters
func (b BacktestConfig) Validate() error {
	if b.StartDate.IsZero() || b.EndDate.IsZero() {
		return fmt.Errorf("start and end dates are required")
	}
	if b.StartDate.After(b.EndDate) {
		return fmt.Errorf("start date must not be after end date")
	}
	if b.UnitStake.IsNegative() {
		return fmt.Errorf("unit stake cannot be negative")
	}
	if b.Workers < 0 {
		return fmt.Errorf("workers cannot be negative")
	}
	if b.BaselineIterations < 0 {
		return fmt.Errorf("baseline iterations cannot be negative")
	}
	return nil
}

func (b BacktestConfig) workers() int {
	if b.Workers <= 0 {
		return 1
	}
	return b.Workers
}
