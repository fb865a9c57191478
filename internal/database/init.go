package database

import (
	"context"
	"fmt"

	"github.com/yourusername/one-spear/internal/config"
)

// SourceTables are read by the outcome store and must already exist
var SourceTables = []string{"races", "race_performances", "payouts"}

// schemaStatements create the tables this service writes
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS stat_entity_snapshots (
		entity_kind          TEXT    NOT NULL,
		entity_id            TEXT    NOT NULL,
		as_of_date           DATE    NOT NULL,
		total_races          INTEGER NOT NULL,
		wins                 INTEGER NOT NULL,
		places               INTEGER NOT NULL,
		win_rate             DOUBLE PRECISION NOT NULL,
		place_rate           DOUBLE PRECISION NOT NULL,
		avg_finish_position  DOUBLE PRECISION NOT NULL,
		days_since_last_race INTEGER,
		PRIMARY KEY (entity_kind, entity_id, as_of_date)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_stat_entity_snapshots_date ON stat_entity_snapshots (as_of_date)`,
	`CREATE TABLE IF NOT EXISTS backtest_results (
		id              UUID PRIMARY KEY,
		run_date        TIMESTAMPTZ NOT NULL,
		strategy        TEXT NOT NULL,
		model           TEXT NOT NULL,
		start_date      DATE NOT NULL,
		end_date        DATE NOT NULL,
		races_evaluated INTEGER NOT NULL,
		races_excluded  INTEGER NOT NULL,
		hits            INTEGER NOT NULL,
		hit_rate        DOUBLE PRECISION NOT NULL,
		total_stake     NUMERIC NOT NULL,
		total_payout    NUMERIC NOT NULL,
		roi             DOUBLE PRECISION NOT NULL,
		payout_gaps     INTEGER NOT NULL,
		full_results    JSONB,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_backtest_results_strategy ON backtest_results (strategy, run_date DESC)`,
}

// Initialize creates a connection pool, checks the source tables and
// creates the snapshot and result tables when missing
func Initialize(ctx context.Context, cfg *config.Config) (*DB, error) {
	db, err := NewDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	if cfg.Source.Driver == "postgres" {
		if err := db.VerifyTables(ctx, SourceTables...); err != nil {
			db.Close()
			return nil, err
		}
	}

	if err := db.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// VerifyTables fails when any of the named tables is absent
func (db *DB) VerifyTables(ctx context.Context, tables ...string) error {
	for _, table := range tables {
		var exists bool
		err := db.pool.QueryRow(ctx, "SELECT to_regclass($1) IS NOT NULL", "public."+table).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check table %s: %w", table, err)
		}
		if !exists {
			return fmt.Errorf("required table %s not found; load race outcomes before running", table)
		}
	}
	return nil
}

// EnsureSchema creates the tables this service writes to
func (db *DB) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
