package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const envPrefix = "ONE_SPEAR"

// Load reads and parses the configuration from file and environment variables
// It expands environment variable placeholders in the YAML file (${VAR_NAME})
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v := newViper()
	if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

// LoadWithDefaults loads configuration with default values for optional fields.
// A missing file is not an error; defaults and environment variables apply.
func LoadWithDefaults(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	v := newViper()
	setDefaults(v)

	if data, err := os.ReadFile(configPath); err == nil {
		if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "one-spear")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("source.driver", "sqlite")
	v.SetDefault("source.sqlite_path", "data/keiba.db")

	v.SetDefault("database.port", 5432)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.max_idle_connections", 2)

	v.SetDefault("snapshot.extended_kinds", true)
	v.SetDefault("snapshot.horse_avg_finish", 8.0)
	v.SetDefault("snapshot.jockey_avg_finish", 5.0)
	v.SetDefault("snapshot.trainer_avg_finish", 5.0)
	v.SetDefault("snapshot.combo_avg_finish", 8.0)
	v.SetDefault("snapshot.days_sentinel", 999)

	v.SetDefault("scoring.model", "popularity")
	v.SetDefault("scoring.timeout_seconds", 10)
	v.SetDefault("scoring.retry_attempts", 3)
	v.SetDefault("scoring.rate_limit", 50)
	v.SetDefault("scoring.circuit_breaker_max", 10)
	v.SetDefault("scoring.circuit_reset_seconds", 30)
	v.SetDefault("scoring.cache_ttl_seconds", 3600)
	v.SetDefault("scoring.cache_max_size", 50000)

	v.SetDefault("backtest.start_date", "2024-01-01")
	v.SetDefault("backtest.end_date", "2024-12-31")
	v.SetDefault("backtest.strategy", "trifecta")
	v.SetDefault("backtest.unit_stake", 100)
	v.SetDefault("backtest.baseline_iterations", 1000)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("schedule.snapshot_refresh", "0 5 * * *")
	v.SetDefault("schedule.backtest_run", "30 5 * * 1")
	v.SetDefault("schedule.backtest_window_days", 90)
	v.SetDefault("schedule.health_port", 8080)
}
