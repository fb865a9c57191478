package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new validator with custom validation functions
func NewValidator() *CustomValidator {
	v := validator.New()

	_ = v.RegisterValidation("environment", validateEnvironment)
	_ = v.RegisterValidation("loglevel", validateLogLevel)
	_ = v.RegisterValidation("strategy", validateStrategy)
	_ = v.RegisterValidation("date", validateDate)
	_ = v.RegisterValidation("source_driver", validateSourceDriver)
	_ = v.RegisterValidation("scoring_model", validateScoringModel)

	return &CustomValidator{validator: v}
}

// Validate validates the entire configuration
func Validate(cfg *Config) error {
	return NewValidator().Validate(cfg)
}

// Validate validates the configuration using registered validation rules
func (cv *CustomValidator) Validate(cfg *Config) error {
	if err := cv.validator.Struct(cfg); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	return validateCrossField(cfg)
}

func validateEnvironment(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "development", "staging", "production":
		return true
	default:
		return false
	}
}

func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

// validateStrategy accepts the ticket strategies the simulator knows about
func validateStrategy(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "trifecta", "trifecta_box", "trio":
		return true
	default:
		return false
	}
}

func validateDate(fl validator.FieldLevel) bool {
	_, err := time.Parse(dateLayout, fl.Field().String())
	return err == nil
}

func validateSourceDriver(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "postgres", "sqlite":
		return true
	default:
		return false
	}
}

func validateScoringModel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "popularity", "random", "linear", "http":
		return true
	default:
		return false
	}
}

// validateCrossField performs cross-field validations
func validateCrossField(cfg *Config) error {
	start, end, err := cfg.BacktestRange()
	if err != nil {
		return err
	}
	if end.Before(start) {
		return fmt.Errorf("backtest start_date must not be after end_date")
	}

	if cfg.Source.Driver == "sqlite" && cfg.Source.SQLitePath == "" {
		return fmt.Errorf("source.sqlite_path is required when source.driver is sqlite")
	}

	if cfg.NeedsPostgres() {
		if cfg.Database.Host == "" || cfg.Database.Name == "" || cfg.Database.User == "" {
			return fmt.Errorf("database host, name and user are required when postgres is in use")
		}
		if cfg.Database.Port == 0 {
			return fmt.Errorf("database port is required when postgres is in use")
		}
		if cfg.IsProduction() && cfg.Database.SSLMode == "disable" {
			return fmt.Errorf("production environment requires SSL mode to be 'require' or 'verify-full'")
		}
	}

	if cfg.Database.MaxIdleConnections > cfg.Database.MaxConnections {
		return fmt.Errorf("max_idle_connections cannot exceed max_connections")
	}

	if cfg.Scoring.Model == "http" && cfg.Scoring.BaseURL == "" {
		return fmt.Errorf("scoring.base_url is required for the http model")
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Path != "" && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with '/'")
	}

	return nil
}

// formatValidationErrors formats validation errors into a readable string
func formatValidationErrors(validationErrors validator.ValidationErrors) error {
	var errMsg string
	for _, fieldError := range validationErrors {
		field := fieldError.StructField()
		tag := fieldError.Tag()
		value := fieldError.Value()

		switch tag {
		case "required":
			errMsg += fmt.Sprintf("- Field '%s' is required\n", field)
		case "url":
			errMsg += fmt.Sprintf("- Field '%s' must be a valid URL, got '%v'\n", field, value)
		case "min", "max":
			errMsg += fmt.Sprintf("- Field '%s' validation failed: %s constraint violated\n", field, tag)
		case "gt", "gte", "lt", "lte":
			errMsg += fmt.Sprintf("- Field '%s' validation failed: numeric constraint %s violated\n", field, tag)
		case "environment":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: development, staging, production\n", field)
		case "loglevel":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: debug, info, warn, error\n", field)
		case "strategy":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: trifecta, trifecta_box, trio\n", field)
		case "date":
			errMsg += fmt.Sprintf("- Field '%s' must be a YYYY-MM-DD date, got '%v'\n", field, value)
		case "source_driver":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: postgres, sqlite\n", field)
		case "scoring_model":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: popularity, random, linear, http\n", field)
		case "oneof":
			errMsg += fmt.Sprintf("- Field '%s' has invalid value '%v'\n", field, value)
		default:
			errMsg += fmt.Sprintf("- Field '%s' failed validation: %s\n", field, tag)
		}
	}
	return fmt.Errorf("configuration validation failed:\n%s", errMsg)
}
