package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
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
	_ = v.RegisterValidation("cachebackend", validateCacheBackend)
	_ = v.RegisterValidation("estimatortype", validateEstimatorType)

	return &CustomValidator{validator: v}
}

// Validate validates the entire configuration
func Validate(cfg *Config) error {
	return NewValidator().Validate(cfg)
}

// Validate validates the configuration using registered validation rules
func (cv *CustomValidator) Validate(cfg *Config) error {
	if err := cv.validator.Struct(cfg); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
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

func validateCacheBackend(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "none", "memory", "redis":
		return true
	default:
		return false
	}
}

func validateEstimatorType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "none", "logistic", "http":
		return true
	default:
		return false
	}
}

// validateCrossField performs checks that span several sections
func validateCrossField(cfg *Config) error {
	if cfg.IsProduction() && cfg.Database.SSLMode == "disable" {
		return fmt.Errorf("production environment requires SSL mode to be 'require' or 'verify-full'")
	}

	if cfg.Database.MaxIdleConnections > cfg.Database.MaxConnections {
		return fmt.Errorf("max_idle_connections cannot exceed max_connections")
	}

	if cfg.Features.CacheBackend == "redis" && cfg.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required when features.cache_backend is 'redis'")
	}

	switch cfg.Estimator.Type {
	case "logistic":
		if cfg.Estimator.ModelPath == "" {
			return fmt.Errorf("estimator.model_path is required for the logistic estimator")
		}
	case "http":
		if cfg.Estimator.URL == "" {
			return fmt.Errorf("estimator.url is required for the http estimator")
		}
	}

	if cfg.Ingestion.Schedule != "" {
		if _, err := cron.ParseStandard(cfg.Ingestion.Schedule); err != nil {
			return fmt.Errorf("invalid ingestion.schedule %q: %w", cfg.Ingestion.Schedule, err)
		}
	}

	for team, venues := range cfg.Features.HomeGrounds {
		if strings.TrimSpace(team) == "" || len(venues) == 0 {
			return fmt.Errorf("features.home_grounds entries need a team and at least one venue")
		}
	}

	return nil
}

// formatValidationErrors formats validation errors into a readable string
func formatValidationErrors(validationErrors validator.ValidationErrors) error {
	var b strings.Builder
	for _, fieldError := range validationErrors {
		field := fieldError.StructField()
		tag := fieldError.Tag()

		switch tag {
		case "required":
			fmt.Fprintf(&b, "- Field '%s' is required\n", field)
		case "url":
			fmt.Fprintf(&b, "- Field '%s' must be a valid URL, got '%v'\n", field, fieldError.Value())
		case "min", "max":
			fmt.Fprintf(&b, "- Field '%s' validation failed: %s constraint violated\n", field, tag)
		case "gt", "gte", "lt", "lte":
			fmt.Fprintf(&b, "- Field '%s' validation failed: numeric constraint %s violated\n", field, tag)
		case "environment":
			fmt.Fprintf(&b, "- Field '%s' must be one of: development, staging, production\n", field)
		case "loglevel":
			fmt.Fprintf(&b, "- Field '%s' must be one of: debug, info, warn, error\n", field)
		case "cachebackend":
			fmt.Fprintf(&b, "- Field '%s' must be one of: none, memory, redis\n", field)
		case "estimatortype":
			fmt.Fprintf(&b, "- Field '%s' must be one of: none, logistic, http\n", field)
		case "oneof":
			fmt.Fprintf(&b, "- Field '%s' has invalid value '%v'\n", field, fieldError.Value())
		default:
			fmt.Fprintf(&b, "- Field '%s' failed validation: %s\n", field, tag)
		}
	}
	return fmt.Errorf("configuration validation failed:\n%s", b.String())
}
