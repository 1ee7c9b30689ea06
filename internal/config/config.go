// Package config provides configuration management for the AFL predictor.
package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	App       AppConfig       `mapstructure:"app" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database" validate:"required"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Features  FeaturesConfig  `mapstructure:"features" validate:"required"`
	Estimator EstimatorConfig `mapstructure:"estimator" validate:"required"`
	Ingestion IngestionConfig `mapstructure:"ingestion"`
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	Metrics   MetricsConfig   `mapstructure:"metrics" validate:"required"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Host               string `mapstructure:"host" validate:"required"`
	Port               int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Name               string `mapstructure:"name" validate:"required"`
	User               string `mapstructure:"user" validate:"required"`
	Password           string `mapstructure:"password"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"required,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"required,gt=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"required,gt=0"`
}

// RedisConfig is only required when the feature cache backend is redis.
type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db" validate:"gte=0"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// FeaturesConfig controls the feature derivation engine
type FeaturesConfig struct {
	WindowSize      int                 `mapstructure:"window_size" validate:"required,gt=0"`
	CacheBackend    string              `mapstructure:"cache_backend" validate:"required,cachebackend"`
	CacheTTLSeconds int                 `mapstructure:"cache_ttl_seconds" validate:"gte=0"`
	HomeGrounds     map[string][]string `mapstructure:"home_grounds"`
}

// EstimatorConfig selects and configures the probability estimator
type EstimatorConfig struct {
	Type                  string  `mapstructure:"type" validate:"required,estimatortype"`
	ModelPath             string  `mapstructure:"model_path"`
	URL                   string  `mapstructure:"url" validate:"omitempty,url"`
	APIKey                string  `mapstructure:"api_key"`
	RequestTimeoutSeconds int     `mapstructure:"request_timeout_seconds" validate:"gte=0"`
	RetryAttempts         int     `mapstructure:"retry_attempts" validate:"gte=0"`
	RequestsPerSecond     float64 `mapstructure:"requests_per_second" validate:"gte=0"`
	LearningRate          float64 `mapstructure:"learning_rate" validate:"gte=0"`
	Epochs                int     `mapstructure:"epochs" validate:"gte=0"`
}

// IngestionConfig represents CSV import and refresh scheduling
type IngestionConfig struct {
	MatchesFile     string `mapstructure:"matches_file"`
	PlayerStatsFile string `mapstructure:"player_stats_file"`
	BatchSize       int    `mapstructure:"batch_size" validate:"gte=0"`
	Schedule        string `mapstructure:"schedule"`
}

// ServerConfig represents the HTTP API configuration
type ServerConfig struct {
	Port                int `mapstructure:"port" validate:"required,min=1,max=65535"`
	HealthPort          int `mapstructure:"health_port" validate:"required,min=1,max=65535"`
	ReadTimeoutSeconds  int `mapstructure:"read_timeout_seconds" validate:"gte=0"`
	WriteTimeoutSeconds int `mapstructure:"write_timeout_seconds" validate:"gte=0"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path" validate:"required"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsStaging checks if the application is running in staging mode
func (c *Config) IsStaging() bool {
	return c.App.Environment == "staging"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
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

// CacheTTL returns the feature cache TTL. Zero means entries never expire.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Features.CacheTTLSeconds) * time.Second
}

// EstimatorTimeout returns the remote estimator request timeout.
func (c *Config) EstimatorTimeout() time.Duration {
	if c.Estimator.RequestTimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.Estimator.RequestTimeoutSeconds) * time.Second
}
