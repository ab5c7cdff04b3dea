// internal/config/config.go
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	LogLevel             string        `mapstructure:"LOG_LEVEL"`
	DBURL                string        `mapstructure:"DB_URL"`
	HTTPAddr             string        `mapstructure:"HTTP_ADDR"`
	GithubAPIURL         string        `mapstructure:"GITHUB_API_URL"`
	MigrationsPath       string        `mapstructure:"MIGRATIONS_PATH"`
	SyncDays             int           `mapstructure:"SYNC_DAYS"`
	SyncInterval         time.Duration `mapstructure:"SYNC_INTERVAL"`
	SyncConcurrency      int           `mapstructure:"SYNC_CONCURRENCY"`
	SyncThrottle         time.Duration `mapstructure:"SYNC_THROTTLE"`
	CacheTTL             time.Duration `mapstructure:"CACHE_TTL"`
	CacheCleanupInterval time.Duration `mapstructure:"CACHE_CLEANUP_INTERVAL"`
}

// LoadConfig reads configuration from file and/or environment variables.
func LoadConfig() (*Config, error) {
	v := viper.New()

	// Set default values
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("GITHUB_API_URL", "")
	v.SetDefault("MIGRATIONS_PATH", "file://migrations")
	v.SetDefault("SYNC_DAYS", 30)
	v.SetDefault("SYNC_INTERVAL", "0s")
	v.SetDefault("SYNC_CONCURRENCY", 5)
	v.SetDefault("SYNC_THROTTLE", "100ms")
	v.SetDefault("CACHE_TTL", "5m")
	v.SetDefault("CACHE_CLEANUP_INTERVAL", "10m")
	v.SetDefault("DB_URL", "")

	// Load from .env file if it exists
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // Ignore error if file not found

	// Bind environment variables
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	if c.DBURL == "" {
		return errors.New("DB_URL is a required configuration field")
	}
	if c.SyncDays <= 0 {
		return errors.New("SYNC_DAYS must be a positive number of days")
	}
	if c.SyncInterval < 0 {
		return errors.New("SYNC_INTERVAL must not be negative")
	}
	if c.SyncConcurrency <= 0 {
		return errors.New("SYNC_CONCURRENCY must be at least 1")
	}
	if c.CacheTTL <= 0 {
		return errors.New("CACHE_TTL must be positive")
	}
	return nil
}
