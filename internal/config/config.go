package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Storage backend names accepted by STORAGE_TYPE
const (
	StorageMemory = "memory"
	StorageSQLite = "sqlite"
)

// Config holds all configuration for the application
type Config struct {
	// Discord configuration
	Token string `env:"DISCORD_TOKEN"`

	// Storage
	StorageType string `env:"STORAGE_TYPE" envDefault:"memory"`
	DataDir     string `env:"DATA_DIR"`

	// ContextTTL is how long a sent message can be replied to and still
	// resolve to the game it showed.
	ContextTTL time.Duration `env:"CONTEXT_TTL" envDefault:"7200s"`
	// SweepInterval is how often expired contexts are dropped while idle
	SweepInterval time.Duration `env:"CONTEXT_SWEEP_INTERVAL" envDefault:"10m"`

	// Elasticsearch indexing of accepted games, disabled when URL is empty
	ElasticsearchURL      string `env:"ELASTICSEARCH_URL"`
	ElasticsearchUsername string `env:"ELASTICSEARCH_USERNAME"`
	ElasticsearchPassword string `env:"ELASTICSEARCH_PASSWORD"`
	ElasticsearchIndex    string `env:"ELASTICSEARCH_INDEX" envDefault:"scoreboard_games"`

	// Observability
	MetricsAddr string `env:"METRICS_ADDR" envDefault:":9090"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Environment
	Environment string `env:"ENVIRONMENT" envDefault:"development"` // "development" or "production"
}

// Load reads the configuration from the .env file, if any, and the
// process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// Only return error if file exists but couldn't be loaded
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	return FromEnv()
}

// FromEnv parses the configuration from the process environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("error parsing environment: %w", err)
	}

	if cfg.DataDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		cfg.DataDir = filepath.Join(wd, "data")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks values that every entrypoint depends on
func (c *Config) validate() error {
	if c.ContextTTL <= 0 {
		return fmt.Errorf("CONTEXT_TTL must be positive, got %s", c.ContextTTL)
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("CONTEXT_SWEEP_INTERVAL must be positive, got %s", c.SweepInterval)
	}
	switch c.StorageType {
	case StorageMemory, StorageSQLite:
	default:
		return fmt.Errorf("STORAGE_TYPE must be %q or %q, got %q", StorageMemory, StorageSQLite, c.StorageType)
	}
	return nil
}

// RequireToken checks the settings only the Discord bot needs
func (c *Config) RequireToken() error {
	if c.Token == "" {
		return fmt.Errorf("DISCORD_TOKEN is required")
	}
	return nil
}

// DatabasePath is the SQLite file used when StorageType is sqlite
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "scoreboard.db")
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
