// Package config loads runtime configuration from the environment.
package config

import (
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"

	"github.com/KirkDiggler/tta-core/internal/errors"
)

// Storage backend names accepted by TruthStore and GraphStore
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

// Config is the full runtime configuration. Every field has a default that
// works for local play against in-memory stores.
type Config struct {
	// TruthStore selects the entity/event store: memory or sqlite
	TruthStore string `env:"TTA_TRUTH_STORE" envDefault:"memory"`
	SQLitePath string `env:"TTA_SQLITE_PATH" envDefault:"tta.db"`

	// GraphStore selects the relationship store: memory or redis
	GraphStore string `env:"TTA_GRAPH_STORE" envDefault:"memory"`
	RedisAddr  string `env:"TTA_REDIS_ADDR" envDefault:"localhost:6379"`

	// GeminiAPIKey enables the live narrative client; empty falls back to
	// the static template client
	GeminiAPIKey string `env:"TTA_GEMINI_API_KEY"`
	GeminiModel  string `env:"TTA_GEMINI_MODEL" envDefault:"gemini-1.5-flash"`

	LogLevel  string `env:"TTA_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"TTA_LOG_FORMAT" envDefault:"text"`

	// DiceSeed pins the RNG for reproducible sessions; 0 uses crypto rand
	DiceSeed int64 `env:"TTA_DICE_SEED" envDefault:"0"`

	// HeroicCost selects what a heroic action spends: momentum or stress
	HeroicCost string `env:"TTA_HEROIC_COST" envDefault:"momentum"`
}

// Load reads configuration from the environment
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, "parsing environment")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enum-valued fields
func (c *Config) Validate() error {
	vb := errors.NewValidationBuilder()
	switch c.TruthStore {
	case StoreMemory, StoreSQLite:
	default:
		vb.Fieldf("TTA_TRUTH_STORE", "unknown store %q", c.TruthStore)
	}
	switch c.GraphStore {
	case StoreMemory, StoreRedis:
	default:
		vb.Fieldf("TTA_GRAPH_STORE", "unknown store %q", c.GraphStore)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		vb.Fieldf("TTA_LOG_LEVEL", "unknown level %q", c.LogLevel)
	}
	switch c.HeroicCost {
	case "momentum", "stress":
	default:
		vb.Fieldf("TTA_HEROIC_COST", "unknown cost %q", c.HeroicCost)
	}
	return vb.Build()
}

// SlogLevel maps the configured level to slog
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
