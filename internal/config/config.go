// Package config loads service configuration from the environment, with an
// optional .env file for development.
package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the service daemon settings.
type Config struct {
	Addr   string `env:"GONFALON_ADDR" envDefault:":8080"`
	APIKey string `env:"GONFALON_API_KEY"`

	// CacheBackend selects the shared cache: memory, ristretto or redis.
	CacheBackend string        `env:"GONFALON_CACHE_BACKEND" envDefault:"memory"`
	CacheTTL     time.Duration `env:"GONFALON_CACHE_TTL" envDefault:"300s"`
	RedisURL     string        `env:"GONFALON_REDIS_URL"`

	// BoltPath enables persistent flag and audit storage; empty keeps
	// everything in memory.
	BoltPath string `env:"GONFALON_BOLT_PATH"`

	LogLevel  string `env:"GONFALON_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"GONFALON_LOG_FORMAT" envDefault:"text"`

	ShutdownTimeout time.Duration `env:"GONFALON_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

var loadEnvOnce sync.Once

// Load parses the environment into a Config. A missing .env file is fine.
func Load() (Config, error) {
	loadEnvOnce.Do(func() {
		_ = godotenv.Load()
	})

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	switch c.CacheBackend {
	case "memory", "ristretto", "redis":
	default:
		return fmt.Errorf("unknown cache backend %q: must be memory, ristretto or redis", c.CacheBackend)
	}
	if c.CacheBackend == "redis" && c.RedisURL == "" {
		return fmt.Errorf("GONFALON_REDIS_URL is required with the redis cache backend")
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("cache TTL must be positive")
	}
	return nil
}
