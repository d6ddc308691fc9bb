package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "memory", cfg.CacheBackend)
	assert.Equal(t, 300*time.Second, cfg.CacheTTL)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("GONFALON_ADDR", ":9090")
	t.Setenv("GONFALON_API_KEY", "secret")
	t.Setenv("GONFALON_CACHE_BACKEND", "ristretto")
	t.Setenv("GONFALON_CACHE_TTL", "120s")
	t.Setenv("GONFALON_LOG_FORMAT", "json")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "secret", cfg.APIKey)
	assert.Equal(t, "ristretto", cfg.CacheBackend)
	assert.Equal(t, 2*time.Minute, cfg.CacheTTL)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("GONFALON_CACHE_BACKEND", "memcached")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cache backend")
}

func TestLoadRedisRequiresURL(t *testing.T) {
	t.Setenv("GONFALON_CACHE_BACKEND", "redis")
	t.Setenv("GONFALON_REDIS_URL", "")

	_, err := Load()
	require.Error(t, err)

	t.Setenv("GONFALON_REDIS_URL", "redis://localhost:6379/0")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
}

func TestValidateCacheTTL(t *testing.T) {
	cfg := Config{CacheBackend: "memory", CacheTTL: 0}
	assert.Error(t, cfg.Validate())

	cfg.CacheTTL = time.Second
	assert.NoError(t, cfg.Validate())
}
