package cache

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto"

	"github.com/OrlandoBitencourt/gonfalon/internal/domain"
)

// Ristretto is a FlagCache backend on top of dgraph-io/ristretto. Sets are
// buffered by ristretto and may be dropped under pressure, which reads as a
// miss and falls through to the store; deletes apply immediately, so the
// invalidation-before-ack contract holds.
type Ristretto struct {
	cache             *ristretto.Cache
	defaultTTL        time.Duration
	statsResetOnClear bool
}

// RistrettoConfig sizes the underlying cache.
type RistrettoConfig struct {
	NumCounters       int64
	MaxCost           int64
	BufferItems       int64
	DefaultTTL        time.Duration
	StatsResetOnClear bool
}

// DefaultRistrettoConfig returns the sizing used by the service by default.
func DefaultRistrettoConfig() RistrettoConfig {
	return RistrettoConfig{
		NumCounters: 1e6,
		MaxCost:     1 << 26, // 64MB
		BufferItems: 64,
		DefaultTTL:  DefaultTTL,
	}
}

// NewRistretto creates the ristretto-backed cache.
func NewRistretto(cfg RistrettoConfig) (*Ristretto, error) {
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = DefaultTTL
	}
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
		Metrics:     true,
	})
	if err != nil {
		return nil, err
	}
	return &Ristretto{
		cache:             c,
		defaultTTL:        cfg.DefaultTTL,
		statsResetOnClear: cfg.StatsResetOnClear,
	}, nil
}

// Get returns the cached flag or a NotFoundError on miss.
func (r *Ristretto) Get(ctx context.Context, key string) (*domain.Flag, error) {
	value, found := r.cache.Get(key)
	if !found {
		return nil, domain.NewNotFoundError("flag", key)
	}
	flag, ok := value.(domain.Flag)
	if !ok {
		return nil, domain.NewNotFoundError("flag", key)
	}
	return &flag, nil
}

// Put stores the flag with the given TTL. Each flag costs one unit.
func (r *Ristretto) Put(ctx context.Context, key string, flag domain.Flag, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = r.defaultTTL
	}
	r.cache.SetWithTTL(key, flag, 1, ttl)
	return nil
}

// Invalidate removes a single entry immediately.
func (r *Ristretto) Invalidate(ctx context.Context, key string) error {
	r.cache.Del(key)
	return nil
}

// Clear wipes all entries and, when configured, the metrics.
func (r *Ristretto) Clear(ctx context.Context) error {
	r.cache.Clear()
	if r.statsResetOnClear {
		r.cache.Metrics.Clear()
	}
	return nil
}

// Stats maps ristretto metrics onto the shared Stats shape. Size is
// approximated from keys added minus keys evicted; updates of an existing
// key count as adds, so treat it as an upper bound.
func (r *Ristretto) Stats() Stats {
	m := r.cache.Metrics
	hits := m.Hits()
	misses := m.Misses()

	size := int64(m.KeysAdded()) - int64(m.KeysEvicted())
	if size < 0 {
		size = 0
	}

	return Stats{
		Hits:      hits,
		Misses:    misses,
		Evictions: m.KeysEvicted(),
		Size:      size,
		HitRatio:  hitRatio(hits, misses),
	}
}

// Wait blocks until buffered sets are applied. Tests use it to make sets
// observable before asserting.
func (r *Ristretto) Wait() {
	r.cache.Wait()
}

// Close shuts the underlying cache down.
func (r *Ristretto) Close() error {
	r.cache.Close()
	return nil
}
