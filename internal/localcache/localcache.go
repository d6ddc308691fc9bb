// Package localcache is the SDK's per-process evaluation cache.
//
// Entries live for an independent TTL and are never invalidated by
// server-side writes; staleness up to the TTL is the accepted tradeoff for
// keeping hot-path evaluations off the network entirely.
package localcache

import (
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/OrlandoBitencourt/gonfalon/internal/domain"
)

// DefaultTTL is the local cache entry lifetime when none is configured.
const DefaultTTL = 60 * time.Second

// separator joins flag key and entity into the composite cache key.
const separator = "\x00"

type entry struct {
	result     domain.EvaluationResult
	insertedAt time.Time
	expiresAt  time.Time
}

// Stats mirrors the shared cache counter shape for the local cache.
type Stats struct {
	Size    int    `json:"size"`
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
	Expired uint64 `json:"expired"`
}

// Cache is a thread-safe map with lazy expiry: a lookup never returns a
// logically expired entry, even when physical cleanup lags behind.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	clock   clock.Clock

	hits    uint64
	misses  uint64
	expired uint64
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock injects the time source.
func WithClock(c clock.Clock) Option {
	return func(lc *Cache) {
		if c != nil {
			lc.clock = c
		}
	}
}

// New creates a local cache with the given TTL; ttl <= 0 uses DefaultTTL.
func New(ttl time.Duration, opts ...Option) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	lc := &Cache{
		entries: make(map[string]entry),
		ttl:     ttl,
		clock:   clock.New(),
	}
	for _, opt := range opts {
		opt(lc)
	}
	return lc
}

func compositeKey(flagKey, entityID string) string {
	return flagKey + separator + entityID
}

// Get returns the cached result for (flagKey, entityID) if a valid entry
// exists. Expired entries are removed on the way out.
func (c *Cache) Get(flagKey, entityID string) (*domain.EvaluationResult, bool) {
	key := compositeKey(flagKey, entityID)
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}
	if !now.Before(e.expiresAt) {
		delete(c.entries, key)
		c.expired++
		c.misses++
		return nil, false
	}

	c.hits++
	result := e.result
	return &result, true
}

// Set stores a result with a fresh TTL window.
func (c *Cache) Set(flagKey, entityID string, result domain.EvaluationResult) {
	key := compositeKey(flagKey, entityID)
	now := c.clock.Now()

	c.mu.Lock()
	c.entries[key] = entry{
		result:     result,
		insertedAt: now,
		expiresAt:  now.Add(c.ttl),
	}
	c.mu.Unlock()
}

// InvalidateFlag drops every entity's entry for one flag. Used by the SDK
// after its own mutations; server-side writes never reach here.
func (c *Cache) InvalidateFlag(flagKey string) {
	prefix := flagKey + separator

	c.mu.Lock()
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
	c.mu.Unlock()
}

// Clear removes all entries immediately. Counters are kept.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
}

// Sweep removes expired entries eagerly and returns how many were dropped.
func (c *Cache) Sweep() int {
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	dropped := 0
	for key, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, key)
			c.expired++
			dropped++
		}
	}
	return dropped
}

// Stats returns current size and cumulative counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Size:    len(c.entries),
		Hits:    c.hits,
		Misses:  c.misses,
		Expired: c.expired,
	}
}
