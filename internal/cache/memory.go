package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/OrlandoBitencourt/gonfalon/internal/domain"
)

// entry pairs a flag with its expiry window. An entry is valid iff
// now < expiresAt.
type entry struct {
	flag       domain.Flag
	insertedAt time.Time
	expiresAt  time.Time
}

// Memory is the in-process FlagCache backend: a map guarded by an RWMutex
// with lazy expiry on lookup. Reads share the lock; writes and invalidations
// are exclusive, so a reader never observes a half-written entry.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry

	clock             clock.Clock
	defaultTTL        time.Duration
	statsResetOnClear bool

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// MemoryOption configures a Memory cache.
type MemoryOption func(*Memory)

// WithClock injects the time source. Tests use a mock clock to pin TTL
// boundaries.
func WithClock(c clock.Clock) MemoryOption {
	return func(m *Memory) {
		m.clock = c
	}
}

// WithDefaultTTL overrides the TTL applied when Put receives a zero TTL.
func WithDefaultTTL(ttl time.Duration) MemoryOption {
	return func(m *Memory) {
		if ttl > 0 {
			m.defaultTTL = ttl
		}
	}
}

// WithStatsResetOnClear makes Clear reset the hit/miss/eviction counters as
// well as the entries. The default keeps counters across Clear.
func WithStatsResetOnClear(reset bool) MemoryOption {
	return func(m *Memory) {
		m.statsResetOnClear = reset
	}
}

// NewMemory creates the in-process cache backend.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		entries:    make(map[string]entry),
		clock:      clock.New(),
		defaultTTL: DefaultTTL,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns the cached flag or a NotFoundError. Expired entries are
// removed on the way out and counted as evictions.
func (m *Memory) Get(ctx context.Context, key string) (*domain.Flag, error) {
	now := m.clock.Now()

	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if ok && now.Before(e.expiresAt) {
		m.hits.Add(1)
		flag := e.flag
		return &flag, nil
	}

	if ok {
		// Expired: sweep it so size reflects live entries. Re-check under
		// the write lock since another goroutine may have replaced it.
		m.mu.Lock()
		if cur, still := m.entries[key]; still && !now.Before(cur.expiresAt) {
			delete(m.entries, key)
			m.evictions.Add(1)
		}
		m.mu.Unlock()
	}

	m.misses.Add(1)
	return nil, domain.NewNotFoundError("flag", key)
}

// Put stores a flag with an absolute expiry of now+ttl.
func (m *Memory) Put(ctx context.Context, key string, flag domain.Flag, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = m.defaultTTL
	}
	now := m.clock.Now()

	m.mu.Lock()
	m.entries[key] = entry{
		flag:       flag,
		insertedAt: now,
		expiresAt:  now.Add(ttl),
	}
	m.mu.Unlock()
	return nil
}

// Invalidate removes the entry for key.
func (m *Memory) Invalidate(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// Clear wipes all entries and, when configured, the counters.
func (m *Memory) Clear(ctx context.Context) error {
	m.mu.Lock()
	m.entries = make(map[string]entry)
	m.mu.Unlock()

	if m.statsResetOnClear {
		m.hits.Store(0)
		m.misses.Store(0)
		m.evictions.Store(0)
	}
	return nil
}

// Stats returns cumulative counters and the current live size.
func (m *Memory) Stats() Stats {
	m.mu.RLock()
	size := int64(len(m.entries))
	m.mu.RUnlock()

	hits := m.hits.Load()
	misses := m.misses.Load()
	return Stats{
		Hits:      hits,
		Misses:    misses,
		Evictions: m.evictions.Load(),
		Size:      size,
		HitRatio:  hitRatio(hits, misses),
	}
}

// Close is a no-op for the in-process backend.
func (m *Memory) Close() error {
	return nil
}
