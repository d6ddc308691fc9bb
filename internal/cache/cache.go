// Package cache holds the shared server-side flag cache.
//
// The cache sits between the evaluation path and the flag store: reads go
// through it with a TTL, and every successful flag mutation invalidates the
// corresponding entry synchronously, before the mutation is acknowledged.
// Three backends implement the same interface: an in-process map (default),
// Ristretto, and Redis.
package cache

import (
	"context"
	"time"

	"github.com/OrlandoBitencourt/gonfalon/internal/domain"
)

// DefaultTTL is the fallback entry lifetime when Put receives a zero TTL.
const DefaultTTL = 300 * time.Second

// FlagCache is the shared cache contract. A miss is reported as a
// domain.NotFoundError so callers use the same IsNotFound check as for the
// flag store.
type FlagCache interface {
	// Get returns the cached flag or a NotFoundError on miss. Expired
	// entries are logically absent even if still resident.
	Get(ctx context.Context, key string) (*domain.Flag, error)

	// Put stores a flag with the given TTL; ttl <= 0 uses DefaultTTL.
	Put(ctx context.Context, key string, flag domain.Flag, ttl time.Duration) error

	// Invalidate removes a single entry. A no-op when the key is absent.
	Invalidate(ctx context.Context, key string) error

	// Clear wipes all entries. Whether counters reset too is a per-backend
	// configuration choice (see WithStatsResetOnClear).
	Clear(ctx context.Context) error

	// Stats returns cumulative counters for the life of the process.
	Stats() Stats

	// Close releases backend resources.
	Close() error
}

// Stats are process-wide cache counters. They accumulate monotonically and
// reset only via Clear on a backend configured to reset them.
type Stats struct {
	Hits      uint64  `json:"hits"`
	Misses    uint64  `json:"misses"`
	Evictions uint64  `json:"evictions"`
	Size      int64   `json:"size"`
	HitRatio  float64 `json:"hit_ratio"`
}

// hitRatio is hits/(hits+misses), defined as 0 when no lookups occurred.
func hitRatio(hits, misses uint64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
