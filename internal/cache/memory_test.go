package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OrlandoBitencourt/gonfalon/internal/domain"
)

func testFlag(key string) domain.Flag {
	return domain.Flag{
		Key:               key,
		Name:              "Flag " + key,
		Enabled:           true,
		RolloutPercentage: 50,
	}
}

func TestMemoryGetPut(t *testing.T) {
	m := NewMemory()
	defer m.Close()
	ctx := context.Background()

	require.NoError(t, m.Put(ctx, "checkout", testFlag("checkout"), time.Minute))

	got, err := m.Get(ctx, "checkout")
	require.NoError(t, err)
	assert.Equal(t, "checkout", got.Key)
	assert.Equal(t, 50.0, got.RolloutPercentage)
}

func TestMemoryMissIsNotFound(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_, err := m.Get(ctx, "absent")
	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))
}

func TestMemoryTTLExpiry(t *testing.T) {
	mock := clock.NewMock()
	m := NewMemory(WithClock(mock))
	ctx := context.Background()

	require.NoError(t, m.Put(ctx, "checkout", testFlag("checkout"), 300*time.Second))

	mock.Add(299 * time.Second)
	_, err := m.Get(ctx, "checkout")
	require.NoError(t, err)

	mock.Add(2 * time.Second)
	_, err = m.Get(ctx, "checkout")
	assert.True(t, domain.IsNotFound(err))

	stats := m.Stats()
	assert.Equal(t, uint64(1), stats.Evictions)
	assert.Equal(t, int64(0), stats.Size)
}

func TestMemoryExpiryIsPerEntry(t *testing.T) {
	mock := clock.NewMock()
	m := NewMemory(WithClock(mock))
	ctx := context.Background()

	require.NoError(t, m.Put(ctx, "short", testFlag("short"), 10*time.Second))
	mock.Add(5 * time.Second)
	require.NoError(t, m.Put(ctx, "long", testFlag("long"), 10*time.Second))

	mock.Add(6 * time.Second)

	_, err := m.Get(ctx, "short")
	assert.True(t, domain.IsNotFound(err))
	_, err = m.Get(ctx, "long")
	assert.NoError(t, err)
}

func TestMemoryPutRefreshesTTL(t *testing.T) {
	mock := clock.NewMock()
	m := NewMemory(WithClock(mock))
	ctx := context.Background()

	require.NoError(t, m.Put(ctx, "checkout", testFlag("checkout"), 10*time.Second))
	mock.Add(8 * time.Second)
	require.NoError(t, m.Put(ctx, "checkout", testFlag("checkout"), 10*time.Second))
	mock.Add(8 * time.Second)

	_, err := m.Get(ctx, "checkout")
	assert.NoError(t, err)
}

func TestMemoryDefaultTTL(t *testing.T) {
	mock := clock.NewMock()
	m := NewMemory(WithClock(mock), WithDefaultTTL(30*time.Second))
	ctx := context.Background()

	// Zero TTL on Put means "use the configured default".
	require.NoError(t, m.Put(ctx, "checkout", testFlag("checkout"), 0))

	mock.Add(29 * time.Second)
	_, err := m.Get(ctx, "checkout")
	require.NoError(t, err)

	mock.Add(2 * time.Second)
	_, err = m.Get(ctx, "checkout")
	assert.True(t, domain.IsNotFound(err))
}

func TestMemoryInvalidate(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Put(ctx, "checkout", testFlag("checkout"), time.Minute))
	require.NoError(t, m.Invalidate(ctx, "checkout"))

	_, err := m.Get(ctx, "checkout")
	assert.True(t, domain.IsNotFound(err))

	// Invalidating an absent key is not an error.
	assert.NoError(t, m.Invalidate(ctx, "absent"))
}

func TestMemoryClearKeepsCounters(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Put(ctx, "a", testFlag("a"), time.Minute))
	_, _ = m.Get(ctx, "a")
	_, _ = m.Get(ctx, "missing")

	require.NoError(t, m.Clear(ctx))

	stats := m.Stats()
	assert.Equal(t, int64(0), stats.Size)
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
}

func TestMemoryClearResetsCountersWhenConfigured(t *testing.T) {
	m := NewMemory(WithStatsResetOnClear(true))
	ctx := context.Background()

	require.NoError(t, m.Put(ctx, "a", testFlag("a"), time.Minute))
	_, _ = m.Get(ctx, "a")
	_, _ = m.Get(ctx, "missing")

	require.NoError(t, m.Clear(ctx))

	stats := m.Stats()
	assert.Equal(t, uint64(0), stats.Hits)
	assert.Equal(t, uint64(0), stats.Misses)
	assert.Equal(t, uint64(0), stats.Evictions)
}

func TestMemoryStatsHitRatio(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	// No lookups yet: ratio is zero, not NaN.
	assert.Equal(t, 0.0, m.Stats().HitRatio)

	require.NoError(t, m.Put(ctx, "a", testFlag("a"), time.Minute))
	_, _ = m.Get(ctx, "a")
	_, _ = m.Get(ctx, "a")
	_, _ = m.Get(ctx, "a")
	_, _ = m.Get(ctx, "missing")

	assert.InDelta(t, 0.75, m.Stats().HitRatio, 1e-9)
}

func TestMemoryConcurrentAccess(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("flag-%d", n%4)
			for j := 0; j < 200; j++ {
				_ = m.Put(ctx, key, testFlag(key), time.Minute)
				_, _ = m.Get(ctx, key)
				if j%50 == 0 {
					_ = m.Invalidate(ctx, key)
				}
			}
		}(i)
	}
	wg.Wait()

	stats := m.Stats()
	assert.LessOrEqual(t, stats.Size, int64(4))
}
