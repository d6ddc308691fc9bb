package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/OrlandoBitencourt/gonfalon/internal/domain"
)

// redisKeyPrefix namespaces flag entries so Clear can scan them without
// touching unrelated keys in a shared Redis.
const redisKeyPrefix = "flag:data:"

// Redis is a FlagCache backend on a Redis server, for deployments where
// several service instances must share one cache. TTL expiry is delegated
// to Redis; hit/miss counters are kept per process, matching the Stats
// lifecycle of the other backends.
type Redis struct {
	client            *redis.Client
	defaultTTL        time.Duration
	statsResetOnClear bool

	hits   atomic.Uint64
	misses atomic.Uint64
}

// RedisOption configures a Redis cache.
type RedisOption func(*Redis)

// WithRedisDefaultTTL overrides the TTL applied when Put receives a zero TTL.
func WithRedisDefaultTTL(ttl time.Duration) RedisOption {
	return func(r *Redis) {
		if ttl > 0 {
			r.defaultTTL = ttl
		}
	}
}

// WithRedisStatsResetOnClear makes Clear reset the per-process counters.
func WithRedisStatsResetOnClear(reset bool) RedisOption {
	return func(r *Redis) {
		r.statsResetOnClear = reset
	}
}

// NewRedis wraps an already-connected client.
func NewRedis(client *redis.Client, opts ...RedisOption) *Redis {
	r := &Redis{
		client:     client,
		defaultTTL: DefaultTTL,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func redisKey(key string) string {
	return redisKeyPrefix + key
}

// Get returns the cached flag or a NotFoundError on miss or on an untrusted
// payload. Redis-side failures surface as-is.
func (r *Redis) Get(ctx context.Context, key string) (*domain.Flag, error) {
	data, err := r.client.Get(ctx, redisKey(key)).Bytes()
	if err == redis.Nil {
		r.misses.Add(1)
		return nil, domain.NewNotFoundError("flag", key)
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}

	var flag domain.Flag
	if err := json.Unmarshal(data, &flag); err != nil {
		r.misses.Add(1)
		return nil, domain.NewNotFoundError("flag", key)
	}

	r.hits.Add(1)
	return &flag, nil
}

// Put stores the JSON-encoded flag with the given TTL.
func (r *Redis) Put(ctx context.Context, key string, flag domain.Flag, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = r.defaultTTL
	}
	data, err := json.Marshal(flag)
	if err != nil {
		return fmt.Errorf("marshal flag %s: %w", key, err)
	}
	if err := r.client.Set(ctx, redisKey(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Invalidate removes a single entry.
func (r *Redis) Invalidate(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, redisKey(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// Clear removes every namespaced entry via SCAN, then optionally resets the
// per-process counters.
func (r *Redis) Clear(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("redis clear: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis clear scan: %w", err)
	}

	if r.statsResetOnClear {
		r.hits.Store(0)
		r.misses.Store(0)
	}
	return nil
}

// Stats returns the per-process counters plus a live key count. The count
// does a SCAN and is intended for the admin stats endpoint, not hot paths.
func (r *Redis) Stats() Stats {
	hits := r.hits.Load()
	misses := r.misses.Load()

	var size int64
	iter := r.client.Scan(context.Background(), 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(context.Background()) {
		size++
	}

	return Stats{
		Hits:     hits,
		Misses:   misses,
		Size:     size,
		HitRatio: hitRatio(hits, misses),
	}
}

// Close closes the underlying client.
func (r *Redis) Close() error {
	return r.client.Close()
}
