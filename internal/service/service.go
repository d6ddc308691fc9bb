// Package service orchestrates flag management and evaluation. It owns the
// read path (shared cache in front of the store) and the mutation path
// (store write, synchronous cache invalidation, synchronous audit append).
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/OrlandoBitencourt/gonfalon/internal/audit"
	"github.com/OrlandoBitencourt/gonfalon/internal/cache"
	"github.com/OrlandoBitencourt/gonfalon/internal/domain"
	"github.com/OrlandoBitencourt/gonfalon/internal/evaluator"
	"github.com/OrlandoBitencourt/gonfalon/internal/store"
	"github.com/OrlandoBitencourt/gonfalon/internal/telemetry"
)

// Service wires the store, shared cache, evaluator and audit log together.
// It is created at startup and passed by handle; there are no package-level
// singletons.
type Service struct {
	store store.Store
	cache cache.FlagCache
	audit audit.Log
	eval  *evaluator.Evaluator
	tel   telemetry.Provider
	clock clock.Clock
	log   *slog.Logger

	cacheTTL time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithCacheTTL sets the TTL used when populating the shared cache.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

// WithTelemetry sets the telemetry provider.
func WithTelemetry(tel telemetry.Provider) Option {
	return func(s *Service) {
		if tel != nil {
			s.tel = tel
		}
	}
}

// WithClock injects the time source used for flag timestamps.
func WithClock(c clock.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// New creates a Service. The store, cache and audit log are required.
func New(st store.Store, fc cache.FlagCache, al audit.Log, opts ...Option) (*Service, error) {
	if st == nil {
		return nil, fmt.Errorf("store is required")
	}
	if fc == nil {
		return nil, fmt.Errorf("cache is required")
	}
	if al == nil {
		return nil, fmt.Errorf("audit log is required")
	}

	s := &Service{
		store:    st,
		cache:    fc,
		audit:    al,
		eval:     evaluator.New(),
		tel:      telemetry.NewNoOp(),
		clock:    clock.New(),
		log:      slog.Default(),
		cacheTTL: cache.DefaultTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// cachedFlag resolves a flag through the shared cache, loading from the
// store and populating the cache on miss.
func (s *Service) cachedFlag(ctx context.Context, key string) (*domain.Flag, error) {
	flag, err := s.cache.Get(ctx, key)
	if err == nil {
		s.tel.RecordCacheHit(ctx, key)
		return flag, nil
	}
	if !domain.IsNotFound(err) {
		// Degraded cache backend: fall through to the store rather than
		// failing reads.
		s.log.Warn("shared cache get failed", "flag", key, "error", err)
	}
	s.tel.RecordCacheMiss(ctx, key)

	flag, err = s.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Put(ctx, key, *flag, s.cacheTTL); err != nil {
		s.log.Warn("shared cache put failed", "flag", key, "error", err)
	}
	return flag, nil
}

// Evaluate resolves flag configuration and computes the outcome for one
// entity. An unknown flag surfaces a NotFoundError, never a default result.
func (s *Service) Evaluate(ctx context.Context, flagKey, entityID string) (*domain.EvaluationResult, error) {
	ctx, end := s.tel.StartSpan(ctx, "flag.evaluate")
	defer end()

	start := s.clock.Now()
	flag, err := s.cachedFlag(ctx, flagKey)
	if err != nil {
		return nil, err
	}

	result := s.eval.Evaluate(*flag, entityID)
	s.tel.RecordEvaluation(ctx, flagKey, result.Enabled, string(result.Reason), s.clock.Since(start))
	return &result, nil
}

// Outcome is one entry of a bulk evaluation: either a result or the error
// that key produced. Keys are evaluated independently; there is no
// atomicity across them.
type Outcome struct {
	Result *domain.EvaluationResult
	Err    error
}

// EvaluateAll applies Evaluate pointwise. Per-key failures (notably unknown
// flags) are carried as error markers inside the mapping; the call itself
// only fails on context cancellation.
func (s *Service) EvaluateAll(ctx context.Context, flagKeys []string, entityID string) (map[string]Outcome, error) {
	out := make(map[string]Outcome, len(flagKeys))
	for _, key := range flagKeys {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result, err := s.Evaluate(ctx, key, entityID)
		if err != nil {
			out[key] = Outcome{Err: err}
			continue
		}
		out[key] = Outcome{Result: result}
	}
	return out, nil
}

// GetFlag reads one flag through the shared cache.
func (s *Service) GetFlag(ctx context.Context, key string) (*domain.Flag, error) {
	return s.cachedFlag(ctx, key)
}

// ListFlags pages through all flags straight from the store; listing is an
// admin operation and bypasses the cache.
func (s *Service) ListFlags(ctx context.Context, skip, limit int) ([]domain.Flag, error) {
	if skip < 0 {
		skip = 0
	}
	if limit < 1 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}
	return s.store.List(ctx, skip, limit)
}

// CacheStats exposes the shared cache counters.
func (s *Service) CacheStats() cache.Stats {
	return s.cache.Stats()
}

// ClearCache wipes the shared cache.
func (s *Service) ClearCache(ctx context.Context) error {
	return s.cache.Clear(ctx)
}
