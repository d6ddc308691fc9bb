package telemetry

import (
	"context"
	"time"
)

// NoOpProvider is a telemetry provider that does nothing. Used in tests and
// when telemetry is disabled.
type NoOpProvider struct{}

// NewNoOp creates a new no-op telemetry provider.
func NewNoOp() *NoOpProvider {
	return &NoOpProvider{}
}

func (n *NoOpProvider) RecordCacheHit(ctx context.Context, flagKey string)  {}
func (n *NoOpProvider) RecordCacheMiss(ctx context.Context, flagKey string) {}

func (n *NoOpProvider) RecordEvaluation(ctx context.Context, flagKey string, enabled bool, reason string, duration time.Duration) {
}

func (n *NoOpProvider) RecordMutation(ctx context.Context, flagKey string, operation string) {}

func (n *NoOpProvider) StartSpan(ctx context.Context, name string) (context.Context, func()) {
	return ctx, func() {}
}
