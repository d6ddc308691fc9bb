// Package telemetry instruments flag evaluation and the shared cache.
package telemetry

import (
	"context"
	"time"
)

// Provider defines the interface for telemetry providers.
type Provider interface {
	// RecordCacheHit counts a shared-cache hit for a flag.
	RecordCacheHit(ctx context.Context, flagKey string)

	// RecordCacheMiss counts a shared-cache miss for a flag.
	RecordCacheMiss(ctx context.Context, flagKey string)

	// RecordEvaluation counts one evaluation with its outcome and latency.
	RecordEvaluation(ctx context.Context, flagKey string, enabled bool, reason string, duration time.Duration)

	// RecordMutation counts a flag create/update/delete.
	RecordMutation(ctx context.Context, flagKey string, operation string)

	// StartSpan opens a trace span; the returned func ends it.
	StartSpan(ctx context.Context, name string) (context.Context, func())
}
