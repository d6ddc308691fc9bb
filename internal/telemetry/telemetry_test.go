package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestNoOpProviderIsSafe(t *testing.T) {
	p := NewNoOp()
	ctx := context.Background()

	// Every method must be callable without setup or side effects.
	p.RecordCacheHit(ctx, "checkout")
	p.RecordCacheMiss(ctx, "checkout")
	p.RecordEvaluation(ctx, "checkout", true, "ROLLOUT_MATCH", time.Millisecond)
	p.RecordMutation(ctx, "checkout", "created")

	spanCtx, end := p.StartSpan(ctx, "flag.evaluate")
	assert.NotNil(t, spanCtx)
	end()
}

func TestOTelProviderRecords(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	prev := otel.GetMeterProvider()
	otel.SetMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
	t.Cleanup(func() { otel.SetMeterProvider(prev) })

	p, err := NewOTel()
	require.NoError(t, err)
	ctx := context.Background()

	p.RecordCacheHit(ctx, "checkout")
	p.RecordCacheHit(ctx, "checkout")
	p.RecordCacheMiss(ctx, "checkout")
	p.RecordEvaluation(ctx, "checkout", false, "ROLLOUT_MISS", 2*time.Millisecond)
	p.RecordMutation(ctx, "checkout", "deleted")

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	byName := make(map[string]metricdata.Metrics)
	for _, m := range rm.ScopeMetrics[0].Metrics {
		byName[m.Name] = m
	}

	hits, ok := byName["gonfalon.cache.hits"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, hits.DataPoints, 1)
	assert.Equal(t, int64(2), hits.DataPoints[0].Value)

	assert.Contains(t, byName, "gonfalon.cache.misses")
	assert.Contains(t, byName, "gonfalon.evaluations")
	assert.Contains(t, byName, "gonfalon.evaluation.duration")
	assert.Contains(t, byName, "gonfalon.mutations")

	spanCtx, end := p.StartSpan(ctx, "flag.evaluate")
	assert.NotNil(t, spanCtx)
	end()
}
