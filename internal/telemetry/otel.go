package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	meterName  = "gonfalon"
	tracerName = "gonfalon"
)

// OTelProvider implements Provider using OpenTelemetry.
type OTelProvider struct {
	tracer trace.Tracer
	meter  metric.Meter

	cacheHits          metric.Int64Counter
	cacheMisses        metric.Int64Counter
	evaluations        metric.Int64Counter
	evaluationDuration metric.Float64Histogram
	mutations          metric.Int64Counter
}

// NewOTel creates a provider bound to the global otel meter and tracer.
func NewOTel() (*OTelProvider, error) {
	p := &OTelProvider{
		tracer: otel.Tracer(tracerName),
		meter:  otel.Meter(meterName),
	}
	if err := p.initMetrics(); err != nil {
		return nil, err
	}
	return p, nil
}

func (o *OTelProvider) initMetrics() error {
	var err error

	o.cacheHits, err = o.meter.Int64Counter(
		"gonfalon.cache.hits",
		metric.WithDescription("Number of shared cache hits"),
	)
	if err != nil {
		return err
	}

	o.cacheMisses, err = o.meter.Int64Counter(
		"gonfalon.cache.misses",
		metric.WithDescription("Number of shared cache misses"),
	)
	if err != nil {
		return err
	}

	o.evaluations, err = o.meter.Int64Counter(
		"gonfalon.evaluations",
		metric.WithDescription("Number of flag evaluations"),
	)
	if err != nil {
		return err
	}

	o.evaluationDuration, err = o.meter.Float64Histogram(
		"gonfalon.evaluation.duration",
		metric.WithDescription("Duration of flag evaluations"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	o.mutations, err = o.meter.Int64Counter(
		"gonfalon.mutations",
		metric.WithDescription("Number of flag mutations"),
	)
	return err
}

func (o *OTelProvider) RecordCacheHit(ctx context.Context, flagKey string) {
	o.cacheHits.Add(ctx, 1, metric.WithAttributes(attribute.String("flag.key", flagKey)))
}

func (o *OTelProvider) RecordCacheMiss(ctx context.Context, flagKey string) {
	o.cacheMisses.Add(ctx, 1, metric.WithAttributes(attribute.String("flag.key", flagKey)))
}

func (o *OTelProvider) RecordEvaluation(ctx context.Context, flagKey string, enabled bool, reason string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("flag.key", flagKey),
		attribute.Bool("flag.enabled", enabled),
		attribute.String("flag.reason", reason),
	)
	o.evaluations.Add(ctx, 1, attrs)
	o.evaluationDuration.Record(ctx, float64(duration.Microseconds())/1000.0, attrs)
}

func (o *OTelProvider) RecordMutation(ctx context.Context, flagKey string, operation string) {
	o.mutations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("flag.key", flagKey),
		attribute.String("flag.operation", operation),
	))
}

func (o *OTelProvider) StartSpan(ctx context.Context, name string) (context.Context, func()) {
	ctx, span := o.tracer.Start(ctx, name)
	return ctx, func() { span.End() }
}
