// ABOUTME: OpenTelemetry metrics for provider calls, implementing ai.Observer
// ABOUTME: Counts requests and errors by provider/op/kind, records latency, counts skipped stream fragments

package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/mauromedda/guesswho-go/pkg/ai"
)

const meterName = "github.com/mauromedda/guesswho-go"

var _ ai.Observer = (*Metrics)(nil)

// Metrics holds the instruments. Safe for concurrent use; the OTel types
// synchronise themselves.
type Metrics struct {
	// Requests counts completed calls by provider, model, op and status.
	Requests metric.Int64Counter

	// Errors counts failed calls by provider, op and error kind.
	Errors metric.Int64Counter

	// Duration records call latency in seconds by provider and op.
	Duration metric.Float64Histogram

	// SkippedFragments counts undecodable stream fragments by provider.
	SkippedFragments metric.Int64Counter
}

// latencyBuckets covers one-token probes through long streamed replies.
var latencyBuckets = []float64{
	0.1, 0.25, 0.5, 1, 2, 4, 8, 15, 30, 60,
}

// NewMetrics creates the instruments from mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.Requests, err = m.Int64Counter("guesswho.provider.requests",
		metric.WithDescription("Provider calls by provider, model, op, and status."),
	); err != nil {
		return nil, err
	}
	if met.Errors, err = m.Int64Counter("guesswho.provider.errors",
		metric.WithDescription("Failed provider calls by provider, op, and error kind."),
	); err != nil {
		return nil, err
	}
	if met.Duration, err = m.Float64Histogram("guesswho.provider.duration",
		metric.WithDescription("Latency of provider calls."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.SkippedFragments, err = m.Int64Counter("guesswho.stream.skipped_fragments",
		metric.WithDescription("Undecodable stream fragments skipped by provider."),
	); err != nil {
		return nil, err
	}
	return met, nil
}

// CallCompleted implements ai.Observer.
func (m *Metrics) CallCompleted(provider, model, op string, elapsed time.Duration, err error) {
	ctx := context.Background()

	status := "ok"
	if err != nil {
		status = "error"
		m.Errors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("op", op),
			attribute.String("kind", ai.KindOf(err).String()),
		))
	}
	m.Requests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("model", model),
		attribute.String("op", op),
		attribute.String("status", status),
	))
	m.Duration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("op", op),
	))
}

// FragmentSkipped implements ai.Observer.
func (m *Metrics) FragmentSkipped(provider string) {
	m.SkippedFragments.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("provider", provider)),
	)
}
