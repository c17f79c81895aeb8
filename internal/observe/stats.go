// ABOUTME: In-process metrics collection for the CLI's -stats summary
// ABOUTME: Backs Metrics with an sdk/metric ManualReader and prints per-provider totals

package observe

import (
	"context"
	"fmt"
	"io"
	"sort"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// Stats is a Metrics instance whose data can be read back in-process.
type Stats struct {
	*Metrics

	reader   *sdkmetric.ManualReader
	provider *sdkmetric.MeterProvider
}

// ProviderTotals summarises one provider's recorded activity.
type ProviderTotals struct {
	Provider string
	Requests int64
	Errors   int64
	Skipped  int64
	Seconds  float64
}

// NewStats creates metrics backed by a private meter provider.
func NewStats() (*Stats, error) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewMetrics(mp)
	if err != nil {
		_ = mp.Shutdown(context.Background())
		return nil, fmt.Errorf("creating metrics: %w", err)
	}
	return &Stats{Metrics: m, reader: reader, provider: mp}, nil
}

// Totals collects the current values grouped by provider, sorted by name.
func (s *Stats) Totals(ctx context.Context) ([]ProviderTotals, error) {
	var rm metricdata.ResourceMetrics
	if err := s.reader.Collect(ctx, &rm); err != nil {
		return nil, fmt.Errorf("collecting metrics: %w", err)
	}

	byProvider := make(map[string]*ProviderTotals)
	get := func(name string) *ProviderTotals {
		pt, ok := byProvider[name]
		if !ok {
			pt = &ProviderTotals{Provider: name}
			byProvider[name] = pt
		}
		return pt
	}

	for _, sm := range rm.ScopeMetrics {
		for _, met := range sm.Metrics {
			switch data := met.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					v, _ := dp.Attributes.Value("provider")
					pt := get(v.AsString())
					switch met.Name {
					case "guesswho.provider.requests":
						pt.Requests += dp.Value
					case "guesswho.provider.errors":
						pt.Errors += dp.Value
					case "guesswho.stream.skipped_fragments":
						pt.Skipped += dp.Value
					}
				}
			case metricdata.Histogram[float64]:
				for _, dp := range data.DataPoints {
					v, _ := dp.Attributes.Value("provider")
					get(v.AsString()).Seconds += dp.Sum
				}
			}
		}
	}

	out := make([]ProviderTotals, 0, len(byProvider))
	for _, pt := range byProvider {
		out = append(out, *pt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Provider < out[j].Provider })
	return out, nil
}

// WriteSummary prints one line per provider.
func (s *Stats) WriteSummary(ctx context.Context, w io.Writer) error {
	totals, err := s.Totals(ctx)
	if err != nil {
		return err
	}
	for _, t := range totals {
		fmt.Fprintf(w, "%s: %d requests, %d errors, %d skipped fragments, %.2fs total\n",
			t.Provider, t.Requests, t.Errors, t.Skipped, t.Seconds)
	}
	return nil
}

// Shutdown releases the meter provider.
func (s *Stats) Shutdown(ctx context.Context) error {
	return s.provider.Shutdown(ctx)
}
