// Package observe provides observability primitives for elephantmem:
// OpenTelemetry metrics and tracing, trace-aware structured logging, and
// HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API and exposed to
// Prometheus through the exporter bridge set up by [InitProvider]. Tests
// should build their own instance with [NewMetrics] and a
// [sdkmetric.ManualReader] instead of relying on [DefaultMetrics].
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all metrics.
const meterName = "github.com/MrWong99/elephantmem"

// Metrics holds the metric instruments of the application. All fields are
// safe for concurrent use.
type Metrics struct {
	meter metric.Meter

	// --- Histograms ---

	// IndexRebuildDuration tracks how long a full search index rebuild takes.
	IndexRebuildDuration metric.Float64Histogram

	// ExportDuration tracks JSON export latency.
	ExportDuration metric.Float64Histogram

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("route", ...), attribute.Int("status", ...)
	HTTPRequestDuration metric.Float64Histogram

	// --- Counters ---

	// SearchQueries counts index queries. Use with attribute:
	//   attribute.String("kind", ...)
	SearchQueries metric.Int64Counter

	// ExportErrors counts failed exports.
	ExportErrors metric.Int64Counter

	// ReclaimedEntries counts arena entries freed. Use with attributes:
	//   attribute.String("strategy", ...), attribute.String("kind", ...)
	ReclaimedEntries metric.Int64Counter

	// DatasetsGenerated counts datasets loaded into the store. Use with attribute:
	//   attribute.String("source", ...)
	DatasetsGenerated metric.Int64Counter
}

// durationBuckets defines histogram bucket boundaries (in seconds) for
// in-memory operations.
var durationBuckets = []float64{
	0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider].
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{meter: m}

	if met.IndexRebuildDuration, err = m.Float64Histogram("elephantmem.index.rebuild.duration",
		metric.WithDescription("Latency of a full search index rebuild."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ExportDuration, err = m.Float64Histogram("elephantmem.export.duration",
		metric.WithDescription("Latency of a JSON export."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBuckets...),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("elephantmem.http.request.duration",
		metric.WithDescription("HTTP request latency by method, route and status."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBuckets...),
	); err != nil {
		return nil, err
	}

	if met.SearchQueries, err = m.Int64Counter("elephantmem.search.queries",
		metric.WithDescription("Total search index queries by kind."),
	); err != nil {
		return nil, err
	}
	if met.ExportErrors, err = m.Int64Counter("elephantmem.export.errors",
		metric.WithDescription("Total failed exports."),
	); err != nil {
		return nil, err
	}
	if met.ReclaimedEntries, err = m.Int64Counter("elephantmem.arena.reclaimed",
		metric.WithDescription("Total arena entries reclaimed by strategy and kind."),
	); err != nil {
		return nil, err
	}
	if met.DatasetsGenerated, err = m.Int64Counter("elephantmem.datasets",
		metric.WithDescription("Total datasets loaded into the store by source."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Panics if instrument creation
// fails.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordSearch increments the query counter for kind. A nil receiver is a no-op.
func (m *Metrics) RecordSearch(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.SearchQueries.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// RecordIndexRebuild records the duration of one index rebuild in seconds.
// A nil receiver is a no-op.
func (m *Metrics) RecordIndexRebuild(ctx context.Context, seconds float64) {
	if m == nil {
		return
	}
	m.IndexRebuildDuration.Record(ctx, seconds)
}

// RecordExport records an export's duration and, when failed, an error.
func (m *Metrics) RecordExport(ctx context.Context, seconds float64, failed bool) {
	if m == nil {
		return
	}
	m.ExportDuration.Record(ctx, seconds)
	if failed {
		m.ExportErrors.Add(ctx, 1)
	}
}

// RecordReclaimed adds n freed entries of kind under strategy.
func (m *Metrics) RecordReclaimed(ctx context.Context, strategy, kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ReclaimedEntries.Add(ctx, int64(n),
		metric.WithAttributes(
			attribute.String("strategy", strategy),
			attribute.String("kind", kind),
		),
	)
}

// RecordDataset increments the dataset counter for source.
func (m *Metrics) RecordDataset(ctx context.Context, source string) {
	if m == nil {
		return
	}
	m.DatasetsGenerated.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
}

// ─────────────────────────────────────────────────────────────────────────────
// Observable gauges
// ─────────────────────────────────────────────────────────────────────────────

// GraphSample is a point-in-time view of the object graph, reported through
// the observable gauges registered by [Metrics.ObserveGraph].
type GraphSample struct {
	// Live maps an entity kind to the number of arena entries not yet reclaimed.
	Live map[string]int

	// Stored maps an entity kind to the number of entities registered in the store.
	Stored map[string]int

	CircularReferences int
	RSSBytes           uint64
}

// ObserveGraph registers observable gauges that call sample on every
// collection. The returned function unregisters them.
func (m *Metrics) ObserveGraph(sample func(context.Context) GraphSample) (unregister func() error, err error) {
	live, err := m.meter.Int64ObservableGauge("elephantmem.arena.live",
		metric.WithDescription("Arena entries not yet reclaimed, by kind."),
	)
	if err != nil {
		return nil, err
	}
	stored, err := m.meter.Int64ObservableGauge("elephantmem.store.entities",
		metric.WithDescription("Entities registered in the store, by kind."),
	)
	if err != nil {
		return nil, err
	}
	circular, err := m.meter.Int64ObservableGauge("elephantmem.store.circular_references",
		metric.WithDescription("Children edges plus herd pointers among stored elephants."),
	)
	if err != nil {
		return nil, err
	}
	rss, err := m.meter.Int64ObservableGauge("elephantmem.process.rss",
		metric.WithDescription("Resident set size of the process."),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	reg, err := m.meter.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
		s := sample(ctx)
		for kind, n := range s.Live {
			o.ObserveInt64(live, int64(n), metric.WithAttributes(attribute.String("kind", kind)))
		}
		for kind, n := range s.Stored {
			o.ObserveInt64(stored, int64(n), metric.WithAttributes(attribute.String("kind", kind)))
		}
		o.ObserveInt64(circular, int64(s.CircularReferences))
		o.ObserveInt64(rss, int64(s.RSSBytes))
		return nil
	}, live, stored, circular, rss)
	if err != nil {
		return nil, err
	}
	return reg.Unregister, nil
}
