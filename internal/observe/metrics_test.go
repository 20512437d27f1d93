package observe

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// newTestMetrics returns a Metrics instance backed by a ManualReader for
// programmatic metric inspection.
func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

// collect gathers all metric data from the reader.
func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return rm
}

// findMetric searches for a metric by name across all scope metrics.
func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

// sumFor returns the value of the counter data point carrying attr.
func sumFor(t *testing.T, rm metricdata.ResourceMetrics, name string, attr attribute.KeyValue) int64 {
	t.Helper()
	met := findMetric(rm, name)
	if met == nil {
		t.Fatalf("metric %q not found", name)
	}
	sum, ok := met.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("metric %q is %T, want Sum[int64]", name, met.Data)
	}
	for _, dp := range sum.DataPoints {
		if v, ok := dp.Attributes.Value(attr.Key); ok && v.Emit() == attr.Value.Emit() {
			return dp.Value
		}
	}
	t.Fatalf("metric %q has no data point with %v", name, attr)
	return 0
}

func TestRecordSearch(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordSearch(ctx, "year")
	m.RecordSearch(ctx, "year")
	m.RecordSearch(ctx, "type")

	rm := collect(t, reader)
	if got := sumFor(t, rm, "elephantmem.search.queries", attribute.String("kind", "year")); got != 2 {
		t.Errorf("year queries = %d, want 2", got)
	}
	if got := sumFor(t, rm, "elephantmem.search.queries", attribute.String("kind", "type")); got != 1 {
		t.Errorf("type queries = %d, want 1", got)
	}
}

func TestRecordReclaimed_SkipsZero(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordReclaimed(ctx, "refcount", "event", 5)
	m.RecordReclaimed(ctx, "refcount", "elephant", 0)

	rm := collect(t, reader)
	if got := sumFor(t, rm, "elephantmem.arena.reclaimed", attribute.String("kind", "event")); got != 5 {
		t.Errorf("reclaimed events = %d, want 5", got)
	}
	sum := findMetric(rm, "elephantmem.arena.reclaimed").Data.(metricdata.Sum[int64])
	if len(sum.DataPoints) != 1 {
		t.Errorf("data points = %d, want 1", len(sum.DataPoints))
	}
}

func TestRecordExport(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordExport(ctx, 0.01, false)
	m.RecordExport(ctx, 0.02, true)

	rm := collect(t, reader)
	hist, ok := findMetric(rm, "elephantmem.export.duration").Data.(metricdata.Histogram[float64])
	if !ok || len(hist.DataPoints) != 1 || hist.DataPoints[0].Count != 2 {
		t.Errorf("export duration histogram: got %+v, want 2 samples", hist)
	}
	errs, ok := findMetric(rm, "elephantmem.export.errors").Data.(metricdata.Sum[int64])
	if !ok || len(errs.DataPoints) != 1 || errs.DataPoints[0].Value != 1 {
		t.Errorf("export errors: got %+v, want 1", errs)
	}
}

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	m.RecordSearch(ctx, "year")
	m.RecordIndexRebuild(ctx, 1)
	m.RecordExport(ctx, 1, true)
	m.RecordReclaimed(ctx, "cycle", "herd", 1)
	m.RecordDataset(ctx, "generator")
}

func TestObserveGraph(t *testing.T) {
	m, reader := newTestMetrics(t)

	calls := 0
	unregister, err := m.ObserveGraph(func(context.Context) GraphSample {
		calls++
		return GraphSample{
			Live:               map[string]int{"elephant": 12, "herd": 2},
			Stored:             map[string]int{"elephant": 10},
			CircularReferences: 7,
			RSSBytes:           4096,
		}
	})
	if err != nil {
		t.Fatalf("ObserveGraph: %v", err)
	}

	rm := collect(t, reader)
	if calls != 1 {
		t.Errorf("sample calls = %d, want 1", calls)
	}

	live, ok := findMetric(rm, "elephantmem.arena.live").Data.(metricdata.Gauge[int64])
	if !ok || len(live.DataPoints) != 2 {
		t.Fatalf("arena.live: got %+v, want 2 data points", live)
	}
	circ, ok := findMetric(rm, "elephantmem.store.circular_references").Data.(metricdata.Gauge[int64])
	if !ok || circ.DataPoints[0].Value != 7 {
		t.Errorf("circular_references: got %+v, want 7", circ)
	}

	if err := unregister(); err != nil {
		t.Fatalf("unregister: %v", err)
	}
	collect(t, reader)
	if calls != 1 {
		t.Errorf("sample called after unregister, calls = %d", calls)
	}
}
