package otel

import (
	"context"
	"io"
	"sync"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/MrEthical07/payguard"
	"github.com/MrEthical07/payguard/guard"
	"github.com/MrEthical07/payguard/metrics/export/internaldefs"
)

type fakeSource struct {
	mu       sync.RWMutex
	snapshot payguard.MetricsSnapshot
	dropped  map[payguard.AuditKind]uint64
}

func (f *fakeSource) MetricsSnapshot() payguard.MetricsSnapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := payguard.MetricsSnapshot{
		Counters:   make(map[payguard.MetricID]uint64, len(f.snapshot.Counters)),
		Histograms: make(map[payguard.MetricID][]uint64, len(f.snapshot.Histograms)),
	}
	for k, v := range f.snapshot.Counters {
		out.Counters[k] = v
	}
	for k, buckets := range f.snapshot.Histograms {
		out.Histograms[k] = append([]uint64(nil), buckets...)
	}
	return out
}

func (f *fakeSource) AuditDroppedByKind() map[payguard.AuditKind]uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make(map[payguard.AuditKind]uint64, len(f.dropped))
	for k, v := range f.dropped {
		out[k] = v
	}
	return out
}

func newReader() (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	reader := sdkmetric.NewManualReader()
	return reader, sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
}

// pointValue finds the data point of name whose attribute key equals value.
// An empty key matches a point without attributes.
func pointValue(t *testing.T, rm metricdata.ResourceMetrics, name, key, value string) (int64, bool) {
	t.Helper()
	match := func(set attribute.Set) bool {
		if key == "" {
			return set.Len() == 0
		}
		v, ok := set.Value(attribute.Key(key))
		return ok && v.AsString() == value
	}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					if match(dp.Attributes) {
						return dp.Value, true
					}
				}
			case metricdata.Gauge[int64]:
				for _, dp := range data.DataPoints {
					if match(dp.Attributes) {
						return dp.Value, true
					}
				}
			}
		}
	}
	return 0, false
}

func TestExporterRegistersAndCollects(t *testing.T) {
	reader, provider := newReader()
	meter := provider.Meter("payguard-test")

	src := &fakeSource{
		snapshot: payguard.MetricsSnapshot{
			Counters: map[payguard.MetricID]uint64{
				payguard.MetricLoginSuccess:   3,
				payguard.MetricSessionRevoked: 2,
			},
			Histograms: map[payguard.MetricID][]uint64{
				payguard.MetricLoginLatency: {1, 1, 1, 1, 1, 1, 1, 1},
			},
		},
		dropped: map[payguard.AuditKind]uint64{payguard.AuditNavigationDenied: 1},
	}

	exp, err := NewExporterFromSource(meter, src)
	if err != nil {
		t.Fatalf("NewExporterFromSource failed: %v", err)
	}
	defer func() {
		if err := exp.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	checks := []struct {
		name, key, value string
		want             int64
	}{
		{"payguard.login", "outcome", "success", 3},
		{"payguard.login", "outcome", "failure", 0},
		{"payguard.session.revoked", "", "", 2},
		{"payguard.login.latency.count", "", "", 8},
		{"payguard.login.latency.bucket", "le", "0.025", 3},
		{"payguard.login.latency.bucket", "le", "+Inf", 8},
		{"payguard.audit.dropped", "kind", "navigation_denied", 1},
	}
	for _, c := range checks {
		v, ok := pointValue(t, rm, c.name, c.key, c.value)
		if !ok || v != c.want {
			t.Fatalf("%s{%s=%s}: expected %d, got %d (found=%v)", c.name, c.key, c.value, c.want, v, ok)
		}
	}
	if _, ok := pointValue(t, rm, "payguard.audit.dropped", "kind", "logout"); ok {
		t.Fatal("kinds without drops must not be reported")
	}
}

func TestFamiliesCoverEveryCounterOnce(t *testing.T) {
	seen := make(map[payguard.MetricID]int)
	for _, f := range families {
		for _, s := range f.series {
			seen[s.id]++
		}
	}
	for _, def := range internaldefs.CounterDefs {
		if seen[def.ID] != 1 {
			t.Fatalf("%s exported %d times", def.Name, seen[def.ID])
		}
		delete(seen, def.ID)
	}
	if len(seen) != 0 {
		t.Fatalf("families export unknown ids: %v", seen)
	}
}

func TestExporterRejectsNilInputs(t *testing.T) {
	_, provider := newReader()
	meter := provider.Meter("payguard-test")

	if _, err := NewExporterFromSource(meter, nil); err != ErrNilSource {
		t.Fatalf("expected ErrNilSource, got %v", err)
	}
	if _, err := NewExporterFromSource(nil, &fakeSource{}); err != ErrNilMeter {
		t.Fatalf("expected ErrNilMeter, got %v", err)
	}
	if _, err := NewExporter(meter, nil); err != ErrNilSource {
		t.Fatalf("expected ErrNilSource for nil engine, got %v", err)
	}
}

func TestExporterReadsEngine(t *testing.T) {
	reader, provider := newReader()

	engine, err := payguard.New().WithLogOutput(io.Discard).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer engine.Close()

	exp, err := NewExporter(provider.Meter("payguard-test"), engine)
	if err != nil {
		t.Fatalf("NewExporter failed: %v", err)
	}
	defer exp.Close()

	engine.Navigate(context.Background(), "/users")
	engine.Navigate(context.Background(), "/auth/login")

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if v, _ := pointValue(t, rm, "payguard.navigation", "decision", guard.RedirectLogin.String()); v != 1 {
		t.Fatalf("expected 1 login redirect, got %d", v)
	}
	if v, _ := pointValue(t, rm, "payguard.navigation", "decision", guard.Allow.String()); v != 1 {
		t.Fatalf("expected 1 allowed navigation, got %d", v)
	}
}

func TestExporterConcurrentCollectNoPanic(t *testing.T) {
	reader, provider := newReader()
	meter := provider.Meter("payguard-test")

	src := &fakeSource{
		snapshot: payguard.MetricsSnapshot{
			Counters: map[payguard.MetricID]uint64{
				payguard.MetricLoginSuccess: 1,
			},
			Histograms: map[payguard.MetricID][]uint64{
				payguard.MetricLoginLatency: {1, 0, 0, 0, 0, 0, 0, 0},
			},
		},
	}

	exp, err := NewExporterFromSource(meter, src)
	if err != nil {
		t.Fatalf("NewExporterFromSource failed: %v", err)
	}
	defer func() {
		if err := exp.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(v uint64) {
			defer wg.Done()
			src.mu.Lock()
			src.snapshot.Counters[payguard.MetricLoginSuccess] = v
			src.mu.Unlock()

			var rm metricdata.ResourceMetrics
			_ = reader.Collect(context.Background(), &rm)
		}(uint64(i + 1))
	}
	wg.Wait()
}
