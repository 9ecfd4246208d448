package prometheus

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrEthical07/payguard"
	"github.com/MrEthical07/payguard/metrics/export/internaldefs"
)

type fakeSource struct {
	snapshot payguard.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() payguard.MetricsSnapshot { return f.snapshot }
func (f fakeSource) AuditDropped() uint64                      { return f.dropped }

func TestCollectEmptyWhenMetricsDisabled(t *testing.T) {
	exp := NewExporterFromSource(fakeSource{
		snapshot: payguard.MetricsSnapshot{
			Counters:   map[payguard.MetricID]uint64{},
			Histograms: map[payguard.MetricID][]uint64{},
		},
	})

	assert.Zero(t, testutil.CollectAndCount(exp))
}

func TestCollectCountersAndHistogram(t *testing.T) {
	exp := NewExporterFromSource(fakeSource{
		snapshot: payguard.MetricsSnapshot{
			Counters: map[payguard.MetricID]uint64{
				payguard.MetricLoginSuccess:           7,
				payguard.MetricNavigationUnauthorized: 3,
			},
			Histograms: map[payguard.MetricID][]uint64{
				payguard.MetricLoginLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
		dropped: 2,
	})

	want := len(internaldefs.CounterDefs) + len(internaldefs.HistogramDefs) + 1
	assert.Equal(t, want, testutil.CollectAndCount(exp))

	expected := `
# HELP payguard_login_latency_seconds Login round-trip latency.
# TYPE payguard_login_latency_seconds histogram
payguard_login_latency_seconds_bucket{le="0.005"} 1
payguard_login_latency_seconds_bucket{le="0.01"} 3
payguard_login_latency_seconds_bucket{le="0.025"} 6
payguard_login_latency_seconds_bucket{le="0.05"} 10
payguard_login_latency_seconds_bucket{le="0.1"} 15
payguard_login_latency_seconds_bucket{le="0.25"} 21
payguard_login_latency_seconds_bucket{le="0.5"} 28
payguard_login_latency_seconds_bucket{le="+Inf"} 36
payguard_login_latency_seconds_sum 0
payguard_login_latency_seconds_count 36
# HELP payguard_login_success_total Logins that produced a stored session.
# TYPE payguard_login_success_total counter
payguard_login_success_total 7
# HELP payguard_navigation_unauthorized_total Navigations redirected to the unauthorized page.
# TYPE payguard_navigation_unauthorized_total counter
payguard_navigation_unauthorized_total 3
# HELP payguard_audit_dropped_total Dropped audit events due to dispatcher backpressure.
# TYPE payguard_audit_dropped_total counter
payguard_audit_dropped_total 2
`
	err := testutil.CollectAndCompare(exp, strings.NewReader(expected),
		"payguard_login_latency_seconds",
		"payguard_login_success_total",
		"payguard_navigation_unauthorized_total",
		"payguard_audit_dropped_total",
	)
	require.NoError(t, err)
}

func TestExporterRegistersCleanly(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(NewExporterFromSource(fakeSource{
		snapshot: payguard.MetricsSnapshot{Counters: map[payguard.MetricID]uint64{payguard.MetricLogout: 1}},
	})))
	_, err := reg.Gather()
	require.NoError(t, err)
}

func TestHandlerServesEngineMetrics(t *testing.T) {
	engine, err := payguard.New().WithLogOutput(io.Discard).Build()
	require.NoError(t, err)
	defer engine.Close()
	engine.Navigate(t.Context(), "/merchants")

	rec := httptest.NewRecorder()
	NewExporter(engine).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, rec.Body.String(), "payguard_navigation_login_redirect_total 1")
}
