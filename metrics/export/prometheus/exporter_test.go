package prometheus

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	goEstate "github.com/MrEthical07/goEstate"
)

type fakeSource struct {
	snapshot goEstate.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() goEstate.MetricsSnapshot { return f.snapshot }
func (f fakeSource) AuditDropped() uint64                      { return f.dropped }

func TestRenderEmptyWhenMetricsDisabled(t *testing.T) {
	exp := NewFromSource(fakeSource{
		snapshot: goEstate.MetricsSnapshot{
			Counters:   map[goEstate.MetricID]uint64{},
			Histograms: map[goEstate.MetricID][]uint64{},
		},
	})

	if got := exp.Render(); got != "" {
		t.Fatalf("expected empty output for disabled metrics, got:\n%s", got)
	}
}

func TestRenderIncludesCounterAndHistogram(t *testing.T) {
	exp := NewFromSource(fakeSource{
		snapshot: goEstate.MetricsSnapshot{
			Counters: map[goEstate.MetricID]uint64{
				goEstate.MetricTxSubmitted: 7,
			},
			Histograms: map[goEstate.MetricID][]uint64{
				goEstate.MetricNodeCallLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
		dropped: 2,
	})

	out := exp.Render()
	for _, want := range []string{
		"goestate_tx_submitted_total 7",
		"goestate_login_success_total 0",
		`goestate_node_call_latency_seconds_bucket{le="0.005"} 1`,
		`goestate_node_call_latency_seconds_bucket{le="+Inf"} 36`,
		"goestate_node_call_latency_seconds_count 36",
		"goestate_audit_dropped_total 2",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got:\n%s", want, out)
		}
	}
}

func TestRenderSkipsDisabledHistogram(t *testing.T) {
	exp := NewFromSource(fakeSource{
		snapshot: goEstate.MetricsSnapshot{
			Counters:   map[goEstate.MetricID]uint64{goEstate.MetricLogout: 1},
			Histograms: map[goEstate.MetricID][]uint64{},
		},
	})

	if out := exp.Render(); strings.Contains(out, "latency") {
		t.Fatalf("histogram must be omitted when latency collection is off, got:\n%s", out)
	}
}

func TestHandlerWritesPrometheusContentType(t *testing.T) {
	exp := NewFromSource(fakeSource{
		snapshot: goEstate.MetricsSnapshot{
			Counters:   map[goEstate.MetricID]uint64{goEstate.MetricLoginSuccess: 1},
			Histograms: map[goEstate.MetricID][]uint64{},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	exp.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Content-Type"); !strings.Contains(got, "text/plain") {
		t.Fatalf("expected prometheus content type, got %q", got)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func BenchmarkRender(b *testing.B) {
	exp := NewFromSource(fakeSource{
		snapshot: goEstate.MetricsSnapshot{
			Counters: map[goEstate.MetricID]uint64{
				goEstate.MetricLoginSuccess:     1000,
				goEstate.MetricLoginFailure:     40,
				goEstate.MetricTxSubmitted:      800,
				goEstate.MetricContractRejected: 10,
				goEstate.MetricSessionCreated:   800,
			},
			Histograms: map[goEstate.MetricID][]uint64{
				goEstate.MetricNodeCallLatency: {10, 20, 30, 40, 50, 60, 70, 80},
			},
		},
	})

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = exp.Render()
	}
}
