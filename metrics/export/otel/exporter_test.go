package otel

import (
	"context"
	"sync"
	"testing"

	goEstate "github.com/MrEthical07/goEstate"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type fakeSource struct {
	mu       sync.RWMutex
	snapshot goEstate.MetricsSnapshot
	dropped  uint64
}

func (f *fakeSource) MetricsSnapshot() goEstate.MetricsSnapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := goEstate.MetricsSnapshot{
		Counters:   make(map[goEstate.MetricID]uint64, len(f.snapshot.Counters)),
		Histograms: make(map[goEstate.MetricID][]uint64, len(f.snapshot.Histograms)),
	}
	for k, v := range f.snapshot.Counters {
		out.Counters[k] = v
	}
	for k, buckets := range f.snapshot.Histograms {
		next := make([]uint64, len(buckets))
		copy(next, buckets)
		out.Histograms[k] = next
	}
	return out
}

func (f *fakeSource) AuditDropped() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dropped
}

func TestExporterRegistersAndCollects(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := provider.Meter("goestate-test")

	src := &fakeSource{
		snapshot: goEstate.MetricsSnapshot{
			Counters: map[goEstate.MetricID]uint64{
				goEstate.MetricTxSubmitted: 3,
			},
			Histograms: map[goEstate.MetricID][]uint64{
				goEstate.MetricNodeCallLatency: {1, 1, 1, 1, 1, 1, 1, 1},
			},
		},
		dropped: 1,
	}

	exp, err := NewFromSource(meter, src)
	if err != nil {
		t.Fatalf("NewFromSource failed: %v", err)
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
	if len(rm.ScopeMetrics) == 0 {
		t.Fatal("expected collected metrics, got none")
	}
}

func TestExporterRejectsNilSource(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := provider.Meter("goestate-test")

	if _, err := NewFromSource(meter, nil); err == nil {
		t.Fatal("expected error for nil source")
	}
}

func TestExporterConcurrentCollectNoPanic(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := provider.Meter("goestate-test")

	src := &fakeSource{
		snapshot: goEstate.MetricsSnapshot{
			Counters: map[goEstate.MetricID]uint64{
				goEstate.MetricTxSubmitted: 1,
			},
			Histograms: map[goEstate.MetricID][]uint64{
				goEstate.MetricNodeCallLatency: {1, 0, 0, 0, 0, 0, 0, 0},
			},
		},
	}

	exp, err := NewFromSource(meter, src)
	if err != nil {
		t.Fatalf("NewFromSource failed: %v", err)
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
			src.snapshot.Counters[goEstate.MetricTxSubmitted] = v
			src.mu.Unlock()

			var rm metricdata.ResourceMetrics
			_ = reader.Collect(context.Background(), &rm)
		}(uint64(i + 1))
	}
	wg.Wait()
}

func TestExporterPublishesCounterValues(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := provider.Meter("goestate-test")

	src := &fakeSource{
		snapshot: goEstate.MetricsSnapshot{
			Counters: map[goEstate.MetricID]uint64{
				goEstate.MetricTxSubmitted: 3,
			},
			Histograms: map[goEstate.MetricID][]uint64{},
		},
		dropped: 4,
	}

	exp, err := NewFromSource(meter, src)
	if err != nil {
		t.Fatalf("NewFromSource failed: %v", err)
	}
	defer func() { _ = exp.Close() }()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	values := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok || len(sum.DataPoints) == 0 {
				continue
			}
			values[m.Name] = sum.DataPoints[0].Value
		}
	}

	if values["goestate_tx_submitted_total"] != 3 {
		t.Fatalf("expected tx counter 3, got %d", values["goestate_tx_submitted_total"])
	}
	if values["goestate_audit_dropped_total"] != 4 {
		t.Fatalf("expected audit dropped 4, got %d", values["goestate_audit_dropped_total"])
	}
}

func TestExporterPublishesOutcomesAndBucketsAsAttributes(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := provider.Meter("goestate-test")

	src := &fakeSource{
		snapshot: goEstate.MetricsSnapshot{
			Counters: map[goEstate.MetricID]uint64{
				goEstate.MetricTxSubmitted:      5,
				goEstate.MetricContractRejected: 2,
			},
			Histograms: map[goEstate.MetricID][]uint64{
				goEstate.MetricNodeCallLatency: {1, 2, 0, 0, 0, 0, 0, 3},
			},
		},
	}

	exp, err := NewFromSource(meter, src)
	if err != nil {
		t.Fatalf("NewFromSource failed: %v", err)
	}
	defer func() { _ = exp.Close() }()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	outcomes := make(map[string]int64)
	buckets := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				if m.Name != ContractOutcomesName {
					continue
				}
				for _, dp := range data.DataPoints {
					v, _ := dp.Attributes.Value("outcome")
					outcomes[v.AsString()] = dp.Value
				}
			case metricdata.Gauge[int64]:
				if m.Name != "goestate_node_call_latency_seconds_bucket" {
					continue
				}
				for _, dp := range data.DataPoints {
					v, _ := dp.Attributes.Value("le")
					buckets[v.AsString()] = dp.Value
				}
			}
		}
	}

	if len(outcomes) != len(contractOutcomes) {
		t.Fatalf("expected %d outcomes, got %v", len(contractOutcomes), outcomes)
	}
	if outcomes["tx_submitted"] != 5 || outcomes["contract_rejected"] != 2 || outcomes["node_failure"] != 0 {
		t.Fatalf("unexpected outcomes %v", outcomes)
	}
	if buckets["0.005"] != 1 || buckets["0.01"] != 3 || buckets["+Inf"] != 6 {
		t.Fatalf("unexpected cumulative buckets %v", buckets)
	}
}
