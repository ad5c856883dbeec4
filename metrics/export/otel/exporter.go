package otel

import (
	"context"
	"errors"
	"fmt"

	goEstate "github.com/MrEthical07/goEstate"
	"github.com/MrEthical07/goEstate/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

// ContractOutcomesName counts contract operations by how they ended.
const ContractOutcomesName = "goestate_contract_outcomes_total"

// contractOutcomes maps the engine counters that end a contract operation to the
// outcome attribute they are published under.
var contractOutcomes = []struct {
	id      goEstate.MetricID
	outcome string
}{
	{goEstate.MetricTxSubmitted, "tx_submitted"},
	{goEstate.MetricCallSuccess, "call_success"},
	{goEstate.MetricContractRejected, "contract_rejected"},
	{goEstate.MetricArgumentInvalid, "argument_invalid"},
	{goEstate.MetricNodeFailure, "node_failure"},
}

type metricsSource interface {
	MetricsSnapshot() goEstate.MetricsSnapshot
	AuditDropped() uint64
}

type observedCounter struct {
	id         goEstate.MetricID
	instrument metric.Int64ObservableCounter
}

// observedHistogram publishes one cumulative series per bucket, told apart by le.
type observedHistogram struct {
	id      goEstate.MetricID
	buckets metric.Int64ObservableGauge
	count   metric.Int64ObservableGauge
}

// Exporter publishes engine metrics as observable OpenTelemetry instruments. One
// callback snapshots the engine per collection cycle.
type Exporter struct {
	source       metricsSource
	registration metric.Registration
	counters     []observedCounter
	outcomes     metric.Int64ObservableCounter
	outcomeAttrs []metric.ObserveOption
	histograms   []observedHistogram
	bucketAttrs  []metric.ObserveOption
	auditDropped metric.Int64ObservableCounter
}

// New registers the engine's instruments on meter.
func New(meter metric.Meter, engine *goEstate.Engine) (*Exporter, error) {
	if engine == nil {
		return nil, ErrNilSource
	}
	return NewFromSource(meter, engine)
}

// NewFromSource registers instruments fed by source on meter.
func NewFromSource(meter metric.Meter, source metricsSource) (*Exporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	exporter := &Exporter{
		source:       source,
		counters:     make([]observedCounter, 0, len(internaldefs.CounterDefs)),
		outcomeAttrs: make([]metric.ObserveOption, len(contractOutcomes)),
		histograms:   make([]observedHistogram, 0, len(internaldefs.HistogramDefs)),
		bucketAttrs:  make([]metric.ObserveOption, len(internaldefs.HistogramBounds)),
	}
	for i, o := range contractOutcomes {
		exporter.outcomeAttrs[i] = metric.WithAttributes(attribute.String("outcome", o.outcome))
	}
	for i, le := range internaldefs.HistogramBounds {
		exporter.bucketAttrs[i] = metric.WithAttributes(attribute.String("le", le))
	}

	observables := make([]metric.Observable, 0, len(internaldefs.CounterDefs)+len(internaldefs.HistogramDefs)*2+2)

	for _, def := range internaldefs.CounterDefs {
		ins, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("create observable counter %s: %w", def.Name, err)
		}
		exporter.counters = append(exporter.counters, observedCounter{id: def.ID, instrument: ins})
		observables = append(observables, ins)
	}

	outcomes, err := meter.Int64ObservableCounter(ContractOutcomesName,
		metric.WithDescription("Contract operations by outcome."))
	if err != nil {
		return nil, fmt.Errorf("create contract outcome counter: %w", err)
	}
	exporter.outcomes = outcomes
	observables = append(observables, outcomes)

	for _, def := range internaldefs.HistogramDefs {
		bucketName := def.Name + "_bucket"
		buckets, err := meter.Int64ObservableGauge(bucketName,
			metric.WithDescription(def.Help+" Cumulative count per upper bound."))
		if err != nil {
			return nil, fmt.Errorf("create histogram bucket gauge %s: %w", bucketName, err)
		}
		countName := def.Name + "_count"
		count, err := meter.Int64ObservableGauge(countName, metric.WithDescription("Histogram total sample count."))
		if err != nil {
			return nil, fmt.Errorf("create histogram count gauge %s: %w", countName, err)
		}
		exporter.histograms = append(exporter.histograms, observedHistogram{id: def.ID, buckets: buckets, count: count})
		observables = append(observables, buckets, count)
	}

	auditDropped, err := meter.Int64ObservableCounter(
		internaldefs.AuditDroppedName,
		metric.WithDescription(internaldefs.AuditDroppedHelp),
	)
	if err != nil {
		return nil, fmt.Errorf("create audit dropped counter: %w", err)
	}
	exporter.auditDropped = auditDropped
	observables = append(observables, auditDropped)

	registration, err := meter.RegisterCallback(exporter.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}

	exporter.registration = registration
	return exporter, nil
}

func (e *Exporter) observe(_ context.Context, observer metric.Observer) error {
	snapshot := e.source.MetricsSnapshot()
	for _, c := range e.counters {
		observer.ObserveInt64(c.instrument, int64(snapshot.Counters[c.id]))
	}
	for i, o := range contractOutcomes {
		observer.ObserveInt64(e.outcomes, int64(snapshot.Counters[o.id]), e.outcomeAttrs[i])
	}
	for _, h := range e.histograms {
		raw, ok := snapshot.Histograms[h.id]
		if !ok {
			continue
		}
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(raw))
		for i := range cumulative {
			observer.ObserveInt64(h.buckets, int64(cumulative[i]), e.bucketAttrs[i])
		}
		observer.ObserveInt64(h.count, int64(cumulative[len(cumulative)-1]))
	}
	observer.ObserveInt64(e.auditDropped, int64(e.source.AuditDropped()))
	return nil
}

// Close unregisters the collection callback.
func (e *Exporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
