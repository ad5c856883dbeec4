// Package prometheus renders goEstate engine metrics in Prometheus text exposition
// format. Counters are named goestate_*_total and node call latency is published as the
// goestate_node_call_latency_seconds histogram.
//
// The exporter owns no registry: callers mount [Exporter.Handler] on their router.
package prometheus
