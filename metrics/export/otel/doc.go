// Package otel publishes goEstate engine metrics through OpenTelemetry.
//
// [New] registers an Int64ObservableCounter per engine counter, a contract outcome
// counter carrying an outcome attribute, and per latency histogram a bucket gauge
// carrying an le attribute. The caller owns the MeterProvider and its readers; serve
// wires a periodic stdout reader.
package otel
