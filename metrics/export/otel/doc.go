// Package otel exposes tenantauth Engine metrics as OpenTelemetry observable
// instruments.
//
// [NewExporter] registers one Int64ObservableCounter per Engine counter and,
// for the validation latency histogram, a bucket gauge with an "le"
// attribute plus a count gauge. One callback reads
// [tenantauth.Engine.MetricsSnapshot] per collection. Callers own the
// MeterProvider.
package otel
