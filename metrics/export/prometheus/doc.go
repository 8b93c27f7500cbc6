// Package prometheus exports tenantauth Engine metrics through
// prometheus/client_golang.
//
// [Collector] turns each scrape into const metrics built from
// [tenantauth.Engine.MetricsSnapshot]: counters named tenantauth_*_total and
// the tenantauth_validate_latency_seconds histogram. [HTTPMetrics] adds
// per-route request instrumentation for the HTTP service. Nothing is
// registered in the global registry; callers build one with [NewRegistry].
package prometheus
