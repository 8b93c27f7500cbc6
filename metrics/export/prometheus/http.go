package prometheus

import (
	"net/http"
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics instruments an http.Handler with request count, latency and
// in-flight gauges labelled by method, route pattern and status.
type HTTPMetrics struct {
	inFlight prom.Gauge
	requests *prom.CounterVec
	duration *prom.HistogramVec
}

// NewHTTPMetrics builds the instruments. Register them with
// [HTTPMetrics.Collectors].
func NewHTTPMetrics() *HTTPMetrics {
	labels := []string{"method", "route", "status"}
	return &HTTPMetrics{
		inFlight: prom.NewGauge(prom.GaugeOpts{
			Name: "tenantauth_http_in_flight_requests",
			Help: "In-flight HTTP requests.",
		}),
		requests: prom.NewCounterVec(prom.CounterOpts{
			Name: "tenantauth_http_requests_total",
			Help: "HTTP requests by route and status.",
		}, labels),
		duration: prom.NewHistogramVec(prom.HistogramOpts{
			Name:    "tenantauth_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prom.DefBuckets,
		}, labels),
	}
}

// Collectors returns the instruments for registration.
func (m *HTTPMetrics) Collectors() []prom.Collector {
	return []prom.Collector{m.inFlight, m.requests, m.duration}
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// Instrument wraps a ServeMux. The route label is the matched pattern, which
// ServeMux sets on the request, so path parameters do not add series.
// Unmatched requests share the "unmatched" label.
func (m *HTTPMetrics) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.inFlight.Inc()
		defer m.inFlight.Dec()

		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(sw.code)
		m.duration.WithLabelValues(r.Method, route, status).Observe(time.Since(start).Seconds())
		m.requests.WithLabelValues(r.Method, route, status).Inc()
	})
}
