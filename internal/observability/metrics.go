package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records HTTP traffic for the /metrics endpoint.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	errors   *prometheus.CounterVec
}

// NewMetrics registers the HTTP collectors on the provided registerer. A nil
// registerer yields a no-op recorder.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return &Metrics{}
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests by route, method and status.",
	}, []string{"path", "method", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"path", "method"})
	errors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_errors_total",
		Help: "HTTP error responses by route, method and error code.",
	}, []string{"path", "method", "code"})
	reg.MustRegister(requests, duration, errors)
	return &Metrics{requests: requests, duration: duration, errors: errors}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil || m.requests == nil {
		return
	}
	path = normalizePath(path)
	m.requests.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(path, method).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil || m.errors == nil {
		return
	}
	m.errors.WithLabelValues(normalizePath(path), method, code).Inc()
}

func normalizePath(path string) string {
	if path == "" {
		return "unmatched"
	}
	return path
}
