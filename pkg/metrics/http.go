package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTPMetrics provides observability for the API server.
//
// A nil HTTPMetrics is never passed around: NewHTTPMetrics returns the no-op
// implementation when metrics are disabled.
type HTTPMetrics interface {
	// RecordRequest records a completed request.
	//
	// Parameters:
	//   - method: HTTP method
	//   - route: matched route template (e.g. "/api/v1/entities/:id")
	//   - status: response status code
	//   - duration: time taken to serve the request
	RecordRequest(method, route string, status int, duration time.Duration)

	// RecordRequestStart increments the in-flight gauge for route.
	RecordRequestStart(route string)

	// RecordRequestEnd decrements the in-flight gauge for route.
	RecordRequestEnd(route string)

	// RecordRateLimited counts a request rejected by the rate limiter.
	RecordRateLimited()

	// RecordUploadBytes counts bytes received through uploads.
	RecordUploadBytes(n int64)
}

// httpMetrics is the Prometheus implementation of HTTPMetrics.
type httpMetrics struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight *prometheus.GaugeVec
	rateLimited      prometheus.Counter
	uploadBytes      prometheus.Counter
}

// NewHTTPMetrics creates Prometheus-backed API metrics, or a no-op
// implementation if metrics are not enabled.
func NewHTTPMetrics() HTTPMetrics {
	if !IsEnabled() {
		return NewNoopHTTPMetrics()
	}

	reg := GetRegistry()

	return &httpMetrics{
		requestsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of API requests by method, route and status code",
			},
			[]string{"method", "route", "code"},
		),
		requestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_milliseconds",
				Help:      "Duration of API requests in milliseconds",
				Buckets: []float64{
					1,     // 1ms
					10,    // 10ms
					100,   // 100ms
					1000,  // 1s
					10000, // 10s
				},
			},
			[]string{"method", "route"},
		),
		requestsInFlight: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Current number of API requests being served",
			},
			[]string{"route"},
		),
		rateLimited: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_rate_limited_total",
				Help:      "Total number of API requests rejected by the rate limiter",
			},
		),
		uploadBytes: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_upload_bytes_total",
				Help:      "Total bytes received through uploads",
			},
		),
	}
}

func (m *httpMetrics) RecordRequest(method, route string, status int, duration time.Duration) {
	m.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(float64(duration.Microseconds()) / 1000)
}

func (m *httpMetrics) RecordRequestStart(route string) {
	m.requestsInFlight.WithLabelValues(route).Inc()
}

func (m *httpMetrics) RecordRequestEnd(route string) {
	m.requestsInFlight.WithLabelValues(route).Dec()
}

func (m *httpMetrics) RecordRateLimited() {
	m.rateLimited.Inc()
}

func (m *httpMetrics) RecordUploadBytes(n int64) {
	m.uploadBytes.Add(float64(n))
}

// NewNoopHTTPMetrics returns an HTTPMetrics that discards everything.
func NewNoopHTTPMetrics() HTTPMetrics {
	return noopHTTPMetrics{}
}

// noopHTTPMetrics is a no-op implementation of HTTPMetrics.
type noopHTTPMetrics struct{}

func (noopHTTPMetrics) RecordRequest(string, string, int, time.Duration) {}
func (noopHTTPMetrics) RecordRequestStart(string)                        {}
func (noopHTTPMetrics) RecordRequestEnd(string)                          {}
func (noopHTTPMetrics) RecordRateLimited()                               {}
func (noopHTTPMetrics) RecordUploadBytes(int64)                          {}
