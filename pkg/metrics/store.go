package metrics

import (
	"time"

	"github.com/marmos91/dittoexplorer/pkg/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// storeMetrics is the Prometheus implementation of store.Metrics.
type storeMetrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	queueDepth        prometheus.Gauge
	droppedTotal      *prometheus.CounterVec
}

// NewStoreMetrics creates Prometheus-backed store metrics.
//
// Returns nil if metrics are not enabled, which makes the mirror and the
// metered backend use their no-op behaviour.
func NewStoreMetrics() store.Metrics {
	if !IsEnabled() {
		return nil
	}

	reg := GetRegistry()

	return &storeMetrics{
		operationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_operations_total",
				Help:      "Total number of entity store operations by backend, operation and status",
			},
			[]string{"backend", "operation", "status"},
		),
		operationDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "store_operation_duration_seconds",
				Help:      "Duration of entity store operations in seconds",
				Buckets: []float64{
					0.0005, // 500us
					0.001,  // 1ms
					0.005,  // 5ms
					0.025,  // 25ms
					0.1,    // 100ms
					0.5,    // 500ms
					2.5,    // 2.5s
					10.0,   // 10s
				},
			},
			[]string{"backend", "operation"},
		),
		queueDepth: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "store_mirror_queue_depth",
				Help:      "Number of writes waiting in the store mirror",
			},
		),
		droppedTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_mirror_dropped_total",
				Help:      "Total number of mirror writes that failed and were discarded",
			},
			[]string{"operation"},
		),
	}
}

func (m *storeMetrics) ObserveOperation(backend, op string, d time.Duration, err error) {
	m.operationsTotal.WithLabelValues(backend, op, status(err)).Inc()
	m.operationDuration.WithLabelValues(backend, op).Observe(d.Seconds())
}

func (m *storeMetrics) RecordQueueDepth(n int) {
	m.queueDepth.Set(float64(n))
}

func (m *storeMetrics) RecordDropped(op string) {
	m.droppedTotal.WithLabelValues(op).Inc()
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
