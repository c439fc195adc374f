package metrics

import (
	"github.com/marmos91/dittoexplorer/pkg/vfs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// modelMetrics is the Prometheus implementation of vfs.Metrics.
type modelMetrics struct {
	mutationsTotal *prometheus.CounterVec
	entities       prometheus.Gauge
}

// NewModelMetrics creates Prometheus-backed file-system model metrics.
//
// Returns nil if metrics are not enabled.
func NewModelMetrics() vfs.Metrics {
	if !IsEnabled() {
		return nil
	}

	reg := GetRegistry()

	return &modelMetrics{
		mutationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "model_mutations_total",
				Help:      "Total number of model operations by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		entities: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "model_entities",
				Help:      "Number of entities in the current snapshot",
			},
		),
	}
}

func (m *modelMetrics) RecordMutation(op, outcome string) {
	m.mutationsTotal.WithLabelValues(op, outcome).Inc()
}

func (m *modelMetrics) SetEntityCount(n int) {
	m.entities.Set(float64(n))
}
