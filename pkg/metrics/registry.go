// Package metrics provides Prometheus metrics for the explorer components.
//
// All metrics are optional. Until InitRegistry is called every constructor
// returns nil (or a no-op), and the consuming packages fall back to their
// own no-op implementations.
//
// Usage:
//
//	metrics.InitRegistry()
//	mirror := store.NewMirror(adapter, metrics.NewStoreMetrics())
//	model := vfs.Bootstrap(ctx, adapter, vfs.WithMetrics(metrics.NewModelMetrics()))
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// namespace prefixes every metric name.
const namespace = "dittoexplorer"

var (
	// registry is written once by InitRegistry and read many times.
	registry     *prometheus.Registry
	registryOnce sync.Once
)

// InitRegistry initializes the global registry with the Go runtime and
// process collectors. Subsequent calls are ignored.
//
// Thread safety:
// sync.Once provides the memory barrier that makes the registry visible to
// later GetRegistry calls.
func InitRegistry() {
	registryOnce.Do(func() {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	})
}

// GetRegistry returns the global registry, or nil when metrics are disabled.
func GetRegistry() *prometheus.Registry {
	return registry
}

// IsEnabled reports whether InitRegistry has been called.
func IsEnabled() bool {
	return GetRegistry() != nil
}

// Handler returns the scrape handler for the global registry, or nil when
// metrics are disabled.
func Handler() http.Handler {
	if !IsEnabled() {
		return nil
	}
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{EnableOpenMetrics: true})
}
