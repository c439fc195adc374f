package config

import (
	"github.com/marmos91/dittoexplorer/pkg/metrics"
	"github.com/marmos91/dittoexplorer/pkg/store"
	"github.com/marmos91/dittoexplorer/pkg/vfs"
)

// MetricsResult contains all metrics-related components created from configuration.
type MetricsResult struct {
	// Server is the dedicated metrics listener (nil if disabled or served
	// from the API server)
	Server *metrics.Server

	// StoreMetrics records entity store calls (nil if disabled)
	StoreMetrics store.Metrics

	// ModelMetrics records model mutations (nil if disabled)
	ModelMetrics vfs.Metrics

	// HTTPMetrics records API requests (never nil, uses noop if disabled)
	HTTPMetrics metrics.HTTPMetrics
}

// InitializeMetrics creates and initializes all metrics components based on configuration.
//
// If metrics are enabled in the configuration:
//   - Initializes the global Prometheus registry
//   - Creates the metrics HTTP server when a dedicated port is set
//   - Creates Prometheus-backed metrics instances for all components
//
// If metrics are disabled every collector is nil or no-op.
func InitializeMetrics(cfg *Config) *MetricsResult {
	if !cfg.Metrics.Enabled {
		return &MetricsResult{
			HTTPMetrics: metrics.NewNoopHTTPMetrics(),
		}
	}

	metrics.InitRegistry()

	result := &MetricsResult{
		StoreMetrics: metrics.NewStoreMetrics(),
		ModelMetrics: metrics.NewModelMetrics(),
		HTTPMetrics:  metrics.NewHTTPMetrics(),
	}

	if cfg.Metrics.Port != 0 {
		result.Server = metrics.NewServer(metrics.ServerConfig{
			Port: cfg.Metrics.Port,
		})
	}

	return result
}
