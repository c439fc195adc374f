package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/marmos91/dittoexplorer/internal/logger"
	"github.com/marmos91/dittoexplorer/pkg/api"
	"github.com/marmos91/dittoexplorer/pkg/config"
	"github.com/marmos91/dittoexplorer/pkg/explorer"
	"github.com/marmos91/dittoexplorer/pkg/gc"
	"github.com/marmos91/dittoexplorer/pkg/media"
	"github.com/marmos91/dittoexplorer/pkg/server"
	"github.com/marmos91/dittoexplorer/pkg/settings"
	"github.com/marmos91/dittoexplorer/pkg/store"
	"github.com/marmos91/dittoexplorer/pkg/vfs"
)

func main() {
	configPath := flag.String("config", "", "Path to the configuration file (default: $XDG_CONFIG_HOME/dittoexplorer/config.yaml)")
	envFile := flag.String("env-file", ".env", "Optional dotenv file loaded before the configuration")
	initConfig := flag.Bool("init", false, "Write a default configuration file and exit")
	force := flag.Bool("force", false, "Overwrite an existing configuration file with -init")
	schemaPath := flag.String("schema", "", "Write the configuration JSON schema to this path (- for stdout) and exit")
	flag.Parse()

	if *initConfig {
		runInit(*configPath, *force)
		return
	}
	if *schemaPath != "" {
		runSchema(*schemaPath)
		return
	}

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("Failed to load %s: %v", *envFile, err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output); err != nil {
		log.Fatalf("Failed to configure logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Server error: %v", err)
		_ = logger.Sync()
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func runInit(path string, force bool) {
	if path == "" {
		written, err := config.InitConfig(force)
		if err != nil {
			log.Fatalf("Failed to write configuration: %v", err)
		}
		fmt.Printf("Configuration written to %s\n", written)
		return
	}
	if err := config.InitConfigToPath(path, force); err != nil {
		log.Fatalf("Failed to write configuration: %v", err)
	}
	fmt.Printf("Configuration written to %s\n", path)
}

func runSchema(path string) {
	data, err := config.Schema()
	if err != nil {
		log.Fatalf("Failed to generate schema: %v", err)
	}
	if path == "-" {
		fmt.Println(string(data))
		return
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		log.Fatalf("Failed to write schema: %v", err)
	}
	fmt.Printf("JSON schema written to %s\n", path)
}

func run(ctx context.Context, cfg *config.Config) error {
	fmt.Println("DittoExplorer - Virtual File Explorer")
	logger.Info("Log level set to: %s", cfg.Logging.Level)

	metricsResult := config.InitializeMetrics(cfg)

	backend, err := config.CreateEntityStore(ctx, &cfg.Store, metricsResult.StoreMetrics)
	if err != nil {
		return fmt.Errorf("failed to create entity store: %w", err)
	}
	logger.Info("Entity store: %s", cfg.Store.Type)

	registry := media.NewRegistry()
	adapter := store.NewAdapter(backend, registry)
	mirror := store.NewMirror(adapter, metricsResult.StoreMetrics)
	defer closeMirror(mirror, cfg.Server.ShutdownTimeout)

	model := vfs.Bootstrap(ctx, adapter,
		vfs.WithPersister(mirror),
		vfs.WithMedia(registry),
		vfs.WithMetrics(metricsResult.ModelMetrics),
		vfs.WithLocale(cfg.Explorer.LocaleTag()),
	)
	logger.Info("Model ready: %d entities", model.Len())

	collector := startCollector(ctx, backend, model, cfg.GC)
	defer stopCollector(collector, cfg.Server.ShutdownTimeout)

	settingsStore, err := config.CreateSettingsStore(&cfg.Settings)
	if err != nil {
		return fmt.Errorf("failed to create settings store: %w", err)
	}
	appSettings, err := settings.Load(ctx, settingsStore)
	if err != nil {
		logger.Warn("Failed to load settings, using defaults: %v", err)
		appSettings = settings.Default()
	}

	session := explorer.New(model,
		explorer.WithSettings(appSettings, settingsStore),
		explorer.WithSort(cfg.Explorer.Sort()),
	)
	logger.Info("Explorer session %s started", session.ID())

	apiServer := api.New(session, api.Config{
		Address:        cfg.Server.Address,
		Mode:           cfg.Server.Mode,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		RateLimit: api.RateLimit{
			Enabled:           cfg.Server.RateLimit.Enabled,
			RequestsPerSecond: uint(cfg.Server.RateLimit.RequestsPerSecond),
			Burst:             uint(cfg.Server.RateLimit.Burst),
		},
		ServeMetrics: cfg.Metrics.Enabled && metricsResult.Server == nil,
	}, metricsResult.HTTPMetrics)

	logServerConfig(cfg)

	runner := server.New(cfg.Server.ShutdownTimeout)
	if err := runner.Add(apiServer); err != nil {
		return err
	}
	if metricsResult.Server != nil {
		if err := runner.Add(metricsResult.Server); err != nil {
			return err
		}
	}

	logger.Info("Server is running on %s. Press Ctrl+C to stop.", cfg.Server.Address)
	return runner.Serve(ctx)
}

func startCollector(ctx context.Context, backend store.Backend, model *vfs.Model, cfg config.GCConfig) *gc.Collector {
	collector := gc.NewCollector(backend, model, gc.Config{
		Enabled:   cfg.Enabled,
		Interval:  cfg.Interval,
		BatchSize: cfg.BatchSize,
		DryRun:    cfg.DryRun,
	})

	if cfg.RunOnStart {
		stats, err := collector.RunNow(ctx)
		if err != nil {
			logger.Warn("Startup garbage collection failed: %v", err)
		} else {
			logger.Info("Startup garbage collection: %s", stats.Summary())
		}
	}

	collector.Start()
	return collector
}

func stopCollector(collector *gc.Collector, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := collector.Stop(ctx); err != nil {
		logger.Warn("Garbage collector did not stop cleanly: %v", err)
	}
}

// closeMirror flushes pending writes and closes the store.
func closeMirror(mirror *store.Mirror, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if n := mirror.Pending(); n > 0 {
		logger.Info("Flushing %d pending store writes", n)
	}
	if err := mirror.Flush(ctx); err != nil {
		logger.Error("Failed to flush store writes: %v", err)
	}
	if err := mirror.Close(); err != nil {
		logger.Error("Failed to close entity store: %v", err)
	}
}

func logServerConfig(cfg *config.Config) {
	logger.Info("Server configuration:")
	logger.Info("  Address: %s", cfg.Server.Address)
	logger.Info("  Read timeout: %v", cfg.Server.ReadTimeout)
	logger.Info("  Write timeout: %v", cfg.Server.WriteTimeout)
	logger.Info("  Shutdown timeout: %v", cfg.Server.ShutdownTimeout)
	if cfg.Server.RateLimit.Enabled {
		logger.Info("  Rate limit: %d req/s per client", cfg.Server.RateLimit.RequestsPerSecond)
	} else {
		logger.Info("  Rate limit: disabled")
	}
	switch {
	case !cfg.Metrics.Enabled:
		logger.Info("  Metrics: disabled")
	case cfg.Metrics.Port == 0:
		logger.Info("  Metrics: %s/metrics", cfg.Server.Address)
	default:
		logger.Info("  Metrics: :%d/metrics", cfg.Metrics.Port)
	}
	logger.Info("  Locale: %s, sort: %s %s", cfg.Explorer.Locale, cfg.Explorer.SortKey, cfg.Explorer.SortDirection)
}
