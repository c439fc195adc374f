package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// This function is called after loading configuration from file and environment
// variables to fill in any missing values with sensible defaults.
//
// Default Strategy:
//   - Zero values (0, "", false, nil) are replaced with defaults
//   - Explicit values are preserved
//   - Backend-specific defaults are handled by the backends themselves
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyServerDefaults(&cfg.Server)
	applyStoreDefaults(&cfg.Store)
	applySettingsDefaults(&cfg.Settings)
	applyExplorerDefaults(&cfg.Explorer)
	applyGCDefaults(&cfg.GC)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applyServerDefaults sets HTTP server defaults.
func applyServerDefaults(cfg *ServerConfig) {
	if cfg.Address == "" {
		cfg.Address = ":8080"
	}
	if cfg.Mode == "" {
		cfg.Mode = "release"
	}
	cfg.Mode = strings.ToLower(cfg.Mode)

	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 5 * time.Minute
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 5 * time.Minute
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	if cfg.MaxUploadBytes == 0 {
		cfg.MaxUploadBytes = 512 << 20 // 512MB
	}

	if cfg.RateLimit.RequestsPerSecond == 0 {
		cfg.RateLimit.RequestsPerSecond = 100
	}
	// Burst 0 means "same as RequestsPerSecond"
}

// applyStoreDefaults sets entity store defaults.
func applyStoreDefaults(cfg *StoreConfig) {
	if cfg.Type == "" {
		cfg.Type = "badger"
	}
	cfg.Type = strings.ToLower(cfg.Type)

	if cfg.Memory == nil {
		cfg.Memory = make(map[string]any)
	}
	if cfg.Badger == nil {
		cfg.Badger = make(map[string]any)
	}

	// Applied regardless of type so generated config files show them
	if _, ok := cfg.Badger["db_path"]; !ok {
		cfg.Badger["db_path"] = filepath.Join(defaultDataDir(), "entities")
	}
}

// applySettingsDefaults sets settings store defaults.
func applySettingsDefaults(cfg *SettingsConfig) {
	if cfg.Type == "" {
		cfg.Type = "file"
	}
	cfg.Type = strings.ToLower(cfg.Type)

	if cfg.Path == "" {
		cfg.Path = filepath.Join(defaultDataDir(), "settings.yaml")
	}
}

// applyExplorerDefaults sets explorer defaults.
func applyExplorerDefaults(cfg *ExplorerConfig) {
	if cfg.Locale == "" {
		cfg.Locale = "en"
	}
	if cfg.SortKey == "" {
		cfg.SortKey = "name"
	}
	cfg.SortKey = strings.ToLower(cfg.SortKey)

	if cfg.SortDirection == "" {
		cfg.SortDirection = "asc"
	}
	cfg.SortDirection = strings.ToLower(cfg.SortDirection)
}

// applyGCDefaults sets garbage collector defaults.
func applyGCDefaults(cfg *GCConfig) {
	if cfg.Interval == 0 {
		cfg.Interval = time.Hour
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
}

// defaultDataDir returns $XDG_DATA_HOME/dittoexplorer, ~/.local/share/dittoexplorer,
// or ./data when the home directory is unknown.
func defaultDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "dittoexplorer")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "data"
	}
	return filepath.Join(home, ".local", "share", "dittoexplorer")
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for:
//   - Generating sample configuration files
//   - Testing
//   - Documentation
func GetDefaultConfig() *Config {
	cfg := &Config{
		Store: StoreConfig{
			Memory: make(map[string]any),
			Badger: make(map[string]any),
		},
	}

	ApplyDefaults(cfg)
	return cfg
}
