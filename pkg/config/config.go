package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete DittoExplorer configuration.
//
// This structure captures all configurable aspects of the explorer service:
//   - Logging configuration
//   - HTTP server settings
//   - Entity store selection and configuration (store-specific)
//   - Settings store selection
//   - Metrics exposition
//   - Explorer defaults (locale, sort order)
//
// Configuration sources (in order of precedence):
//  1. Environment variables (DITTOEXPLORER_*)
//  2. Configuration file (YAML or TOML)
//  3. Default values (lowest priority)
//
// Store Configuration Pattern:
// Each backend defines its own configuration type and the factory decodes
// the section matching the selected type (e.g., store.badger, store.s3).
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Server contains HTTP server settings
	Server ServerConfig `mapstructure:"server" yaml:"server"`

	// Store specifies the entity store type and type-specific configuration
	Store StoreConfig `mapstructure:"store" yaml:"store"`

	// Settings specifies where application settings are kept
	Settings SettingsConfig `mapstructure:"settings" yaml:"settings"`

	// Metrics controls Prometheus metrics exposition
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// Explorer contains defaults for new sessions
	Explorer ExplorerConfig `mapstructure:"explorer" yaml:"explorer"`

	// GC controls the entity store garbage collector
	GC GCConfig `mapstructure:"gc" yaml:"gc"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" yaml:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" yaml:"format" validate:"required,oneof=text json"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" yaml:"output" validate:"required"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	// Address is the listen address (e.g., ":8080")
	Address string `mapstructure:"address" yaml:"address" validate:"required"`

	// Mode is the gin mode
	// Valid values: debug, release, test
	Mode string `mapstructure:"mode" yaml:"mode" validate:"required,oneof=debug release test"`

	// ReadTimeout is the maximum duration for reading a request, body included
	ReadTimeout time.Duration `mapstructure:"read_timeout" yaml:"read_timeout" validate:"gte=0"`

	// WriteTimeout is the maximum duration before timing out a response write
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout" validate:"gte=0"`

	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" validate:"required,gt=0"`

	// MaxUploadBytes caps the size of a multipart upload request
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes" yaml:"max_upload_bytes" validate:"gt=0"`

	// RateLimit throttles API requests
	RateLimit RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit"`
}

// RateLimitConfig controls the API rate limiter.
type RateLimitConfig struct {
	// Enabled turns the limiter on
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// RequestsPerSecond is the sustained request rate
	RequestsPerSecond int `mapstructure:"requests_per_second" yaml:"requests_per_second" validate:"gte=0"`

	// Burst is the maximum burst size (0 = same as RequestsPerSecond)
	Burst int `mapstructure:"burst" yaml:"burst" validate:"gte=0"`
}

// StoreConfig specifies entity store configuration.
//
// The Type field determines which backend is used.
// Only the corresponding type-specific configuration section is used.
type StoreConfig struct {
	// Type specifies which backend to use
	// Valid values: memory, badger, s3, postgres
	Type string `mapstructure:"type" yaml:"type" validate:"required,oneof=memory badger s3 postgres"`

	// Memory contains memory-specific configuration
	// Only used when Type = "memory"
	Memory map[string]any `mapstructure:"memory" yaml:"memory,omitempty"`

	// Badger contains BadgerDB-specific configuration
	// Only used when Type = "badger"
	Badger map[string]any `mapstructure:"badger" yaml:"badger,omitempty"`

	// S3 contains S3-specific configuration
	// Only used when Type = "s3"
	S3 map[string]any `mapstructure:"s3" yaml:"s3,omitempty"`

	// Postgres contains PostgreSQL-specific configuration
	// Only used when Type = "postgres"
	Postgres map[string]any `mapstructure:"postgres" yaml:"postgres,omitempty"`
}

// SettingsConfig specifies the settings store.
type SettingsConfig struct {
	// Type specifies the settings store
	// Valid values: memory, file
	Type string `mapstructure:"type" yaml:"type" validate:"required,oneof=memory file"`

	// Path is the settings file (only used when Type = "file")
	Path string `mapstructure:"path" yaml:"path,omitempty"`
}

// MetricsConfig controls metrics exposition.
type MetricsConfig struct {
	// Enabled turns on Prometheus metrics collection
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port is the dedicated metrics listener port.
	// 0 serves /metrics from the API server instead.
	Port int `mapstructure:"port" yaml:"port" validate:"gte=0,lte=65535"`
}

// ExplorerConfig contains defaults applied to new sessions.
type ExplorerConfig struct {
	// Locale is the BCP 47 tag used to collate names (e.g., "en", "de")
	Locale string `mapstructure:"locale" yaml:"locale" validate:"required"`

	// SortKey is the initial sort key
	// Valid values: name, date, size, type
	SortKey string `mapstructure:"sort_key" yaml:"sort_key" validate:"required,oneof=name date size type"`

	// SortDirection is the initial sort direction
	// Valid values: asc, desc
	SortDirection string `mapstructure:"sort_direction" yaml:"sort_direction" validate:"required,oneof=asc desc"`
}

// GCConfig controls removal of orphaned store records.
type GCConfig struct {
	// Enabled turns on periodic collection
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Interval is how often collection runs
	Interval time.Duration `mapstructure:"interval" yaml:"interval" validate:"gte=0"`

	// BatchSize is the number of deletes between cancellation checks
	BatchSize int `mapstructure:"batch_size" yaml:"batch_size" validate:"gte=0"`

	// DryRun logs orphans without deleting them
	DryRun bool `mapstructure:"dry_run" yaml:"dry_run"`

	// RunOnStart performs one collection right after startup
	RunOnStart bool `mapstructure:"run_on_start" yaml:"run_on_start"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (DITTOEXPLORER_*)
//  2. Configuration file
//  3. Default values
//
// An empty configPath uses the default location. A missing file is not an
// error.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Example: DITTOEXPLORER_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("DITTOEXPLORER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only affects keys viper already knows about
	bindEnvKeys(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// $XDG_CONFIG_HOME/dittoexplorer/config.{yaml,toml}
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// bindEnvKeys registers the scalar keys so they can be set from the
// environment without a config file.
func bindEnvKeys(v *viper.Viper) {
	keys := []string{
		"logging.level", "logging.format", "logging.output",
		"server.address", "server.mode", "server.read_timeout", "server.write_timeout",
		"server.shutdown_timeout", "server.max_upload_bytes",
		"server.rate_limit.enabled", "server.rate_limit.requests_per_second", "server.rate_limit.burst",
		"store.type", "settings.type", "settings.path",
		"metrics.enabled", "metrics.port",
		"explorer.locale", "explorer.sort_key", "explorer.sort_direction",
	}
	for _, k := range keys {
		_ = v.BindEnv(k)
	}
}

// readConfigFile reads the configuration file if it exists.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		// An explicit path that does not exist is treated the same way
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to the
// current directory if the home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "dittoexplorer")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "dittoexplorer")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// ConfigExists checks if a config file exists at the default location.
func ConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path.
func GetConfigDir() string {
	return getConfigDir()
}
