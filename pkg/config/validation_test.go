package config

import (
	"strings"
	"testing"
	"time"
)

func TestValidate_ValidConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	err := Validate(cfg)
	if err != nil {
		t.Errorf("Expected valid config to pass validation, got error: %v", err)
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Level = "INVALID"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for invalid log level")
	}
	if !strings.Contains(err.Error(), "oneof") {
		t.Errorf("Expected 'oneof' validation error, got: %v", err)
	}
}

func TestValidate_InvalidLogFormat(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Format = "xml"

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for invalid log format")
	}
}

func TestValidate_InvalidStoreType(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Store.Type = "mongodb"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for invalid store type")
	}
	if !strings.Contains(err.Error(), "Store.Type") {
		t.Errorf("Expected error to name Store.Type, got: %v", err)
	}
}

func TestValidate_InvalidSettingsType(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Settings.Type = "redis"

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for invalid settings type")
	}
}

func TestValidate_InvalidServerMode(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Server.Mode = "production"

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for invalid gin mode")
	}
}

func TestValidate_InvalidShutdownTimeout(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Server.ShutdownTimeout = 0

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for zero shutdown timeout")
	}
}

func TestValidate_NegativeTimeout(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Server.ReadTimeout = -1 * time.Second

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for negative read timeout")
	}
}

func TestValidate_InvalidMetricsPort(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Metrics.Port = 70000

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for metrics port out of range")
	}
}

func TestValidate_InvalidSort(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		direction string
	}{
		{"unknown key", "color", "asc"},
		{"unknown direction", "name", "sideways"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaultConfig()
			cfg.Explorer.SortKey = tt.key
			cfg.Explorer.SortDirection = tt.direction

			if err := Validate(cfg); err == nil {
				t.Fatal("Expected validation error for invalid sort")
			}
		})
	}
}

func TestValidate_InvalidLocale(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Explorer.Locale = "not a locale!"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for invalid locale")
	}
	if !strings.Contains(err.Error(), "explorer.locale") {
		t.Errorf("Expected explorer.locale error, got: %v", err)
	}
}

func TestValidate_StoreSections(t *testing.T) {
	tests := []struct {
		name    string
		store   StoreConfig
		wantErr string
	}{
		{
			name:    "badger without path",
			store:   StoreConfig{Type: "badger", Badger: map[string]any{}},
			wantErr: "db_path is required",
		},
		{
			name:  "badger in memory",
			store: StoreConfig{Type: "badger", Badger: map[string]any{"in_memory": true}},
		},
		{
			name:    "s3 without bucket",
			store:   StoreConfig{Type: "s3", S3: map[string]any{"region": "us-east-1"}},
			wantErr: "bucket is required",
		},
		{
			name:  "s3 with bucket",
			store: StoreConfig{Type: "s3", S3: map[string]any{"bucket": "explorer"}},
		},
		{
			name:    "postgres without dsn",
			store:   StoreConfig{Type: "postgres"},
			wantErr: "dsn is required",
		},
		{
			name:  "memory",
			store: StoreConfig{Type: "memory"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaultConfig()
			cfg.Store = tt.store

			err := Validate(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Expected valid store config, got: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidate_RateLimitEnabledWithoutRate(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Server.RateLimit.Enabled = true
	cfg.Server.RateLimit.RequestsPerSecond = 0

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for enabled rate limit without rate")
	}
}

func TestValidate_NegativeGCBatchSize(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.GC.BatchSize = -1

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for negative gc batch size")
	}
}

func TestValidate_LogLevelCaseInsensitive(t *testing.T) {
	for _, level := range []string{"debug", "INFO", "warn", "ERROR"} {
		cfg := GetDefaultConfig()
		cfg.Logging.Level = level

		if err := Validate(cfg); err != nil {
			t.Errorf("Expected level %q to be valid, got: %v", level, err)
		}
	}
}
