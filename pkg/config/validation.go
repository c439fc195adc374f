package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/marmos91/dittoexplorer/pkg/vfs"
	"golang.org/x/text/language"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate validates the configuration using struct tags and custom rules.
//
// Log level normalization is handled in ApplyDefaults, not here.
// Validation accepts both uppercase and lowercase log levels.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	if err := validateCustomRules(cfg); err != nil {
		return err
	}

	return nil
}

// validateCustomRules performs custom validation beyond struct tags.
func validateCustomRules(cfg *Config) error {
	if _, err := language.Parse(cfg.Explorer.Locale); err != nil {
		return fmt.Errorf("explorer.locale: invalid language tag %q: %w", cfg.Explorer.Locale, err)
	}

	switch cfg.Store.Type {
	case "badger":
		if inMemory, _ := cfg.Store.Badger["in_memory"].(bool); !inMemory {
			if path, _ := cfg.Store.Badger["db_path"].(string); path == "" {
				return fmt.Errorf("store.badger: db_path is required unless in_memory is set")
			}
		}
	case "s3":
		if bucket, _ := cfg.Store.S3["bucket"].(string); bucket == "" {
			return fmt.Errorf("store.s3: bucket is required")
		}
	case "postgres":
		if dsn, _ := cfg.Store.Postgres["dsn"].(string); dsn == "" {
			return fmt.Errorf("store.postgres: dsn is required")
		}
	}

	if cfg.Settings.Type == "file" && cfg.Settings.Path == "" {
		return fmt.Errorf("settings: path is required for the file store")
	}

	if cfg.Server.RateLimit.Enabled && cfg.Server.RateLimit.RequestsPerSecond == 0 {
		return fmt.Errorf("server.rate_limit: requests_per_second must be positive when enabled")
	}

	return nil
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		if len(validationErrs) > 0 {
			e := validationErrs[0]
			return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
				e.Namespace(), e.Tag(), e.Value())
		}
	}
	return err
}

// LocaleTag returns the parsed collation locale. Invalid tags fall back to
// English; Validate rejects them first.
func (c ExplorerConfig) LocaleTag() language.Tag {
	tag, err := language.Parse(c.Locale)
	if err != nil {
		return language.English
	}
	return tag
}

// Sort returns the initial listing order.
func (c ExplorerConfig) Sort() vfs.SortConfig {
	sort := vfs.DefaultSort
	if k, err := vfs.ParseSortKey(c.SortKey); err == nil {
		sort.Key = k
	}
	if d, err := vfs.ParseSortDirection(c.SortDirection); err == nil {
		sort.Direction = d
	}
	return sort
}
