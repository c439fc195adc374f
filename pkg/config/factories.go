package config

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/marmos91/dittoexplorer/internal/logger"
	"github.com/marmos91/dittoexplorer/pkg/settings"
	"github.com/marmos91/dittoexplorer/pkg/store"
	storeBadger "github.com/marmos91/dittoexplorer/pkg/store/badger"
	storeMemory "github.com/marmos91/dittoexplorer/pkg/store/memory"
	storePostgres "github.com/marmos91/dittoexplorer/pkg/store/postgres"
	storeS3 "github.com/marmos91/dittoexplorer/pkg/store/s3"
	"github.com/mitchellh/mapstructure"
)

// CreateEntityStore creates the entity store backend selected by cfg.Type.
//
// The type-specific section is decoded with mapstructure and passed to the
// backend constructor. When metrics is non-nil every backend call is
// recorded under the backend type.
//
// Supported types:
//   - "memory": Uses pkg/store/memory (nothing survives a restart)
//   - "badger": Uses pkg/store/badger (embedded BadgerDB)
//   - "s3": Uses pkg/store/s3 (Amazon S3 or compatible storage)
//   - "postgres": Uses pkg/store/postgres (PostgreSQL via lib/pq)
func CreateEntityStore(ctx context.Context, cfg *StoreConfig, metrics store.Metrics) (store.Backend, error) {
	var (
		backend store.Backend
		err     error
	)

	switch cfg.Type {
	case "memory":
		backend = storeMemory.NewMemoryBackend()
	case "badger":
		backend, err = createBadgerStore(ctx, cfg.Badger)
	case "s3":
		backend, err = createS3Store(ctx, cfg.S3)
	case "postgres":
		backend, err = createPostgresStore(ctx, cfg.Postgres)
	default:
		return nil, fmt.Errorf("unknown entity store type: %q", cfg.Type)
	}
	if err != nil {
		return nil, err
	}

	return store.NewMetered(cfg.Type, backend, metrics), nil
}

// decodeOptions decodes a store section, accepting duration strings.
func decodeOptions(options map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	return decoder.Decode(options)
}

// createBadgerStore creates a BadgerDB-backed entity store.
func createBadgerStore(ctx context.Context, options map[string]any) (store.Backend, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type BadgerStoreOptions struct {
		DBPath           string `mapstructure:"db_path"`
		InMemory         bool   `mapstructure:"in_memory"`
		BlockCacheSizeMB int64  `mapstructure:"block_cache_mb"`
		IndexCacheSizeMB int64  `mapstructure:"index_cache_mb"`
	}

	var opts BadgerStoreOptions
	if err := decodeOptions(options, &opts); err != nil {
		return nil, fmt.Errorf("failed to decode badger store options: %w", err)
	}

	if opts.DBPath == "" && !opts.InMemory {
		return nil, fmt.Errorf("badger store: db_path is required")
	}

	backend, err := storeBadger.NewBadgerBackend(ctx, storeBadger.Config{
		DBPath:           opts.DBPath,
		InMemory:         opts.InMemory,
		BlockCacheSizeMB: opts.BlockCacheSizeMB,
		IndexCacheSizeMB: opts.IndexCacheSizeMB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create badger store: %w", err)
	}

	return backend, nil
}

// createS3Store creates an S3-backed entity store.
func createS3Store(ctx context.Context, options map[string]any) (store.Backend, error) {
	type S3StoreOptions struct {
		Region          string `mapstructure:"region"`
		Bucket          string `mapstructure:"bucket"`
		KeyPrefix       string `mapstructure:"key_prefix"`
		Endpoint        string `mapstructure:"endpoint"`
		AccessKeyID     string `mapstructure:"access_key_id"`
		SecretAccessKey string `mapstructure:"secret_access_key"`
		MaxRetries      int    `mapstructure:"max_retries"`
	}

	var opts S3StoreOptions
	if err := decodeOptions(options, &opts); err != nil {
		return nil, fmt.Errorf("failed to decode S3 store options: %w", err)
	}

	if opts.Bucket == "" {
		return nil, fmt.Errorf("S3 store: bucket is required")
	}
	if opts.Region == "" {
		return nil, fmt.Errorf("S3 store: region is required")
	}

	client, err := newS3Client(ctx, opts.Region, opts.Endpoint, opts.AccessKeyID, opts.SecretAccessKey, opts.MaxRetries)
	if err != nil {
		return nil, err
	}

	backend, err := storeS3.NewS3Backend(ctx, storeS3.Config{
		Client:    client,
		Bucket:    opts.Bucket,
		KeyPrefix: opts.KeyPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 store: %w", err)
	}

	logger.Info("S3 entity store initialized: bucket=%s, region=%s, prefix=%s",
		opts.Bucket, opts.Region, opts.KeyPrefix)

	return backend, nil
}

// newS3Client builds an S3 client. A custom endpoint (Localstack, MinIO)
// switches to path-style addressing. Without static credentials the
// default AWS credential chain is used.
func newS3Client(ctx context.Context, region, endpoint, accessKey, secretKey string, maxRetries int) (*s3.Client, error) {
	configOptions := []func(*awsConfig.LoadOptions) error{
		awsConfig.WithRegion(region),
	}

	if accessKey != "" && secretKey != "" {
		credProvider := credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")
		configOptions = append(configOptions, awsConfig.WithCredentialsProvider(credProvider))
	}

	if maxRetries == 0 {
		maxRetries = 10
	}
	configOptions = append(configOptions, awsConfig.WithRetryer(func() aws.Retryer {
		return retry.NewStandard(func(o *retry.StandardOptions) {
			o.MaxAttempts = maxRetries
		})
	}))

	cfg, err := awsConfig.LoadDefaultConfig(ctx, configOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// createPostgresStore creates a PostgreSQL-backed entity store.
func createPostgresStore(ctx context.Context, options map[string]any) (store.Backend, error) {
	type PostgresStoreOptions struct {
		DSN             string        `mapstructure:"dsn"`
		MaxOpenConns    int           `mapstructure:"max_open_conns"`
		MaxIdleConns    int           `mapstructure:"max_idle_conns"`
		ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	}

	var opts PostgresStoreOptions
	if err := decodeOptions(options, &opts); err != nil {
		return nil, fmt.Errorf("failed to decode postgres store options: %w", err)
	}

	if opts.DSN == "" {
		return nil, fmt.Errorf("postgres store: dsn is required")
	}

	backend, err := storePostgres.NewPostgresBackend(ctx, storePostgres.Config{
		DSN:             opts.DSN,
		MaxOpenConns:    opts.MaxOpenConns,
		MaxIdleConns:    opts.MaxIdleConns,
		ConnMaxLifetime: opts.ConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres store: %w", err)
	}

	return backend, nil
}

// CreateSettingsStore creates the settings store selected by cfg.Type.
func CreateSettingsStore(cfg *SettingsConfig) (settings.Store, error) {
	switch cfg.Type {
	case "memory":
		return settings.NewMemoryStore(), nil
	case "file":
		if cfg.Path == "" {
			return nil, fmt.Errorf("file settings store: path is required")
		}
		return settings.NewFileStore(cfg.Path), nil
	default:
		return nil, fmt.Errorf("unknown settings store type: %q", cfg.Type)
	}
}
