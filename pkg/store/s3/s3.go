package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/marmos91/dittoexplorer/internal/logger"
	"github.com/marmos91/dittoexplorer/pkg/store"
)

// Client is the subset of the S3 API used by the backend.
// *s3.Client satisfies it.
type Client interface {
	s3.ListObjectsV2APIClient
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Backend implements store.Backend on Amazon S3 or S3-compatible storage.
//
// Key Design:
//   - One JSON object per entity: <keyPrefix><id>.json
//   - Loading lists the prefix with the ListObjectsV2 paginator and fetches
//     every object
//
// S3 has no multi-object transactions: a PutRecords batch is written object
// by object and stops at the first failure, leaving earlier objects written.
//
// Thread Safety:
// Safe for concurrent use. Concurrent writes to the same id are last-write-wins.
type S3Backend struct {
	client    Client
	bucket    string
	keyPrefix string
}

// Config contains configuration for the S3 backend.
type Config struct {
	// Client is the configured S3 client
	Client Client

	// Bucket is the S3 bucket name
	Bucket string

	// KeyPrefix is an optional prefix for all object keys
	// Example: "explorer/entities/" results in keys like "explorer/entities/root.json"
	KeyPrefix string
}

const objectSuffix = ".json"

// NewS3Backend verifies bucket access and returns a backend.
// The bucket must already exist.
func NewS3Backend(ctx context.Context, cfg Config) (*S3Backend, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if cfg.Client == nil {
		return nil, errors.New("S3 client is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("bucket name is required")
	}

	_, err := cfg.Client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(cfg.Bucket),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to access bucket %q: %w", cfg.Bucket, err)
	}

	return &S3Backend{
		client:    cfg.Client,
		bucket:    cfg.Bucket,
		keyPrefix: cfg.KeyPrefix,
	}, nil
}

func (b *S3Backend) objectKey(id string) string {
	return b.keyPrefix + id + objectSuffix
}

// PutRecords uploads one object per record.
func (b *S3Backend) PutRecords(ctx context.Context, records []store.Record) error {
	for _, r := range records {
		data, err := store.EncodeRecord(r)
		if err != nil {
			return err
		}
		_, err = b.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(b.bucket),
			Key:         aws.String(b.objectKey(r.ID)),
			Body:        bytes.NewReader(data),
			ContentType: aws.String("application/json"),
		})
		if err != nil {
			return fmt.Errorf("failed to put object for %s: %w", r.ID, err)
		}
	}
	return nil
}

// DeleteRecord deletes the entity object. S3 deletes are idempotent.
func (b *S3Backend) DeleteRecord(ctx context.Context, id string) error {
	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.objectKey(id)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object for %s: %w", id, err)
	}
	return nil
}

// LoadRecords lists the key prefix and fetches every entity object.
func (b *S3Backend) LoadRecords(ctx context.Context) ([]store.Record, error) {
	var records []store.Record

	paginator := s3.NewListObjectsV2Paginator(b.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(b.bucket),
		Prefix: aws.String(b.keyPrefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}

		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if !strings.HasSuffix(key, objectSuffix) {
				continue
			}
			data, err := b.getObject(ctx, key)
			if err != nil {
				return nil, err
			}
			r, err := store.DecodeRecord(data)
			if err != nil {
				logger.Warn("Skipping undecodable object %s: %v", key, err)
				continue
			}
			records = append(records, r)
		}
	}
	return records, nil
}

func (b *S3Backend) getObject(ctx context.Context, key string) ([]byte, error) {
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s: %w", key, err)
	}
	defer func() { _ = out.Body.Close() }()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", key, err)
	}
	return data, nil
}

// Close is a no-op; the S3 client holds no per-backend resources.
func (b *S3Backend) Close() error {
	return nil
}

var _ store.Backend = (*S3Backend)(nil)
