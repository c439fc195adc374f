//go:build integration

package s3_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/marmos91/dittoexplorer/pkg/store"
	s3store "github.com/marmos91/dittoexplorer/pkg/store/s3"
	storetesting "github.com/marmos91/dittoexplorer/pkg/store/testing"
	"github.com/stretchr/testify/require"
)

// setupTestS3 creates an S3 client and a test bucket on Localstack (or any
// S3-compatible endpoint). The bucket is emptied and removed when the test
// ends.
func setupTestS3(t *testing.T, bucketName string) *s3.Client {
	t.Helper()
	ctx := context.Background()

	endpoint := os.Getenv("LOCALSTACK_ENDPOINT")
	if endpoint == "" {
		endpoint = "http://localhost:4566"
	}

	cfg, err := awsConfig.LoadDefaultConfig(ctx,
		awsConfig.WithRegion("us-east-1"),
		awsConfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("test", "test", "")),
	)
	require.NoError(t, err, "load AWS config")

	// Path-style URLs are required for Localstack
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	_, err = client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(bucketName)})
	require.NoError(t, err, "create test bucket")

	t.Cleanup(func() {
		listResp, _ := client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{Bucket: aws.String(bucketName)})
		if listResp != nil {
			for _, obj := range listResp.Contents {
				_, _ = client.DeleteObject(ctx, &s3.DeleteObjectInput{
					Bucket: aws.String(bucketName),
					Key:    obj.Key,
				})
			}
		}
		_, _ = client.DeleteBucket(ctx, &s3.DeleteBucketInput{Bucket: aws.String(bucketName)})
	})

	return client
}

// TestS3Backend_Integration runs the backend contract suite against S3.
//
// Prerequisites:
//   - Localstack running on localhost:4566 (or LOCALSTACK_ENDPOINT)
//   - Run with: go test -tags=integration ./test/integration/s3/...
//
// To start Localstack:
//
//	docker run --rm -p 4566:4566 localstack/localstack
func TestS3Backend_Integration(t *testing.T) {
	bucketName := fmt.Sprintf("dittoexplorer-test-%s", uuid.NewString()[:8])
	client := setupTestS3(t, bucketName)

	suite := &storetesting.StoreTestSuite{
		NewBackend: func(t *testing.T) store.Backend {
			// A fresh prefix per test keeps every backend empty
			b, err := s3store.NewS3Backend(context.Background(), s3store.Config{
				Client:    client,
				Bucket:    bucketName,
				KeyPrefix: uuid.NewString() + "/",
			})
			require.NoError(t, err)
			return b
		},
	}
	suite.Run(t)
}
