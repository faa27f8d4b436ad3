package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/kingdave4/Nba-Data-Lake/pkg/logger"
	"github.com/kingdave4/Nba-Data-Lake/pkg/metrics"

	"go.uber.org/zap"
)

// ObjectStore abstracts the object storage that backs the lake
type ObjectStore interface {
	// EnsureBucket makes sure the bucket exists and is usable
	EnsureBucket(ctx context.Context, bucket string) error

	// Put uploads a document to the bucket
	Put(ctx context.Context, bucket, key string, body []byte) error
}

// S3API is the subset of the S3 client the store uses
type S3API interface {
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Compile-time checks
var (
	_ S3API       = (*s3.Client)(nil)
	_ ObjectStore = (*S3Store)(nil)
)

// S3Store manages the S3 bucket that backs the lake
type S3Store struct {
	client      S3API
	region      string
	waitTimeout time.Duration
	logger      *logger.Logger
}

// NewS3Store creates a store using the given S3 client
func NewS3Store(client S3API, region string, waitTimeout time.Duration, l *logger.Logger) *S3Store {
	return &S3Store{
		client:      client,
		region:      region,
		waitTimeout: waitTimeout,
		logger:      l,
	}
}

// EnsureBucket creates the bucket if it does not exist. An existing bucket is
// not an error; reruns must be able to reuse the lake.
func (s *S3Store) EnsureBucket(ctx context.Context, bucket string) error {
	input := &s3.CreateBucketInput{
		Bucket: aws.String(bucket),
	}
	// us-east-1 is the default location and must not be sent as a constraint
	if s.region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(s.region),
		}
	}

	_, err := s.client.CreateBucket(ctx, input)
	if err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		var exists *types.BucketAlreadyExists
		if errors.As(err, &owned) || errors.As(err, &exists) {
			s.logger.Debug("bucket already exists", zap.String("bucket", bucket))
			return nil
		}
		return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
	}

	// A fresh bucket is not immediately visible to every caller
	waiter := s3.NewBucketExistsWaiter(s.client)
	if err := waiter.Wait(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)}, s.waitTimeout); err != nil {
		return fmt.Errorf("failed to wait for bucket %s: %w", bucket, err)
	}

	s.logger.Info("bucket created", zap.String("bucket", bucket), zap.String("region", s.region))
	return nil
}

// Put uploads a document to the bucket
func (s *S3Store) Put(ctx context.Context, bucket, key string, body []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload s3://%s/%s: %w", bucket, key, err)
	}

	metrics.StorageBytesUploadedTotal.Add(float64(len(body)))
	s.logger.Info("uploaded object",
		zap.String("bucket", bucket),
		zap.String("key", key),
		zap.Int("bytes", len(body)))
	return nil
}
