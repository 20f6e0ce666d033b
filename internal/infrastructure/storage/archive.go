// Package storage uploads exported snapshot archives to object
// storage. It works with any S3-compatible backend (AWS S3, MinIO,
// RustFS, etc.).
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	infraconfig "github.com/stationops/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// ArchiveStorage uploads one snapshot archive per call and returns the
// storage key it was written under
type ArchiveStorage interface {
	UploadArchive(ctx context.Context, archive []byte) (string, error)
}

// S3ArchiveStorage implements ArchiveStorage using the AWS S3 SDK v2
type S3ArchiveStorage struct {
	client *s3.Client
	bucket string
	prefix string
	logger *zap.Logger
}

// S3ArchiveStorageOption is a functional option for configuring
// S3ArchiveStorage
type S3ArchiveStorageOption func(*S3ArchiveStorage)

// WithLogger sets a custom logger for S3ArchiveStorage
func WithLogger(logger *zap.Logger) S3ArchiveStorageOption {
	return func(s *S3ArchiveStorage) {
		s.logger = logger
	}
}

// NewS3ArchiveStorage creates a new S3ArchiveStorage from configuration
func NewS3ArchiveStorage(cfg *infraconfig.StorageConfig, opts ...S3ArchiveStorageOption) (*S3ArchiveStorage, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if cfg.AccessKey == "" {
		return nil, errors.New("storage access key is required")
	}
	if cfg.SecretKey == "" {
		return nil, errors.New("storage secret key is required")
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "http://localhost:9000"
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		if cfg.UseSSL {
			endpoint = "https://" + endpoint
		} else {
			endpoint = "http://" + endpoint
		}
	}
	if _, err := url.Parse(endpoint); err != nil {
		return nil, fmt.Errorf("invalid storage endpoint: %w", err)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
		o.BaseEndpoint = aws.String(endpoint)
	})

	storage := &S3ArchiveStorage{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(storage)
	}
	return storage, nil
}

// UploadArchive writes one timestamped archive object and returns its
// key
func (s *S3ArchiveStorage) UploadArchive(ctx context.Context, archive []byte) (string, error) {
	if len(archive) == 0 {
		return "", errors.New("archive payload is empty")
	}

	key := s.archiveKey(time.Now())
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(archive),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload archive: %w", err)
	}

	s.logger.Info("Snapshot archive uploaded",
		zap.String("bucket", s.bucket),
		zap.String("key", key),
		zap.Int("size_bytes", len(archive)))
	return key, nil
}

func (s *S3ArchiveStorage) archiveKey(now time.Time) string {
	name := fmt.Sprintf("snapshot-%s.json", now.UTC().Format("20060102T150405Z"))
	if s.prefix == "" {
		return name
	}
	return strings.TrimSuffix(s.prefix, "/") + "/" + name
}
