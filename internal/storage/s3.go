package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/kibirigec/mjkprints-sub000/internal/common"
)

// S3Store implements ObjectStore on top of an S3 bucket.
type S3Store struct {
	client          *s3.Client
	bucket          string
	downloadTimeout time.Duration
	uploadTimeout   time.Duration
	logger          *slog.Logger
}

// NewS3Client builds an S3 client from the default credential chain.
func NewS3Client(ctx context.Context, region string) (*s3.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewFromConfig(cfg), nil
}

func NewS3Store(client *s3.Client, bucket string, downloadTimeout, uploadTimeout time.Duration, logger *slog.Logger) *S3Store {
	if logger == nil {
		logger = slog.Default()
	}
	if downloadTimeout <= 0 {
		downloadTimeout = 30 * time.Second
	}
	if uploadTimeout <= 0 {
		uploadTimeout = 60 * time.Second
	}
	return &S3Store{
		client:          client,
		bucket:          bucket,
		downloadTimeout: downloadTimeout,
		uploadTimeout:   uploadTimeout,
		logger:          logger,
	}
}

func (s *S3Store) Download(ctx context.Context, path string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.downloadTimeout)
	defer cancel()

	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		s.logger.Error("s3 download failed", "key", path, "error", err)
		return nil, fmt.Errorf("%w: download %s: %v", common.ErrStorageError, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		s.logger.Error("s3 body read failed", "key", path, "error", err)
		return nil, fmt.Errorf("%w: read %s: %v", common.ErrStorageError, path, err)
	}
	s.logger.Debug("s3 download ok", "key", path, "bytes", len(data))
	return data, nil
}

func (s *S3Store) Upload(ctx context.Context, data []byte, path, contentType string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.uploadTimeout)
	defer cancel()

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(path),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		s.logger.Error("s3 upload failed", "key", path, "error", err)
		return "", fmt.Errorf("%w: upload %s: %v", common.ErrStorageError, path, err)
	}
	s.logger.Debug("s3 upload ok", "key", path, "bytes", len(data))
	return path, nil
}
