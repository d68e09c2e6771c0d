// internal/adapters/storage/s3.go
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"mime"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/ammerola/minimarket-pos/internal/core/ports"
)

// S3Storage stores report files in an S3 bucket
type S3Storage struct {
	client   *s3.Client
	uploader *manager.Uploader
	presign  *s3.PresignClient
	bucket   string
	region   string
	logger   *slog.Logger
}

var _ ports.ReportStorage = (*S3Storage)(nil)

// S3Config holds S3 configuration
type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string // For MinIO/LocalStack
	UsePathStyle    bool   // For MinIO/LocalStack
}

// NewS3Storage creates a new S3 storage client and makes sure the bucket exists
func NewS3Storage(ctx context.Context, cfg *S3Config, logger *slog.Logger) (*S3Storage, error) {
	awsCfg, err := buildAWSConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.EndpointResolver = s3.EndpointResolverFromURL(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	storage := &S3Storage{
		client:   client,
		uploader: manager.NewUploader(client),
		presign:  s3.NewPresignClient(client),
		bucket:   cfg.Bucket,
		region:   cfg.Region,
		logger:   logger.With(slog.String("storage", "s3")),
	}

	if err := storage.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure bucket: %w", err)
	}

	storage.logger.Info("S3 storage initialized",
		slog.String("bucket", cfg.Bucket),
		slog.String("region", cfg.Region))

	return storage, nil
}

// buildAWSConfig builds AWS configuration
func buildAWSConfig(ctx context.Context, cfg *S3Config) (aws.Config, error) {
	// Use custom credentials if provided
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		return config.LoadDefaultConfig(ctx,
			config.WithRegion(cfg.Region),
			config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(
					cfg.AccessKeyID,
					cfg.SecretAccessKey,
					"",
				),
			),
		)
	}

	// Otherwise use default credential chain
	return config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
}

func (s *S3Storage) ensureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err == nil {
		return nil
	}

	input := &s3.CreateBucketInput{Bucket: aws.String(s.bucket)}
	// us-east-1 rejects an explicit location constraint
	if s.region != "" && s.region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(s.region),
		}
	}

	if _, createErr := s.client.CreateBucket(ctx, input); createErr != nil {
		return fmt.Errorf("bucket %s does not exist and could not be created: %w", s.bucket, createErr)
	}

	s.logger.Info("created S3 bucket", slog.String("bucket", s.bucket))
	return nil
}

// Upload stores data under key. Reports are rewritten in place, so an
// existing object is overwritten.
func (s *S3Storage) Upload(ctx context.Context, key string, data io.Reader, contentType string, metadata map[string]string) (string, error) {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        data,
		ContentType: aws.String(resolveContentType(key, contentType)),
		Metadata:    uploadMetadata(metadata),
	}

	result, err := s.uploader.Upload(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}

	s.logger.InfoContext(ctx, "file uploaded",
		slog.String("key", key),
		slog.String("location", result.Location))

	return result.Location, nil
}

// Exists checks if a file exists in S3
func (s *S3Storage) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check file existence: %w", err)
	}
	return true, nil
}

// PresignedURL generates a time-limited download link
func (s *S3Storage) PresignedURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	request, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = expires
	})
	if err != nil {
		return "", fmt.Errorf("failed to create presigned URL: %w", err)
	}
	return request.URL, nil
}

func resolveContentType(key, contentType string) string {
	if contentType != "" {
		return contentType
	}
	if ct := mime.TypeByExtension(filepath.Ext(key)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func uploadMetadata(extra map[string]string) map[string]string {
	meta := map[string]string{
		"uploaded-at": time.Now().Format(time.RFC3339),
		"upload-id":   uuid.New().String(),
	}
	maps.Copy(meta, extra)
	return meta
}
