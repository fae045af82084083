package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config holds S3 client and bucket info
type S3Config struct {
	Client        *s3.Client
	BucketName    string
	PublicBaseURL string
}

// NewS3Config initializes the S3 client from the storage section.
// It returns nil, nil when no bucket is configured.
func NewS3Config(ctx context.Context, cfg StorageConfig) (*S3Config, error) {
	if cfg.Bucket == "" {
		return nil, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &S3Config{
		Client:        s3.NewFromConfig(awsCfg),
		BucketName:    cfg.Bucket,
		PublicBaseURL: cfg.PublicBaseURL,
	}, nil
}

// PublicURL returns the public link for an object key
func (s *S3Config) PublicURL(key string) string {
	if s.PublicBaseURL != "" {
		return strings.TrimRight(s.PublicBaseURL, "/") + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.BucketName, key)
}

// PutObjectInput builds the upload request for key
func (s *S3Config) PutObjectInput(key, contentType string) *s3.PutObjectInput {
	return &s3.PutObjectInput{
		Bucket:      aws.String(s.BucketName),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}
}
