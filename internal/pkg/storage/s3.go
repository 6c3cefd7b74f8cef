package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gofiber/fiber/v2/log"

	"github.com/gigforge/gig-service/internal/pkg/apperror"
	"github.com/gigforge/gig-service/internal/pkg/env"
)

// Config holds the S3 settings for cover image storage.
type Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	EndpointURL     string
	Bucket          string
	PublicBaseURL   string
}

// ConfigFromEnv reads the asset store settings from the environment.
func ConfigFromEnv() *Config {
	return &Config{
		Region:          env.GetEnv("S3_REGION", "us-east-1"),
		AccessKeyID:     env.GetEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
		EndpointURL:     env.GetEnv("S3_ENDPOINT_URL", ""),
		Bucket:          env.GetEnv("S3_BUCKET", "gig-covers"),
		PublicBaseURL:   env.GetEnv("S3_PUBLIC_BASE_URL", ""),
	}
}

// Client wraps the S3 client for cover image uploads. The service stores
// only the returned public URL; transcoding happens elsewhere.
type Client struct {
	s3Client *s3.Client
	config   *Config
}

// NewClient creates a new asset store client
func NewClient(cfg *Config) (*Client, error) {
	awsConfig, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			o.UsePathStyle = true // MinIO and B2 need path-style URLs
			o.UseAccelerate = false
		}
	})

	log.Infof("[Storage] Initialized S3 client for bucket: %s", cfg.Bucket)
	return &Client{s3Client: s3Client, config: cfg}, nil
}

// UploadCover stores a cover image under the given key and returns its
// public URL.
func (c *Client) UploadCover(ctx context.Context, objectKey, contentType string, body io.Reader, size int64) (string, error) {
	_, err := c.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.config.Bucket),
		Key:           aws.String(objectKey),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return "", apperror.Dependency("storage:upload-cover", err)
	}

	log.Infof("[Storage] Uploaded cover image: s3://%s/%s", c.config.Bucket, objectKey)
	return c.publicURL(objectKey), nil
}

func (c *Client) publicURL(objectKey string) string {
	if c.config.PublicBaseURL != "" {
		return fmt.Sprintf("%s/%s", strings.TrimRight(c.config.PublicBaseURL, "/"), objectKey)
	}
	if c.config.EndpointURL != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(c.config.EndpointURL, "/"), c.config.Bucket, objectKey)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", c.config.Bucket, c.config.Region, objectKey)
}
