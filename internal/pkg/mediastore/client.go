package mediastore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gofiber/fiber/v2/log"
)

// ErrEmptyKey is returned when a video has no storage key.
var ErrEmptyKey = errors.New("empty storage key")

// URLSigner issues time-limited download links for stored videos.
type URLSigner interface {
	PresignDownload(ctx context.Context, key string) (string, time.Time, error)
}

// Client wraps the S3 client with download-specific functionality
type Client struct {
	s3Client  *s3.Client
	presigner *s3.PresignClient
	config    *Config
}

// NewClient creates a new S3 client. No request is made; signing is local.
func NewClient(cfg *Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	awsConfig, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
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
			// S3-compatible providers generally need path-style URLs
			o.UsePathStyle = true
			o.UseAccelerate = false
		}
	})

	log.Infof("[MediaStore] signing download URLs for bucket %s (ttl %v)", cfg.BucketName, cfg.URLTTL)
	return &Client{
		s3Client:  s3Client,
		presigner: s3.NewPresignClient(s3Client),
		config:    cfg,
	}, nil
}

// PresignDownload returns a presigned GET URL for key and its expiry.
func (c *Client) PresignDownload(ctx context.Context, key string) (string, time.Time, error) {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if key == "" {
		return "", time.Time{}, ErrEmptyKey
	}

	req, err := c.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.config.BucketName),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(c.config.URLTTL))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("presign %s: %w", key, err)
	}
	return req.URL, time.Now().Add(c.config.URLTTL), nil
}

// Check verifies that the bucket is reachable.
func (c *Client) Check(ctx context.Context) error {
	_, err := c.s3Client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(c.config.BucketName),
	})
	if err != nil {
		return fmt.Errorf("bucket %s not accessible: %w", c.config.BucketName, err)
	}
	return nil
}
