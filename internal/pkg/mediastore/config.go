package mediastore

import (
	"errors"
	"time"

	"github.com/ManuelReschke/ClipFox/internal/pkg/env"
)

const defaultURLTTL = 15 * time.Minute

// Config holds object storage settings for video downloads
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	BucketName      string
	EndpointURL     string // Optional for S3-compatible services
	URLTTL          time.Duration
}

// LoadConfig loads S3 configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AccessKeyID:     env.GetEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
		Region:          env.GetEnv("S3_REGION", "us-east-1"),
		BucketName:      env.GetEnv("S3_BUCKET_NAME", ""),
		EndpointURL:     env.GetEnv("S3_ENDPOINT_URL", ""),
		URLTTL:          time.Duration(env.GetEnvInt("DOWNLOAD_URL_TTL_MINUTES", 0)) * time.Minute,
	}
	if cfg.URLTTL <= 0 {
		cfg.URLTTL = defaultURLTTL
	}
	return cfg, cfg.Validate()
}

// Validate checks the fields required to sign URLs
func (c *Config) Validate() error {
	if c.AccessKeyID == "" {
		return errors.New("S3_ACCESS_KEY_ID is required")
	}
	if c.SecretAccessKey == "" {
		return errors.New("S3_SECRET_ACCESS_KEY is required")
	}
	if c.BucketName == "" {
		return errors.New("S3_BUCKET_NAME is required")
	}
	return nil
}
