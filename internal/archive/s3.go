// Package archive stores raw fetched payloads (taxonomy dataset, rule
// feed) in S3 so a run can be audited or replayed after the fact.
package archive

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// Config holds the payload archive settings.
type Config struct {
	Enabled bool   `yaml:"enabled"`
	Region  string `yaml:"region"`
	Bucket  string `yaml:"bucket"`
	Prefix  string `yaml:"prefix"`

	// Endpoint is an optional custom endpoint for S3-compatible storage.
	Endpoint string `yaml:"endpoint,omitempty"`

	// Static credentials; IAM is used when unset.
	AccessKeyID     string `yaml:"access_key_id,omitempty"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty"`

	// UsePathStyle forces path-style addressing (MinIO and friends).
	UsePathStyle bool `yaml:"use_path_style"`
}

// DefaultConfig returns the default archive configuration.
func DefaultConfig() Config {
	return Config{
		Enabled: false,
		Region:  "us-east-1",
		Bucket:  "siggraph-archive",
		Prefix:  "payloads/",
	}
}

// Validate checks the archive configuration.
func (c *Config) Validate() error {
	if c.Region == "" {
		return fmt.Errorf("archive: region is required")
	}
	if c.Bucket == "" {
		return fmt.Errorf("archive: bucket is required")
	}
	return nil
}

// Writer uploads gzip-compressed payload snapshots.
type Writer struct {
	client *s3.Client
	config Config
}

// NewWriter creates an S3-backed payload archiver.
func NewWriter(ctx context.Context, cfg Config) (*Writer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("archive: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	slog.Info("payload archive initialized",
		"bucket", cfg.Bucket,
		"prefix", cfg.Prefix,
	)

	return &Writer{client: client, config: cfg}, nil
}

// Put uploads one payload snapshot under a dated key and returns the key.
// Keys look like prefix/kind/2006/01/02/<uuid>.json.gz.
func (w *Writer) Put(ctx context.Context, kind string, payload []byte) (string, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(payload); err != nil {
		return "", fmt.Errorf("archive: compress payload: %w", err)
	}
	if err := gz.Close(); err != nil {
		return "", fmt.Errorf("archive: compress payload: %w", err)
	}

	now := time.Now().UTC()
	key := path.Join(
		w.config.Prefix,
		kind,
		now.Format("2006/01/02"),
		uuid.New().String()+".json.gz",
	)

	_, err := w.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:          aws.String(w.config.Bucket),
		Key:             aws.String(key),
		Body:            bytes.NewReader(buf.Bytes()),
		ContentType:     aws.String("application/json"),
		ContentEncoding: aws.String("gzip"),
	})
	if err != nil {
		return "", fmt.Errorf("archive: put %s: %w", key, err)
	}

	return key, nil
}
