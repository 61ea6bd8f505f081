// Package assets stores uploaded attachment blobs and hands back durable
// public URLs. The conversation engine only ever sees the URL.
package assets

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Uploader stores a binary blob and returns its durable public URL.
type Uploader interface {
	Upload(ctx context.Context, sessionID, fileName, contentType string, data []byte) (string, error)
}

// S3Config configures the S3-compatible backend.
type S3Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	// PublicURL is the base under which uploaded keys are reachable.
	PublicURL string
}

// S3Uploader implements Uploader on an S3-compatible object store.
type S3Uploader struct {
	client *s3.Client
	cfg    S3Config
}

// NewS3Uploader builds the client. A non-empty Endpoint switches to a
// custom (e.g. MinIO or Supabase storage) endpoint with path-style keys.
func NewS3Uploader(cfg S3Config) (*S3Uploader, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("s3 credentials are required")
	}

	awsCfg := aws.Config{
		Region:      cfg.Region,
		Credentials: credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	log.Info().Str("bucket", cfg.Bucket).Str("endpoint", cfg.Endpoint).Msg("S3 uploader initialized")
	return &S3Uploader{client: client, cfg: cfg}, nil
}

// Upload stores the blob under a date-partitioned key and returns the
// public URL to embed as message content.
func (u *S3Uploader) Upload(ctx context.Context, sessionID, fileName, contentType string, data []byte) (string, error) {
	key := objectKey(sessionID, fileName, contentType)

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}

	url := strings.TrimSuffix(u.cfg.PublicURL, "/") + "/" + key
	log.Debug().Str("sessionID", sessionID).Str("key", key).Int("size", len(data)).Msg("Attachment uploaded")
	return url, nil
}

func objectKey(sessionID, fileName, contentType string) string {
	folder := "documents"
	switch {
	case strings.HasPrefix(contentType, "image/"):
		folder = "images"
	case strings.HasPrefix(contentType, "audio/"):
		folder = "audio"
	case strings.HasPrefix(contentType, "video/"):
		folder = "videos"
	}

	sessionID = strings.NewReplacer("@", "_", ":", "_", "/", "_").Replace(sessionID)
	if fileName == "" {
		fileName = uuid.NewString()
	}
	return fmt.Sprintf("%s/%s/%s/%s_%s", folder, time.Now().Format("2006/01/02"), sessionID, uuid.NewString()[:8], fileName)
}
