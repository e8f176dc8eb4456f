package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/ToryFriday/Renta/internal/config"
)

// IObjectStorage defines the interface for object-store operations. Uploads
// propagate store-level errors unchanged (path conflicts, quota, invalid
// content); callers decide what to do with them.
type IObjectStorage interface {
	UploadObject(ctx context.Context, key, contentType string, body io.Reader) (string, error)
	DownloadObject(ctx context.Context, key string) (io.ReadCloser, string, error)
	PublicURL(key string) string
	ObjectKey(userID, filename string) string
}

// s3Storage implements IObjectStorage.
type s3Storage struct {
	cfg      *config.Config
	s3Client *s3.Client
}

// NewS3Storage creates a new S3-backed object storage service. The S3 client
// is constructed once in main and injected.
func NewS3Storage(cfg *config.Config, s3Client *s3.Client) IObjectStorage {
	return &s3Storage{cfg: cfg, s3Client: s3Client}
}

// ObjectKey builds a unique object key for a user upload. The filename is
// reduced to its base name so path segments in user input cannot escape the
// upload prefix.
func (s *s3Storage) ObjectKey(userID, filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	return fmt.Sprintf("uploads/%s/%s_%s", userID, uuid.NewString(), base)
}

// UploadObject stores body under key and returns the object's public URL.
func (s *s3Storage) UploadObject(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.AwsS3Bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object %s: %w", key, err)
	}
	return s.PublicURL(key), nil
}

// DownloadObject fetches an object's body and content type.
func (s *s3Storage) DownloadObject(ctx context.Context, key string) (io.ReadCloser, string, error) {
	out, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.AwsS3Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to download object %s: %w", key, err)
	}
	contentType := ""
	if out.ContentType != nil {
		contentType = *out.ContentType
	}
	return out.Body, contentType, nil
}

// PublicURL resolves the publicly retrievable URL for an object key.
func (s *s3Storage) PublicURL(key string) string {
	base := strings.TrimSuffix(s.cfg.ImageBaseS3URL, "/")
	if base == "" {
		base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", s.cfg.AwsS3Bucket, s.cfg.AwsRegion)
	}
	return base + "/" + key
}
