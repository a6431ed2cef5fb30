package storage

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

// s3API is the part of *s3manager.Uploader used here.
type s3API interface {
	UploadWithContext(ctx aws.Context, input *s3manager.UploadInput, opts ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error)
}

// S3Config holds the settings of an S3-compatible bucket (AWS, R2, MinIO).
type S3Config struct {
	Endpoint       string
	PublicEndpoint string
	Region         string
	Bucket         string
	AccessKey      string
	SecretKey      string
	SSLDisabled    bool
}

// S3Uploader writes public-read objects to a bucket.
type S3Uploader struct {
	uploader s3API
	cfg      S3Config
}

// NewS3Uploader creates an uploader with static credentials and path-style addressing.
func NewS3Uploader(cfg S3Config) (*S3Uploader, error) {
	awsCfg := &aws.Config{
		Region:           aws.String(cfg.Region),
		Credentials:      credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, ""),
		S3ForcePathStyle: aws.Bool(true),
		DisableSSL:       aws.Bool(cfg.SSLDisabled),
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 session: %w", err)
	}
	return newS3Uploader(s3manager.NewUploader(sess), cfg), nil
}

func newS3Uploader(api s3API, cfg S3Config) *S3Uploader {
	return &S3Uploader{uploader: api, cfg: cfg}
}

// Upload stores obj under "<folder>/<resource type>/<uuid>-<name>".
func (s *S3Uploader) Upload(ctx context.Context, obj Object) (*Result, error) {
	if len(obj.Data) == 0 {
		return nil, ErrEmptyObject
	}
	contentType := DetectContentType(obj.Data, obj.ContentType)
	key := objectKey(obj, ResolveResourceType(obj.ResourceType, contentType))

	_, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(obj.Data),
		ACL:         aws.String("public-read"),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return nil, fmt.Errorf("upload failed: %w, bucket %s, key %s", err, s.cfg.Bucket, key)
	}

	slog.DebugContext(ctx, "Uploaded object to s3", "event", "blob_uploaded", "provider", "s3", "key", key)
	return &Result{SecureURL: s.publicURL(key), Key: key}, nil
}

func (s *S3Uploader) publicURL(key string) string {
	base := s.cfg.PublicEndpoint
	if base == "" {
		base = s.cfg.Endpoint
	}
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(base, "/"), url.PathEscape(s.cfg.Bucket), escapeKey(key))
}
