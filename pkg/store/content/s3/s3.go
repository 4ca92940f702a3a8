// Package s3 implements content.Store on Amazon S3 or S3-compatible object
// storage (MinIO, Localstack, Cubbit DS3).
//
// Key design: the opaque content path is the object key, under an optional
// configured prefix. Derived-artifact keys ("<path>_<width>") land next to
// their originals, so a bucket listing stays human-inspectable.
//
// Concurrent writes to the same key are last-write-wins under S3's
// consistency model; Cabinet only ever writes a given original once and
// derived artifacts are idempotent re-derivations, so this is safe.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/cabinetfs/cabinet/pkg/store/content"
)

// S3StoreConfig contains configuration for the S3 content store.
type S3StoreConfig struct {
	// Client is the configured S3 client.
	Client *s3.Client

	// Bucket is the S3 bucket name. Must already exist.
	Bucket string

	// KeyPrefix is an optional prefix for all object keys.
	// Example: "cabinet/content/" yields keys like "cabinet/content/<uuid>".
	KeyPrefix string
}

// S3Store implements content.Store using an S3 bucket.
type S3Store struct {
	client    *s3.Client
	bucket    string
	keyPrefix string
}

// NewS3Store creates an S3-backed content store and verifies bucket access.
func NewS3Store(ctx context.Context, cfg S3StoreConfig) (*S3Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if cfg.Client == nil {
		return nil, fmt.Errorf("S3 content store: client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("S3 content store: bucket is required")
	}

	_, err := cfg.Client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(cfg.Bucket),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to access bucket %q: %w", cfg.Bucket, err)
	}

	return &S3Store{
		client:    cfg.Client,
		bucket:    cfg.Bucket,
		keyPrefix: cfg.KeyPrefix,
	}, nil
}

// Write implements content.Store.
func (s *S3Store) Write(ctx context.Context, data []byte) (string, error) {
	path := uuid.NewString()
	if err := s.Put(ctx, path, data); err != nil {
		return "", err
	}
	return path, nil
}

// Put implements content.Store.
func (s *S3Store) Put(ctx context.Context, path string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(path)),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("failed to put object %q: %w", path, err)
	}
	return nil
}

// Read implements content.Store.
func (s *S3Store) Read(ctx context.Context, path string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(path)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("%s: %w", path, content.ErrContentNotFound)
		}
		return nil, fmt.Errorf("failed to get object %q: %w", path, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object body %q: %w", path, err)
	}
	return data, nil
}

// Close implements content.Store. The S3 client holds no local resources.
func (s *S3Store) Close() error {
	return nil
}

func (s *S3Store) objectKey(path string) string {
	return s.keyPrefix + path
}
