// Package storage wraps the object-storage backend behind a presigning port.
// The broker never reads or writes object bytes; it only mints short-lived
// presigned URLs and lists keys under a resource prefix.
package storage

import (
	"context"
	"io"
	"net/http"
	"time"

	"gocloud.dev/blob"

	apperrors "github.com/tokenward/tokenward/internal/errors"

	// Register blob driver schemes (s3://, file://, mem://)
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"
)

// Presigner mints scoped, time-limited credentials for single objects.
type Presigner interface {
	// SignedGetURL returns a presigned read URL for key, valid for ttl.
	SignedGetURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	// SignedPutURL returns a presigned write URL for key, valid for ttl.
	SignedPutURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	// ListKeys returns the object keys under prefix.
	ListKeys(ctx context.Context, prefix string) ([]string, error)
}

// BlobPresigner implements Presigner on top of a gocloud.dev blob bucket.
type BlobPresigner struct {
	bucket  *blob.Bucket
	timeout time.Duration
}

// NewBlobPresigner creates a presigner over an open bucket.
func NewBlobPresigner(bucket *blob.Bucket, timeout time.Duration) *BlobPresigner {
	return &BlobPresigner{
		bucket:  bucket,
		timeout: timeout,
	}
}

// Open opens the bucket identified by bucketURL and returns a presigner over
// it. Supports: s3://, file://, mem://
func Open(ctx context.Context, bucketURL string, timeout time.Duration) (*BlobPresigner, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrUnavailable, "failed to open storage bucket")
	}
	return NewBlobPresigner(bucket, timeout), nil
}

// Close releases the underlying bucket.
func (b *BlobPresigner) Close() error {
	return b.bucket.Close()
}

// SignedGetURL returns a presigned read URL for key.
func (b *BlobPresigner) SignedGetURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return b.signedURL(ctx, key, ttl, http.MethodGet)
}

// SignedPutURL returns a presigned write URL for key.
func (b *BlobPresigner) SignedPutURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return b.signedURL(ctx, key, ttl, http.MethodPut)
}

func (b *BlobPresigner) signedURL(ctx context.Context, key string, ttl time.Duration, method string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	url, err := b.bucket.SignedURL(ctx, key, &blob.SignedURLOptions{
		Expiry: ttl,
		Method: method,
	})
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrUnavailable, "failed to presign storage url")
	}
	return url, nil
}

// ListKeys returns the object keys under prefix.
func (b *BlobPresigner) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	var keys []string
	iter := b.bucket.List(&blob.ListOptions{Prefix: prefix})
	for {
		obj, err := iter.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrUnavailable, "failed to list storage keys")
		}
		if obj.IsDir {
			continue
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}
