package storage

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"

	apperrors "github.com/tokenward/tokenward/internal/errors"
)

// openSignedFileBucket opens a fileblob bucket with HMAC URL signing so
// SignedURL works without any cloud backend.
func openSignedFileBucket(t *testing.T) *blob.Bucket {
	t.Helper()

	base, err := url.Parse("http://localhost:8080/objects")
	require.NoError(t, err)

	bucket, err := fileblob.OpenBucket(t.TempDir(), &fileblob.Options{
		URLSigner: fileblob.NewURLSignerHMAC(base, []byte("test-signing-key")),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = bucket.Close() })
	return bucket
}

func TestBlobPresigner_SignedURLs(t *testing.T) {
	bucket := openSignedFileBucket(t)
	ctx := context.Background()

	require.NoError(t, bucket.WriteAll(ctx, "resources/t42/archive/manifest.json", []byte("{}"), nil))

	presigner := NewBlobPresigner(bucket, 5*time.Second)

	getURL, err := presigner.SignedGetURL(ctx, "resources/t42/archive/manifest.json", time.Hour)
	require.NoError(t, err)
	assert.Contains(t, getURL, "http://localhost:8080/objects")

	putURL, err := presigner.SignedPutURL(ctx, "resources/t42/archive/objects/new.bin", time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, putURL)
	assert.NotEqual(t, getURL, putURL)
}

func TestBlobPresigner_ListKeys(t *testing.T) {
	bucket := openSignedFileBucket(t)
	ctx := context.Background()

	keys := []string{
		"resources/t42/archive/objects/photo.jpg",
		"resources/t42/archive/objects/letters/january.txt",
		"resources/t42/archive/manifest.json",
		"resources/t7/other/objects/unrelated.bin",
	}
	for _, key := range keys {
		require.NoError(t, bucket.WriteAll(ctx, key, []byte("data"), nil))
	}

	presigner := NewBlobPresigner(bucket, 5*time.Second)

	got, err := presigner.ListKeys(ctx, "resources/t42/archive/objects/")
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, key := range got {
		assert.True(t, strings.HasPrefix(key, "resources/t42/archive/objects/"))
	}
}

func TestOpen_InvalidURL(t *testing.T) {
	_, err := Open(context.Background(), "bogus://nope", time.Second)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrUnavailable))
}
