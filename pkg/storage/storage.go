package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned when a key does not exist in the store.
var ErrNotFound = errors.New("object not found")

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
	ContentType  string
}

// BlobStore is the interface consumed by attachment handling. Implementations
// exist for S3-compatible services and the local filesystem (development).
type BlobStore interface {
	// Put stores content from the reader under the given key. size is the
	// expected content length (-1 if unknown).
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// Get retrieves the content stored under key. The caller closes the
	// returned ReadCloser.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the object stored under key.
	Delete(ctx context.Context, key string) error

	// Exists reports whether an object is stored under key.
	Exists(ctx context.Context, key string) (bool, error)

	// SignedURL returns a URL granting read access to the object for the
	// given duration.
	SignedURL(ctx context.Context, key string, expires time.Duration) (string, error)
}
