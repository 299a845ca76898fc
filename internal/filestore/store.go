// Package filestore defines the interface for the object storage backend
// that receives exported table snapshots.
//
// Callers depend only on this package, never on a specific provider package.
//
// Usage:
//
//	cfg := filestore.DefaultConfig("localhost:9000", "minioadmin", "minioadmin")
//	store, err := minio.New(ctx, cfg)
//	if err != nil { ... }
//	defer store.Close()
package filestore

import (
	"context"
	"io"
	"time"
)

// Store is the interface all storage providers must implement.
type Store interface {
	// Ping verifies the storage backend is reachable with the
	// configured credentials.
	Ping(ctx context.Context) error

	// Close releases any held resources.
	Close() error

	// EnsureBucket creates bucket if it does not already exist.
	EnsureBucket(ctx context.Context, bucket string) error

	// PutObject uploads size bytes from body to key inside bucket.
	PutObject(ctx context.Context, bucket, key string, body io.Reader, size int64, contentType string) (*ObjectInfo, error)

	// PresignGetURL returns a time-limited URL that allows anyone to
	// download the object at key inside bucket without credentials.
	PresignGetURL(ctx context.Context, bucket, key string, ttl time.Duration) (string, error)
}

// ObjectInfo describes an uploaded object.
type ObjectInfo struct {
	// Bucket the object was written to.
	Bucket string

	// Key is the full object path within the bucket.
	Key string

	// Size is the byte size of the object.
	Size int64

	// ETag is the object's entity tag, as returned by the backend.
	ETag string
}
