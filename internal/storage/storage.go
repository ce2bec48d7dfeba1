// Package storage holds the blob backends that keep attachment bytes. Keys are
// slash separated paths chosen by the caller; backends never invent keys.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrPresignUnsupported is returned by backends that cannot mint download links.
var ErrPresignUnsupported = errors.New("storage: presigned urls are not supported by this backend")

// ErrObjectNotFound is returned by Get when no object exists under the key.
var ErrObjectNotFound = errors.New("storage: object not found")

// PutObjectOptions define optional parameters for uploading objects.
// Size should be the exact number of bytes if known, or -1 when unknown.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo contains basic information about a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Storage is a path-addressed blob store. Implementations are safe for
// concurrent use.
type Storage interface {
	// Put stores the reader's bytes under key, replacing any existing object.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Get opens the object for streaming alongside its info.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// Delete removes the object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// PresignGet returns a time-limited URL that downloads the object without credentials.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}
