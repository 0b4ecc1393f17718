// Package storage places attachment bytes on a backend (local disk or an S3-compatible bucket)
// and hands them back as seekable streams.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrObjectNotFound is returned when a key has no object behind it.
	ErrObjectNotFound = errors.New("object not found")
	// ErrPathEscapes is returned for keys that resolve outside the storage root.
	ErrPathEscapes = errors.New("path escapes upload root")
)

// PutObjectOptions define optional parameters for uploading objects.
// Size should be the exact number of bytes if known; if unknown, set to -1.
// ContentType and Metadata are optional.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo contains basic information about an object in storage.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Storage is the backend behind FileStore. Keys are slash separated and relative to the backend root.
type Storage interface {
	// Put uploads an object under the given key using the provided reader and options.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Get opens an object for seekable streaming reads alongside its info.
	Get(ctx context.Context, key string) (io.ReadSeekCloser, ObjectInfo, error)
	// Stat returns object info without opening the content.
	Stat(ctx context.Context, key string) (ObjectInfo, error)
	// Delete removes an object by key. Missing objects yield ErrObjectNotFound.
	Delete(ctx context.Context, key string) error
	// List returns every stored object.
	List(ctx context.Context) ([]ObjectInfo, error)
}
