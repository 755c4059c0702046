package storage

import (
	"context"
	"io"
	"time"
)

// Package storage contains the object storage gateway for attachment blobs.
// Implementations rely on streaming I/O only; no local disk.

// PutObjectOptions define optional parameters for uploading objects.
// Size should be the exact number of bytes if known; if unknown, set to -1 and the implementation
// will buffer/chunk as supported by the backend.
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

// Storage is the gateway contract for attachment blob content. The bucket is
// fixed at construction (configured prefix + base bucket name); keys are
// derived from attachment ids by the caller.
type Storage interface {
	// Put uploads an object under the given key using the provided reader and options.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Get retrieves an object's content as a streaming reader alongside its info.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// Delete removes an object by key.
	Delete(ctx context.Context, key string) error
	// BucketExists reports whether the configured bucket exists.
	BucketExists(ctx context.Context) (bool, error)
	// EnsureBucket creates the configured bucket if it is missing.
	EnsureBucket(ctx context.Context) error
	// ObjectURL returns the externally reachable URL of an object.
	ObjectURL(key string) string
	// Backend names the storage backend, recorded on attachments after a
	// confirmed upload.
	Backend() string
}
