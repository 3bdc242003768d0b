// Package storage contains object storage abstractions for S3-compatible
// backends. Payloads are streamed; nothing touches local disk.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrObjectNotFound is returned when the key or bucket does not exist.
	ErrObjectNotFound = errors.New("object not found")
	// ErrAccessDenied is returned when the credentials lack permission.
	ErrAccessDenied = errors.New("object access denied")
)

// PutObjectOptions define optional parameters for uploading objects.
// Size should be the exact number of bytes if known; if unknown, set to -1.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo contains basic information about a stored object.
type ObjectInfo struct {
	Key         string
	Size        int64
	ETag        string
	ContentType string
}

// Storage is the raw S3-compatible backend. Implementations classify
// backend failures as ErrObjectNotFound or ErrAccessDenied where they apply.
type Storage interface {
	// Put uploads an object under the given key using the provided reader and options.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Delete removes an object by key.
	Delete(ctx context.Context, key string) error
	// PresignGet returns a time-limited URL that can be used to download the object without credentials.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
	// LocatorFor returns the public address of key. It does not check existence.
	LocatorFor(key string) string
}

// UploadInput describes a payload handed to ObjectStore.Upload.
type UploadInput struct {
	OwnerID     int64
	FileName    string
	ContentType string
	Size        int64
}

// UploadResult is where an uploaded payload ended up.
type UploadResult struct {
	Key     string
	Locator string
}

// ObjectStore is the retrying client the document service depends on.
type ObjectStore interface {
	Upload(ctx context.Context, r io.ReadSeeker, in UploadInput) (UploadResult, error)
	Delete(ctx context.Context, key string) error
	SignDownloadURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}
