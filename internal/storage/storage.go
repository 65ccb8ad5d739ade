package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// Default expiry duration for presigned URLs
const DefaultPresignedURLExpiry = 15 * time.Minute

// Error constants for the storage layer.
var (
	// ErrUnavailable means the storage client could not be configured at
	// bootstrap. Operations on an unavailable client fail fast with this
	// error before any network attempt.
	ErrUnavailable = errors.New("object storage is not available: check bucket, region and credentials")

	// ErrObjectNotFound means a metadata probe found no object at the key.
	ErrObjectNotFound = errors.New("object not found in storage")
)

// TransferError marks a failed transfer (single PUT or multipart part) for
// a specific object key.
type TransferError struct {
	Key string
	Err error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("transfer failed for key %q: %v", e.Key, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

// ObjectMetadata describes a stored object as observed by a HEAD probe.
type ObjectMetadata struct {
	Size         int64
	LastModified time.Time
	ETag         string
	ContentType  string
}

// ObjectStorage defines the interface for object storage operations used by
// the recording pipeline.
type ObjectStorage interface {
	// Available reports whether the client was constructed successfully.
	// Returns ErrUnavailable (possibly wrapped) when it was not.
	Available() error

	// Put uploads a small, fully buffered object in a single atomic request.
	Put(ctx context.Context, objectKey string, contentType string, body io.Reader, size int64) error

	// UploadFile streams a disk-backed file to objectKey as a multipart
	// upload with bounded part concurrency. On any part failure the whole
	// multipart operation is aborted so no partial object becomes visible.
	UploadFile(ctx context.Context, objectKey string, contentType string, path string) error

	// Head probes an object's metadata without fetching its body.
	// Returns ErrObjectNotFound if no object exists at the key.
	Head(ctx context.Context, objectKey string) (*ObjectMetadata, error)

	// GeneratePresignedDownloadURL creates a temporary URL that allows GET
	// requests for downloading/viewing an object directly from the provider.
	GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error)

	// ObjectURL returns the unsigned direct URL of an object. For reference
	// and logging only; it is not usable until the object's access policy
	// permits it.
	ObjectURL(objectKey string) string

	// DeleteObject removes an object from the storage provider.
	DeleteObject(ctx context.Context, objectKey string) error
}
