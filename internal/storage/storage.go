package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"studydocs/internal/model"
)

// Package storage contains the blob backends: S3-compatible object stores (MinIO, AWS S3) and the
// local filesystem. All of them are safe for concurrent use by multiple goroutines.

var (
	// ErrObjectNotFound is returned when the key does not exist in the backend.
	ErrObjectNotFound = errors.New("object not found")
	// ErrTransient marks network, throttling and 5xx failures of a remote backend.
	ErrTransient = errors.New("storage temporarily unavailable")
	// ErrFatal marks disk I/O failures and misconfiguration.
	ErrFatal = errors.New("storage failure")
	// ErrUnsupported is returned by operations a backend variant cannot perform (signed URLs on local disk).
	ErrUnsupported = errors.New("operation not supported by storage backend")
)

// Error carries the failed operation and key. It matches its Kind (one of the sentinels above)
// and the underlying cause with errors.Is / errors.As.
type Error struct {
	Op   string
	Key  string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Kind)
	}
	return fmt.Sprintf("storage %s %q: %v: %v", e.Op, e.Key, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(op, key string, kind, err error) error {
	return &Error{Op: op, Key: key, Kind: kind, Err: err}
}

// IsTransient reports whether err is a transient remote failure worth a fallback.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

// PutObjectOptions define optional parameters for uploading objects.
// Size should be the exact number of bytes if known; if unknown, set to -1 and the implementation
// will buffer/chunk as supported by the backend.
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

// Storage is the blob backend contract shared by the remote and local variants.
type Storage interface {
	// Kind reports which variant this backend is; stored locations are tagged with it.
	Kind() model.BackendKind
	// Put uploads an object under the given key using the provided reader and options.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Get retrieves an object's content as a streaming reader alongside its info.
	// The caller must close the reader.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// Delete removes an object by key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// PresignGet returns a time-limited URL that can be used to download the object without credentials.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}
