// internal/common/storage/storage.go
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned when a staged object does not exist.
var ErrNotFound = errors.New("object not found")

// ObjectInfo describes a staged file.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Store reads files the student staged before submission. Content is
// streamed; callers must close the reader.
type Store interface {
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
}
