package services

import (
	"context"
	"io"
)

// BlobStore persists version bytes under content-addressed keys.
type BlobStore interface {
	// Save writes data under key. Size is the exact byte count; backends that
	// do not need it may ignore it.
	Save(ctx context.Context, key string, data io.Reader, size int64) error

	// Open streams the bytes stored under key
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}
