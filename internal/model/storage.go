package model

import (
	"context"
	"io"
)

// Storage archives processed images under account-scoped keys.
type Storage interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	// Exists reports false without error for a missing key.
	Exists(ctx context.Context, key string) (bool, error)
}
