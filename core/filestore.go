package core

import (
	"context"
	"io"
)

// FileStore is any service that can persist and serve media blobs (course
// videos, thumbnails). Keys are slash-separated paths, e.g. "courses/<id>/intro.mp4".
type FileStore interface {
	Save(ctx context.Context, key string, r io.Reader, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
}
