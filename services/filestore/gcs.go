// Package filestore provides core.FileStore implementations: a GCS bucket for
// deployed environments and a local directory for development and tests.
package filestore

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"cloud.google.com/go/storage"
	"github.com/pkg/errors"
	"google.golang.org/api/option"

	"github.com/Reema362/avocop/core"
)

const uploadTimeout = 2 * time.Minute

type gcsStore struct {
	client    *storage.Client
	bucket    string
	cdnDomain string
}

var _ core.FileStore = (*gcsStore)(nil)

func NewGCSStore(ctx context.Context, cfg core.MediaConfig) (core.FileStore, error) {
	client, err := storage.NewClient(ctx, option.WithScopes(storage.ScopeReadWrite))
	if err != nil {
		return nil, errors.Wrap(err, "creating storage client")
	}
	return &gcsStore{
		client:    client,
		bucket:    cfg.Bucket,
		cdnDomain: cfg.CDNDomain,
	}, nil
}

func (fs *gcsStore) Save(ctx context.Context, key string, r io.Reader, contentType string) error {
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := fs.client.Bucket(fs.bucket).Object(key).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return errors.Wrap(err, "writing object")
	}
	return errors.Wrap(w.Close(), "closing object writer")
}

func (fs *gcsStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	rc, err := fs.client.Bucket(fs.bucket).Object(key).NewReader(ctx)
	return rc, errors.Wrap(err, "opening object")
}

func (fs *gcsStore) Delete(ctx context.Context, key string) error {
	err := fs.client.Bucket(fs.bucket).Object(key).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil
	}
	return errors.Wrap(err, "deleting object")
}

func (fs *gcsStore) PublicURL(key string) string {
	path := (&url.URL{Path: "/" + key}).EscapedPath()
	if fs.cdnDomain != "" {
		return fmt.Sprintf("https://%s%s", fs.cdnDomain, path)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s%s", fs.bucket, path)
}
