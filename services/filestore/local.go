package filestore

import (
	"context"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/Reema362/avocop/core"
)

type localStore struct {
	root    string
	baseURL string
}

var _ core.FileStore = (*localStore)(nil)

// NewLocalStore stores media under root; baseURL prefixes public URLs
// (typically the API's /media mount).
func NewLocalStore(root, baseURL string) (core.FileStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating media dir")
	}
	return &localStore{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// path maps a key onto the root dir, refusing traversal outside it.
func (fs *localStore) path(key string) (string, error) {
	p := filepath.Join(fs.root, filepath.FromSlash(key))
	if !strings.HasPrefix(p, filepath.Clean(fs.root)+string(filepath.Separator)) {
		return "", errors.Errorf("invalid key %q", key)
	}
	return p, nil
}

func (fs *localStore) Save(ctx context.Context, key string, r io.Reader, contentType string) error {
	p, err := fs.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return errors.Wrap(err, "creating media subdir")
	}

	f, err := os.Create(p)
	if err != nil {
		return errors.Wrap(err, "creating media file")
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return errors.Wrap(err, "writing media file")
	}
	return errors.Wrap(f.Close(), "closing media file")
}

func (fs *localStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	p, err := fs.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	return f, errors.Wrap(err, "opening media file")
}

func (fs *localStore) Delete(ctx context.Context, key string) error {
	p, err := fs.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "deleting media file")
	}
	return nil
}

func (fs *localStore) PublicURL(key string) string {
	return fs.baseURL + (&url.URL{Path: "/" + key}).EscapedPath()
}
