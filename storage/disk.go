package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// DiskStore keeps files in a local directory. It serves development setups
// without a bucket; the directory is exposed under urlPrefix.
type DiskStore struct {
	dir       string
	urlPrefix string
}

func NewDiskStore(dir, urlPrefix string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create notes dir %s: %w", dir, err)
	}
	return &DiskStore{dir: dir, urlPrefix: strings.TrimRight(urlPrefix, "/")}, nil
}

func (d *DiskStore) Dir() string { return d.dir }

func (d *DiskStore) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	f, err := os.Create(filepath.Join(d.dir, filepath.Base(key)))
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", key, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, io.LimitReader(body, MaxUploadSize+1)); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", key, err)
	}
	return d.urlPrefix + "/" + url.PathEscape(key), nil
}

func (d *DiskStore) Delete(ctx context.Context, key string) error {
	err := os.Remove(filepath.Join(d.dir, filepath.Base(key)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}
