// Package localstore keeps model objects on the local filesystem, laid out
// the same way keys are laid out in a bucket.
package localstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"vehicle-insurance-mlops/internal/core/domain"
	output "vehicle-insurance-mlops/internal/core/ports/output"
)

type store struct {
	root   string
	bucket string
}

// New stores objects under <root>/<bucket>/<key>.
func New(root, bucket string) (output.ModelStore, error) {
	dir := filepath.Join(root, bucket)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create %s: %v", domain.ErrStoreUnavailable, dir, err)
	}
	return &store{root: root, bucket: bucket}, nil
}

func (s *store) Bucket() string { return s.bucket }

func (s *store) URI(key string) string {
	return "file://" + filepath.ToSlash(s.path(key))
}

func (s *store) path(key string) string {
	return filepath.Join(s.root, s.bucket, filepath.FromSlash(key))
}

func (s *store) Put(_ context.Context, key string, data []byte, _ string) error {
	if err := validKey(key); err != nil {
		return err
	}
	p := s.path(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	// Write then rename so readers never observe a partial object.
	tmp, err := os.CreateTemp(filepath.Dir(p), ".upload-*")
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: write %s: %v", domain.ErrStoreUnavailable, key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: write %s: %v", domain.ErrStoreUnavailable, key, err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("%w: publish %s: %v", domain.ErrStoreUnavailable, key, err)
	}
	return nil
}

func (s *store) Get(_ context.Context, key string) ([]byte, error) {
	if err := validKey(key); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrModelNotFound, s.URI(key))
		}
		return nil, fmt.Errorf("%w: read %s: %v", domain.ErrStoreUnavailable, key, err)
	}
	return data, nil
}

func (s *store) Exists(_ context.Context, key string) (bool, error) {
	if err := validKey(key); err != nil {
		return false, err
	}
	_, err := os.Stat(s.path(key))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("%w: stat %s: %v", domain.ErrStoreUnavailable, key, err)
}

func validKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "..") {
		return fmt.Errorf("%w: invalid object key %q", domain.ErrStoreUnavailable, key)
	}
	return nil
}
