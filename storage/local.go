package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LocalBackend stores objects as files below a root directory.
type LocalBackend struct {
	root string
}

// NewLocalBackend returns a backend rooted at dir. Directories are created on
// first write.
func NewLocalBackend(dir string) *LocalBackend {
	return &LocalBackend{root: dir}
}

// Root returns the directory holding the file tree.
func (b *LocalBackend) Root() string {
	return b.root
}

func (b *LocalBackend) filePath(key string) (string, error) {
	clean := path.Clean("/" + key)
	if clean == "/" || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(b.root, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}

func (b *LocalBackend) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (int64, error) {
	p, err := b.filePath(key)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return 0, fmt.Errorf("failed to create directory for %s: %w", key, err)
	}

	// O_EXCL: generated names must never overwrite an existing file.
	f, err := os.OpenFile(p, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", key, err)
	}

	n, err := io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		os.Remove(p)
		return 0, fmt.Errorf("failed to write %s: %w", key, err)
	}
	return n, nil
}

func (b *LocalBackend) Open(ctx context.Context, key string) (io.ReadCloser, *ObjectInfo, error) {
	p, err := b.filePath(key)
	if err != nil {
		return nil, nil, ErrObjectNotFound
	}
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, ErrObjectNotFound
		}
		return nil, nil, fmt.Errorf("failed to open %s: %w", key, err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("failed to stat %s: %w", key, err)
	}
	if st.IsDir() {
		f.Close()
		return nil, nil, ErrObjectNotFound
	}
	return f, &ObjectInfo{
		Key:          key,
		Size:         st.Size(),
		LastModified: st.ModTime(),
		ContentType:  ContentTypeFor(key),
	}, nil
}

func (b *LocalBackend) Remove(ctx context.Context, key string) error {
	p, err := b.filePath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}

func (b *LocalBackend) Exists(ctx context.Context, key string) (bool, error) {
	p, err := b.filePath(key)
	if err != nil {
		return false, nil
	}
	st, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat %s: %w", key, err)
	}
	return !st.IsDir(), nil
}

func (b *LocalBackend) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	dir := filepath.Join(b.root, filepath.FromSlash(prefix))
	objects := make([]ObjectInfo, 0)
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return fs.SkipDir
			}
			return err
		}
		if d.IsDir() {
			return ctx.Err()
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(b.root, p)
		if err != nil {
			return err
		}
		objects = append(objects, ObjectInfo{
			Key:          filepath.ToSlash(rel),
			Size:         info.Size(),
			LastModified: info.ModTime(),
			ContentType:  ContentTypeFor(rel),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", prefix, err)
	}
	return objects, nil
}
