package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// LocalBackend keeps files in a single directory on disk.
type LocalBackend struct {
	root string
}

// NewLocal creates the directory if needed and returns a backend rooted there.
func NewLocal(root string) (*LocalBackend, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve upload dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalBackend{root: abs}, nil
}

// Root is the canonical storage directory.
func (b *LocalBackend) Root() string { return b.root }

func (b *LocalBackend) path(name string) string {
	return filepath.Join(b.root, filepath.Base(name))
}

// Put writes body under name. O_EXCL makes a name collision an error instead
// of a silent overwrite.
func (b *LocalBackend) Put(_ context.Context, name string, body io.Reader, _ int64, _ string) error {
	path := b.path(name)
	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := io.Copy(dst, body); err != nil {
		dst.Close()
		os.Remove(path)
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("close %s: %w", name, err)
	}
	return nil
}

// Get opens name for reading.
func (b *LocalBackend) Get(_ context.Context, name string) (*Object, error) {
	f, err := os.Open(b.path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotExist
		}
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat %s: %w", name, err)
	}
	return &Object{Body: f, Size: info.Size(), ModTime: info.ModTime()}, nil
}

// Delete removes name.
func (b *LocalBackend) Delete(_ context.Context, name string) error {
	if err := os.Remove(b.path(name)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotExist
		}
		return fmt.Errorf("remove %s: %w", name, err)
	}
	return nil
}
