package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/and161185/chunkhub/internal/errs"
)

// Local stores objects as files in one directory.
type Local struct {
	fs  afero.Fs
	dir string
}

// NewLocal returns a store rooted at dir on the OS filesystem, creating it if needed.
func NewLocal(dir string) (*Local, error) {
	return NewLocalFs(afero.NewOsFs(), dir)
}

// NewLocalFs is NewLocal over an arbitrary filesystem.
func NewLocalFs(fs afero.Fs, dir string) (*Local, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Local{fs: fs, dir: dir}, nil
}

// Put writes to a temp file next to the target and renames it into place.
func (l *Local) Put(ctx context.Context, name string, r io.Reader, maxSize int64) (Object, error) {
	if err := ValidName(name); err != nil {
		return Object{}, err
	}
	tmp, err := afero.TempFile(l.fs, l.dir, ".upload-*")
	if err != nil {
		return Object{}, err
	}
	tmpName := tmp.Name()

	size, sum, err := copyChunked(ctx, tmp, r, maxSize)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = l.fs.Rename(tmpName, filepath.Join(l.dir, name))
	}
	if err != nil {
		_ = l.fs.Remove(tmpName)
		return Object{}, err
	}
	return Object{Name: name, Size: size, SHA256: sum}, nil
}

// Open opens the object for reading.
func (l *Local) Open(_ context.Context, name string) (io.ReadCloser, error) {
	if err := ValidName(name); err != nil {
		return nil, err
	}
	f, err := l.fs.Open(filepath.Join(l.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Delete removes the object file.
func (l *Local) Delete(_ context.Context, name string) error {
	if err := ValidName(name); err != nil {
		return err
	}
	err := l.fs.Remove(filepath.Join(l.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
