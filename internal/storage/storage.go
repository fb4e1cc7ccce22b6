// Package storage keeps uploaded modpack artifacts. Objects are addressed by
// a flat name such as "skyblock-1.2.0.mrpack".
package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/and161185/chunkhub/internal/errs"
)

// ChunkSize is the read granularity used while streaming an upload.
const ChunkSize = 8192

// Object describes a stored artifact.
type Object struct {
	Name   string
	Size   int64
	SHA256 string // hex
}

// Store persists artifacts.
type Store interface {
	// Put streams r into the object name. Reading stops with
	// errs.ErrFileTooLarge as soon as more than maxSize bytes arrive, and
	// nothing is left behind. An existing object is replaced atomically.
	Put(ctx context.Context, name string, r io.Reader, maxSize int64) (Object, error)
	// Open returns the object content; errs.ErrNotFound if absent.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	// Delete removes the object. A missing object is not an error.
	Delete(ctx context.Context, name string) error
}

// ValidName rejects names that could escape the store namespace.
func ValidName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return fmt.Errorf("object name %q: %w", name, errs.ErrInvalidInput)
	}
	return nil
}

// copyChunked copies src to dst in ChunkSize reads, hashing the stream and
// enforcing maxSize after every chunk.
func copyChunked(ctx context.Context, dst io.Writer, src io.Reader, maxSize int64) (int64, string, error) {
	h := sha256.New()
	w := io.MultiWriter(dst, h)
	buf := make([]byte, ChunkSize)
	var size int64
	for {
		if err := ctx.Err(); err != nil {
			return size, "", err
		}
		n, rerr := src.Read(buf)
		if n > 0 {
			size += int64(n)
			if size > maxSize {
				return size, "", errs.ErrFileTooLarge
			}
			if _, err := w.Write(buf[:n]); err != nil {
				return size, "", err
			}
		}
		if rerr == io.EOF {
			return size, hex.EncodeToString(h.Sum(nil)), nil
		}
		if rerr != nil {
			return size, "", rerr
		}
	}
}
