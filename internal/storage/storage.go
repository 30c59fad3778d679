// Package storage keeps uploaded binaries. Names are generated by the caller and
// are opaque to the store.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotExist is returned by Open and Delete for unknown names.
var ErrNotExist = errors.New("file does not exist")

type FileStore interface {
	Save(ctx context.Context, name, contentType string, r io.Reader, size int64) error
	// Open returns the content and its stored content type.
	Open(ctx context.Context, name string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, name string) error
}
