// Package objectstore is a thin typed facade over the blob store backing
// uploaded bundle files and assets. It is the sole place S3 appears in
// the codebase; every other component depends on the Store interface.
package objectstore

import (
	"context"
	"io"
)

// Object is the result of a Get: the byte stream plus its declared size,
// so callers can set Content-Length without buffering.
type Object struct {
	Body          io.ReadCloser
	ContentLength int64
}

// Store is the object-store contract the core depends on. Keys use '/'
// as a separator and never begin with '/'.
type Store interface {
	Put(ctx context.Context, key string, body io.Reader, size int64) error
	Get(ctx context.Context, key string) (*Object, error)
	List(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, key string) error
}

// ErrNotFound is returned by Get when key does not exist.
var ErrNotFound = notFoundError{}

type notFoundError struct{}

func (notFoundError) Error() string { return "object not found" }

// DeleteAll lists every key under prefix and deletes them, so dashboard
// delete actions don't orphan S3 objects alongside the metadata row they
// remove (spec.md §4.2).
func DeleteAll(ctx context.Context, store Store, prefix string) error {
	keys, err := store.List(ctx, prefix)
	if err != nil {
		return err
	}

	for _, key := range keys {
		if err := store.Delete(ctx, key); err != nil {
			return err
		}
	}

	return nil
}
