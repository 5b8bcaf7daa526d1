package blobstore

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies
// errors.Is(err, ErrNotFound).
var ErrNotFound = errors.New("blobstore: blob not found")

// Store is an abstraction over object storage for whole snapshot blobs.
// Writes are atomic: a blob becomes visible to readers only once Put has
// returned without error.
type Store interface {
	// Put writes the blob read from r under name, replacing any existing blob.
	Put(ctx context.Context, name string, r io.Reader) error

	// Get opens the named blob for reading. The caller closes the returned
	// reader.
	Get(ctx context.Context, name string) (io.ReadCloser, error)

	// Delete removes the named blob. Deleting an absent blob is not an error.
	Delete(ctx context.Context, name string) error

	// List returns the blob names with the given prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}
