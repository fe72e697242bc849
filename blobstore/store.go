package blobstore

import (
	"context"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations must return an error that satisfies
// `errors.Is(err, ErrNotFound)`. The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// BlobStore is an abstraction for reading and writing whole artifacts.
// Artifacts are small and consumed in one piece, so there is no partial
// read surface.
type BlobStore interface {
	// Open opens a blob for reading.
	Open(ctx context.Context, name string) (Blob, error)

	// Put writes a blob atomically, replacing any existing one.
	Put(ctx context.Context, name string, data []byte) error
}

// Blob is a read-only handle to one artifact.
type Blob interface {
	io.Closer
	// Size returns the size of the blob in bytes.
	Size() int64
	// Bytes returns the blob contents. The slice is valid until Close.
	Bytes() ([]byte, error)
}

// NewMemBlob wraps an in-memory byte slice as a Blob. Remote backends use
// it after fetching an object whole; the slice is not copied.
func NewMemBlob(data []byte) Blob {
	return &memBlob{data: data}
}

type memBlob struct {
	data []byte
}

func (b *memBlob) Close() error           { return nil }
func (b *memBlob) Size() int64            { return int64(len(b.data)) }
func (b *memBlob) Bytes() ([]byte, error) { return b.data, nil }
