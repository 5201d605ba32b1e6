package artifact

import (
	"context"
	"io"
	"os"
)

// ErrNotFound is returned when a stored object does not exist.
// Implementations return errors satisfying errors.Is(err, ErrNotFound).
var ErrNotFound = os.ErrNotExist

// Store is an abstraction for reading and writing snapshot objects.
// Implementations must be safe for concurrent use.
type Store interface {
	// Open opens an object for reading.
	// Returns ErrNotFound if the object does not exist.
	Open(ctx context.Context, name string) (Blob, error)

	// Create creates an object for streaming writes. The object becomes
	// visible when the returned blob is closed.
	Create(ctx context.Context, name string) (WritableBlob, error)

	// Put writes an object in one shot. Existing objects are replaced
	// atomically.
	Put(ctx context.Context, name string, data []byte) error

	// Delete removes an object. Deleting a missing object is not an error.
	Delete(ctx context.Context, name string) error

	// List returns all object names with the given prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Blob is a read-only handle to a stored object.
type Blob interface {
	// ReadAt reads len(p) bytes starting at offset off.
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)

	// ReadRange returns a reader over [off, off+length), clamped to the
	// object's size. The reader must be closed before the blob.
	ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error)

	// Size returns the size of the object in bytes.
	Size() int64

	Close() error
}

// WritableBlob is a streaming write handle to a new object.
type WritableBlob interface {
	io.Writer

	// Sync flushes buffered data to stable storage where the backend
	// supports it.
	Sync() error

	// Close finalizes the object.
	Close() error
}

// Mappable is an optional interface for Blobs that expose their contents
// as memory without copying.
type Mappable interface {
	// Bytes returns the object's bytes. The slice is only valid until the
	// blob is closed.
	Bytes() ([]byte, error)
}
