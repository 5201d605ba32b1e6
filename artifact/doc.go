// Package artifact persists attack runs as self-describing snapshot objects.
//
// Archive is the high-level entry point: it encodes a run (the aggregate
// report plus the raw adversarial vectors) with a codec, compresses the
// payload, and stores it in a Store keyed by run ID. Snapshot headers record
// the codec and compression used, so any Archive can load any snapshot
// regardless of its own configuration.
//
// # Built-in Stores
//
//   - LocalStore: local filesystem with memory-mapped reads
//   - MemoryStore: in-memory store for tests and ephemeral runs
//   - s3.Store: Amazon S3 with range reads and streaming uploads
//   - minio.Store: MinIO and other S3-compatible object storage
//
// # Custom Stores
//
// Implement the Store interface to support custom backends:
//
//	type Store interface {
//	    Open(ctx, name) (Blob, error)            // Open for reading
//	    Create(ctx, name) (WritableBlob, error)  // Create for streaming writes
//	    Put(ctx, name, data) error               // Atomic write
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
package artifact
