// Package s3 provides an Amazon S3 implementation of the artifact.Store
// interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket", s3.WithPrefix("advgo/"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	archive := artifact.NewArchive(store)
//	name, err := archive.Save(ctx, snap)
//
// # Features
//
//   - Range reads so partial fetches never download whole snapshots
//   - Streaming multipart uploads for large runs
//   - CRC32C integrity validation on writes
//   - Automatic pagination for listing
//   - Configurable key prefix for shared buckets
//
// # Run ledger
//
// S3 offers no atomic compare-and-swap, so concurrent experiment runners
// cannot agree on the latest run through S3 alone. Ledger tracks run
// commits in a DynamoDB table with conditional writes; see its
// documentation for the table schema.
package s3
