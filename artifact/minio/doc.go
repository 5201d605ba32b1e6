// Package minio provides an artifact.Store implementation for MinIO and
// other S3-compatible object storage (Ceph, Garage, self-hosted setups).
//
// # Usage
//
//	store, err := minio.New(minio.Config{
//	    Endpoint:  "localhost:9000",
//	    AccessKey: "minioadmin",
//	    SecretKey: "minioadmin",
//	}, "advgo")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	archive := artifact.NewArchive(store)
//
// Unlike the s3 package, this client speaks to any S3-compatible endpoint
// without AWS config plumbing, which makes it the natural choice for local
// lab setups and CI.
package minio
