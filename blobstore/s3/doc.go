// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("battles/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	sources, err := pointio.Load(ctx, store, "red.npt", nil)
//
// # Features
//
//   - Range reads, so parquet footers are fetched without the whole object
//   - Multipart uploads for large point sets
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3
