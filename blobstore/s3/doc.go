// Package s3 provides an Amazon S3 backed blobstore.Store for snapshots.
package s3
