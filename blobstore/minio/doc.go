// Package minio provides a MinIO backed blobstore.Store for snapshots.
package minio
