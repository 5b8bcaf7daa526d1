// Package blobstore abstracts object storage for imputation snapshots.
//
// The in-memory and local filesystem stores live here; S3 and MinIO backed
// stores live in the s3 and minio subpackages so their SDK dependencies stay
// out of the core module graph.
package blobstore
