// Package minio provides a MinIO-backed blob store for cache artifacts
// kept in S3-compatible object storage.
package minio
