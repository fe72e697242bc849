// Package s3 provides an AWS S3-backed blob store for cache artifacts.
package s3
