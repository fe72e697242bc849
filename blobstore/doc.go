// Package blobstore abstracts where cache artifacts live. Artifacts are
// produced by external extraction tools, often on a cluster, so the cache
// gateway reads them through this interface: local directories for
// single-machine work, MinIO/S3 for shared object storage, with optional
// rate limiting and a local read-through mirror for remote backends.
package blobstore
