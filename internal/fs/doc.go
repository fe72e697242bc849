// Package fs provides a minimal file system abstraction so that store
// traversal and filtered re-serialization can be tested against injected
// failures.
package fs
