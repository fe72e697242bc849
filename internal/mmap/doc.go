// Package mmap provides read-only memory-mapped file access for leaf and
// artifact reads. On platforms without mmap support it falls back to
// reading the file into memory.
package mmap
