// Package cache names and reads pre-extracted line artifacts. Artifacts
// are produced by external extraction tooling; this package only agrees
// on where they live and what they look like on the wire.
package cache
