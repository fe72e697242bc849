// Package model defines the shared value types of the survey store: the
// four-level container path addressing one echogram leaf, the fixed-width
// FID derived from it, and the assembled line returned by extraction.
package model
