package radsurvey

import (
	"errors"

	"github.com/glaciodyn/radsurvey/cache"
	"github.com/glaciodyn/radsurvey/store"
)

var (
	// ErrNotFound is returned when a survey, line, or trace does not exist.
	ErrNotFound = store.ErrNotFound

	// ErrEmptyLine is returned when a line exists but has zero locations.
	ErrEmptyLine = store.ErrEmptyLine

	// ErrWriteConflict is returned when a filtered write would clobber an
	// existing destination.
	ErrWriteConflict = store.ErrWriteConflict

	// ErrCacheCorrupt is returned by cache internals when an artifact
	// exists but cannot be decoded. ExtractLine never surfaces it: a
	// corrupt artifact is logged and extraction falls through to the
	// store.
	ErrCacheCorrupt = cache.ErrCorrupt

	// ErrEmptyAssembly indicates that an extraction could not produce a
	// complete matrix: zero records survived channel selection and
	// bounds, or a matched record's sample vector could not be read.
	// An assembled line is all-or-nothing; there is no partial result.
	ErrEmptyAssembly = errors.New("line assembly produced no usable data")
)
