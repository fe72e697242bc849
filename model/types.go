package model

import (
	"fmt"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/glaciodyn/radsurvey/metadata"
	"github.com/glaciodyn/radsurvey/retain"
)

// FIDWidth is the zero-padded digit width of each path component inside a
// FID. Index values above 10^FIDWidth-1 would collide; widening the scheme
// is a format change, not something callers can opt into.
const FIDWidth = 4

// Path addresses one leaf record in the store:
// line_<l>/location_<x>/datacapture_<c>/echogram_<e>.
type Path struct {
	Line        int
	Location    int
	Datacapture int
	Echogram    int
}

// MalformedPathError indicates a store path that does not decode into the
// expected 4-component shape.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type MalformedPathError struct {
	Path  string
	cause error
}

func (e *MalformedPathError) Error() string {
	return fmt.Sprintf("malformed path: %s", e.Path)
}

func (e *MalformedPathError) Unwrap() error { return e.cause }

// ParsePath decodes an in-store dataset path into a Path.
//
// Parsing is deliberately lenient about prefixes: each of the four
// components contributes the integer after its last underscore, whatever
// the leading word is. Anything else is a MalformedPathError.
func ParsePath(p string) (Path, error) {
	parts := strings.Split(strings.Trim(p, "/"), "/")
	if len(parts) != 4 {
		return Path{}, &MalformedPathError{Path: p}
	}

	var idx [4]int
	for i, part := range parts {
		cut := strings.LastIndex(part, "_")
		if cut < 0 {
			return Path{}, &MalformedPathError{Path: p}
		}
		n, err := strconv.Atoi(part[cut+1:])
		if err != nil || n < 0 {
			return Path{}, &MalformedPathError{Path: p, cause: err}
		}
		idx[i] = n
	}

	return Path{Line: idx[0], Location: idx[1], Datacapture: idx[2], Echogram: idx[3]}, nil
}

// FID returns the fixed-width identifier used to join array data with
// metadata records: each component zero-padded to FIDWidth digits and
// concatenated, 16 digits total.
//
// FID is a pure function of the path. It is collision-free as long as every
// component fits in FIDWidth digits.
func (p Path) FID() string {
	return fmt.Sprintf("%0*d%0*d%0*d%0*d",
		FIDWidth, p.Line, FIDWidth, p.Location, FIDWidth, p.Datacapture, FIDWidth, p.Echogram)
}

// String returns the canonical in-store path.
func (p Path) String() string {
	return fmt.Sprintf("line_%d/location_%d/datacapture_%d/echogram_%d",
		p.Line, p.Location, p.Datacapture, p.Echogram)
}

// Line is an assembled radar line: every selected trace of one line packed
// into a single rectangular matrix, with the metadata records that could be
// associated and a live view of the owning survey's retention map.
type Line struct {
	// Data holds the samples, one column per trace: row index is sample
	// index, column index is trace index in Paths order. Traces shorter
	// than the longest one are zero-padded at the tail.
	Data *mat.Dense

	// Paths lists the in-store dataset paths the matrix columns were built
	// from, in their final (location-sorted, bounded) order.
	Paths []string

	// Number is the line number this gather was extracted from.
	Number int

	// Channels is the normalized datacapture selector the extraction used.
	Channels []int

	// Metadata holds the parsed out-of-band records, keyed by FID. It may
	// be shorter than Paths when metadata blocks were malformed.
	Metadata *metadata.List

	// Retain is the live retention view for this line, shared with the
	// owning survey.
	Retain *retain.LineView
}

// NumTraces returns the number of trace columns.
func (l *Line) NumTraces() int {
	if l.Data == nil {
		return 0
	}
	_, c := l.Data.Dims()
	return c
}

// NumSamples returns the padded sample count per trace.
func (l *Line) NumSamples() int {
	if l.Data == nil {
		return 0
	}
	r, _ := l.Data.Dims()
	return r
}

// Trace returns a copy of column j as a sample vector, or nil for a line
// with no data.
func (l *Line) Trace(j int) []float64 {
	if l.Data == nil {
		return nil
	}
	r, _ := l.Data.Dims()
	out := make([]float64, r)
	mat.Col(out, j, l.Data)
	return out
}
