// Package retain tracks which (line, location) subtrees of a survey store
// should be kept on selective re-serialization.
//
// The map is deliberately auto-vivifying: reading a never-set cell
// materializes it as kept. Quality-control steps flag bad locations as
// discarded; everything else stays kept by default, including locations the
// caller never looked at explicitly.
package retain

import (
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
)

// Map is a line → location → kept mapping. It is in-process mutable shared
// state with no internal locking; callers coordinate access (the survey
// model is single-writer).
type Map struct {
	lines map[int]*lineState
}

// lineState holds two bitmaps per line: the locations the map knows about,
// and the subset of those that are kept. A location absent from known reads
// as kept and is inserted on first access.
type lineState struct {
	known *roaring.Bitmap
	kept  *roaring.Bitmap
}

// NewMap creates an empty retention map.
func NewMap() *Map {
	return &Map{lines: make(map[int]*lineState)}
}

func (m *Map) state(line int) *lineState {
	st, ok := m.lines[line]
	if !ok {
		st = &lineState{known: roaring.New(), kept: roaring.New()}
		m.lines[line] = st
	}
	return st
}

// Get reports whether (line, location) is kept. A never-set cell reads as
// kept and is materialized with that value as a side effect, so later
// enumeration and serialization see it.
func (m *Map) Get(line, location int) bool {
	return m.state(line).get(location)
}

// Set overwrites the kept flag for (line, location). No validation is done
// against the store; callers are responsible for addressing real cells.
func (m *Map) Set(line, location int, keep bool) {
	m.state(line).set(location, keep)
}

// View returns a live, mutation-visible view scoped to one line. The view
// shares state with the map; changes on either side are visible to both.
func (m *Map) View(line int) *LineView {
	return &LineView{st: m.state(line)}
}

// Lines returns the line numbers present in the map, ascending.
func (m *Map) Lines() []int {
	out := make([]int, 0, len(m.lines))
	for line := range m.lines {
		out = append(out, line)
	}
	sort.Ints(out)
	return out
}

func (st *lineState) get(location int) bool {
	loc := uint32(location)
	if !st.known.Contains(loc) {
		st.known.Add(loc)
		st.kept.Add(loc)
		return true
	}
	return st.kept.Contains(loc)
}

func (st *lineState) set(location int, keep bool) {
	loc := uint32(location)
	st.known.Add(loc)
	if keep {
		st.kept.Add(loc)
	} else {
		st.kept.Remove(loc)
	}
}

// LineView is a live window onto one line of a Map.
type LineView struct {
	st *lineState
}

// Get reports whether the location is kept, materializing it as kept if it
// was never set (same auto-vivification as Map.Get).
func (v *LineView) Get(location int) bool { return v.st.get(location) }

// Set overwrites the kept flag for the location.
func (v *LineView) Set(location int, keep bool) { v.st.set(location, keep) }

// Len returns the number of materialized locations.
func (v *LineView) Len() int { return int(v.st.known.GetCardinality()) }

// Locations returns the materialized locations, ascending.
func (v *LineView) Locations() []int {
	out := make([]int, 0, v.st.known.GetCardinality())
	it := v.st.known.Iterator()
	for it.HasNext() {
		out = append(out, int(it.Next()))
	}
	return out
}

// Discarded returns the materialized locations flagged as not kept,
// ascending.
func (v *LineView) Discarded() []int {
	dropped := roaring.AndNot(v.st.known, v.st.kept)
	out := make([]int, 0, dropped.GetCardinality())
	it := dropped.Iterator()
	for it.HasNext() {
		out = append(out, int(it.Next()))
	}
	return out
}

// Snapshot returns a detached copy of the view as a plain map. Used when an
// assembled line is serialized into a cache artifact.
func (v *LineView) Snapshot() map[int]bool {
	out := make(map[int]bool, v.st.known.GetCardinality())
	it := v.st.known.Iterator()
	for it.HasNext() {
		loc := it.Next()
		out[int(loc)] = v.st.kept.Contains(loc)
	}
	return out
}

// Restore merges a snapshot into the view. Existing cells are overwritten.
func (v *LineView) Restore(snap map[int]bool) {
	for loc, keep := range snap {
		v.st.set(loc, keep)
	}
}
