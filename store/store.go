package store

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/glaciodyn/radsurvey/internal/fs"
	"github.com/glaciodyn/radsurvey/internal/mmap"
)

// Naming convention of the store producer.
const (
	LinePrefix     = "line_"
	LocationPrefix = "location_"
	ChannelPrefix  = "datacapture_"
	EchogramPrefix = "echogram_"

	// PickedMarker is the reserved substring the producer uses for derived
	// and annotated records. Anything whose in-store path contains it is
	// never a primary extraction target. This is a convention of the store
	// producer, not derived logic.
	PickedMarker = "picked"
)

var (
	// ErrNotFound is returned when a requested line or path does not exist
	// in the store.
	ErrNotFound = errors.New("not found")

	// ErrEmptyLine is returned when a line exists but has zero locations.
	// Distinct from ErrNotFound.
	ErrEmptyLine = errors.New("empty line")

	// ErrWriteConflict is returned when a filtered write would clobber an
	// existing destination, or when the write target turns out to be in an
	// unexpected state mid-write.
	ErrWriteConflict = errors.New("write conflict")
)

// Store is a handle to one survey container. It holds no open file
// handles: every operation opens what it needs for the duration of the
// call and releases it on all exit paths.
type Store struct {
	path string
	fsys fs.FileSystem
}

// Open validates that a survey container exists at path and returns a
// handle to it.
func Open(path string, fsys fs.FileSystem) (*Store, error) {
	if fsys == nil {
		fsys = fs.Default
	}
	info, err := fsys.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: no survey exists at %s", ErrNotFound, path)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a survey container", ErrNotFound, path)
	}
	return &Store{path: path, fsys: fsys}, nil
}

// Path returns the container root path.
func (s *Store) Path() string { return s.path }

// Basename returns the container's base name without extension, used in
// canonical cache artifact names.
func (s *Store) Basename() string {
	base := filepath.Base(s.path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// GroupIndex extracts the integer embedded after the last underscore of a
// group name, e.g. 10 from "line_10". Returns false for names without a
// non-negative integer suffix.
func GroupIndex(name string) (int, bool) {
	return lineIndex(name)
}

// lineIndex extracts the integer embedded after the last underscore of a
// group name.
func lineIndex(name string) (int, bool) {
	cut := strings.LastIndex(name, "_")
	if cut < 0 {
		return 0, false
	}
	n, err := strconv.Atoi(name[cut+1:])
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Lines returns the line group names in the store, sorted ascending by
// their embedded integer (line_2 before line_10).
func (s *Store) Lines() ([]string, error) {
	entries, err := s.fsys.ReadDir(s.path)
	if err != nil {
		return nil, err
	}

	var lines []string
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), "line") {
			continue
		}
		if _, ok := lineIndex(e.Name()); !ok {
			continue
		}
		lines = append(lines, e.Name())
	}

	sort.Slice(lines, func(i, j int) bool {
		a, _ := lineIndex(lines[i])
		b, _ := lineIndex(lines[j])
		return a < b
	})
	return lines, nil
}

// lineDir resolves the directory of a line number, or ErrNotFound.
func (s *Store) lineDir(line int) (string, error) {
	dir := filepath.Join(s.path, fmt.Sprintf("%s%d", LinePrefix, line))
	info, err := s.fsys.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: %s%d", ErrNotFound, LinePrefix, line)
	}
	return dir, nil
}

// Locations returns the location group names under a line, sorted by their
// embedded integer.
func (s *Store) Locations(line int) ([]string, error) {
	dir, err := s.lineDir(line)
	if err != nil {
		return nil, err
	}
	entries, err := s.fsys.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var locs []string
	for _, e := range entries {
		if e.IsDir() {
			locs = append(locs, e.Name())
		}
	}
	sort.Slice(locs, func(i, j int) bool {
		a, aok := lineIndex(locs[i])
		b, bok := lineIndex(locs[j])
		if aok && bok {
			return a < b
		}
		return locs[i] < locs[j]
	})
	return locs, nil
}

// ChannelCount returns the number of datacapture groups per location in a
// line. If the number is not constant throughout the line, the maximum is
// returned. A line with zero locations yields ErrEmptyLine.
func (s *Store) ChannelCount(line int) (int, error) {
	dir, err := s.lineDir(line)
	if err != nil {
		return 0, err
	}
	locs, err := s.Locations(line)
	if err != nil {
		return 0, err
	}
	if len(locs) == 0 {
		return 0, fmt.Errorf("%w: %s%d has no locations", ErrEmptyLine, LinePrefix, line)
	}

	maxCount := 0
	for _, loc := range locs {
		entries, err := s.fsys.ReadDir(filepath.Join(dir, loc))
		if err != nil {
			return 0, err
		}
		if len(entries) > maxCount {
			maxCount = len(entries)
		}
	}
	return maxCount, nil
}

// Leaf is a handle to one leaf record, addressed relative to its line
// group.
type Leaf struct {
	Line int
	// Rel is the path under the line group, e.g.
	// "location_3/datacapture_0/echogram_0".
	Rel string
}

// FullPath returns the in-store dataset path including the line group.
func (l Leaf) FullPath() string {
	return fmt.Sprintf("%s%d/%s", LinePrefix, l.Line, l.Rel)
}

// Location returns the integer embedded in the leaf's location component.
func (l Leaf) Location() (int, bool) {
	first, _, found := strings.Cut(l.Rel, "/")
	if !found {
		return 0, false
	}
	return lineIndex(first)
}

// ChannelGroup returns the name of the leaf's parent group, by convention
// the datacapture the record belongs to.
func (l Leaf) ChannelGroup() string {
	return filepath.Base(filepath.Dir(l.Rel))
}

// LeafRecords enumerates every leaf under a line, depth-first, excluding
// any record whose path contains PickedMarker.
func (s *Store) LeafRecords(line int) ([]Leaf, error) {
	dir, err := s.lineDir(line)
	if err != nil {
		return nil, err
	}

	var leaves []Leaf
	var walk func(rel string) error
	walk = func(rel string) error {
		entries, err := s.fsys.ReadDir(filepath.Join(dir, rel))
		if err != nil {
			return err
		}
		for _, e := range entries {
			childRel := e.Name()
			if rel != "" {
				childRel = rel + "/" + e.Name()
			}
			if e.IsDir() {
				if err := walk(childRel); err != nil {
					return err
				}
				continue
			}
			if strings.Contains(childRel, PickedMarker) {
				continue
			}
			leaves = append(leaves, Leaf{Line: line, Rel: childRel})
		}
		return nil
	}
	if err := walk(""); err != nil {
		return nil, err
	}
	return leaves, nil
}

// ReadLeaf reads and decodes one leaf record, returning its sample vector
// and raw metadata block.
func (s *Store) ReadLeaf(l Leaf) ([]float64, []byte, error) {
	path := filepath.Join(s.path, fmt.Sprintf("%s%d", LinePrefix, l.Line), filepath.FromSlash(l.Rel))
	m, err := mmap.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", l.FullPath(), err)
	}
	defer m.Close()

	samples, meta, err := DecodeLeaf(m.Bytes())
	if err != nil {
		return nil, nil, fmt.Errorf("decode %s: %w", l.FullPath(), err)
	}
	return samples, meta, nil
}

// ReadTrace extracts the sample vector of one leaf by its full
// (line, location, datacapture, echogram) address.
func (s *Store) ReadTrace(line, location, datacapture, echogram int) ([]float64, error) {
	rel := fmt.Sprintf("%s%d/%s%d/%s%d",
		LocationPrefix, location, ChannelPrefix, datacapture, EchogramPrefix, echogram)
	leaf := Leaf{Line: line, Rel: rel}

	path := filepath.Join(s.path, fmt.Sprintf("%s%d", LinePrefix, line), filepath.FromSlash(rel))
	if _, err := s.fsys.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, leaf.FullPath())
	}

	samples, _, err := s.ReadLeaf(leaf)
	return samples, err
}
