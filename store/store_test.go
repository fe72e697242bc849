package store_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glaciodyn/radsurvey/store"
	"github.com/glaciodyn/radsurvey/testutil"
)

func buildStore(t *testing.T) *store.Store {
	t.Helper()
	root := filepath.Join(t.TempDir(), "survey.rds")
	b := testutil.NewStoreBuilder(root)
	for _, line := range []int{0, 2, 10} {
		b.AddTrace(line, 0, 0, 0, testutil.Ramp(4, 0))
		b.AddTrace(line, 1, 0, 0, testutil.Ramp(4, 10))
	}
	b.AddTrace(2, 1, 1, 0, testutil.Ramp(4, 20))
	b.AddDir("line_5") // empty line: zero locations
	b.AddRaw("line_2/location_0/datacapture_0/echogram_0_picked", []byte("derived"))
	b.AddRaw("notes.txt", []byte("free text"))
	require.NoError(t, b.Build())

	s, err := store.Open(root, nil)
	require.NoError(t, err)
	return s
}

func TestOpenMissing(t *testing.T) {
	_, err := store.Open(filepath.Join(t.TempDir(), "nope"), nil)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestBasename(t *testing.T) {
	s := buildStore(t)
	assert.Equal(t, "survey", s.Basename())
}

func TestLinesNumericSort(t *testing.T) {
	s := buildStore(t)
	lines, err := s.Lines()
	require.NoError(t, err)
	// line_2 sorts before line_10 despite lexicographic order.
	assert.Equal(t, []string{"line_0", "line_2", "line_5", "line_10"}, lines)
}

func TestChannelCount(t *testing.T) {
	s := buildStore(t)

	n, err := s.ChannelCount(0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// line_2 has one location with two datacaptures: max wins.
	n, err = s.ChannelCount(2)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestChannelCountEmptyLine(t *testing.T) {
	s := buildStore(t)
	_, err := s.ChannelCount(5)
	require.ErrorIs(t, err, store.ErrEmptyLine)
	assert.NotErrorIs(t, err, store.ErrNotFound)
}

func TestChannelCountMissingLine(t *testing.T) {
	s := buildStore(t)
	_, err := s.ChannelCount(99)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestLeafRecordsExcludesPicked(t *testing.T) {
	s := buildStore(t)
	leaves, err := s.LeafRecords(2)
	require.NoError(t, err)

	rels := make([]string, 0, len(leaves))
	for _, l := range leaves {
		rels = append(rels, l.Rel)
		assert.NotContains(t, l.Rel, store.PickedMarker)
	}
	assert.ElementsMatch(t, []string{
		"location_0/datacapture_0/echogram_0",
		"location_1/datacapture_0/echogram_0",
		"location_1/datacapture_1/echogram_0",
	}, rels)
}

func TestLeafRecordsMissingLine(t *testing.T) {
	s := buildStore(t)
	_, err := s.LeafRecords(42)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestLeafAccessors(t *testing.T) {
	l := store.Leaf{Line: 3, Rel: "location_12/datacapture_1/echogram_0"}
	assert.Equal(t, "line_3/location_12/datacapture_1/echogram_0", l.FullPath())

	loc, ok := l.Location()
	require.True(t, ok)
	assert.Equal(t, 12, loc)
	assert.Equal(t, "datacapture_1", l.ChannelGroup())
}

func TestReadTrace(t *testing.T) {
	s := buildStore(t)

	vec, err := s.ReadTrace(0, 1, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, testutil.Ramp(4, 10), vec)

	_, err = s.ReadTrace(0, 9, 0, 0)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestReadLeafCompressed(t *testing.T) {
	root := filepath.Join(t.TempDir(), "c.rds")
	b := testutil.NewStoreBuilder(root)
	b.AddCompressedTrace(0, 0, 0, 0, testutil.Ramp(256, 1))
	require.NoError(t, b.Build())

	s, err := store.Open(root, nil)
	require.NoError(t, err)

	vec, err := s.ReadTrace(0, 0, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, testutil.Ramp(256, 1), vec)
}
