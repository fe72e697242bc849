package radsurvey_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glaciodyn/radsurvey"
	"github.com/glaciodyn/radsurvey/blobstore"
	"github.com/glaciodyn/radsurvey/store"
	"github.com/glaciodyn/radsurvey/testutil"
)

// raggedSurvey has one line with three locations of differing sample
// counts, deliberately written out of location order, plus a second
// channel on one location and a picked dataset.
func raggedSurvey(t *testing.T) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "ragged.survey")

	b := testutil.NewStoreBuilder(root)
	b.AddTrace(3, 10, 0, 0, testutil.Ramp(2, 200)) // written first, sorts last
	b.AddTrace(3, 0, 0, 0, testutil.Ramp(4, 0))
	b.AddTrace(3, 2, 0, 0, testutil.Ramp(3, 100))
	b.AddTrace(3, 0, 1, 0, testutil.Ramp(5, 900))
	b.AddRaw("line_3/location_0/datacapture_0/echogram_0_picked", []byte("derived"))
	require.NoError(t, b.Build())
	return root
}

func TestExtractLineOrderAndPadding(t *testing.T) {
	sv, err := radsurvey.Open(raggedSurvey(t))
	require.NoError(t, err)

	line, err := sv.ExtractLine(context.Background(), 3)
	require.NoError(t, err)

	// Location order, not directory read order.
	assert.Equal(t, []string{
		"line_3/location_0/datacapture_0/echogram_0",
		"line_3/location_2/datacapture_0/echogram_0",
		"line_3/location_10/datacapture_0/echogram_0",
	}, line.Paths)

	// Padded to the longest trace, samples down the rows.
	assert.Equal(t, 4, line.NumSamples())
	assert.Equal(t, 3, line.NumTraces())

	assert.Equal(t, testutil.Ramp(4, 0), line.Trace(0))
	// Short traces are zero-padded at the tail.
	assert.Equal(t, []float64{100, 101, 102, 0}, line.Trace(1))
	assert.Equal(t, []float64{200, 201, 0, 0}, line.Trace(2))
}

func TestExtractLineMetadata(t *testing.T) {
	sv, err := radsurvey.Open(raggedSurvey(t))
	require.NoError(t, err)

	line, err := sv.ExtractLine(context.Background(), 3)
	require.NoError(t, err)

	require.NotNil(t, line.Metadata)
	assert.Equal(t, 3, line.Metadata.Len())

	rec, ok := line.Metadata.Get("0003000200000000")
	require.True(t, ok)
	assert.Equal(t, 7, rec.NumSats)
}

func TestExtractLineSecondChannel(t *testing.T) {
	sv, err := radsurvey.Open(raggedSurvey(t))
	require.NoError(t, err)

	line, err := sv.ExtractLine(context.Background(), 3, radsurvey.WithChannel(1))
	require.NoError(t, err)

	assert.Equal(t, []int{1}, line.Channels)
	assert.Equal(t, 1, line.NumTraces())
	assert.Equal(t, testutil.Ramp(5, 900), line.Trace(0))
}

func TestExtractLineMultiChannel(t *testing.T) {
	sv, err := radsurvey.Open(raggedSurvey(t))
	require.NoError(t, err)

	line, err := sv.ExtractLine(context.Background(), 3, radsurvey.WithChannels(0, 1))
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1}, line.Channels)
	assert.Equal(t, 4, line.NumTraces())
}

func TestExtractLineNoMatch(t *testing.T) {
	sv, err := radsurvey.Open(raggedSurvey(t))
	require.NoError(t, err)

	// No dataset on channel 7: the assembly has nothing to build from and
	// must fail rather than hand back a partial line.
	_, err = sv.ExtractLine(context.Background(), 3, radsurvey.WithChannel(7))
	assert.ErrorIs(t, err, radsurvey.ErrEmptyAssembly)
}

func TestExtractLineMalformedLeafPathKeepsData(t *testing.T) {
	root := filepath.Join(t.TempDir(), "odd.survey")
	frame, err := store.EncodeLeaf(testutil.Ramp(3, 50), []byte(testutil.MetaXML("2016-05-01T12:00:00Z", 69, -105, 7)), false)
	require.NoError(t, err)

	b := testutil.NewStoreBuilder(root)
	b.AddTrace(0, 0, 0, 0, testutil.Ramp(3, 0))
	// A leaf whose name carries no decodable echogram index.
	b.AddRaw("line_0/location_1/datacapture_0/echogram_x", frame)
	require.NoError(t, b.Build())

	sv, err := radsurvey.Open(root)
	require.NoError(t, err)

	line, err := sv.ExtractLine(context.Background(), 0)
	require.NoError(t, err)

	// The undecodable path keeps its column; only the metadata join is
	// lost.
	assert.Equal(t, 2, line.NumTraces())
	assert.Equal(t, []string{
		"line_0/location_0/datacapture_0/echogram_0",
		"line_0/location_1/datacapture_0/echogram_x",
	}, line.Paths)
	assert.Equal(t, testutil.Ramp(3, 50), line.Trace(1))

	assert.Equal(t, 1, line.Metadata.Len())
	_, ok := line.Metadata.Get("0000000000000000")
	assert.True(t, ok)
}

func TestExtractLineMissing(t *testing.T) {
	sv, err := radsurvey.Open(raggedSurvey(t))
	require.NoError(t, err)

	_, err = sv.ExtractLine(context.Background(), 42)
	assert.ErrorIs(t, err, radsurvey.ErrNotFound)
}

func TestExtractLineBounds(t *testing.T) {
	sv, err := radsurvey.Open(raggedSurvey(t))
	require.NoError(t, err)
	ctx := context.Background()

	line, err := sv.ExtractLine(ctx, 3, radsurvey.WithBounds(1, 3))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"line_3/location_2/datacapture_0/echogram_0",
		"line_3/location_10/datacapture_0/echogram_0",
	}, line.Paths)

	// Out-of-range indices clamp.
	line, err = sv.ExtractLine(ctx, 3, radsurvey.WithBounds(0, 100))
	require.NoError(t, err)
	assert.Equal(t, 3, line.NumTraces())

	// Inverted bounds cut everything away: empty assemblies are errors.
	_, err = sv.ExtractLine(ctx, 3, radsurvey.WithBounds(2, 1))
	assert.ErrorIs(t, err, radsurvey.ErrEmptyAssembly)

	// Negative indices clamp to zero, they do not count from the end.
	line, err = sv.ExtractLine(ctx, 3, radsurvey.WithBounds(-5, 100))
	require.NoError(t, err)
	assert.Equal(t, 3, line.NumTraces())
	_, err = sv.ExtractLine(ctx, 3, radsurvey.WithBounds(0, -1))
	assert.ErrorIs(t, err, radsurvey.ErrEmptyAssembly)

	// Malformed bounds are diagnosed and ignored.
	line, err = sv.ExtractLine(ctx, 3, radsurvey.WithBounds(1))
	require.NoError(t, err)
	assert.Equal(t, 3, line.NumTraces())
}

func TestExtractLineRetentionView(t *testing.T) {
	sv, err := radsurvey.Open(raggedSurvey(t))
	require.NoError(t, err)

	line, err := sv.ExtractLine(context.Background(), 3)
	require.NoError(t, err)
	require.NotNil(t, line.Retain)

	// The view is live: flags flow both ways.
	line.Retain.Set(2, false)
	assert.False(t, sv.Retain().Get(3, 2))
	assert.Equal(t, []int{2}, line.Retain.Discarded())
}

func TestExtractLineBadMetadataBlocks(t *testing.T) {
	root := filepath.Join(t.TempDir(), "meta.survey")
	b := testutil.NewStoreBuilder(root)
	b.AddTrace(0, 0, 0, 0, testutil.Ramp(2, 0))
	b.AddTraceMeta(0, 1, 0, 0, testutil.Ramp(2, 10), "<trace><gps>") // structural fault
	b.AddTraceMeta(0, 2, 0, 0, testutil.Ramp(2, 20),
		"<trace><gps><lat>nope</lat></gps></trace>") // value fault
	require.NoError(t, b.Build())

	sv, err := radsurvey.Open(root)
	require.NoError(t, err)

	line, err := sv.ExtractLine(context.Background(), 0)
	require.NoError(t, err)

	// All three traces make it into the matrix.
	assert.Equal(t, 3, line.NumTraces())

	// Only the clean block yields a metadata record.
	assert.Equal(t, 1, line.Metadata.Len())
	_, ok := line.Metadata.Get("0000000000000000")
	assert.True(t, ok)
}

func TestExtractLineFromCache(t *testing.T) {
	blobs := blobstore.NewMemoryStore()
	metrics := &radsurvey.BasicMetricsCollector{}
	sv, err := radsurvey.Open(raggedSurvey(t),
		radsurvey.WithArtifactStore(blobs),
		radsurvey.WithMetricsCollector(metrics),
	)
	require.NoError(t, err)
	ctx := context.Background()

	// Miss first, then seed the artifact and hit.
	line, err := sv.ExtractLine(ctx, 3, radsurvey.FromCache())
	require.NoError(t, err)
	require.NoError(t, sv.SaveCached(ctx, line))

	hit, err := sv.ExtractLine(ctx, 3, radsurvey.FromCache())
	require.NoError(t, err)

	assert.Equal(t, line.Paths, hit.Paths)
	assert.Equal(t, line.NumSamples(), hit.NumSamples())
	require.NotNil(t, hit.Retain)

	stats := metrics.GetStats()
	assert.Equal(t, int64(1), stats.CacheHits)
	assert.Equal(t, int64(1), stats.CacheMisses)
}

func TestExtractLineCorruptArtifactFallsThrough(t *testing.T) {
	blobs := blobstore.NewMemoryStore()
	metrics := &radsurvey.BasicMetricsCollector{}
	sv, err := radsurvey.Open(raggedSurvey(t),
		radsurvey.WithArtifactStore(blobs),
		radsurvey.WithMetricsCollector(metrics),
	)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, blobs.Put(ctx, sv.CacheName(3, 0), []byte("garbage garbage garbage")))

	line, err := sv.ExtractLine(ctx, 3, radsurvey.FromCache())
	require.NoError(t, err)
	assert.Equal(t, 3, line.NumTraces())
	assert.Equal(t, int64(1), metrics.GetStats().CacheCorrupt)
}

func TestExtractLineCacheBypassedForMultiChannel(t *testing.T) {
	blobs := blobstore.NewMemoryStore()
	metrics := &radsurvey.BasicMetricsCollector{}
	sv, err := radsurvey.Open(raggedSurvey(t),
		radsurvey.WithArtifactStore(blobs),
		radsurvey.WithMetricsCollector(metrics),
	)
	require.NoError(t, err)

	_, err = sv.ExtractLine(context.Background(), 3,
		radsurvey.WithChannels(0, 1), radsurvey.FromCache())
	require.NoError(t, err)

	stats := metrics.GetStats()
	assert.Zero(t, stats.CacheHits+stats.CacheMisses+stats.CacheCorrupt)
}
