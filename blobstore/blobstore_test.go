package blobstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundtrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Put(ctx, "a.ird", []byte("payload")))

	b, err := s.Open(ctx, "a.ird")
	require.NoError(t, err)
	defer b.Close()

	assert.Equal(t, int64(7), b.Size())
	data, err := b.Bytes()
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)
}

func TestMemoryStoreNotFound(t *testing.T) {
	_, err := NewMemoryStore().Open(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStoreRoundtrip(t *testing.T) {
	ctx := context.Background()
	s := NewLocalStore(t.TempDir())

	require.NoError(t, s.Put(ctx, "survey_line0_0.ird", []byte("abc")))

	b, err := s.Open(ctx, "survey_line0_0.ird")
	require.NoError(t, err)
	defer b.Close()

	data, err := b.Bytes()
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), data)
}

func TestLocalStoreNotFound(t *testing.T) {
	_, err := NewLocalStore(t.TempDir()).Open(context.Background(), "missing.ird")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestLocalStorePutReplaces(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := NewLocalStore(dir)

	require.NoError(t, s.Put(ctx, "a", []byte("old")))
	require.NoError(t, s.Put(ctx, "a", []byte("new")))

	b, err := s.Open(ctx, "a")
	require.NoError(t, err)
	defer b.Close()
	data, _ := b.Bytes()
	assert.Equal(t, []byte("new"), data)

	// No temp file debris.
	matches, err := filepath.Glob(filepath.Join(dir, ".tmp-artifact-*"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestCachingStoreMirrors(t *testing.T) {
	ctx := context.Background()
	remote := NewMemoryStore()
	local := NewMemoryStore()
	require.NoError(t, remote.Put(ctx, "a", []byte("xyz")))

	cs := NewCachingStore(remote, local, 2)

	b, err := cs.Open(ctx, "a")
	require.NoError(t, err)
	data, _ := b.Bytes()
	b.Close()
	assert.Equal(t, []byte("xyz"), data)

	cs.Wait()

	lb, err := local.Open(ctx, "a")
	require.NoError(t, err)
	lb.Close()
}

func TestCachingStorePrefersLocal(t *testing.T) {
	ctx := context.Background()
	remote := NewMemoryStore()
	local := NewMemoryStore()
	require.NoError(t, local.Put(ctx, "a", []byte("local-copy")))

	cs := NewCachingStore(remote, local, 1)

	b, err := cs.Open(ctx, "a")
	require.NoError(t, err)
	defer b.Close()
	data, _ := b.Bytes()
	assert.Equal(t, []byte("local-copy"), data)
}

func TestCachingStoreMissEverywhere(t *testing.T) {
	cs := NewCachingStore(NewMemoryStore(), NewMemoryStore(), 1)
	_, err := cs.Open(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestThrottledStorePassesThrough(t *testing.T) {
	ctx := context.Background()
	inner := NewMemoryStore()
	ts := NewThrottledStore(inner, 1000, 10)

	require.NoError(t, ts.Put(ctx, "a", []byte("1")))
	b, err := ts.Open(ctx, "a")
	require.NoError(t, err)
	b.Close()
}

func TestThrottledStoreHonorsContext(t *testing.T) {
	inner := NewMemoryStore()
	ts := NewThrottledStore(inner, 0.001, 1)

	ctx := context.Background()
	require.NoError(t, ts.Put(ctx, "a", []byte("1"))) // consumes the burst

	cctx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	_, err := ts.Open(cctx, "a")
	assert.Error(t, err)
}
