package blobstore

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/semaphore"
)

// CachingStore is a read-through local mirror of a remote BlobStore.
// Artifacts fetched from the remote are written to the local store in the
// background; later opens of the same name are served locally. Mirror
// writes are bounded by a semaphore so a cache warm-up cannot spawn an
// unbounded number of goroutines.
type CachingStore struct {
	remote BlobStore
	local  BlobStore

	sem *semaphore.Weighted
	wg  sync.WaitGroup
}

// NewCachingStore mirrors remote into local. maxConcurrentWrites defaults
// to 4 if <= 0.
func NewCachingStore(remote, local BlobStore, maxConcurrentWrites int64) *CachingStore {
	if maxConcurrentWrites <= 0 {
		maxConcurrentWrites = 4
	}
	return &CachingStore{
		remote: remote,
		local:  local,
		sem:    semaphore.NewWeighted(maxConcurrentWrites),
	}
}

func (s *CachingStore) Open(ctx context.Context, name string) (Blob, error) {
	if b, err := s.local.Open(ctx, name); err == nil {
		return b, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	b, err := s.remote.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer b.Close()

	data, err := b.Bytes()
	if err != nil {
		return nil, err
	}
	copied := make([]byte, len(data))
	copy(copied, data)

	// Mirror in the background; the fetch already succeeded, a failed
	// mirror write only costs a future re-fetch.
	if s.sem.TryAcquire(1) {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.sem.Release(1)
			_ = s.local.Put(context.Background(), name, copied)
		}()
	}

	return &memBlob{data: copied}, nil
}

func (s *CachingStore) Put(ctx context.Context, name string, data []byte) error {
	if err := s.remote.Put(ctx, name, data); err != nil {
		return err
	}
	return s.local.Put(ctx, name, data)
}

// Wait blocks until all background mirror writes have finished. Call it
// before tearing down the local directory.
func (s *CachingStore) Wait() {
	s.wg.Wait()
}
