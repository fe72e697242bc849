package radsurvey

import (
	"context"
	"fmt"
	"time"

	"github.com/glaciodyn/radsurvey/blobstore"
	"github.com/glaciodyn/radsurvey/cache"
	"github.com/glaciodyn/radsurvey/retain"
	"github.com/glaciodyn/radsurvey/store"
)

// Survey is a handle to one radar survey container. It indexes the
// container's line/location hierarchy, tracks per-location retention
// decisions, and assembles whole lines into dense matrices.
//
// A Survey holds no open file handles between operations; concurrent
// readers are safe, but retention mutation is single-threaded by
// contract.
type Survey struct {
	store   *store.Store
	retain  *retain.Map
	gateway *cache.Gateway
	opts    options
}

// Open opens the survey container at path.
//
// Every line and location group found in the container is registered in
// the retention map as kept, so a freshly opened survey retains
// everything.
func Open(path string, optFns ...Option) (*Survey, error) {
	opts := applyOptions(optFns)

	st, err := store.Open(path, nil)
	if err != nil {
		return nil, err
	}

	s := &Survey{
		store:  st,
		retain: retain.NewMap(),
		opts:   opts,
	}

	blobs := opts.artifactStore
	if blobs == nil {
		blobs = blobstore.NewLocalStore(opts.cacheDir)
	}
	s.gateway = cache.NewGateway(blobs, opts.codec)

	if err := s.seedRetention(); err != nil {
		return nil, err
	}

	opts.logger.Info("survey opened", "path", path)
	return s, nil
}

// seedRetention walks the line and location groups and marks every
// addressable location as kept.
func (s *Survey) seedRetention() error {
	lines, err := s.store.Lines()
	if err != nil {
		return err
	}
	for _, name := range lines {
		lineNo, _ := store.GroupIndex(name)
		locs, err := s.store.Locations(lineNo)
		if err != nil {
			return err
		}
		for _, loc := range locs {
			if locNo, ok := store.GroupIndex(loc); ok {
				s.retain.Get(lineNo, locNo)
			}
		}
	}
	return nil
}

// Path returns the container root path.
func (s *Survey) Path() string { return s.store.Path() }

// Lines returns the line group names in the store, ascending by their
// embedded line number.
func (s *Survey) Lines() ([]string, error) {
	return s.store.Lines()
}

// ChannelCount returns the number of datacapture channels recorded for a
// line. Lines with a varying channel count across locations report the
// maximum.
func (s *Survey) ChannelCount(line int) (int, error) {
	return s.store.ChannelCount(line)
}

// ExtractTrace reads the sample vector of a single echogram by its full
// (line, location, datacapture, echogram) address.
func (s *Survey) ExtractTrace(line, location, datacapture, echogram int) ([]float64, error) {
	start := time.Now()
	samples, err := s.store.ReadTrace(line, location, datacapture, echogram)
	s.opts.metricsCollector.RecordTraceRead(time.Since(start), err)
	return samples, err
}

// CacheName returns the canonical artifact name for one line and channel:
// <container basename>_line<line>_<dc>.ird.
func (s *Survey) CacheName(line, dc int) string {
	return cache.Name(s.store.Basename(), line, dc)
}

// Retain returns the survey's retention map. Reads materialize unknown
// locations as kept.
func (s *Survey) Retain() *retain.Map {
	return s.retain
}

// WriteFiltered writes a copy of the survey to dst containing only the
// retained locations. An existing destination is refused unless
// overwrite is set.
func (s *Survey) WriteFiltered(dst string, overwrite bool) error {
	start := time.Now()
	err := s.store.WriteFiltered(dst, overwrite, s.retain)
	s.opts.metricsCollector.RecordWriteFiltered(time.Since(start), err)
	s.opts.logger.LogWriteFiltered(context.Background(), dst, err)
	if err != nil {
		return fmt.Errorf("write filtered survey: %w", err)
	}
	return nil
}

// Metrics returns the survey's metrics collector.
func (s *Survey) Metrics() MetricsCollector {
	return s.opts.metricsCollector
}
