package radsurvey

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/glaciodyn/radsurvey/blobstore"
	"github.com/glaciodyn/radsurvey/metadata"
	"github.com/glaciodyn/radsurvey/model"
	"github.com/glaciodyn/radsurvey/store"
)

type extractOptions struct {
	selector  ChannelSelector
	bounds    []int
	fromCache bool
}

// ExtractOption configures a single ExtractLine call.
type ExtractOption func(*extractOptions)

// WithChannel restricts the extraction to one datacapture channel.
// Default is channel 0.
func WithChannel(n int) ExtractOption {
	return func(o *extractOptions) {
		o.selector = Channel(n)
	}
}

// WithChannels restricts the extraction to several datacapture channels.
func WithChannels(ns ...int) ExtractOption {
	return func(o *extractOptions) {
		o.selector = Channels(ns...)
	}
}

// WithBounds keeps only the trace index range [lo, hi) of the assembled
// line, after location ordering. Indices are clamped to the available
// range; negative values clamp to zero, there is no end-relative
// indexing. lo >= hi cuts everything away and the extraction fails with
// ErrEmptyAssembly. Anything other than exactly two values is diagnosed
// and ignored.
func WithBounds(b ...int) ExtractOption {
	return func(o *extractOptions) {
		o.bounds = b
	}
}

// FromCache makes the extraction consult the artifact store before
// reading the survey container. Only single-channel selections have an
// artifact name; multi-channel extractions always read the container.
//
// A missing or undecodable artifact is never an error: extraction falls
// through to the container and reports the condition through the logger
// and metrics.
func FromCache() ExtractOption {
	return func(o *extractOptions) {
		o.fromCache = true
	}
}

// ExtractLine assembles every selected trace of one line into a dense
// samples × traces matrix.
//
// Traces are ordered by location number. Ragged sample counts are
// reconciled by zero-padding short traces at the tail. Each trace's
// out-of-band metadata block is parsed and keyed by the trace FID;
// malformed metadata never aborts the assembly.
//
// An assembly that ends up with zero records, whether because nothing
// matched the channel selection or because bounds cut everything away,
// fails with ErrEmptyAssembly. A matrix is either complete or absent,
// never partial.
func (s *Survey) ExtractLine(ctx context.Context, line int, optFns ...ExtractOption) (*model.Line, error) {
	start := time.Now()

	var o extractOptions
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}

	ln, fromCache, err := s.extractLine(ctx, line, o)
	s.opts.metricsCollector.RecordExtract(line, time.Since(start), err)
	traces := 0
	if ln != nil {
		traces = ln.NumTraces()
	}
	s.opts.logger.LogExtract(ctx, line, traces, fromCache, err)
	return ln, err
}

func (s *Survey) extractLine(ctx context.Context, line int, o extractOptions) (*model.Line, bool, error) {
	if o.fromCache {
		if ln, ok := s.loadCached(ctx, line, o.selector); ok {
			return ln, true, nil
		}
	}

	leaves, err := s.store.LeafRecords(line)
	if err != nil {
		return nil, false, err
	}

	wanted := o.selector.groups()
	matched := leaves[:0:0]
	for _, l := range leaves {
		if wanted[l.ChannelGroup()] {
			matched = append(matched, l)
		}
	}

	// Materialize every touched location in the retention map and order
	// traces by location number. Records without a parseable location sort
	// after the rest, in store order.
	locOf := make(map[store.Leaf]int, len(matched))
	for _, l := range matched {
		if loc, ok := l.Location(); ok {
			locOf[l] = loc
			s.retain.Get(line, loc)
		} else {
			locOf[l] = int(^uint(0) >> 1)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return locOf[matched[i]] < locOf[matched[j]]
	})

	matched = s.applyBounds(ctx, matched, o.bounds)

	ln, err := s.assemble(ctx, line, matched, o.selector)
	if err != nil {
		return nil, false, err
	}
	return ln, false, nil
}

// applyBounds crops the ordered record list to a trace index range. The
// two cuts are applied in sequence: first everything past hi is dropped,
// then everything before lo.
func (s *Survey) applyBounds(ctx context.Context, matched []store.Leaf, bounds []int) []store.Leaf {
	if bounds == nil {
		return matched
	}
	if len(bounds) != 2 {
		s.opts.logger.WarnContext(ctx, "malformed bounds ignored",
			"bounds", bounds,
		)
		return matched
	}

	lo, hi := bounds[0], bounds[1]
	if hi < 0 {
		hi = 0
	}
	if hi < len(matched) {
		matched = matched[:hi]
	}
	if lo < 0 {
		lo = 0
	}
	if lo > len(matched) {
		lo = len(matched)
	}
	return matched[lo:]
}

func (s *Survey) assemble(ctx context.Context, line int, matched []store.Leaf, sel ChannelSelector) (*model.Line, error) {
	meta := metadata.NewList()
	var (
		columns  [][]float64
		paths    []string
		maxSamps int
	)

	for _, l := range matched {
		full := l.FullPath()

		samples, rawMeta, err := s.store.ReadLeaf(l)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrEmptyAssembly, err)
		}

		// A malformed path only costs the metadata join: the record has no
		// FID to key its block by, but its samples still belong in the
		// matrix.
		if err := s.associateMetadata(ctx, meta, full, rawMeta); err != nil {
			return nil, err
		}

		columns = append(columns, samples)
		paths = append(paths, full)
		if len(samples) > maxSamps {
			maxSamps = len(samples)
		}
	}

	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: no records matched line %d", ErrEmptyAssembly, line)
	}

	var data *mat.Dense
	if maxSamps > 0 {
		data = mat.NewDense(maxSamps, len(columns), nil)
		for j, col := range columns {
			for i, v := range col {
				data.Set(i, j, v)
			}
		}
	}

	return &model.Line{
		Data:     data,
		Paths:    paths,
		Number:   line,
		Channels: sel.IDs(),
		Metadata: meta,
		Retain:   s.retain.View(line),
	}, nil
}

// associateMetadata parses the record's path into a FID and joins its raw
// metadata block under it. Never fatal for malformed inputs: a path
// without a decodable FID and a block that does not parse both cost only
// the metadata association.
func (s *Survey) associateMetadata(ctx context.Context, meta *metadata.List, full string, rawMeta []byte) error {
	p, err := model.ParsePath(full)
	if err != nil {
		var mpe *model.MalformedPathError
		if !errors.As(err, &mpe) {
			return err
		}
		s.opts.logger.WarnContext(ctx, "metadata association skipped for malformed path",
			"path", full,
		)
		return nil
	}

	if err := meta.AddDataset(rawMeta, p.FID()); err != nil {
		var pe *metadata.ParseError
		switch {
		case errors.As(err, &pe):
			meta.CropRecords()
			s.opts.logger.WarnContext(ctx, "unreadable metadata block dropped",
				"path", full,
				"error", err,
			)
		case errors.Is(err, metadata.ErrBadValue):
			s.opts.logger.WarnContext(ctx, "metadata block with bad values skipped",
				"path", full,
				"error", err,
			)
		default:
			return err
		}
	}
	return nil
}

// loadCached attempts to satisfy the extraction from the artifact store.
// Never fatal: every failure mode falls through to a container read.
func (s *Survey) loadCached(ctx context.Context, line int, sel ChannelSelector) (*model.Line, bool) {
	dc, ok := sel.Single()
	if !ok {
		return nil, false
	}

	name := s.CacheName(line, dc)
	ln, snap, err := s.gateway.Load(ctx, name)
	switch {
	case err == nil:
		view := s.retain.View(line)
		view.Restore(snap)
		ln.Retain = view
		s.opts.metricsCollector.RecordCacheLookup(true, false)
		s.opts.logger.LogCacheLookup(ctx, name, true, nil)
		return ln, true
	case errors.Is(err, blobstore.ErrNotFound):
		s.opts.metricsCollector.RecordCacheLookup(false, false)
		s.opts.logger.LogCacheLookup(ctx, name, false, nil)
	default:
		s.opts.metricsCollector.RecordCacheLookup(false, true)
		s.opts.logger.LogCacheLookup(ctx, name, false, err)
	}
	return nil, false
}

// SaveCached serializes an assembled line into the artifact store under
// its canonical name. The inverse of FromCache; exposed for extraction
// tooling built on this package.
func (s *Survey) SaveCached(ctx context.Context, ln *model.Line) error {
	dc := 0
	if len(ln.Channels) == 1 {
		dc = ln.Channels[0]
	} else if len(ln.Channels) > 1 {
		return fmt.Errorf("multi-channel lines have no artifact name: channels %v", ln.Channels)
	}
	return s.gateway.Save(ctx, s.CacheName(ln.Number, dc), ln)
}
