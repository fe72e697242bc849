package radsurvey

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    extractCounter   prometheus.Counter
//	    extractHistogram prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordExtract(line int, duration time.Duration, err error) {
//	    p.extractCounter.Inc()
//	    // ... record error state, duration, etc.
//	}
type MetricsCollector interface {
	// RecordExtract is called after each line extraction.
	// duration is the total time taken, err is nil if successful.
	RecordExtract(line int, duration time.Duration, err error)

	// RecordCacheLookup is called after each cache artifact lookup.
	RecordCacheLookup(hit bool, corrupt bool)

	// RecordTraceRead is called after each single-trace read.
	RecordTraceRead(duration time.Duration, err error)

	// RecordWriteFiltered is called after each filtered store write.
	RecordWriteFiltered(duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordExtract(int, time.Duration, error)  {}
func (NoopMetricsCollector) RecordCacheLookup(bool, bool)             {}
func (NoopMetricsCollector) RecordTraceRead(time.Duration, error)     {}
func (NoopMetricsCollector) RecordWriteFiltered(time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	ExtractCount       atomic.Int64
	ExtractErrors      atomic.Int64
	ExtractTotalNanos  atomic.Int64
	CacheHits          atomic.Int64
	CacheMisses        atomic.Int64
	CacheCorrupt       atomic.Int64
	TraceReadCount     atomic.Int64
	TraceReadErrors    atomic.Int64
	WriteFilteredCount atomic.Int64
	WriteFilteredErrs  atomic.Int64
}

// RecordExtract implements MetricsCollector.
func (b *BasicMetricsCollector) RecordExtract(line int, duration time.Duration, err error) {
	b.ExtractCount.Add(1)
	b.ExtractTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.ExtractErrors.Add(1)
	}
}

// RecordCacheLookup implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCacheLookup(hit bool, corrupt bool) {
	switch {
	case corrupt:
		b.CacheCorrupt.Add(1)
	case hit:
		b.CacheHits.Add(1)
	default:
		b.CacheMisses.Add(1)
	}
}

// RecordTraceRead implements MetricsCollector.
func (b *BasicMetricsCollector) RecordTraceRead(duration time.Duration, err error) {
	b.TraceReadCount.Add(1)
	if err != nil {
		b.TraceReadErrors.Add(1)
	}
}

// RecordWriteFiltered implements MetricsCollector.
func (b *BasicMetricsCollector) RecordWriteFiltered(duration time.Duration, err error) {
	b.WriteFilteredCount.Add(1)
	if err != nil {
		b.WriteFilteredErrs.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		ExtractCount:       b.ExtractCount.Load(),
		ExtractErrors:      b.ExtractErrors.Load(),
		ExtractAvgNanos:    b.getAvgExtractNanos(),
		CacheHits:          b.CacheHits.Load(),
		CacheMisses:        b.CacheMisses.Load(),
		CacheCorrupt:       b.CacheCorrupt.Load(),
		TraceReadCount:     b.TraceReadCount.Load(),
		TraceReadErrors:    b.TraceReadErrors.Load(),
		WriteFilteredCount: b.WriteFilteredCount.Load(),
		WriteFilteredErrs:  b.WriteFilteredErrs.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgExtractNanos() int64 {
	count := b.ExtractCount.Load()
	if count == 0 {
		return 0
	}
	return b.ExtractTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	ExtractCount       int64
	ExtractErrors      int64
	ExtractAvgNanos    int64
	CacheHits          int64
	CacheMisses        int64
	CacheCorrupt       int64
	TraceReadCount     int64
	TraceReadErrors    int64
	WriteFilteredCount int64
	WriteFilteredErrs  int64
}
