package radsurvey

import (
	"log/slog"

	"github.com/glaciodyn/radsurvey/blobstore"
	"github.com/glaciodyn/radsurvey/codec"
)

type options struct {
	codec            codec.Codec
	cacheDir         string
	artifactStore    blobstore.BlobStore
	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures Open behavior.
//
// Options primarily exist to avoid exploding the API surface
// (e.g. codec-specific constructor variants).
type Option func(*options)

// WithCodec configures the codec used for decoding cache artifact
// payloads.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithCacheDir configures the local directory where pre-extracted line
// artifacts are looked up. Ignored when WithArtifactStore is set.
func WithCacheDir(dir string) Option {
	return func(o *options) {
		o.cacheDir = dir
	}
}

// WithArtifactStore configures the blob store that cache artifacts are
// read from. Use this to point at shared object storage (MinIO, S3) or
// to wrap a remote store with throttling or a local mirror.
//
// Example with a read-through mirror:
//
//	remote := minio.NewStore(client, "radar-artifacts", "gl2/")
//	bs := blobstore.NewCachingStore(remote, blobstore.NewLocalStore(dir), 4)
//	sv, _ := radsurvey.Open(path, radsurvey.WithArtifactStore(bs))
func WithArtifactStore(bs blobstore.BlobStore) Option {
	return func(o *options) {
		o.artifactStore = bs
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &radsurvey.BasicMetricsCollector{}
//	sv, _ := radsurvey.Open(path, radsurvey.WithMetricsCollector(metrics))
//	// ... use sv ...
//	stats := metrics.GetStats()
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := radsurvey.NewJSONLogger(slog.LevelInfo)
//	sv, _ := radsurvey.Open(path, radsurvey.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		cacheDir:         "cache",
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	return o
}
