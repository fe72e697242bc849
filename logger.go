package radsurvey

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with survey-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithLine adds a line number field to the logger.
func (l *Logger) WithLine(line int) *Logger {
	return &Logger{
		Logger: l.Logger.With("line", line),
	}
}

// WithChannel adds a datacapture channel field to the logger.
func (l *Logger) WithChannel(dc int) *Logger {
	return &Logger{
		Logger: l.Logger.With("channel", dc),
	}
}

// WithPath adds an in-store dataset path field to the logger.
func (l *Logger) WithPath(path string) *Logger {
	return &Logger{
		Logger: l.Logger.With("path", path),
	}
}

// LogExtract logs a line extraction.
func (l *Logger) LogExtract(ctx context.Context, line, traces int, fromCache bool, err error) {
	if err != nil {
		l.ErrorContext(ctx, "line extraction failed",
			"line", line,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "line extraction completed",
			"line", line,
			"traces", traces,
			"from_cache", fromCache,
		)
	}
}

// LogCacheLookup logs a cache artifact lookup.
func (l *Logger) LogCacheLookup(ctx context.Context, name string, hit bool, err error) {
	switch {
	case err != nil:
		l.WarnContext(ctx, "cache artifact unusable",
			"artifact", name,
			"error", err,
		)
	case hit:
		l.DebugContext(ctx, "cache hit",
			"artifact", name,
		)
	default:
		l.InfoContext(ctx, "cache miss",
			"artifact", name,
		)
	}
}

// LogWriteFiltered logs a filtered store write.
func (l *Logger) LogWriteFiltered(ctx context.Context, dst string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "filtered write failed",
			"destination", dst,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "filtered write completed",
			"destination", dst,
		)
	}
}
