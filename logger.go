package spango

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with spango-specific context.
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

// LogIndex logs a document indexing operation.
func (l *Logger) LogIndex(ctx context.Context, doc uint32, tokens int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "indexing failed",
			"doc", doc,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "document indexed",
			"doc", doc,
			"tokens", tokens,
		)
	}
}

// LogSearch logs a search operation.
func (l *Logger) LogSearch(ctx context.Context, query string, hits int, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed",
			"query", query,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "search completed",
			"query", query,
			"hits", hits,
			"duration", duration,
		)
	}
}

// LogSave logs a snapshot save operation.
func (l *Logger) LogSave(ctx context.Context, segments int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot save failed",
			"segments", segments,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "snapshot saved",
			"segments", segments,
		)
	}
}

// LogLoad logs a snapshot load operation.
func (l *Logger) LogLoad(ctx context.Context, segments int, docs uint32, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot load failed",
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "snapshot loaded",
			"segments", segments,
			"docs", docs,
		)
	}
}
