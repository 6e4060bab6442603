package spango

import (
	"log/slog"
	"runtime"

	"github.com/hupe1980/spango/index"
)

type options struct {
	segmentSize       uint32
	compression       index.Compression
	searchConcurrency int
	metricsCollector  MetricsCollector
	logger            *Logger
}

// Option configures Index constructor/load behavior.
type Option func(*options)

// WithSegmentSize sets the number of documents per segment. When the active
// segment reaches this size it is sealed and a new one started.
//
// Smaller segments seal more often and parallelize better during search;
// larger segments have less per-segment overhead. Default: 65536.
func WithSegmentSize(n uint32) Option {
	return func(o *options) {
		if n > 0 {
			o.segmentSize = n
		}
	}
}

// WithCompression sets the compression used when saving snapshots.
// Default: index.CompressionZSTD.
func WithCompression(c index.Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithSearchConcurrency limits the number of segments searched in parallel.
// Default: runtime.GOMAXPROCS(0).
func WithSearchConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.searchConcurrency = n
		}
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
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
		segmentSize:       65536,
		compression:       index.CompressionZSTD,
		searchConcurrency: runtime.GOMAXPROCS(0),
		metricsCollector:  NoopMetricsCollector{},
		logger:            NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
