package spango

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like
// Prometheus.
type MetricsCollector interface {
	// RecordIndex is called after each document indexing operation.
	RecordIndex(duration time.Duration, err error)

	// RecordSearch is called after each search. hits is the number of spans
	// returned, duration is the time taken, err is nil if successful.
	RecordSearch(hits int, duration time.Duration, err error)

	// RecordSave is called after each snapshot save.
	RecordSave(duration time.Duration, err error)

	// RecordLoad is called after each snapshot load.
	RecordLoad(duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordIndex(time.Duration, error)       {}
func (NoopMetricsCollector) RecordSearch(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordSave(time.Duration, error)        {}
func (NoopMetricsCollector) RecordLoad(time.Duration, error)        {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	IndexCount       atomic.Int64
	IndexErrors      atomic.Int64
	IndexTotalNanos  atomic.Int64
	SearchCount      atomic.Int64
	SearchErrors     atomic.Int64
	SearchHits       atomic.Int64
	SearchTotalNanos atomic.Int64
	SaveCount        atomic.Int64
	SaveErrors       atomic.Int64
	LoadCount        atomic.Int64
	LoadErrors       atomic.Int64
}

// RecordIndex implements MetricsCollector.
func (b *BasicMetricsCollector) RecordIndex(duration time.Duration, err error) {
	b.IndexCount.Add(1)
	b.IndexTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.IndexErrors.Add(1)
	}
}

// RecordSearch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSearch(hits int, duration time.Duration, err error) {
	b.SearchCount.Add(1)
	b.SearchHits.Add(int64(hits))
	b.SearchTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SearchErrors.Add(1)
	}
}

// RecordSave implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSave(duration time.Duration, err error) {
	b.SaveCount.Add(1)
	if err != nil {
		b.SaveErrors.Add(1)
	}
}

// RecordLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLoad(duration time.Duration, err error) {
	b.LoadCount.Add(1)
	if err != nil {
		b.LoadErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		IndexCount:     b.IndexCount.Load(),
		IndexErrors:    b.IndexErrors.Load(),
		IndexAvgNanos:  avg(b.IndexTotalNanos.Load(), b.IndexCount.Load()),
		SearchCount:    b.SearchCount.Load(),
		SearchErrors:   b.SearchErrors.Load(),
		SearchHits:     b.SearchHits.Load(),
		SearchAvgNanos: avg(b.SearchTotalNanos.Load(), b.SearchCount.Load()),
		SaveCount:      b.SaveCount.Load(),
		SaveErrors:     b.SaveErrors.Load(),
		LoadCount:      b.LoadCount.Load(),
		LoadErrors:     b.LoadErrors.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	IndexCount     int64
	IndexErrors    int64
	IndexAvgNanos  int64
	SearchCount    int64
	SearchErrors   int64
	SearchHits     int64
	SearchAvgNanos int64
	SaveCount      int64
	SaveErrors     int64
	LoadCount      int64
	LoadErrors     int64
}
