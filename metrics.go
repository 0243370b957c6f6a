package nearest

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; the
// prommetrics package provides a Prometheus implementation.
type MetricsCollector interface {
	// RecordAssign is called after each assignment.
	// sources and targets are the set sizes, err is nil if successful.
	RecordAssign(sources, targets int, duration time.Duration, err error)

	// RecordMutual is called after each two-sided assignment, in addition to
	// the RecordAssign calls for each side.
	RecordMutual(duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordAssign(int, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordMutual(time.Duration, error)           {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	AssignCount      atomic.Int64
	AssignErrors     atomic.Int64
	AssignTotalNanos atomic.Int64
	SourcesTotal     atomic.Int64
	PairsTotal       atomic.Int64
	MutualCount      atomic.Int64
	MutualErrors     atomic.Int64
}

// RecordAssign implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAssign(sources, targets int, duration time.Duration, err error) {
	b.AssignCount.Add(1)
	b.AssignTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.AssignErrors.Add(1)
		return
	}
	b.SourcesTotal.Add(int64(sources))
	b.PairsTotal.Add(int64(sources) * int64(targets))
}

// RecordMutual implements MetricsCollector.
func (b *BasicMetricsCollector) RecordMutual(_ time.Duration, err error) {
	b.MutualCount.Add(1)
	if err != nil {
		b.MutualErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		AssignCount:    b.AssignCount.Load(),
		AssignErrors:   b.AssignErrors.Load(),
		AssignAvgNanos: b.getAvgAssignNanos(),
		SourcesTotal:   b.SourcesTotal.Load(),
		PairsTotal:     b.PairsTotal.Load(),
		MutualCount:    b.MutualCount.Load(),
		MutualErrors:   b.MutualErrors.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgAssignNanos() int64 {
	count := b.AssignCount.Load()
	if count == 0 {
		return 0
	}
	return b.AssignTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	AssignCount    int64
	AssignErrors   int64
	AssignAvgNanos int64
	SourcesTotal   int64
	PairsTotal     int64 // distance evaluations
	MutualCount    int64
	MutualErrors   int64
}
