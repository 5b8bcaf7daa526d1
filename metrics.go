package micego

import (
	"sync/atomic"
	"time"

	"github.com/hupe1980/micego/chain"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like
// Prometheus.
type MetricsCollector = chain.MetricsCollector

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector = chain.NoopMetricsCollector

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	IterationCount      atomic.Int64
	IterationTotalNanos atomic.Int64
	ColumnUpdateCount   atomic.Int64
	ColumnUpdateNanos   atomic.Int64
	ColumnUpdateCopies  atomic.Int64
	FallbackCount       atomic.Int64
}

// RecordIteration implements MetricsCollector.
func (b *BasicMetricsCollector) RecordIteration(_ int, duration time.Duration) {
	b.IterationCount.Add(1)
	b.IterationTotalNanos.Add(duration.Nanoseconds())
}

// RecordColumnUpdate implements MetricsCollector.
func (b *BasicMetricsCollector) RecordColumnUpdate(_ string, copies int, duration time.Duration) {
	b.ColumnUpdateCount.Add(1)
	b.ColumnUpdateCopies.Add(int64(copies))
	b.ColumnUpdateNanos.Add(duration.Nanoseconds())
}

// RecordFallback implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFallback(string) {
	b.FallbackCount.Add(1)
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		IterationCount:       b.IterationCount.Load(),
		IterationAvgNanos:    avg(b.IterationTotalNanos.Load(), b.IterationCount.Load()),
		ColumnUpdateCount:    b.ColumnUpdateCount.Load(),
		ColumnUpdateAvgNanos: avg(b.ColumnUpdateNanos.Load(), b.ColumnUpdateCount.Load()),
		FallbackCount:        b.FallbackCount.Load(),
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
	IterationCount       int64
	IterationAvgNanos    int64
	ColumnUpdateCount    int64
	ColumnUpdateAvgNanos int64
	FallbackCount        int64
}
