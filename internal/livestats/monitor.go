// Package livestats gives a run an optional, best-effort view of latency
// while it is still in flight. It is purely informational: the exact
// aggregate a run reports always comes from recomputing over the full
// measured sample.Result slice, never from this histogram.
package livestats

import (
	"fmt"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Monitor tracks a run's latency distribution as samples complete, guarded
// by a single mutex since RecordLatency and Snapshot race across the
// measured-phase goroutines and the progress ticker. Callers feed it one
// RecordLatency call per completed task.
type Monitor struct {
	mu   sync.Mutex
	hist *hdrhistogram.Histogram
}

// NewMonitor builds an empty Monitor spanning 1us to 10min latencies at 3
// significant figures; RecordLatency drops a latency above that range.
func NewMonitor() *Monitor {
	return &Monitor{hist: hdrhistogram.New(1, int64(10*time.Minute/time.Microsecond), 3)}
}

// RecordLatency feeds one completed task's latency into the monitor.
func (m *Monitor) RecordLatency(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hist.RecordValue(d.Microseconds())
}

// Snapshot renders a one-line progress summary suitable for a ticker print
// while a run is still measuring.
func (m *Monitor) Snapshot() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := m.hist.TotalCount()
	if count == 0 {
		return "no samples yet"
	}
	meanMs := m.hist.Mean() / 1000.0
	p99Ms := float64(m.hist.ValueAtQuantile(99)) / 1000.0
	return fmt.Sprintf("samples=%d meanLatency=%.2fms p99Latency=%.2fms", count, meanMs, p99Ms)
}
