package infra

import (
	"sync/atomic"
	"time"
)

// Metrics provides lightweight observability without external dependencies.
// Uses atomic operations for thread-safety.
type Metrics struct {
	// Counters
	eventsApplied     atomic.Uint64
	gapsDetected      atomic.Uint64
	resyncsCompleted  atomic.Uint64
	simulationsServed atomic.Uint64
	errorsTotal       atomic.Uint64

	// Latency tracking
	applyLatencySumNs atomic.Int64
	applyLatencyCount atomic.Uint64
	simLatencySumNs   atomic.Int64
	simLatencyCount   atomic.Uint64

	// Gauges
	feedConnected atomic.Int32 // 1 = connected, 0 = disconnected
}

// GlobalMetrics is the singleton metrics instance wired at bootstrap.
var GlobalMetrics = &Metrics{}

// RecordApply records one applied book event with its latency.
func (m *Metrics) RecordApply(latencyNs int64) {
	m.eventsApplied.Add(1)
	m.applyLatencySumNs.Add(latencyNs)
	m.applyLatencyCount.Add(1)
}

// RecordGap records a detected sequence gap.
func (m *Metrics) RecordGap() {
	m.gapsDetected.Add(1)
}

// RecordResync records a completed resync (snapshot applied while stale).
func (m *Metrics) RecordResync() {
	m.resyncsCompleted.Add(1)
}

// RecordSimulation records one served simulation with its latency.
func (m *Metrics) RecordSimulation(latencyNs int64) {
	m.simulationsServed.Add(1)
	m.simLatencySumNs.Add(latencyNs)
	m.simLatencyCount.Add(1)
}

// RecordError records an error occurrence.
func (m *Metrics) RecordError() {
	m.errorsTotal.Add(1)
}

// SetFeedConnected sets the market-data feed connection gauge.
func (m *Metrics) SetFeedConnected(connected bool) {
	if connected {
		m.feedConnected.Store(1)
	} else {
		m.feedConnected.Store(0)
	}
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	EventsApplied     uint64
	GapsDetected      uint64
	ResyncsCompleted  uint64
	SimulationsServed uint64
	ErrorsTotal       uint64
	AvgApplyNs        int64
	AvgSimulateNs     int64
	FeedConnected     bool
	Timestamp         time.Time
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	var avgApply, avgSim int64
	if n := m.applyLatencyCount.Load(); n > 0 {
		avgApply = m.applyLatencySumNs.Load() / int64(n)
	}
	if n := m.simLatencyCount.Load(); n > 0 {
		avgSim = m.simLatencySumNs.Load() / int64(n)
	}

	return MetricsSnapshot{
		EventsApplied:     m.eventsApplied.Load(),
		GapsDetected:      m.gapsDetected.Load(),
		ResyncsCompleted:  m.resyncsCompleted.Load(),
		SimulationsServed: m.simulationsServed.Load(),
		ErrorsTotal:       m.errorsTotal.Load(),
		AvgApplyNs:        avgApply,
		AvgSimulateNs:     avgSim,
		FeedConnected:     m.feedConnected.Load() == 1,
		Timestamp:         time.Now(),
	}
}

// Reset clears all metrics (for testing).
func (m *Metrics) Reset() {
	m.eventsApplied.Store(0)
	m.gapsDetected.Store(0)
	m.resyncsCompleted.Store(0)
	m.simulationsServed.Store(0)
	m.errorsTotal.Store(0)
	m.applyLatencySumNs.Store(0)
	m.applyLatencyCount.Store(0)
	m.simLatencySumNs.Store(0)
	m.simLatencyCount.Store(0)
	m.feedConnected.Store(0)
}
