package listener

import (
	"sync"
	"sync/atomic"
	"time"
)

// StatsCollector receives counters from a listening session. Implementations
// can keep them in memory or forward them elsewhere. The collector is
// optional; when none is set, a no-op is used.
type StatsCollector interface {
	// RecordReceived is called once per accepted record.
	RecordReceived()

	// RecordBatchOpened is called when a record opens a previously unseen
	// batch id.
	RecordBatchOpened()

	// RecordBatchSatisfied is called when a batch's remaining counter
	// reaches zero.
	RecordBatchSatisfied()

	// RecordPayloadError is called when a request body fails to parse.
	RecordPayloadError()

	// RecordSessionComplete is called when a session ends, successfully or
	// not, with the number of records collected and the session duration.
	RecordSessionComplete(records int, duration time.Duration)

	// GetStats returns a snapshot of the collected statistics.
	GetStats() Stats
}

// Stats is a snapshot of session statistics.
type Stats struct {
	RecordsReceived  uint64
	BatchesOpened    uint64
	BatchesSatisfied uint64
	PayloadErrors    uint64
	SessionsRun      uint64
	TotalListenTime  time.Duration
}

// NoOpStatsCollector discards all statistics. It is the default collector.
type NoOpStatsCollector struct{}

// RecordReceived implements the StatsCollector interface.
func (n *NoOpStatsCollector) RecordReceived() {}

// RecordBatchOpened implements the StatsCollector interface.
func (n *NoOpStatsCollector) RecordBatchOpened() {}

// RecordBatchSatisfied implements the StatsCollector interface.
func (n *NoOpStatsCollector) RecordBatchSatisfied() {}

// RecordPayloadError implements the StatsCollector interface.
func (n *NoOpStatsCollector) RecordPayloadError() {}

// RecordSessionComplete implements the StatsCollector interface.
func (n *NoOpStatsCollector) RecordSessionComplete(records int, duration time.Duration) {}

// GetStats implements the StatsCollector interface.
func (n *NoOpStatsCollector) GetStats() Stats {
	return Stats{}
}

// BasicStatsCollector is a thread-safe in-memory StatsCollector.
type BasicStatsCollector struct {
	recordsReceived  uint64
	batchesOpened    uint64
	batchesSatisfied uint64
	payloadErrors    uint64
	sessionsRun      uint64

	mu              sync.Mutex
	totalListenTime time.Duration
}

// NewBasicStatsCollector creates a new BasicStatsCollector.
func NewBasicStatsCollector() *BasicStatsCollector {
	return &BasicStatsCollector{}
}

// RecordReceived implements the StatsCollector interface.
func (b *BasicStatsCollector) RecordReceived() {
	atomic.AddUint64(&b.recordsReceived, 1)
}

// RecordBatchOpened implements the StatsCollector interface.
func (b *BasicStatsCollector) RecordBatchOpened() {
	atomic.AddUint64(&b.batchesOpened, 1)
}

// RecordBatchSatisfied implements the StatsCollector interface.
func (b *BasicStatsCollector) RecordBatchSatisfied() {
	atomic.AddUint64(&b.batchesSatisfied, 1)
}

// RecordPayloadError implements the StatsCollector interface.
func (b *BasicStatsCollector) RecordPayloadError() {
	atomic.AddUint64(&b.payloadErrors, 1)
}

// RecordSessionComplete implements the StatsCollector interface.
func (b *BasicStatsCollector) RecordSessionComplete(records int, duration time.Duration) {
	atomic.AddUint64(&b.sessionsRun, 1)

	b.mu.Lock()
	b.totalListenTime += duration
	b.mu.Unlock()
}

// GetStats implements the StatsCollector interface.
func (b *BasicStatsCollector) GetStats() Stats {
	b.mu.Lock()
	total := b.totalListenTime
	b.mu.Unlock()

	return Stats{
		RecordsReceived:  atomic.LoadUint64(&b.recordsReceived),
		BatchesOpened:    atomic.LoadUint64(&b.batchesOpened),
		BatchesSatisfied: atomic.LoadUint64(&b.batchesSatisfied),
		PayloadErrors:    atomic.LoadUint64(&b.payloadErrors),
		SessionsRun:      atomic.LoadUint64(&b.sessionsRun),
		TotalListenTime:  total,
	}
}
