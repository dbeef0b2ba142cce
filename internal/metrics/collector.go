// Package metrics provides in-memory pipeline statistics collection.
package metrics

import (
	"sync"
	"time"
)

// Snapshot is a read-only copy of the pipeline counters at a point in time.
type Snapshot struct {
	JobsProcessed      int64
	JobsSucceeded      int64
	JobsFailed         int64
	DocumentsCreated   int64
	ChunksCreated      int64
	OversizedCorrected int64

	TotalProcessing   time.Duration
	AverageProcessing time.Duration
	UptimeSeconds     float64
}

// Collector aggregates pipeline counters. Writes come only from the
// scheduler; reads may happen concurrently from status reporters.
type Collector struct {
	mu        sync.RWMutex
	startTime time.Time

	jobsProcessed      int64
	jobsSucceeded      int64
	jobsFailed         int64
	documentsCreated   int64
	chunksCreated      int64
	oversizedCorrected int64
	totalProcessing    time.Duration
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{startTime: time.Now()}
}

// RecordJob tallies one finished job attempt.
func (c *Collector) RecordJob(succeeded bool, elapsed time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.jobsProcessed++
	if succeeded {
		c.jobsSucceeded++
	} else {
		c.jobsFailed++
	}
	c.totalProcessing += elapsed
}

// RecordDocument tallies a created document and its chunk statistics.
func (c *Collector) RecordDocument(chunks, oversizedCorrected int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.documentsCreated++
	c.chunksCreated += int64(chunks)
	c.oversizedCorrected += int64(oversizedCorrected)
}

// Snapshot returns a consistent copy of all counters.
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		JobsProcessed:      c.jobsProcessed,
		JobsSucceeded:      c.jobsSucceeded,
		JobsFailed:         c.jobsFailed,
		DocumentsCreated:   c.documentsCreated,
		ChunksCreated:      c.chunksCreated,
		OversizedCorrected: c.oversizedCorrected,
		TotalProcessing:    c.totalProcessing,
		UptimeSeconds:      time.Since(c.startTime).Seconds(),
	}
	if c.jobsProcessed > 0 {
		s.AverageProcessing = c.totalProcessing / time.Duration(c.jobsProcessed)
	}
	return s
}

// Reset zeroes all counters. Operator action only.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.jobsProcessed = 0
	c.jobsSucceeded = 0
	c.jobsFailed = 0
	c.documentsCreated = 0
	c.chunksCreated = 0
	c.oversizedCorrected = 0
	c.totalProcessing = 0
	c.startTime = time.Now()
}
