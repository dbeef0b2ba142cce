// Package audit delivers job lifecycle events to an operator-facing sink.
package audit

import (
	"log/slog"
	"sync"
	"time"
)

// EventKind names the audited lifecycle transitions.
type EventKind string

const (
	JobCompleted      EventKind = "job-completed"
	JobFailed         EventKind = "job-failed"
	PipelineCompleted EventKind = "pipeline-completed"
)

// Event is one audit record.
type Event struct {
	Kind       EventKind
	JobID      string
	DocumentID string
	ChunkCount int
	Error      string
	At         time.Time
}

// Sink receives audit events. Implementations must be safe for
// concurrent use.
type Sink interface {
	Record(event Event)
}

// SlogSink writes audit events to a structured logger.
type SlogSink struct {
	Logger *slog.Logger
}

var _ Sink = (*SlogSink)(nil)

// Record logs the event at a level matching its severity.
func (s *SlogSink) Record(event Event) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	attrs := []any{
		"kind", string(event.Kind),
		"job_id", event.JobID,
		"document_id", event.DocumentID,
		"chunk_count", event.ChunkCount,
	}
	if event.Error != "" {
		attrs = append(attrs, "error", event.Error)
		logger.Error("audit event", attrs...)
		return
	}
	logger.Info("audit event", attrs...)
}

// MemorySink collects events in memory for tests and status inspection.
type MemorySink struct {
	mu     sync.Mutex
	events []Event
}

var _ Sink = (*MemorySink)(nil)

// Record appends the event.
func (s *MemorySink) Record(event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if event.At.IsZero() {
		event.At = time.Now()
	}
	s.events = append(s.events, event)
}

// Events returns a copy of all recorded events.
func (s *MemorySink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}
