// Package scheduler owns the ingestion job queue: admission, batched
// dispatch, retries and the run lifecycle.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/juridoc/ingest-go/internal/audit"
	"github.com/juridoc/ingest-go/internal/metrics"
	"github.com/juridoc/ingest-go/internal/models"
	"github.com/juridoc/ingest-go/internal/pipeline"
	"github.com/juridoc/ingest-go/internal/queue"
	"github.com/juridoc/ingest-go/internal/validate"
)

// State is the scheduler lifecycle state.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StatePaused    State = "paused"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// Config bounds a scheduler run.
type Config struct {
	BatchSize  int           // jobs dispatched per batch (default 10)
	Workers    int           // concurrent workers within a batch (default 5)
	JobTimeout time.Duration // per-job deadline (default 5m)
}

// DefaultConfig returns the standard scheduling parameters.
func DefaultConfig() Config {
	return Config{BatchSize: 10, Workers: 5, JobTimeout: 5 * time.Minute}
}

func (c *Config) fillDefaults() {
	d := DefaultConfig()
	if c.BatchSize <= 0 {
		c.BatchSize = d.BatchSize
	}
	if c.Workers <= 0 {
		c.Workers = d.Workers
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = d.JobTimeout
	}
}

// Status is a point-in-time snapshot for operators.
type Status struct {
	State     State            `json:"state"`
	QueueSize int              `json:"queue_size"`
	Active    int              `json:"active_jobs"`
	Completed int              `json:"completed"`
	Failed    int              `json:"failed"`
	Metrics   metrics.Snapshot `json:"metrics"`
}

// Scheduler admits jobs, persists them to the durable queue and drains
// them in priority order through the processor.
type Scheduler struct {
	cfg       Config
	validator *validate.Engine
	proc      *pipeline.Processor
	queue     *queue.File
	metrics   *metrics.Collector
	audit     audit.Sink
	logger    *slog.Logger

	mu        sync.Mutex
	state     State
	pending   []*models.IngestionJob
	active    int
	completed int
	failed    int
}

// New creates a scheduler. The durable queue and audit sink are optional;
// without a queue jobs live only in memory.
func New(cfg Config, validator *validate.Engine, proc *pipeline.Processor, q *queue.File, collector *metrics.Collector, sink audit.Sink, logger *slog.Logger) *Scheduler {
	cfg.fillDefaults()
	if collector == nil {
		collector = metrics.NewCollector()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cfg:       cfg,
		validator: validator,
		proc:      proc,
		queue:     q,
		metrics:   collector,
		audit:     sink,
		logger:    logger,
		state:     StateIdle,
	}
}

// Restore loads jobs recovered from the durable queue into the pending
// set without re-validating or re-persisting them.
func (s *Scheduler) Restore(jobs []*models.IngestionJob) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, jobs...)
}

// Submit validates a job and places it on the queue. Invalid jobs are
// rejected before they touch the queue file.
func (s *Scheduler) Submit(job *models.IngestionJob) error {
	if job.JobID == "" {
		job.JobID = uuid.New().String()[:8]
	}
	if job.MaxRetries <= 0 {
		job.MaxRetries = models.DefaultMaxRetries
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}

	if err := s.validator.PreFlight(job); err != nil {
		return err
	}

	if s.queue != nil {
		if err := s.queue.Append(job); err != nil {
			return fmt.Errorf("persist job %s: %w", job.JobID, err)
		}
	}

	s.mu.Lock()
	s.pending = append(s.pending, job)
	size := len(s.pending)
	s.mu.Unlock()

	s.logger.Info("job submitted", "job_id", job.JobID, "source", job.SourceKind, "kind", job.DocumentKind, "queue_size", size)
	return nil
}

// Run drains the queue in batches until it is empty, the context is
// cancelled or shared infrastructure fails. Only one run at a time.
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateRunning || s.state == StatePaused {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already running")
	}
	s.state = StateRunning
	s.completed = 0
	s.failed = 0
	s.mu.Unlock()

	var runErr error
	for {
		if err := s.waitWhilePaused(ctx); err != nil {
			runErr = err
			break
		}

		batch := s.takeBatch()
		if len(batch) == 0 {
			break
		}

		if err := s.runBatch(ctx, batch); err != nil {
			runErr = err
			break
		}
	}

	s.mu.Lock()
	completed, failed := s.completed, s.failed
	if runErr != nil {
		s.state = StateFailed
	} else {
		s.state = StateCompleted
	}
	s.mu.Unlock()

	if s.audit != nil {
		event := audit.Event{Kind: audit.PipelineCompleted, At: time.Now().UTC()}
		if runErr != nil {
			event.Error = runErr.Error()
		}
		s.audit.Record(event)
	}
	s.logger.Info("run finished", "completed", completed, "failed", failed, "error", runErr)
	return runErr
}

// Pause stops dispatch at the next batch boundary. Jobs already in
// flight finish normally.
func (s *Scheduler) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateRunning {
		s.state = StatePaused
		s.logger.Info("scheduler paused")
	}
}

// Resume lets a paused run continue with the next batch.
func (s *Scheduler) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StatePaused {
		s.state = StateRunning
		s.logger.Info("scheduler resumed")
	}
}

// Status reports the current run state and counters.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		State:     s.state,
		QueueSize: len(s.pending),
		Active:    s.active,
		Completed: s.completed,
		Failed:    s.failed,
		Metrics:   s.metrics.Snapshot(),
	}
}

// waitWhilePaused blocks between batches while the scheduler is paused.
func (s *Scheduler) waitWhilePaused(ctx context.Context) error {
	for {
		s.mu.Lock()
		paused := s.state == StatePaused
		s.mu.Unlock()
		if !paused {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
}

// takeBatch removes the next batch from the pending set, highest
// priority first, oldest first within a priority.
func (s *Scheduler) takeBatch() []*models.IngestionJob {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.pending) == 0 {
		return nil
	}
	slices.SortStableFunc(s.pending, func(a, b *models.IngestionJob) int {
		if a.Priority != b.Priority {
			return b.Priority - a.Priority
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	n := min(s.cfg.BatchSize, len(s.pending))
	batch := make([]*models.IngestionJob, n)
	copy(batch, s.pending[:n])
	s.pending = s.pending[n:]
	s.active = n
	return batch
}

func (s *Scheduler) runBatch(ctx context.Context, batch []*models.IngestionJob) error {
	type result struct {
		job *models.IngestionJob
		out *pipeline.Outcome
	}

	workChan := make(chan *models.IngestionJob, len(batch))
	results := make(chan result, len(batch))
	var wg sync.WaitGroup

	workers := min(s.cfg.Workers, len(batch))
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range workChan {
				jobCtx, cancel := context.WithTimeout(ctx, s.cfg.JobTimeout)
				out := s.proc.Process(jobCtx, job)
				cancel()
				results <- result{job: job, out: out}
			}
		}()
	}

	for _, job := range batch {
		workChan <- job
	}
	close(workChan)
	wg.Wait()
	close(results)

	var infraErr error
	for r := range results {
		if err := s.settle(r.job, r.out); err != nil && infraErr == nil {
			infraErr = err
		}
	}

	s.mu.Lock()
	s.active = 0
	s.mu.Unlock()

	if infraErr != nil {
		return infraErr
	}
	return ctx.Err()
}

// settle applies one job outcome: archive, requeue or abort the run.
func (s *Scheduler) settle(job *models.IngestionJob, out *pipeline.Outcome) error {
	switch out.Kind {
	case pipeline.OutcomeOK:
		s.metrics.RecordJob(true, out.Elapsed)
		s.metrics.RecordDocument(out.ChunkCount, out.OversizedCorrected)
		s.finish(job, out, true)
		return nil

	case pipeline.OutcomeDuplicate:
		s.metrics.RecordJob(true, out.Elapsed)
		s.finish(job, out, true)
		return nil

	case pipeline.OutcomeRetryable:
		job.RetryCount++
		job.LastError = out.Err.Error()
		if job.RetriesExhausted() {
			s.metrics.RecordJob(false, out.Elapsed)
			s.finish(job, out, false)
			return nil
		}
		if s.queue != nil {
			if err := s.queue.Append(job); err != nil {
				return fmt.Errorf("requeue job %s: %w", job.JobID, err)
			}
		}
		s.mu.Lock()
		s.pending = append(s.pending, job)
		s.mu.Unlock()
		s.logger.Warn("job requeued", "job_id", job.JobID, "retry", job.RetryCount, "of", job.MaxRetries, "error", out.Err)
		return nil

	case pipeline.OutcomeFatal:
		job.LastError = out.Err.Error()
		s.metrics.RecordJob(false, out.Elapsed)
		s.finish(job, out, false)
		return nil

	default: // OutcomeInfra
		// The job stays on the durable queue and will be retried when
		// the operator restarts the run.
		s.mu.Lock()
		s.pending = append(s.pending, job)
		s.mu.Unlock()
		return fmt.Errorf("infrastructure failure on job %s: %w", job.JobID, out.Err)
	}
}

// finish archives a terminal job and emits its audit event.
func (s *Scheduler) finish(job *models.IngestionJob, out *pipeline.Outcome, succeeded bool) {
	if s.queue != nil {
		if err := s.queue.Archive(job.JobID); err != nil {
			s.logger.Warn("archive failed", "job_id", job.JobID, "error", err)
		}
	}

	s.mu.Lock()
	if succeeded {
		s.completed++
	} else {
		s.failed++
	}
	s.mu.Unlock()

	if s.audit == nil {
		return
	}
	event := audit.Event{
		JobID:      job.JobID,
		ChunkCount: out.ChunkCount,
		At:         time.Now().UTC(),
	}
	if succeeded {
		event.Kind = audit.JobCompleted
		if out.Document != nil {
			event.DocumentID = out.Document.ID
		}
	} else {
		event.Kind = audit.JobFailed
		event.Error = out.Err.Error()
	}
	s.audit.Record(event)
}
