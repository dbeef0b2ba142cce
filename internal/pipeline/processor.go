// Package pipeline runs one ingestion job end to end: load, validate,
// chunk, deduplicate, embed, persist.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/juridoc/ingest-go/internal/chunker"
	"github.com/juridoc/ingest-go/internal/dedup"
	"github.com/juridoc/ingest-go/internal/embedding"
	"github.com/juridoc/ingest-go/internal/models"
	"github.com/juridoc/ingest-go/internal/storage"
	"github.com/juridoc/ingest-go/internal/validate"
)

// OutcomeKind classifies how a job run ended. The scheduler uses it to
// decide between archiving, requeueing and aborting the whole run.
type OutcomeKind int

const (
	// OutcomeOK means the document was processed and persisted.
	OutcomeOK OutcomeKind = iota
	// OutcomeDuplicate means identical content was already ingested.
	OutcomeDuplicate
	// OutcomeRetryable means the job failed but may succeed on a retry.
	OutcomeRetryable
	// OutcomeFatal means retrying cannot help. The job is done.
	OutcomeFatal
	// OutcomeInfra means shared infrastructure failed. The run should stop.
	OutcomeInfra
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeOK:
		return "ok"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeRetryable:
		return "retryable"
	case OutcomeFatal:
		return "fatal"
	case OutcomeInfra:
		return "infra"
	default:
		return "unknown"
	}
}

// Outcome is the result of processing one job.
type Outcome struct {
	Kind               OutcomeKind
	Document           *models.Document
	ChunkCount         int
	OversizedCorrected int
	FailedChunks       []string
	Elapsed            time.Duration
	Err                error
}

// Processor wires the pipeline stages together.
type Processor struct {
	loader    ContentLoader
	validator *validate.Engine
	chunker   *chunker.Chunker
	deduper   *dedup.Service
	embedder  *embedding.Generator
	sink      storage.Sink
	logger    *slog.Logger
}

// NewProcessor builds a processor from the given stages.
func NewProcessor(
	loader ContentLoader,
	validator *validate.Engine,
	ch *chunker.Chunker,
	deduper *dedup.Service,
	embedder *embedding.Generator,
	sink storage.Sink,
	logger *slog.Logger,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		loader:    loader,
		validator: validator,
		chunker:   ch,
		deduper:   deduper,
		embedder:  embedder,
		sink:      sink,
		logger:    logger,
	}
}

// Process runs one job through every stage and classifies the result.
// It never panics its way out; every failure is an Outcome.
func (p *Processor) Process(ctx context.Context, job *models.IngestionJob) *Outcome {
	started := time.Now()
	out := p.process(ctx, job)
	out.Elapsed = time.Since(started)

	log := p.logger.With("job_id", job.JobID, "outcome", out.Kind.String(), "elapsed", out.Elapsed)
	switch out.Kind {
	case OutcomeOK:
		log.Info("job processed", "document_id", out.Document.ID, "chunks", out.ChunkCount)
	case OutcomeDuplicate:
		log.Info("job skipped, duplicate content")
	default:
		log.Warn("job failed", "error", out.Err)
	}
	return out
}

func (p *Processor) process(ctx context.Context, job *models.IngestionJob) *Outcome {
	text, size, err := p.loader.Load(ctx, job.SourceKind, job.SourceLocator)
	if err != nil {
		switch {
		case errors.Is(err, ErrTransientIO):
			return &Outcome{Kind: OutcomeRetryable, Err: err}
		case ctx.Err() != nil:
			return &Outcome{Kind: OutcomeRetryable, Err: fmt.Errorf("%w: %v", ErrTransientIO, err)}
		default:
			return &Outcome{Kind: OutcomeFatal, Err: err}
		}
	}

	if err := p.validator.Content(text, size); err != nil {
		// Remote sources may serve different content next time. A local
		// file that fails validation will fail the same way forever.
		kind := OutcomeFatal
		if job.SourceKind == models.SourceURL || job.SourceKind == models.SourceAPIFetch {
			kind = OutcomeRetryable
		}
		return &Outcome{Kind: kind, Err: err}
	}

	hash := dedup.HashText(text)
	exists, err := p.sink.HasDocument(ctx, hash)
	if err != nil {
		return &Outcome{Kind: OutcomeInfra, Err: fmt.Errorf("duplicate lookup: %w", err)}
	}
	if exists {
		return &Outcome{Kind: OutcomeDuplicate, Err: fmt.Errorf("%w: %s", ErrDuplicateDocument, hash[:12])}
	}

	res, err := p.chunker.Chunk(text, job.DocumentKind)
	if err != nil {
		return &Outcome{Kind: OutcomeFatal, Err: fmt.Errorf("%w: %v", ErrChunking, err)}
	}
	if len(res.Chunks) == 0 {
		return &Outcome{Kind: OutcomeFatal, Err: fmt.Errorf("%w: no chunks produced", ErrChunking)}
	}

	chunks := p.deduper.Detect(res.Chunks)
	docID := uuid.New().String()[:8]
	for i := range chunks {
		chunks[i].DocumentID = docID
		chunks[i].ChunkIndex = i
	}

	report, err := p.embedder.Embed(ctx, chunks)
	if err != nil {
		if errors.Is(err, embedding.ErrFatal) {
			return &Outcome{Kind: OutcomeFatal, Err: err}
		}
		return &Outcome{Kind: OutcomeRetryable, Err: err}
	}
	if report.Embedded == 0 && len(report.FailedChunkID) > 0 {
		return &Outcome{
			Kind:         OutcomeRetryable,
			FailedChunks: report.FailedChunkID,
			Err:          fmt.Errorf("embedding failed for all %d chunks", len(report.FailedChunkID)),
		}
	}

	// Chunks whose batch exhausted retries carry no vector and are not
	// persisted. They are reported so the operator can see the loss.
	persisted := chunks[:0:0]
	for _, c := range chunks {
		if c.Embedding != nil {
			persisted = append(persisted, c)
		}
	}

	doc := &models.Document{
		ID:          docID,
		ContentHash: hash,
		Kind:        job.DocumentKind,
		SourcePath:  job.SourceLocator,
		Status:      models.DocumentCompleted,
		Progress:    100,
		ChunkCount:  len(persisted),
		CreatedAt:   time.Now().UTC(),
	}
	if err := p.sink.Persist(ctx, doc, persisted); err != nil {
		return &Outcome{Kind: OutcomeInfra, Err: fmt.Errorf("persist: %w", err)}
	}

	return &Outcome{
		Kind:               OutcomeOK,
		Document:           doc,
		ChunkCount:         len(persisted),
		OversizedCorrected: res.OversizedCorrected,
		FailedChunks:       report.FailedChunkID,
	}
}
