package embedding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/juridoc/ingest-go/internal/models"
)

// BatchConfig bounds embedding requests. The token ceiling here is the
// provider's per-request budget, distinct from the per-chunk ceiling the
// chunker enforces.
type BatchConfig struct {
	MaxBatchSize   int           // chunks per request (default 100)
	MaxBatchTokens int           // summed tokens per request (default 8000)
	CallTimeout    time.Duration // per-request deadline (default 8s)
	Pacing         time.Duration // delay between batches (default 100ms)
	MaxRetries     uint64        // transient retries per batch (default 3)
	InitialBackoff time.Duration // first retry delay (default 1s)
	MaxBackoff     time.Duration // retry delay cap (default 10s)
}

// DefaultBatchConfig returns the standard batching parameters.
func DefaultBatchConfig() BatchConfig {
	return BatchConfig{
		MaxBatchSize:   100,
		MaxBatchTokens: 8000,
		CallTimeout:    8 * time.Second,
		Pacing:         100 * time.Millisecond,
		MaxRetries:     3,
		InitialBackoff: time.Second,
		MaxBackoff:     10 * time.Second,
	}
}

func (c *BatchConfig) fillDefaults() {
	d := DefaultBatchConfig()
	if c.MaxBatchSize <= 0 {
		c.MaxBatchSize = d.MaxBatchSize
	}
	if c.MaxBatchTokens <= 0 {
		c.MaxBatchTokens = d.MaxBatchTokens
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = d.CallTimeout
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = d.InitialBackoff
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = d.MaxBackoff
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = d.MaxRetries
	}
}

// Report summarizes one Embed run.
type Report struct {
	Batches       int
	Embedded      int
	FailedChunkID []string
}

// Generator groups chunks into provider-sized batches and attaches vectors
// in place.
type Generator struct {
	provider Provider
	cfg      BatchConfig
}

// NewGenerator creates a batch generator over the provider.
func NewGenerator(provider Provider, cfg BatchConfig) *Generator {
	cfg.fillDefaults()
	return &Generator{provider: provider, cfg: cfg}
}

// Embed vectorizes all chunks. Transient failures are retried with
// exponential backoff; a batch that still fails marks only its own chunks
// as failed. A fatal provider error aborts the run immediately.
func (g *Generator) Embed(ctx context.Context, chunks []models.Chunk) (*Report, error) {
	report := &Report{}
	if len(chunks) == 0 {
		return report, nil
	}

	for start := 0; start < len(chunks); {
		end := start + 1
		tokens := chunks[start].TokenCount
		for end < len(chunks) && end-start < g.cfg.MaxBatchSize {
			if tokens+chunks[end].TokenCount > g.cfg.MaxBatchTokens {
				break
			}
			tokens += chunks[end].TokenCount
			end++
		}
		if err := g.embedSlice(ctx, chunks[start:end], report); err != nil {
			return report, err
		}

		start = end
		if start < len(chunks) && g.cfg.Pacing > 0 {
			select {
			case <-time.After(g.cfg.Pacing):
			case <-ctx.Done():
				return report, fmt.Errorf("embedding cancelled: %w", ctx.Err())
			}
		}
	}
	return report, nil
}

// embedSlice embeds one batch, halving it when the provider rejects the
// aggregate request size. A token-limit rejection is deterministic, so
// re-sending the identical texts can never succeed.
func (g *Generator) embedSlice(ctx context.Context, batch []models.Chunk, report *Report) error {
	report.Batches++

	vectors, err := g.embedBatch(ctx, batch)
	switch {
	case err == nil:
		for i := range batch {
			batch[i].Embedding = vectors[i]
		}
		report.Embedded += len(batch)
		return nil
	case errors.Is(err, ErrFatal):
		return err
	case ctx.Err() != nil:
		return fmt.Errorf("embedding cancelled: %w", ctx.Err())
	case errors.Is(err, ErrTokenLimit) && len(batch) > 1:
		mid := len(batch) / 2
		if err := g.embedSlice(ctx, batch[:mid], report); err != nil {
			return err
		}
		return g.embedSlice(ctx, batch[mid:], report)
	default:
		// Batch exhausted its retries; its chunks fail, siblings go on.
		slog.Warn("embedding batch failed permanently", "chunks", len(batch), "error", err)
		for i := range batch {
			report.FailedChunkID = append(report.FailedChunkID, batch[i].ChunkID)
		}
		return nil
	}
}

// embedBatch calls the provider once per attempt under the per-call
// timeout, retrying transient errors only.
func (g *Generator) embedBatch(ctx context.Context, batch []models.Chunk) ([][]float32, error) {
	texts := make([]string, len(batch))
	for i := range batch {
		texts[i] = batch[i].Text
	}

	var vectors [][]float32
	op := func() error {
		callCtx, cancel := context.WithTimeout(ctx, g.cfg.CallTimeout)
		defer cancel()

		vecs, err := g.provider.EmbedBatch(callCtx, texts)
		if err != nil {
			if errors.Is(err, ErrFatal) || errors.Is(err, ErrTokenLimit) {
				return backoff.Permanent(err)
			}
			return err // transient errors stay retry-eligible
		}
		vectors = vecs
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = g.cfg.InitialBackoff
	bo.Multiplier = 2
	bo.MaxInterval = g.cfg.MaxBackoff
	bo.RandomizationFactor = 0.2

	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, g.cfg.MaxRetries), ctx))
	if err != nil {
		return nil, err
	}
	return vectors, nil
}
