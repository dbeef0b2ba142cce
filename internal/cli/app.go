package cli

import (
	"context"
	"fmt"

	"github.com/juridoc/ingest-go/internal/audit"
	"github.com/juridoc/ingest-go/internal/chunker"
	"github.com/juridoc/ingest-go/internal/config"
	"github.com/juridoc/ingest-go/internal/dedup"
	"github.com/juridoc/ingest-go/internal/embedding"
	"github.com/juridoc/ingest-go/internal/metrics"
	"github.com/juridoc/ingest-go/internal/models"
	"github.com/juridoc/ingest-go/internal/pipeline"
	"github.com/juridoc/ingest-go/internal/queue"
	"github.com/juridoc/ingest-go/internal/scheduler"
	"github.com/juridoc/ingest-go/internal/storage"
	"github.com/juridoc/ingest-go/internal/tokenizer"
	"github.com/juridoc/ingest-go/internal/validate"
)

// App bundles the wired pipeline for a CLI invocation.
type App struct {
	Scheduler *scheduler.Scheduler
	Queue     *queue.File
	Metrics   *metrics.Collector
	Restored  int

	closers []func(context.Context) error
}

// Close releases the queue file and any storage connections.
func (a *App) Close(ctx context.Context) error {
	var firstErr error
	for _, c := range a.closers {
		if err := c(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if a.Queue != nil {
		if err := a.Queue.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// newValidator builds the validation engine from the rules file when one
// is configured, falling back to the built-in rules.
func newValidator(cfg config.Config) (*validate.Engine, error) {
	if cfg.RulesPath == "" {
		return validate.NewEngine(validate.DefaultRules()), nil
	}
	rules, err := validate.LoadRules(cfg.RulesPath)
	if err != nil {
		return nil, fmt.Errorf("load rules %s: %w", cfg.RulesPath, err)
	}
	return validate.NewEngine(rules), nil
}

// newApp wires the full pipeline. withEmbedder=false skips provider
// initialization for commands that never process content.
func newApp(ctx context.Context, cfg config.Config, withEmbedder bool) (*App, error) {
	validator, err := newValidator(cfg)
	if err != nil {
		return nil, err
	}

	tok, err := tokenizer.Default()
	if err != nil {
		return nil, fmt.Errorf("init tokenizer: %w", err)
	}
	ch, err := chunker.New(tok, chunker.Config{
		MaxChunkTokens: cfg.MaxChunkTokens,
		OverlapTokens:  cfg.OverlapTokens,
		MinChunkChars:  cfg.MinChunkChars,
	})
	if err != nil {
		return nil, fmt.Errorf("chunker config: %w", err)
	}

	app := &App{Metrics: metrics.NewCollector()}

	var sink storage.Sink
	if cfg.SurrealDBURL != "" {
		surreal, err := storage.NewSurrealSink(ctx, storage.SurrealConfig{
			URL:       cfg.SurrealDBURL,
			Namespace: cfg.SurrealDBNamespace,
			Database:  cfg.SurrealDBDatabase,
			Username:  cfg.SurrealDBUser,
			Password:  cfg.SurrealDBPass,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("connect storage: %w", err)
		}
		app.closers = append(app.closers, surreal.Close)
		sink = surreal
	} else {
		sink = storage.NewMemorySink()
	}

	var provider embedding.Provider
	if withEmbedder {
		provider, err = embedding.New(ctx, embedding.Config{
			Provider:      embedding.ProviderType(cfg.EmbedProvider),
			Model:         cfg.EmbedModel,
			Dimension:     cfg.EmbedDimension,
			OllamaHost:    cfg.OllamaHost,
			OpenAIAPIKey:  cfg.OpenAIAPIKey,
			BedrockRegion: cfg.BedrockRegion,
		})
		if err != nil {
			return nil, fmt.Errorf("init embedder: %w", err)
		}
	} else {
		provider = embedding.NewMockProvider(cfg.EmbedDimension)
	}
	generator := embedding.NewGenerator(provider, embedding.BatchConfig{
		MaxBatchSize:   cfg.EmbedBatchSize,
		MaxBatchTokens: cfg.EmbedBatchMaxTokens,
		CallTimeout:    cfg.EmbedTimeout,
		Pacing:         cfg.EmbedPacing,
	})

	proc := pipeline.NewProcessor(
		pipeline.NewRouterLoader(),
		validator,
		ch,
		dedup.New(),
		generator,
		sink,
		logger,
	)

	q, restored, err := queue.Open(cfg.QueuePath)
	if err != nil {
		return nil, fmt.Errorf("open queue %s: %w", cfg.QueuePath, err)
	}
	app.Queue = q
	app.Restored = len(restored)

	app.Scheduler = scheduler.New(
		scheduler.Config{
			BatchSize:  cfg.BatchSize,
			Workers:    cfg.Workers,
			JobTimeout: cfg.JobTimeout,
		},
		validator,
		proc,
		q,
		app.Metrics,
		&audit.SlogSink{Logger: logger},
		logger,
	)
	app.Scheduler.Restore(restored)
	return app, nil
}

// restoredJobs replays the durable queue without opening it for writes.
func restoredJobs(cfg config.Config) ([]*models.IngestionJob, error) {
	q, jobs, err := queue.Open(cfg.QueuePath)
	if err != nil {
		return nil, err
	}
	defer q.Close()
	return jobs, nil
}
