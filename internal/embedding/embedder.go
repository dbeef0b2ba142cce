// Package embedding provides embedding generation with multiple backend
// support and the batched, retrying generator the scheduler drives.
package embedding

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Provider generates embedding vectors for batches of text.
type Provider interface {
	// EmbedBatch generates embeddings for multiple texts in one request.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Model returns the name of the embedding model being used.
	Model() string

	// Dimension returns the embedding vector dimension.
	Dimension() int
}

// ProviderType identifies the embedding backend.
type ProviderType string

const (
	ProviderOllama  ProviderType = "ollama"
	ProviderOpenAI  ProviderType = "openai"
	ProviderBedrock ProviderType = "bedrock"
	ProviderMock    ProviderType = "mock"
)

// Config holds configuration for creating a Provider.
type Config struct {
	Provider  ProviderType
	Model     string
	Dimension int

	// Ollama-specific
	OllamaHost string

	// OpenAI-specific
	OpenAIAPIKey string

	// Bedrock-specific
	BedrockRegion string
}

// New creates a Provider based on the configuration.
func New(ctx context.Context, cfg Config) (Provider, error) {
	switch cfg.Provider {
	case ProviderOllama, "":
		llm, err := ollama.New(
			ollama.WithModel(cfg.Model),
			ollama.WithServerURL(cfg.OllamaHost),
		)
		if err != nil {
			return nil, fmt.Errorf("create ollama client: %w", err)
		}
		model, err := embeddings.NewEmbedder(llm)
		if err != nil {
			return nil, fmt.Errorf("create ollama embedder: %w", err)
		}
		return &langchainProvider{model: model, modelName: cfg.Model, dimension: cfg.Dimension}, nil

	case ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OpenAI API key required")
		}
		llm, err := openai.New(
			openai.WithToken(cfg.OpenAIAPIKey),
			openai.WithEmbeddingModel(cfg.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("create openai client: %w", err)
		}
		model, err := embeddings.NewEmbedder(llm)
		if err != nil {
			return nil, fmt.Errorf("create openai embedder: %w", err)
		}
		return &langchainProvider{model: model, modelName: cfg.Model, dimension: cfg.Dimension}, nil

	case ProviderBedrock:
		return NewBedrockProvider(ctx, cfg.BedrockRegion, cfg.Model, cfg.Dimension)

	case ProviderMock:
		return NewMockProvider(cfg.Dimension), nil

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}

// langchainProvider wraps langchaingo embeddings with dimension validation.
type langchainProvider struct {
	model     embeddings.Embedder
	modelName string
	dimension int
}

var _ Provider = (*langchainProvider)(nil)

func (p *langchainProvider) Model() string {
	return p.modelName
}

func (p *langchainProvider) Dimension() int {
	return p.dimension
}

// EmbedBatch generates embeddings for multiple texts.
func (p *langchainProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	start := time.Now()
	vectors, err := p.model.EmbedDocuments(ctx, texts)
	duration := time.Since(start)

	if err != nil {
		slog.Warn("embedding batch failed", "model", p.modelName, "texts", len(texts), "duration_ms", duration.Milliseconds(), "error", err)
		return nil, classify(err)
	}

	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("count mismatch: got %d, want %d", len(vectors), len(texts))
	}
	for i, v := range vectors {
		if p.dimension > 0 && len(v) != p.dimension {
			return nil, fmt.Errorf("embedding %d dimension mismatch: got %d, want %d", i, len(v), p.dimension)
		}
	}

	slog.Debug("embedding batch complete", "model", p.modelName, "texts", len(texts), "duration_ms", duration.Milliseconds())
	return vectors, nil
}
