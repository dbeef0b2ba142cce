package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"
	"sync/atomic"
)

// MockProvider is a deterministic in-process embedder for tests and dry
// runs: the vector is derived from a hash of the text, so identical text
// always embeds identically.
type MockProvider struct {
	dimension int
	calls     atomic.Int64

	// Fail, when set, is invoked per batch and may return an error to
	// simulate provider failures.
	Fail func(call int64, texts []string) error
}

var _ Provider = (*MockProvider)(nil)

// NewMockProvider creates a mock embedder with the given dimension.
func NewMockProvider(dimension int) *MockProvider {
	if dimension <= 0 {
		dimension = 16
	}
	return &MockProvider{dimension: dimension}
}

// Model returns the mock model name.
func (p *MockProvider) Model() string {
	return "mock-embedder"
}

// Dimension returns the configured vector dimension.
func (p *MockProvider) Dimension() int {
	return p.dimension
}

// Calls returns how many batches have been requested.
func (p *MockProvider) Calls() int64 {
	return p.calls.Load()
}

// EmbedBatch returns one deterministic unit-norm vector per text.
func (p *MockProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	call := p.calls.Add(1)
	if p.Fail != nil {
		if err := p.Fail(call, texts); err != nil {
			return nil, classify(err)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, classify(err)
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = p.embed(text)
	}
	return vectors, nil
}

func (p *MockProvider) embed(text string) []float32 {
	sum := sha256.Sum256([]byte(text))
	vec := make([]float32, p.dimension)
	var norm float64
	for i := range vec {
		// Stretch the 32 hash bytes over the vector deterministically
		word := binary.BigEndian.Uint32(sum[(i*4)%28:])
		v := float32(word%2000)/1000.0 - 1.0
		v += float32(i) * 1e-3
		vec[i] = v
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}
	return vec
}
