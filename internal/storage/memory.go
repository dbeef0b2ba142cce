package storage

import (
	"context"
	"sync"

	"github.com/juridoc/ingest-go/internal/models"
)

// MemorySink keeps persisted documents in memory. Used by tests and by
// dry runs that only exercise the pipeline.
type MemorySink struct {
	mu     sync.RWMutex
	byHash map[string]*persisted
}

type persisted struct {
	doc    models.Document
	chunks []models.Chunk
}

var _ Sink = (*MemorySink)(nil)

// NewMemorySink creates an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{byHash: make(map[string]*persisted)}
}

// Persist stores the document keyed by content hash. A second persist of
// the same hash replaces the record rather than duplicating chunks.
func (s *MemorySink) Persist(ctx context.Context, doc *models.Document, chunks []models.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]models.Chunk, len(chunks))
	copy(cp, chunks)
	s.byHash[doc.ContentHash] = &persisted{doc: *doc, chunks: cp}
	return nil
}

// HasDocument reports whether the content hash was persisted.
func (s *MemorySink) HasDocument(ctx context.Context, contentHash string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byHash[contentHash]
	return ok, nil
}

// Document returns the persisted document and chunks for a hash, if any.
func (s *MemorySink) Document(contentHash string) (*models.Document, []models.Chunk, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byHash[contentHash]
	if !ok {
		return nil, nil, false
	}
	doc := p.doc
	chunks := make([]models.Chunk, len(p.chunks))
	copy(chunks, p.chunks)
	return &doc, chunks, true
}

// Len returns how many distinct documents are stored.
func (s *MemorySink) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byHash)
}
