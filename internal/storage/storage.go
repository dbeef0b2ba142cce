// Package storage defines the sink the pipeline hands finished documents
// to, plus the provided implementations.
package storage

import (
	"context"

	"github.com/juridoc/ingest-go/internal/models"
)

// Sink persists a document and its embedded chunks. Persist must be
// idempotent on the document's content hash: persisting the same document
// twice must not duplicate chunks.
type Sink interface {
	Persist(ctx context.Context, doc *models.Document, chunks []models.Chunk) error

	// HasDocument reports whether a document with the content hash was
	// already persisted. Used by the pre-flight duplicate gate.
	HasDocument(ctx context.Context, contentHash string) (bool, error)
}
