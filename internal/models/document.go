package models

import "time"

// DocumentStatus tracks a document through the pipeline.
type DocumentStatus string

const (
	DocumentPending    DocumentStatus = "pending"
	DocumentProcessing DocumentStatus = "processing"
	DocumentCompleted  DocumentStatus = "completed"
	DocumentFailed     DocumentStatus = "failed"
)

// Document is one ingested source. ContentHash is unique per owning scope;
// a second job producing the same hash short-circuits as a duplicate.
type Document struct {
	ID          string         `json:"id"`
	ContentHash string         `json:"content_hash"`
	Kind        DocumentKind   `json:"kind"`
	SourcePath  string         `json:"source_path,omitempty"`
	Status      DocumentStatus `json:"status"`
	Progress    int            `json:"progress"` // 0-100
	ChunkCount  int            `json:"chunk_count"`
	CreatedAt   time.Time      `json:"created_at"`
}
