// Package models defines data structures for the juridoc ingestion pipeline.
package models

import (
	"time"
)

// SourceKind identifies where a job's raw content comes from.
type SourceKind string

const (
	SourceLocalFile   SourceKind = "local-file"
	SourceURL         SourceKind = "url"
	SourceAPIFetch    SourceKind = "api-fetch"
	SourceBatchUpload SourceKind = "batch-upload"
)

// Valid reports whether the source kind is one of the known variants.
func (k SourceKind) Valid() bool {
	switch k {
	case SourceLocalFile, SourceURL, SourceAPIFetch, SourceBatchUpload:
		return true
	}
	return false
}

// DocumentKind classifies the legal source document.
type DocumentKind string

const (
	DocStatute      DocumentKind = "statute"
	DocCaseLaw      DocumentKind = "case-law"
	DocRegulation   DocumentKind = "regulation"
	DocUserDocument DocumentKind = "user-document"
)

// Valid reports whether the document kind is one of the known variants.
func (k DocumentKind) Valid() bool {
	switch k {
	case DocStatute, DocCaseLaw, DocRegulation, DocUserDocument:
		return true
	}
	return false
}

// DefaultMaxRetries is the retry budget new jobs receive unless overridden.
const DefaultMaxRetries = 3

// IngestionJob is the scheduler's unit of work.
type IngestionJob struct {
	JobID         string            `json:"job_id"`
	SourceKind    SourceKind        `json:"source_kind"`
	SourceLocator string            `json:"source_locator"`
	DocumentKind  DocumentKind      `json:"document_kind"`
	Priority      int               `json:"priority"`
	RetryCount    int               `json:"retry_count"`
	MaxRetries    int               `json:"max_retries"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`

	// LastError holds the most recent failure message for inspection.
	LastError string `json:"last_error,omitempty"`
}

// RetriesExhausted reports whether the job has used up its retry budget.
func (j *IngestionJob) RetriesExhausted() bool {
	return j.RetryCount >= j.MaxRetries
}
