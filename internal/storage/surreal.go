package storage

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/juridoc/ingest-go/internal/models"
	"github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/contrib/rews"
	"github.com/surrealdb/surrealdb.go/pkg/connection"
	"github.com/surrealdb/surrealdb.go/pkg/connection/gorillaws"
	"github.com/surrealdb/surrealdb.go/pkg/logger"
	"github.com/surrealdb/surrealdb.go/surrealcbor"
)

func init() {
	// Force HTTP/1.1 for WSS connections to prevent HTTP/2 ALPN negotiation.
	// WebSocket upgrade requires HTTP/1.1 semantics which fail under HTTP/2.
	gorillaws.DefaultDialer.TLSClientConfig = &tls.Config{
		NextProtos: []string{"http/1.1"},
	}
}

// SurrealConfig holds SurrealDB connection configuration.
type SurrealConfig struct {
	URL       string
	Namespace string
	Database  string
	Username  string
	Password  string
}

// schemaSQL defines the document and chunk tables. The unique index on
// content_hash is what makes Persist idempotent at the database level.
const schemaSQL = `
    DEFINE TABLE IF NOT EXISTS document SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS content_hash ON document TYPE string;
    DEFINE FIELD IF NOT EXISTS kind ON document TYPE string;
    DEFINE FIELD IF NOT EXISTS source_path ON document TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS status ON document TYPE string;
    DEFINE FIELD IF NOT EXISTS progress ON document TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS chunk_count ON document TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS created ON document TYPE datetime DEFAULT time::now();
    DEFINE INDEX IF NOT EXISTS document_hash ON document FIELDS content_hash UNIQUE;

    DEFINE TABLE IF NOT EXISTS chunk SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS document ON chunk TYPE record<document>;
    DEFINE FIELD IF NOT EXISTS text ON chunk TYPE string;
    DEFINE FIELD IF NOT EXISTS token_count ON chunk TYPE int;
    DEFINE FIELD IF NOT EXISTS char_count ON chunk TYPE int;
    DEFINE FIELD IF NOT EXISTS chunk_index ON chunk TYPE int;
    DEFINE FIELD IF NOT EXISTS section_title ON chunk TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS paragraph_numbers ON chunk TYPE array<int>;
    DEFINE FIELD IF NOT EXISTS legal_citations ON chunk TYPE array<string>;
    DEFINE FIELD IF NOT EXISTS chunk_type ON chunk TYPE string;
    DEFINE FIELD IF NOT EXISTS embedding ON chunk TYPE array<float>;
    DEFINE INDEX IF NOT EXISTS chunk_document ON chunk FIELDS document;
`

// SurrealSink persists documents and chunks to SurrealDB over an
// auto-reconnecting WebSocket.
type SurrealSink struct {
	conn *rews.Connection[*gorillaws.Connection]
	db   *surrealdb.DB
	cfg  SurrealConfig
}

var _ Sink = (*SurrealSink)(nil)

// NewSurrealSink connects, authenticates and applies the schema.
func NewSurrealSink(ctx context.Context, cfg SurrealConfig, log *slog.Logger) (*SurrealSink, error) {
	var sdkLogger logger.Logger
	if log != nil {
		sdkLogger = logger.New(log.Handler())
	} else {
		sdkLogger = logger.New(slog.Default().Handler())
	}

	// surrealcbor handles SurrealDB's custom CBOR tags
	codec := surrealcbor.New()

	// gorillaws wants the base URL without the /rpc suffix (it adds it)
	baseURL := strings.TrimSuffix(cfg.URL, "/rpc")

	conn := rews.New(
		func(ctx context.Context) (*gorillaws.Connection, error) {
			ws := gorillaws.New(&connection.Config{
				BaseURL:     baseURL,
				Marshaler:   codec,
				Unmarshaler: codec,
				Logger:      sdkLogger,
			})
			return ws, nil
		},
		5*time.Second,
		codec,
		sdkLogger,
	)

	retryer := rews.NewExponentialBackoffRetryer()
	retryer.InitialDelay = 1 * time.Second
	retryer.MaxDelay = 30 * time.Second
	retryer.Multiplier = 2.0
	retryer.MaxRetries = 10
	conn.Retryer = retryer

	if err := conn.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	db, err := surrealdb.FromConnection(ctx, conn)
	if err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("from connection: %w", err)
	}

	if _, err = db.SignIn(ctx, surrealdb.Auth{
		Username: cfg.Username,
		Password: cfg.Password,
	}); err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("signin: %w", err)
	}

	if err := db.Use(ctx, cfg.Namespace, cfg.Database); err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("use: %w", err)
	}

	if _, err := surrealdb.Query[any](ctx, db, schemaSQL, nil); err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SurrealSink{conn: conn, db: db, cfg: cfg}, nil
}

// Close closes the SurrealDB connection.
func (s *SurrealSink) Close(ctx context.Context) error {
	return s.conn.Close(ctx)
}

// surrealDocument is the wire shape of a document row.
type surrealDocument struct {
	ContentHash string `json:"content_hash"`
	Kind        string `json:"kind"`
	SourcePath  string `json:"source_path,omitempty"`
	Status      string `json:"status"`
	Progress    int    `json:"progress"`
	ChunkCount  int    `json:"chunk_count"`
}

// Persist upserts the document by content hash and replaces its chunks.
// Replaying the same document leaves exactly one copy of everything.
func (s *SurrealSink) Persist(ctx context.Context, doc *models.Document, chunks []models.Chunk) error {
	_, err := surrealdb.Query[any](ctx, s.db, `
		UPSERT type::record("document", $id) SET
			content_hash = $hash,
			kind = $kind,
			source_path = $source_path,
			status = $status,
			progress = $progress,
			chunk_count = $chunk_count
	`, map[string]any{
		"id":          doc.ID,
		"hash":        doc.ContentHash,
		"kind":        string(doc.Kind),
		"source_path": doc.SourcePath,
		"status":      string(doc.Status),
		"progress":    doc.Progress,
		"chunk_count": doc.ChunkCount,
	})
	if err != nil {
		return fmt.Errorf("persist document: %w", err)
	}

	// Drop any chunks from a previous (partial) persist of this document
	if _, err := surrealdb.Query[any](ctx, s.db, `
		DELETE chunk WHERE document = type::record("document", $id)
	`, map[string]any{"id": doc.ID}); err != nil {
		return fmt.Errorf("clear chunks: %w", err)
	}

	for _, ch := range chunks {
		if _, err := surrealdb.Query[any](ctx, s.db, `
			CREATE type::record("chunk", $id) SET
				document = type::record("document", $doc),
				text = $text,
				token_count = $token_count,
				char_count = $char_count,
				chunk_index = $chunk_index,
				section_title = $section_title,
				paragraph_numbers = $paragraph_numbers,
				legal_citations = $legal_citations,
				chunk_type = $chunk_type,
				embedding = $embedding
		`, map[string]any{
			"id":                ch.ChunkID,
			"doc":               doc.ID,
			"text":              ch.Text,
			"token_count":       ch.TokenCount,
			"char_count":        ch.CharCount,
			"chunk_index":       ch.ChunkIndex,
			"section_title":     ch.SectionTitle,
			"paragraph_numbers": intsOrEmpty(ch.ParagraphNumbers),
			"legal_citations":   stringsOrEmpty(ch.LegalCitations),
			"chunk_type":        string(ch.ChunkType),
			"embedding":         ch.Embedding,
		}); err != nil {
			return fmt.Errorf("persist chunk %d: %w", ch.ChunkIndex, err)
		}
	}
	return nil
}

// HasDocument reports whether a completed document with the hash exists.
func (s *SurrealSink) HasDocument(ctx context.Context, contentHash string) (bool, error) {
	results, err := surrealdb.Query[[]surrealDocument](ctx, s.db, `
		SELECT content_hash, kind, status, progress, chunk_count
		FROM document WHERE content_hash = $hash LIMIT 1
	`, map[string]any{"hash": contentHash})
	if err != nil {
		return false, fmt.Errorf("lookup document: %w", err)
	}
	if results == nil || len(*results) == 0 {
		return false, nil
	}
	return len((*results)[0].Result) > 0, nil
}

func intsOrEmpty(v []int) []int {
	if v == nil {
		return []int{}
	}
	return v
}

func stringsOrEmpty(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
