package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/juridoc/ingest-go/internal/chunker"
	"github.com/juridoc/ingest-go/internal/dedup"
	"github.com/juridoc/ingest-go/internal/embedding"
	"github.com/juridoc/ingest-go/internal/models"
	"github.com/juridoc/ingest-go/internal/storage"
	"github.com/juridoc/ingest-go/internal/tokenizer"
	"github.com/juridoc/ingest-go/internal/validate"
)

// legalText passes the default content rules.
var legalText = strings.Repeat(
	"The court considered the order under section twelve of the Act as argued by the appellant and the respondent. ", 4)

type stubLoader struct {
	text string
	size int64
	err  error
}

func (l stubLoader) Load(context.Context, models.SourceKind, string) (string, int64, error) {
	if l.err != nil {
		return "", 0, l.err
	}
	size := l.size
	if size == 0 {
		size = int64(len(l.text))
	}
	return l.text, size, nil
}

type failSink struct{ storage.Sink }

func (failSink) Persist(context.Context, *models.Document, []models.Chunk) error {
	return errors.New("disk full")
}

func newTestProcessor(t *testing.T, loader ContentLoader, provider embedding.Provider, sink storage.Sink) *Processor {
	t.Helper()
	tok, err := tokenizer.Default()
	if err != nil {
		t.Fatal(err)
	}
	ch, err := chunker.New(tok, chunker.Config{MaxChunkTokens: 200, OverlapTokens: 0, MinChunkChars: 20})
	if err != nil {
		t.Fatal(err)
	}
	gen := embedding.NewGenerator(provider, embedding.BatchConfig{
		MaxBatchSize:   100,
		MaxBatchTokens: 8000,
		CallTimeout:    time.Second,
		Pacing:         time.Millisecond,
		MaxRetries:     1,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
	})
	return NewProcessor(loader, validate.NewEngine(nil), ch, dedup.New(), gen, sink, nil)
}

func testOutcomeJob(kind models.SourceKind) *models.IngestionJob {
	return &models.IngestionJob{
		JobID:         "job1",
		SourceKind:    kind,
		SourceLocator: "/data/doc.txt",
		DocumentKind:  models.DocCaseLaw,
		MaxRetries:    3,
	}
}

func TestProcessSuccess(t *testing.T) {
	sink := storage.NewMemorySink()
	proc := newTestProcessor(t, stubLoader{text: legalText}, embedding.NewMockProvider(8), sink)

	out := proc.Process(context.Background(), testOutcomeJob(models.SourceLocalFile))
	if out.Kind != OutcomeOK {
		t.Fatalf("outcome = %s (%v), want ok", out.Kind, out.Err)
	}
	if out.Document == nil || out.ChunkCount == 0 {
		t.Fatalf("outcome missing document: %+v", out)
	}

	doc, chunks, ok := sink.Document(out.Document.ContentHash)
	if !ok {
		t.Fatal("document not persisted")
	}
	if doc.Status != models.DocumentCompleted || doc.Progress != 100 {
		t.Errorf("doc = %+v, want completed at 100%%", doc)
	}
	if doc.ChunkCount != len(chunks) {
		t.Errorf("ChunkCount %d != persisted chunks %d", doc.ChunkCount, len(chunks))
	}
	for i, ch := range chunks {
		if len(ch.Embedding) == 0 {
			t.Errorf("chunk[%d] has no embedding", i)
		}
		if ch.DocumentID != doc.ID {
			t.Errorf("chunk[%d].DocumentID = %q, want %q", i, ch.DocumentID, doc.ID)
		}
		if ch.ChunkIndex != i {
			t.Errorf("chunk[%d].ChunkIndex = %d", i, ch.ChunkIndex)
		}
	}
}

func TestProcessDuplicateShortCircuits(t *testing.T) {
	sink := storage.NewMemorySink()
	provider := embedding.NewMockProvider(8)
	proc := newTestProcessor(t, stubLoader{text: legalText}, provider, sink)

	first := proc.Process(context.Background(), testOutcomeJob(models.SourceLocalFile))
	if first.Kind != OutcomeOK {
		t.Fatalf("first run outcome = %s (%v)", first.Kind, first.Err)
	}
	callsAfterFirst := provider.Calls()

	second := proc.Process(context.Background(), testOutcomeJob(models.SourceLocalFile))
	if second.Kind != OutcomeDuplicate {
		t.Fatalf("second run outcome = %s, want duplicate", second.Kind)
	}
	if !errors.Is(second.Err, ErrDuplicateDocument) {
		t.Errorf("second run error = %v, want ErrDuplicateDocument", second.Err)
	}
	if provider.Calls() != callsAfterFirst {
		t.Error("duplicate must not re-embed")
	}
}

func TestProcessLoadFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want OutcomeKind
	}{
		{name: "not found is fatal", err: fmt.Errorf("%w: gone", ErrSourceNotFound), want: OutcomeFatal},
		{name: "transient io is retryable", err: fmt.Errorf("%w: reset", ErrTransientIO), want: OutcomeRetryable},
		{name: "other errors are fatal", err: errors.New("permission denied"), want: OutcomeFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proc := newTestProcessor(t, stubLoader{err: tt.err}, embedding.NewMockProvider(8), storage.NewMemorySink())
			out := proc.Process(context.Background(), testOutcomeJob(models.SourceLocalFile))
			if out.Kind != tt.want {
				t.Errorf("outcome = %s, want %s", out.Kind, tt.want)
			}
		})
	}
}

func TestProcessValidationFailure(t *testing.T) {
	tests := []struct {
		name string
		kind models.SourceKind
		want OutcomeKind
	}{
		{name: "local file is fatal", kind: models.SourceLocalFile, want: OutcomeFatal},
		{name: "batch upload is fatal", kind: models.SourceBatchUpload, want: OutcomeFatal},
		{name: "url may change next fetch", kind: models.SourceURL, want: OutcomeRetryable},
		{name: "api fetch may change next fetch", kind: models.SourceAPIFetch, want: OutcomeRetryable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proc := newTestProcessor(t, stubLoader{text: "way too short"}, embedding.NewMockProvider(8), storage.NewMemorySink())
			out := proc.Process(context.Background(), testOutcomeJob(tt.kind))
			if out.Kind != tt.want {
				t.Errorf("outcome = %s, want %s", out.Kind, tt.want)
			}
			var contentErr *validate.ContentValidationError
			if !errors.As(out.Err, &contentErr) {
				t.Errorf("error = %v, want ContentValidationError", out.Err)
			}
		})
	}
}

func TestProcessEmbeddingFailures(t *testing.T) {
	t.Run("fatal provider error fails the job", func(t *testing.T) {
		provider := embedding.NewMockProvider(8)
		provider.Fail = func(int64, []string) error { return errors.New("invalid api key") }
		proc := newTestProcessor(t, stubLoader{text: legalText}, provider, storage.NewMemorySink())

		out := proc.Process(context.Background(), testOutcomeJob(models.SourceLocalFile))
		if out.Kind != OutcomeFatal {
			t.Errorf("outcome = %s, want fatal", out.Kind)
		}
	})

	t.Run("total transient failure is retryable", func(t *testing.T) {
		provider := embedding.NewMockProvider(8)
		provider.Fail = func(int64, []string) error { return errors.New("connection reset") }
		proc := newTestProcessor(t, stubLoader{text: legalText}, provider, storage.NewMemorySink())

		out := proc.Process(context.Background(), testOutcomeJob(models.SourceLocalFile))
		if out.Kind != OutcomeRetryable {
			t.Errorf("outcome = %s, want retryable", out.Kind)
		}
		if len(out.FailedChunks) == 0 {
			t.Error("failed chunk ids not reported")
		}
	})
}

func TestProcessPersistFailureIsInfra(t *testing.T) {
	proc := newTestProcessor(t, stubLoader{text: legalText}, embedding.NewMockProvider(8), failSink{Sink: storage.NewMemorySink()})

	out := proc.Process(context.Background(), testOutcomeJob(models.SourceLocalFile))
	if out.Kind != OutcomeInfra {
		t.Errorf("outcome = %s, want infra", out.Kind)
	}
}

func TestFileLoader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.txt")
	if err := os.WriteFile(path, []byte("file content"), 0644); err != nil {
		t.Fatal(err)
	}

	var loader FileLoader
	text, size, err := loader.Load(context.Background(), models.SourceLocalFile, path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if text != "file content" || size != 12 {
		t.Errorf("Load() = %q, %d", text, size)
	}

	_, _, err = loader.Load(context.Background(), models.SourceLocalFile, filepath.Join(dir, "absent.txt"))
	if !errors.Is(err, ErrSourceNotFound) {
		t.Errorf("missing file error = %v, want ErrSourceNotFound", err)
	}
}

func TestHTTPLoader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			fmt.Fprint(w, "remote content")
		case "/missing":
			w.WriteHeader(http.StatusNotFound)
		case "/broken":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusTeapot)
		}
	}))
	defer server.Close()

	loader := NewHTTPLoader()

	t.Run("ok", func(t *testing.T) {
		text, size, err := loader.Load(context.Background(), models.SourceURL, server.URL+"/ok")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if text != "remote content" || size != int64(len("remote content")) {
			t.Errorf("Load() = %q, %d", text, size)
		}
	})

	t.Run("404 is not found", func(t *testing.T) {
		_, _, err := loader.Load(context.Background(), models.SourceURL, server.URL+"/missing")
		if !errors.Is(err, ErrSourceNotFound) {
			t.Errorf("error = %v, want ErrSourceNotFound", err)
		}
	})

	t.Run("500 is transient", func(t *testing.T) {
		_, _, err := loader.Load(context.Background(), models.SourceURL, server.URL+"/broken")
		if !errors.Is(err, ErrTransientIO) {
			t.Errorf("error = %v, want ErrTransientIO", err)
		}
	})

	t.Run("connection refused is transient", func(t *testing.T) {
		_, _, err := loader.Load(context.Background(), models.SourceURL, "http://127.0.0.1:1/doc")
		if !errors.Is(err, ErrTransientIO) {
			t.Errorf("error = %v, want ErrTransientIO", err)
		}
	})
}

func TestRouterLoader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.txt")
	if err := os.WriteFile(path, []byte("local"), 0644); err != nil {
		t.Fatal(err)
	}

	router := NewRouterLoader()
	text, _, err := router.Load(context.Background(), models.SourceLocalFile, path)
	if err != nil || text != "local" {
		t.Errorf("local route = %q, %v", text, err)
	}
	text, _, err = router.Load(context.Background(), models.SourceBatchUpload, path)
	if err != nil || text != "local" {
		t.Errorf("batch route = %q, %v", text, err)
	}
}
