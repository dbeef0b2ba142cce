package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"time"

	"github.com/juridoc/ingest-go/internal/models"
)

// ContentLoader resolves a job's source locator to document text.
type ContentLoader interface {
	Load(ctx context.Context, kind models.SourceKind, locator string) (text string, size int64, err error)
}

// FileLoader reads local files. Used for local-file and batch-upload jobs.
type FileLoader struct{}

func (FileLoader) Load(_ context.Context, _ models.SourceKind, locator string) (string, int64, error) {
	data, err := os.ReadFile(locator)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", 0, fmt.Errorf("%w: %s", ErrSourceNotFound, locator)
		}
		return "", 0, fmt.Errorf("read %s: %w", locator, err)
	}
	return string(data), int64(len(data)), nil
}

// HTTPLoader fetches content over HTTP. Used for url and api-fetch jobs.
// A 404 is terminal, network failures and 5xx responses are transient.
type HTTPLoader struct {
	Client *http.Client
}

func NewHTTPLoader() *HTTPLoader {
	return &HTTPLoader{Client: &http.Client{Timeout: 30 * time.Second}}
}

func (l *HTTPLoader) Load(ctx context.Context, _ models.SourceKind, locator string) (string, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %s", ErrSourceNotFound, locator)
	}

	resp, err := l.Client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("%w: fetch %s: %v", ErrTransientIO, locator, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", 0, fmt.Errorf("%w: %s", ErrSourceNotFound, locator)
	case resp.StatusCode >= 500:
		return "", 0, fmt.Errorf("%w: %s returned %d", ErrTransientIO, locator, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return "", 0, fmt.Errorf("fetch %s: unexpected status %d", locator, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, fmt.Errorf("%w: read body of %s: %v", ErrTransientIO, locator, err)
	}
	return string(data), int64(len(data)), nil
}

// RouterLoader dispatches to a file or HTTP loader by source kind.
type RouterLoader struct {
	File FileLoader
	HTTP *HTTPLoader
}

func NewRouterLoader() *RouterLoader {
	return &RouterLoader{HTTP: NewHTTPLoader()}
}

func (r *RouterLoader) Load(ctx context.Context, kind models.SourceKind, locator string) (string, int64, error) {
	switch kind {
	case models.SourceURL, models.SourceAPIFetch:
		return r.HTTP.Load(ctx, kind, locator)
	default:
		return r.File.Load(ctx, kind, locator)
	}
}
