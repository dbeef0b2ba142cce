package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/juridoc/ingest-go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("content"), 0644))
}

func TestCollectFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"))
	writeFile(t, filepath.Join(dir, "b.md"))
	writeFile(t, filepath.Join(dir, "ignore.pdf"))
	writeFile(t, filepath.Join(dir, "sub", "c.txt"))

	t.Run("top level only", func(t *testing.T) {
		files, err := collectFiles(dir, false)
		require.NoError(t, err)
		assert.Len(t, files, 2, "only top-level text files: %v", files)
	})

	t.Run("recursive", func(t *testing.T) {
		files, err := collectFiles(dir, true)
		require.NoError(t, err)
		assert.Len(t, files, 3)
	})
}

func TestExpandSource(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "doc.txt")
	writeFile(t, file)

	tests := []struct {
		name     string
		arg      string
		wantKind models.SourceKind
		wantLen  int
		wantErr  bool
	}{
		{name: "https url", arg: "https://example.com/act.html", wantKind: models.SourceURL, wantLen: 1},
		{name: "http url", arg: "http://example.com/act.html", wantKind: models.SourceURL, wantLen: 1},
		{name: "single file", arg: file, wantKind: models.SourceLocalFile, wantLen: 1},
		{name: "directory", arg: dir, wantKind: models.SourceBatchUpload, wantLen: 1},
		{name: "missing path", arg: filepath.Join(dir, "absent.txt"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			locators, kind, err := expandSource(tt.arg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, kind)
			assert.Len(t, locators, tt.wantLen)
		})
	}
}

func TestExpandSourceOverride(t *testing.T) {
	submitSource = "api-fetch"
	defer func() { submitSource = "" }()

	locators, kind, err := expandSource("https://api.example.com/v1/judgments/123")
	require.NoError(t, err)
	assert.Equal(t, models.SourceAPIFetch, kind)
	assert.Equal(t, []string{"https://api.example.com/v1/judgments/123"}, locators)
}
