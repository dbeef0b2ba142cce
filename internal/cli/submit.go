package cli

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/juridoc/ingest-go/internal/models"
	"github.com/spf13/cobra"
)

var (
	submitKind       string
	submitSource     string
	submitPriority   int
	submitMaxRetries int
	submitRecursive  bool
)

var submitCmd = &cobra.Command{
	Use:   "submit <file|url|directory>...",
	Short: "Queue documents for ingestion",
	Long: `Submit queues one or more sources on the durable job queue.

Sources starting with http:// or https:// are fetched remotely;
directories are expanded to the text files they contain. Queued jobs
are processed by 'juridoc run'.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSubmit,
}

func init() {
	submitCmd.Flags().StringVarP(&submitKind, "kind", "k", "user-document",
		"document kind: statute, case-law, regulation, user-document")
	submitCmd.Flags().StringVarP(&submitSource, "source", "s", "",
		"override source kind: local-file, url, api-fetch, batch-upload")
	submitCmd.Flags().IntVarP(&submitPriority, "priority", "p", 0,
		"scheduling priority, higher runs first")
	submitCmd.Flags().IntVar(&submitMaxRetries, "max-retries", models.DefaultMaxRetries,
		"retry budget for transient failures")
	submitCmd.Flags().BoolVarP(&submitRecursive, "recursive", "r", false,
		"descend into subdirectories")
}

func runSubmit(cmd *cobra.Command, args []string) error {
	kind := models.DocumentKind(submitKind)

	ctx := context.Background()
	app, err := newApp(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer app.Close(ctx)

	var submitted int
	for _, arg := range args {
		locators, source, err := expandSource(arg)
		if err != nil {
			return err
		}
		for _, locator := range locators {
			job := &models.IngestionJob{
				SourceKind:    source,
				SourceLocator: locator,
				DocumentKind:  kind,
				Priority:      submitPriority,
				MaxRetries:    submitMaxRetries,
			}
			if err := app.Scheduler.Submit(job); err != nil {
				return fmt.Errorf("submit %s: %w", locator, err)
			}
			fmt.Printf("queued %s  %s\n", job.JobID, locator)
			submitted++
		}
	}

	fmt.Printf("\n%d job(s) queued. Run 'juridoc run' to process them.\n", submitted)
	return nil
}

// expandSource turns one argument into job locators with a source kind.
func expandSource(arg string) ([]string, models.SourceKind, error) {
	if submitSource != "" {
		return []string{arg}, models.SourceKind(submitSource), nil
	}
	if strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") {
		return []string{arg}, models.SourceURL, nil
	}

	info, err := os.Stat(arg)
	if err != nil {
		return nil, "", fmt.Errorf("stat %s: %w", arg, err)
	}
	if !info.IsDir() {
		return []string{arg}, models.SourceLocalFile, nil
	}

	files, err := collectFiles(arg, submitRecursive)
	if err != nil {
		return nil, "", err
	}
	if len(files) == 0 {
		return nil, "", fmt.Errorf("no text files found in %s", arg)
	}
	return files, models.SourceBatchUpload, nil
}

// collectFiles gathers ingestible files from a directory.
func collectFiles(dir string, recursive bool) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".txt", ".md", ".text":
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	return files, nil
}
