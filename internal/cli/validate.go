package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/juridoc/ingest-go/internal/validate"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>...",
	Short: "Check files against the content rules without ingesting",
	Long: `Validate runs the configured content rules against local files and
reports every failing rule. Nothing is queued or persisted.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	engine, err := newValidator(cfg)
	if err != nil {
		return err
	}

	failed := 0
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		err = engine.Content(string(data), int64(len(data)))
		if err == nil {
			fmt.Printf("✓ %s\n", path)
			continue
		}

		failed++
		var contentErr *validate.ContentValidationError
		if errors.As(err, &contentErr) {
			fmt.Printf("✗ %s\n", path)
			for _, failure := range contentErr.Failures {
				fmt.Printf("    %s\n", failure)
			}
			continue
		}
		fmt.Printf("✗ %s: %v\n", path, err)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) failed validation", failed, len(args))
	}
	return nil
}
