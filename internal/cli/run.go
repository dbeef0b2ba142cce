package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"
)

var (
	runNoUI    bool
	runDryRun  bool
	runWorkers int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process all queued ingestion jobs",
	Long: `Run drains the durable job queue: each job is loaded, validated,
chunked, embedded and persisted. Transient failures are retried up to
the job's retry budget.

The interactive view supports 'p' to pause at the next batch boundary,
'r' to resume and 'q' to quit the view while processing continues.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().BoolVar(&runNoUI, "no-ui", false, "plain log output instead of the progress view")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "process with the in-memory sink and a mock embedder")
	runCmd.Flags().IntVar(&runWorkers, "workers", 0, "override worker count")
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if runWorkers > 0 {
		cfg.Workers = runWorkers
	}
	if runDryRun {
		cfg.SurrealDBURL = ""
	}

	app, err := newApp(ctx, cfg, !runDryRun)
	if err != nil {
		return err
	}
	defer app.Close(context.Background())

	status := app.Scheduler.Status()
	if status.QueueSize == 0 {
		fmt.Println("Queue is empty. Use 'juridoc submit' to add jobs.")
		return nil
	}
	total := status.QueueSize

	runDone := make(chan error, 1)
	go func() {
		runDone <- app.Scheduler.Run(ctx)
	}()

	if runNoUI || !isTerminal() {
		err := <-runDone
		final := app.Scheduler.Status()
		fmt.Printf("completed=%d failed=%d\n", final.Completed, final.Failed)
		return err
	}

	model := newRunModel(app.Scheduler, total)
	if _, err := tea.NewProgram(model).Run(); err != nil {
		return fmt.Errorf("progress view: %w", err)
	}
	return <-runDone
}

func isTerminal() bool {
	info, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
