package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show queued jobs",
	Long:  `Status replays the durable queue and lists the jobs waiting for the next run.`,
	RunE:  runStatus,
}

var (
	statusTitleStyle  = lipgloss.NewStyle().Bold(true)
	statusHeaderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#5FAFD7"))
	statusDimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C6C6C"))
)

func runStatus(cmd *cobra.Command, args []string) error {
	jobs, err := restoredJobs(cfg)
	if err != nil {
		return fmt.Errorf("read queue: %w", err)
	}

	fmt.Println(statusTitleStyle.Render(fmt.Sprintf("Queue: %d pending job(s)", len(jobs))))
	if len(jobs) == 0 {
		fmt.Println(statusDimStyle.Render("Nothing queued. Use 'juridoc submit' to add jobs."))
		return nil
	}

	fmt.Println(statusHeaderStyle.Render(fmt.Sprintf("%-10s %-14s %-14s %4s %7s  %s",
		"JOB", "SOURCE", "KIND", "PRI", "RETRIES", "LOCATOR")))
	for _, job := range jobs {
		retries := fmt.Sprintf("%d/%d", job.RetryCount, job.MaxRetries)
		fmt.Printf("%-10s %-14s %-14s %4d %7s  %s\n",
			job.JobID, job.SourceKind, job.DocumentKind, job.Priority, retries, job.SourceLocator)
		if job.LastError != "" {
			fmt.Println(statusDimStyle.Render("           last error: " + job.LastError))
		}
	}
	return nil
}
