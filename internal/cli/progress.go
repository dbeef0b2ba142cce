package cli

import (
	"fmt"
	"time"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/juridoc/ingest-go/internal/scheduler"
)

const pollInterval = 200 * time.Millisecond

// Theme holds the color scheme for the progress display.
type Theme struct {
	Status  lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
}

var defaultTheme = Theme{
	Status:  lipgloss.Color("#5FAFD7"), // light blue
	Success: lipgloss.Color("#00D787"), // green
	Error:   lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
}

func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) completedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// tickMsg triggers polling the scheduler status.
type tickMsg time.Time

// statusMsg carries a scheduler snapshot.
type statusMsg scheduler.Status

// runModel is the bubbletea model for a scheduler run.
type runModel struct {
	sched    *scheduler.Scheduler
	status   scheduler.Status
	total    int
	progress progress.Model
	theme    Theme
	done     bool
	quitting bool
}

func newRunModel(sched *scheduler.Scheduler, total int) runModel {
	prog := progress.New(
		progress.WithDefaultBlend(),
		progress.WithWidth(40),
	)
	return runModel{
		sched:    sched,
		total:    total,
		progress: prog,
		theme:    defaultTheme,
	}
}

func (m runModel) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		m.progress.Init(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m runModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		case "p":
			m.sched.Pause()
			return m, nil
		case "r":
			m.sched.Resume()
			return m, nil
		}

	case tickMsg:
		return m, func() tea.Msg {
			return statusMsg(m.sched.Status())
		}

	case statusMsg:
		m.status = scheduler.Status(msg)
		switch m.status.State {
		case scheduler.StateCompleted, scheduler.StateFailed:
			m.done = true
			return m, tea.Quit
		}
		return m, tickCmd()

	case progress.FrameMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m runModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m runModel) renderContent() string {
	if m.done {
		return m.finalView()
	}

	done := m.status.Completed + m.status.Failed
	remaining := m.status.QueueSize + m.status.Active
	total := done + remaining
	if total < m.total {
		total = m.total
	}
	var pct float64
	if total > 0 {
		pct = float64(done) / float64(total)
	}

	status := m.theme.statusStyle().Render(fmt.Sprintf("[%s]", m.status.State))
	progressBar := m.progress.ViewAs(pct)
	counts := fmt.Sprintf("%d/%d jobs", done, total)
	hint := m.theme.hintStyle().Render("p pause · r resume · q detach")

	return fmt.Sprintf("%s %s %s\n%s\n", status, progressBar, counts, hint)
}

func (m runModel) finalView() string {
	if m.quitting {
		return m.theme.hintStyle().Render("\nProcessing continues in background. Use 'juridoc status' to check.\n")
	}

	s := m.status
	var output string
	if s.State == scheduler.StateFailed {
		output = m.theme.errorStyle().Render("✗ Run aborted") + "\n\n"
	} else {
		output = m.theme.completedStyle().Render("✓ Run completed") + "\n\n"
	}
	output += fmt.Sprintf("  Jobs completed:    %d\n", s.Completed)
	output += fmt.Sprintf("  Jobs failed:       %d\n", s.Failed)
	output += fmt.Sprintf("  Chunks created:    %d\n", s.Metrics.ChunksCreated)
	if s.Metrics.OversizedCorrected > 0 {
		output += fmt.Sprintf("  Oversized fixed:   %d\n", s.Metrics.OversizedCorrected)
	}
	output += fmt.Sprintf("  Avg processing:    %s\n", s.Metrics.AverageProcessing.Round(time.Millisecond))
	return output
}
