package cli

import (
	"context"
	"fmt"
	"os"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/raphaelgruber/civickb/internal/service"
	"golang.org/x/term"
)

// Theme holds the color scheme for the progress display.
type Theme struct {
	Status     lipgloss.Color
	Success    lipgloss.Color
	Error      lipgloss.Color
	Hint       lipgloss.Color
	ProgressBg lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Status:     lipgloss.Color("#5FAFD7"), // light blue
	Success:    lipgloss.Color("#00D787"), // green
	Error:      lipgloss.Color("#FF005F"), // red
	Hint:       lipgloss.Color("#6C6C6C"), // dim gray
	ProgressBg: lipgloss.Color("#3A3A3A"), // dark gray
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

// eventMsg carries a pipeline progress event.
type eventMsg service.Event

// doneMsg signals that the work function returned.
type doneMsg struct {
	err error
}

// progressModel is the bubbletea model for stage progress.
type progressModel struct {
	title    string
	stage    service.Stage
	current  int
	total    int
	item     string
	failures int
	progress progress.Model
	theme    Theme
	cancel   context.CancelFunc
	done     bool
	quitting bool
	err      error
}

func newProgressModel(title string, cancel context.CancelFunc) progressModel {
	prog := progress.New(
		progress.WithDefaultBlend(),
		progress.WithWidth(40),
	)
	return progressModel{
		title:    title,
		progress: prog,
		theme:    defaultTheme,
		cancel:   cancel,
	}
}

// Init returns the initial command.
func (m progressModel) Init() tea.Cmd {
	return nil
}

// Update handles messages and returns the updated model.
func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			m.cancel()
			return m, tea.Quit
		}

	case eventMsg:
		if msg.Done {
			return m, nil
		}
		if msg.Stage != m.stage {
			m.stage = msg.Stage
			m.failures = 0
		}
		m.current = msg.Current
		m.total = msg.Total
		m.item = msg.Item
		if msg.Err != nil {
			m.failures++
		}

	case doneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	}

	return m, nil
}

// View renders the progress display.
func (m progressModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m progressModel) renderContent() string {
	if m.done || m.quitting {
		return m.finalView()
	}

	if m.stage == "" {
		return m.theme.statusStyle().Render(m.title+"...") + "\n"
	}

	var pct float64
	if m.total > 0 {
		pct = float64(m.current) / float64(m.total)
	}

	status := m.theme.statusStyle().Render(fmt.Sprintf("[%s]", m.stage))
	bar := m.progress.ViewAs(pct)
	counts := fmt.Sprintf("%d/%d", m.current, m.total)
	if m.failures > 0 {
		counts += m.theme.errorStyle().Render(fmt.Sprintf(" (%d failed)", m.failures))
	}
	hint := m.theme.hintStyle().Render("Press Ctrl+C to cancel")

	return fmt.Sprintf("%s %s %s\n  %s\n%s\n", status, bar, counts, m.item, hint)
}

func (m progressModel) finalView() string {
	if m.quitting {
		return m.theme.hintStyle().Render(fmt.Sprintf("\n%s cancelled.\n", m.title))
	}
	if m.err != nil {
		return m.theme.errorStyle().Render(fmt.Sprintf("✗ %s failed: %s\n", m.title, m.err))
	}
	return m.theme.completedStyle().Render("✓ "+m.title) + "\n"
}

// runWithProgress runs work while showing its progress events. On a
// terminal, and unless verbose logging is on, an interactive view is shown;
// otherwise each event is logged.
func runWithProgress(ctx context.Context, title string, work func(context.Context, service.ProgressFunc) error) error {
	if verbose || !term.IsTerminal(int(os.Stdout.Fd())) {
		return work(ctx, logProgress)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newProgressModel(title, cancel))
	errc := make(chan error, 1)
	go func() {
		err := work(ctx, func(e service.Event) { p.Send(eventMsg(e)) })
		errc <- err
		p.Send(doneMsg{err: err})
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-errc
		return fmt.Errorf("progress UI error: %w", err)
	}
	// After Ctrl+C the work sees a cancelled context; wait for it to unwind.
	return <-errc
}

func logProgress(e service.Event) {
	if e.Done || e.Total == 0 {
		return
	}
	if e.Err != nil {
		logger.Info("progress", "stage", e.Stage, "current", e.Current, "total", e.Total, "item", e.Item, "error", e.Err)
		return
	}
	logger.Info("progress", "stage", e.Stage, "current", e.Current, "total", e.Total, "item", e.Item)
}
