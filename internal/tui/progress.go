// Package tui renders a live analysis progress view with bubbletea.
//
// The model is driven by two messages: UpdateMsg for each progress report the
// poller emits, and DoneMsg once the poll handle settles. Quitting early stops
// watching the job; the job itself keeps running on the server.
package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jonathan/ipp-client/internal/poller"
	"github.com/jonathan/ipp-client/internal/types"
)

const barWidth = 40

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	stepStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#CCCCCC"))
	detailStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#999999"))
)

// UpdateMsg carries one progress report.
type UpdateMsg poller.Update

// DoneMsg reports that the poll handle reached a final state.
type DoneMsg struct {
	Job *types.AnalysisJob
	Err error
}

// Model is the progress view for one analysis job.
type Model struct {
	jobID     int64
	spinner   spinner.Model
	bar       progress.Model
	last      poller.Update
	seen      bool
	done      bool
	job       *types.AnalysisJob
	err       error
	cancelled bool
	message   func(error) string
}

// NewModel creates the view for jobID. describe turns a final error into the text
// shown to the user; nil uses err.Error().
func NewModel(jobID int64, describe func(error) string) Model {
	if describe == nil {
		describe = func(err error) string { return err.Error() }
	}
	return Model{
		jobID:   jobID,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(titleStyle)),
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(barWidth)),
		last:    poller.Update{JobID: jobID, Status: types.JobStatusPending},
		message: describe,
	}
}

// Init starts the spinner.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles progress, completion and key messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.cancelled = true
			return m, tea.Quit
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.bar.Width = min(barWidth, max(10, msg.Width-8))
		return m, nil

	case UpdateMsg:
		if m.done || msg.JobID != m.jobID {
			return m, nil
		}
		m.last = poller.Update(msg)
		m.seen = true
		return m, nil

	case DoneMsg:
		m.done = true
		m.job = msg.Job
		m.err = msg.Err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the current state.
func (m Model) View() string {
	var sb strings.Builder

	switch {
	case m.done && m.err != nil:
		fmt.Fprintf(&sb, "%s Analysis #%d\n", errStyle.Render("✗"), m.jobID)
		fmt.Fprintf(&sb, "  %s\n", detailStyle.Render(m.message(m.err)))
		return sb.String()
	case m.done:
		fmt.Fprintf(&sb, "%s Analysis #%d complete\n", okStyle.Render("✓"), m.jobID)
		fmt.Fprintf(&sb, "  %s\n", m.bar.ViewAs(1))
		return sb.String()
	}

	label, desc := stepText(m.last.Step, m.last.Status)
	fmt.Fprintf(&sb, "%s %s · %s\n", m.spinner.View(), titleStyle.Render(fmt.Sprintf("Analysis #%d", m.jobID)), stepStyle.Render(label))
	fmt.Fprintf(&sb, "  %s\n", m.bar.ViewAs(m.last.Percent/100))
	if m.last.Message != "" {
		desc = m.last.Message
	}
	if desc != "" {
		fmt.Fprintf(&sb, "  %s\n", detailStyle.Render(desc))
	}
	sb.WriteString("\n" + hintStyle.Render("  q to stop watching") + "\n")
	return sb.String()
}

// Cancelled reports whether the user quit before the job finished.
func (m Model) Cancelled() bool { return m.cancelled }

// Done reports whether the handle settled.
func (m Model) Done() bool { return m.done }

func stepText(step string, status types.JobStatus) (label, desc string) {
	idx := types.ProgressIndex(step, status)
	if idx < 0 {
		return step, ""
	}
	s := types.ProgressSteps[idx]
	return s.Label, s.Description
}

// Program runs a Model for one poll handle.
type Program struct {
	p *tea.Program
}

// NewProgram builds the program. Call Notify from the poller's update callback and
// Run with the handle once it exists.
func NewProgram(jobID int64, describe func(error) string, out io.Writer, in io.Reader) *Program {
	opts := []tea.ProgramOption{tea.WithOutput(out)}
	if in != nil {
		opts = append(opts, tea.WithInput(in))
	}
	return &Program{p: tea.NewProgram(NewModel(jobID, describe), opts...)}
}

// Notify forwards a progress report to the view.
func (p *Program) Notify(u poller.Update) {
	p.p.Send(UpdateMsg(u))
}

// Run shows the view until h settles or the user quits. Quitting cancels h.
func (p *Program) Run(h *poller.Handle) (*types.AnalysisJob, error) {
	go func() {
		<-h.Done()
		p.p.Send(DoneMsg{Job: h.Last(), Err: h.Err()})
	}()

	final, err := p.p.Run()
	if err != nil {
		h.Cancel()
		return nil, fmt.Errorf("progress view: %w", err)
	}
	if m, ok := final.(Model); ok && m.Cancelled() {
		h.Cancel()
	}
	<-h.Done()
	return h.Last(), h.Err()
}
