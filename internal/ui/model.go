// Package ui shows benchmark progress as a terminal UI.
package ui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"nasscbench/internal/bench"
)

const maxBarWidth = 60

// eventMsg carries a pipeline event into the program.
type eventMsg bench.Event

// doneMsg is sent once the pipeline returns.
type doneMsg struct {
	report *bench.Report
	err    error
}

// stages lists the steps shown, in order.
var stages = []bench.Stage{
	bench.StageBuild,
	bench.StageTranspile,
	bench.StageSimulateOriginal,
	bench.StageSimulateTranspiled,
	bench.StageExport,
}

// Model is the progress view state.
type Model struct {
	spinner  spinner.Model
	progress progress.Model
	title    string

	stage       bench.Stage
	done, total int

	report     *bench.Report
	err        error
	finished   bool
	cancelling bool
	cancel     context.CancelFunc
}

// NewModel returns a model that calls cancel when the user interrupts.
func NewModel(title string, cancel context.CancelFunc) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = activeStyle
	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 40
	return Model{
		spinner:  sp,
		progress: bar,
		title:    title,
		cancel:   cancel,
	}
}

func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.progress.Width = max(min(msg.Width-4, maxBarWidth), 10)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			// The pipeline is left to unwind; doneMsg ends the program.
			if !m.cancelling && m.cancel != nil {
				m.cancel()
			}
			m.cancelling = true
		}

	case eventMsg:
		if msg.Stage != m.stage {
			m.done, m.total = 0, 0
		}
		m.stage = msg.Stage
		if msg.Total > 0 {
			m.done, m.total = msg.Done, msg.Total
		}

	case doneMsg:
		m.report, m.err = msg.report, msg.err
		m.finished = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// Report returns the pipeline result once the program has finished.
func (m Model) Report() (*bench.Report, error) {
	return m.report, m.err
}

func (m Model) View() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(m.title))
	sb.WriteString("\n\n")

	for _, s := range stages {
		switch {
		case m.finished && m.err == nil, s < m.stage:
			sb.WriteString(doneStyle.Render("✓ " + s.String()))
		case s == m.stage && !m.finished:
			sb.WriteString(m.spinner.View() + activeStyle.Render(s.String()))
			if m.total > 0 {
				sb.WriteString(dimStyle.Render(fmt.Sprintf("  %d/%d trajectories", m.done, m.total)))
			}
		default:
			sb.WriteString(dimStyle.Render("  " + s.String()))
		}
		sb.WriteString("\n")
	}

	if m.total > 0 && !m.finished {
		sb.WriteString("\n")
		sb.WriteString(m.progress.ViewAs(float64(m.done) / float64(m.total)))
		sb.WriteString("\n")
	}

	switch {
	case m.err != nil:
		sb.WriteString("\n" + errorStyle.Render("error: "+m.err.Error()) + "\n")
	case m.finished && m.report != nil:
		s := m.report.Summary
		sb.WriteString(fmt.Sprintf("\nhellinger fidelity %.4f, swaps %d\n", s.HellingerFidelity, m.report.Transpiled.Swaps))
	case m.cancelling:
		sb.WriteString("\n" + dimStyle.Render("cancelling...") + "\n")
	default:
		sb.WriteString("\n" + dimStyle.Render("q: cancel") + "\n")
	}
	return panelStyle.Render(strings.TrimRight(sb.String(), "\n"))
}

// RunFunc runs the pipeline, reporting progress to obs.
type RunFunc func(ctx context.Context, obs bench.Observer) (*bench.Report, error)

// Run drives fn under a progress view written to out and returns its result.
// Interrupting the view cancels the context fn runs under.
func Run(ctx context.Context, title string, out io.Writer, fn RunFunc, opts ...tea.ProgramOption) (*bench.Report, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts = append([]tea.ProgramOption{tea.WithOutput(out), tea.WithContext(ctx)}, opts...)
	p := tea.NewProgram(NewModel(title, cancel), opts...)
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		rep, err := fn(runCtx, func(ev bench.Event) { p.Send(eventMsg(ev)) })
		p.Send(doneMsg{report: rep, err: err})
	}()

	final, runErr := p.Run()
	cancel()
	<-finished
	if m, ok := final.(Model); ok && m.finished {
		return m.Report()
	}
	if runErr != nil {
		return nil, fmt.Errorf("progress ui: %w", runErr)
	}
	return nil, context.Canceled
}
