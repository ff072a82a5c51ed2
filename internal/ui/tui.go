// Package ui provides optional terminal interfaces.
package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/robertmnyborg/claude-oak-agents-sub001/internal/translate"
)

// RunFunc performs the translations shown by the TUI. It must publish
// stage transitions on updates and return once no more will be sent.
type RunFunc func(ctx context.Context, updates chan<- translate.Status) error

// TUIOption configures the TUI behavior.
type TUIOption func(*tuiConfig)

// tuiConfig holds TUI configuration.
type tuiConfig struct {
	exitOnDone bool
	output     io.Writer
}

// WithExitOnDone closes the TUI as soon as every translation has finished.
func WithExitOnDone(enabled bool) TUIOption {
	return func(c *tuiConfig) {
		c.exitOnDone = enabled
	}
}

// WithOutput sets the terminal the TUI draws on. Defaults to stdout.
func WithOutput(w io.Writer) TUIOption {
	return func(c *tuiConfig) {
		c.output = w
	}
}

// RunTUI starts run in the background and shows per-input pipeline progress
// until the user quits. The error returned by run is returned.
func RunTUI(ctx context.Context, inputs []string, run RunFunc, opts ...TUIOption) error {
	c := &tuiConfig{output: os.Stdout}
	for _, opt := range opts {
		opt(c)
	}

	if !IsTTY(c.output) {
		return fmt.Errorf("tui requires a TTY")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	statusCh := make(chan translate.Status, 16)
	doneCh := make(chan error, 1)
	go func() {
		err := run(ctx, statusCh)
		close(statusCh)
		doneCh <- err
	}()

	model := newTUIModel(inputs, statusCh, doneCh, c.exitOnDone)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx), tea.WithOutput(c.output))
	finalModel, err := program.Run()
	if m, ok := finalModel.(*tuiModel); ok && m.runDone {
		if err != nil {
			return err
		}
		return m.runErr
	}

	// Quit before the run finished: stop it and wait so no write is left
	// in flight.
	cancel()
	for range statusCh {
	}
	runErr := <-doneCh
	if err != nil {
		return err
	}
	return runErr
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	doneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	activeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	dimStyle    = lipgloss.NewStyle().Faint(true)
)

type row struct {
	input   string
	stage   translate.Stage
	reason  string
	started time.Time
	updated time.Time
}

type tuiModel struct {
	rows       []*row
	index      map[string]*row
	statusCh   <-chan translate.Status
	doneCh     <-chan error
	exitOnDone bool
	runDone    bool
	runErr     error
	showHelp   bool
	startedAt  time.Time
	now        func() time.Time
}

type statusMsg struct {
	status translate.Status
}

type runDoneMsg struct {
	err error
}

func newTUIModel(inputs []string, statusCh <-chan translate.Status, doneCh <-chan error, exitOnDone bool) *tuiModel {
	m := &tuiModel{
		index:      make(map[string]*row, len(inputs)),
		statusCh:   statusCh,
		doneCh:     doneCh,
		exitOnDone: exitOnDone,
		now:        time.Now,
	}
	m.startedAt = m.now()
	for _, in := range inputs {
		m.row(in)
	}
	return m
}

// row returns the row for input, adding it in arrival order if new.
func (m *tuiModel) row(input string) *row {
	if r, ok := m.index[input]; ok {
		return r
	}
	r := &row{input: input}
	m.rows = append(m.rows, r)
	m.index[input] = r
	return r
}

func (m *tuiModel) Init() tea.Cmd {
	if m.statusCh == nil {
		return nil
	}
	return waitForStatus(m.statusCh, m.doneCh)
}

func (m *tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "h", "?":
			m.showHelp = !m.showHelp
			return m, nil
		}
	case statusMsg:
		m.apply(msg.status)
		return m, waitForStatus(m.statusCh, m.doneCh)
	case runDoneMsg:
		m.runDone = true
		m.runErr = msg.err
		if m.exitOnDone {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *tuiModel) apply(st translate.Status) {
	r := m.row(st.Input)
	if r.started.IsZero() {
		r.started = st.Time
	}
	r.stage = st.Stage
	r.reason = st.Reason
	r.updated = st.Time
}

func (m *tuiModel) counts() (done, failed, active int) {
	for _, r := range m.rows {
		switch {
		case r.stage == translate.StageDone:
			done++
		case r.stage == translate.StageFailed:
			failed++
		case r.stage != translate.StageIdle:
			active++
		}
	}
	return done, failed, active
}

func (m *tuiModel) View() string {
	var b strings.Builder
	writeTitle(&b)

	if m.showHelp {
		writeHelp(&b)
		writeFooter(&b, m.runDone)
		return b.String()
	}

	done, failed, active := m.counts()
	b.WriteString(fmt.Sprintf("  Total: %d  Active: %d  Done: %d  Failed: %d\n\n", len(m.rows), active, done, failed))

	if len(m.rows) == 0 {
		b.WriteString("  No inputs.\n\n")
	}
	for _, r := range m.rows {
		b.WriteString(formatRow(r))
		b.WriteString("\n")
	}
	if len(m.rows) > 0 {
		b.WriteString("\n")
	}

	if m.runDone {
		if m.runErr != nil {
			b.WriteString(failedStyle.Render("Finished with errors: "+m.runErr.Error()) + "\n\n")
		} else {
			b.WriteString(doneStyle.Render(fmt.Sprintf("Finished in %s", m.now().Sub(m.startedAt).Round(time.Millisecond))) + "\n\n")
		}
	}
	writeFooter(&b, m.runDone)
	return b.String()
}

func waitForStatus(ch <-chan translate.Status, doneCh <-chan error) tea.Cmd {
	return func() tea.Msg {
		status, ok := <-ch
		if !ok {
			var err error
			if doneCh != nil {
				err = <-doneCh
			}
			return runDoneMsg{err: err}
		}
		return statusMsg{status: status}
	}
}

func writeTitle(b *strings.Builder) {
	b.WriteString(titleStyle.Render("specsync") + "\n")
	b.WriteString(strings.Repeat("=", len("specsync")) + "\n\n")
}

func formatRow(r *row) string {
	icon, style := " ", dimStyle
	switch r.stage {
	case translate.StageDone:
		icon, style = "x", doneStyle
	case translate.StageFailed:
		icon, style = "!", failedStyle
	case translate.StageIdle:
	default:
		icon, style = ">", activeStyle
	}

	line := fmt.Sprintf("  %s %-12s %s", icon, style.Render(r.stage.String()), r.input)
	if r.stage.Terminal() && !r.started.IsZero() {
		line += dimStyle.Render(fmt.Sprintf(" (%s)", r.updated.Sub(r.started).Round(time.Millisecond)))
	}
	if r.reason != "" {
		reason := r.reason
		if len(reason) > 72 {
			reason = reason[:69] + "..."
		}
		line += "\n      " + failedStyle.Render(reason)
	}
	return line
}

func writeHelp(b *strings.Builder) {
	b.WriteString("Keyboard Shortcuts\n\n")
	b.WriteString("  q, ctrl+c    Quit\n")
	b.WriteString("  h, ?         Toggle this help screen\n\n")
}

func writeFooter(b *strings.Builder, done bool) {
	if done {
		b.WriteString("Press q to quit\n")
		return
	}
	b.WriteString("Press h for help | q to quit\n")
}

// IsTTY returns true if w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
