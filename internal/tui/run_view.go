// internal/tui/run_view.go
//
// Live view of a setup run. It uses bubbletea, which follows The Elm
// Architecture: the scheduler's observer turns progress callbacks into
// messages, Update folds them into the model, View renders the task list.

package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/shopsetup/internal/scheduler"
	"github.com/kingrea/shopsetup/internal/task"
)

var (
	titleStyle        = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FAFAFA")).Background(lipgloss.Color("#7D56F4")).Padding(0, 1)
	labelStyleApplied = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
	labelStyleFailed  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	labelStyleRunning = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Bold(true)
	labelStyleSkipped = lipgloss.NewStyle().Foreground(lipgloss.Color("#999999"))
	labelStylePending = lipgloss.NewStyle().Foreground(lipgloss.Color("#CCCCCC"))
	detailTextStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
	footerStyle       = lipgloss.NewStyle().MarginTop(1)
)

// TaskStartedMsg reports that the scheduler began a task.
type TaskStartedMsg struct{ Name string }

// TaskFinishedMsg carries a task's record.
type TaskFinishedMsg struct{ Record scheduler.Record }

// RunFinishedMsg ends the run view.
type RunFinishedMsg struct {
	Report scheduler.Report
	Err    error
}

type row struct {
	record   scheduler.Record
	finished bool
}

// RunModel renders task progress in execution order.
type RunModel struct {
	title   string
	order   []string
	rows    map[string]*row
	running string
	spinner spinner.Model
	done    bool
	aborted bool
	report  *scheduler.Report
	err     error
}

// NewRunModel creates a model for the given order.
func NewRunModel(title string, order []string) RunModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = labelStyleRunning
	rows := make(map[string]*row, len(order))
	for _, name := range order {
		rows[name] = &row{record: scheduler.Record{Task: name}}
	}
	return RunModel{
		title:   title,
		order:   append([]string{}, order...),
		rows:    rows,
		spinner: s,
	}
}

// Init implements tea.Model.
func (m RunModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model.
func (m RunModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.aborted = true
			return m, tea.Quit
		case "q", "esc":
			if m.done {
				return m, tea.Quit
			}
		}
	case TaskStartedMsg:
		m.running = msg.Name
	case TaskFinishedMsg:
		r, ok := m.rows[msg.Record.Task]
		if !ok {
			r = &row{}
			m.rows[msg.Record.Task] = r
			m.order = append(m.order, msg.Record.Task)
		}
		r.record = msg.Record
		r.finished = true
		if m.running == msg.Record.Task {
			m.running = ""
		}
	case RunFinishedMsg:
		report := msg.Report
		m.report = &report
		m.err = msg.Err
		m.done = true
		m.running = ""
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// Aborted reports whether the user interrupted the view.
func (m RunModel) Aborted() bool {
	return m.aborted
}

// Done reports whether the run finished.
func (m RunModel) Done() bool {
	return m.done
}

// View implements tea.Model.
func (m RunModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n\n")
	for _, name := range m.order {
		b.WriteString(m.renderRow(name))
		b.WriteString("\n")
	}
	b.WriteString(footerStyle.Render(m.footer()))
	b.WriteString("\n")
	return b.String()
}

func (m RunModel) renderRow(name string) string {
	r := m.rows[name]
	switch {
	case name == m.running:
		return fmt.Sprintf(" %s %s", m.spinner.View(), labelStyleRunning.Render(name))
	case r == nil || !r.finished:
		return fmt.Sprintf(" %s %s", labelStylePending.Render("·"), labelStylePending.Render(name))
	}
	var mark, label string
	switch r.record.Outcome {
	case task.OutcomeApplied:
		mark, label = labelStyleApplied.Render("✓"), labelStyleApplied.Render(name)
	case task.OutcomeFailed:
		mark, label = labelStyleFailed.Render("✗"), labelStyleFailed.Render(name)
	default:
		mark, label = labelStyleSkipped.Render("-"), labelStyleSkipped.Render(name)
	}
	detail := r.record.Detail
	if r.record.Duration > 0 {
		detail = strings.TrimSpace(fmt.Sprintf("%s (%s)", detail, r.record.Duration.Round(time.Millisecond)))
	}
	if detail == "" {
		return fmt.Sprintf(" %s %s", mark, label)
	}
	return fmt.Sprintf(" %s %s  %s", mark, label, detailTextStyle.Render(detail))
}

func (m RunModel) footer() string {
	if !m.done || m.report == nil {
		return detailTextStyle.Render("running… ctrl+c to stop after the current task")
	}
	s := m.report.Summary
	line := fmt.Sprintf("%d applied, %d skipped, %d failed, %d pending", s.Applied, s.Skipped, s.Failed, s.Pending)
	if m.err != nil {
		return labelStyleFailed.Render(fmt.Sprintf("halted at %s: %v", s.HaltedAt, m.err)) + "\n" + line
	}
	return labelStyleApplied.Render("done") + "  " + line
}
