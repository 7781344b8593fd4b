package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/shopsetup/internal/scheduler"
)

// Sender is the part of *tea.Program the observer needs.
type Sender interface {
	Send(msg tea.Msg)
}

// Observer forwards scheduler progress to a running program.
type Observer struct {
	program Sender
}

// NewObserver wraps program.
func NewObserver(program Sender) *Observer {
	return &Observer{program: program}
}

// TaskStarted implements scheduler.Observer.
func (o *Observer) TaskStarted(name string) {
	o.program.Send(TaskStartedMsg{Name: name})
}

// TaskFinished implements scheduler.Observer.
func (o *Observer) TaskFinished(rec scheduler.Record) {
	o.program.Send(TaskFinishedMsg{Record: rec})
}

// Finish tells the program the run is over.
func (o *Observer) Finish(report scheduler.Report, err error) {
	o.program.Send(RunFinishedMsg{Report: report, Err: err})
}
