package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/shopsetup/internal/scheduler"
	"github.com/kingrea/shopsetup/internal/task"
)

type fakeSender struct {
	msgs []tea.Msg
}

func (f *fakeSender) Send(msg tea.Msg) { f.msgs = append(f.msgs, msg) }

func apply(t *testing.T, model tea.Model, msgs ...tea.Msg) (RunModel, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, msg := range msgs {
		model, cmd = model.Update(msg)
	}
	m, ok := model.(RunModel)
	if !ok {
		t.Fatalf("unexpected model type %T", model)
	}
	return m, cmd
}

func TestRunModelTracksProgress(t *testing.T) {
	model := NewRunModel("setup run", []string{"A", "B", "C"})
	m, _ := apply(t, model,
		TaskStartedMsg{Name: "A"},
		TaskFinishedMsg{Record: scheduler.Record{Task: "A", Outcome: task.OutcomeApplied, Detail: "1 of 1 steps applied"}},
		TaskStartedMsg{Name: "B"},
	)
	view := m.View()
	if !strings.Contains(view, "1 of 1 steps applied") {
		t.Fatalf("expected detail for A in view:\n%s", view)
	}
	if m.running != "B" {
		t.Fatalf("expected B running, got %q", m.running)
	}
	if m.Done() {
		t.Fatalf("run should not be done yet")
	}
	if !strings.Contains(view, "running") {
		t.Fatalf("expected running footer:\n%s", view)
	}
}

func TestRunModelQuitsWhenRunFinishes(t *testing.T) {
	model := NewRunModel("setup run", []string{"A", "B"})
	report := scheduler.Report{Summary: scheduler.Summary{Total: 2, Applied: 1, Failed: 1, HaltedAt: "B"}}
	m, cmd := apply(t, model,
		TaskFinishedMsg{Record: scheduler.Record{Task: "A", Outcome: task.OutcomeApplied}},
		TaskFinishedMsg{Record: scheduler.Record{Task: "B", Outcome: task.OutcomeFailed, Detail: "boom"}},
		RunFinishedMsg{Report: report, Err: errors.New("boom")},
	)
	if !m.Done() {
		t.Fatalf("expected done")
	}
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
	view := m.View()
	if !strings.Contains(view, "halted at B") || !strings.Contains(view, "1 applied, 0 skipped, 1 failed, 0 pending") {
		t.Fatalf("unexpected footer:\n%s", view)
	}
}

func TestCtrlCAborts(t *testing.T) {
	m, cmd := apply(t, NewRunModel("setup run", []string{"A"}), tea.KeyMsg{Type: tea.KeyCtrlC})
	if !m.Aborted() || cmd == nil {
		t.Fatalf("expected abort and quit")
	}
}

func TestObserverForwardsMessages(t *testing.T) {
	sender := &fakeSender{}
	var obs scheduler.Observer = NewObserver(sender)
	obs.TaskStarted("A")
	obs.TaskFinished(scheduler.Record{Task: "A"})
	NewObserver(sender).Finish(scheduler.Report{}, nil)
	if len(sender.msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(sender.msgs))
	}
	if _, ok := sender.msgs[0].(TaskStartedMsg); !ok {
		t.Fatalf("unexpected first message %T", sender.msgs[0])
	}
	if _, ok := sender.msgs[2].(RunFinishedMsg); !ok {
		t.Fatalf("unexpected last message %T", sender.msgs[2])
	}
}
