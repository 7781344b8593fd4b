// Package logbook is the append-only status log shared by every task in a
// setup run. Entries are kept in memory in the order they were written and are
// optionally mirrored to a text file.
package logbook

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Level represents the severity of a log entry.
type Level string

const (
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Entry is a single status line.
type Entry struct {
	Time    time.Time `json:"time"`
	Level   Level     `json:"level"`
	Task    string    `json:"task,omitempty"`
	Message string    `json:"message"`
}

// String renders the entry the same way it is written to disk.
func (e Entry) String() string {
	task := ""
	if e.Task != "" {
		task = "[" + e.Task + "] "
	}
	return fmt.Sprintf("%s %-5s %s%s",
		e.Time.UTC().Format(time.RFC3339),
		string(e.Level),
		task,
		e.Message,
	)
}

// Logbook records run progress.
type Logbook struct {
	path    string
	mu      sync.Mutex
	entries []Entry
	clock   func() time.Time
	file    *os.File
	logger  *slog.Logger
	// mirrorErr is the first failure writing to file; mirroring stops after it.
	mirrorErr error
}

// Option customizes a Logbook.
type Option func(*Logbook)

// WithLogger reports a failure to mirror entries to the status file.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Logbook) {
		l.logger = logger
	}
}

// New creates a logbook mirrored to path, which is opened for appending. An
// empty path keeps entries in memory only.
func New(path string, opts ...Option) (*Logbook, error) {
	l := &Logbook{path: path, clock: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	if path == "" {
		return l, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("logbook: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logbook: open %s: %w", path, err)
	}
	l.file = file
	return l, nil
}

// NewMemory returns a logbook without file persistence.
func NewMemory() *Logbook {
	return &Logbook{clock: time.Now}
}

// Path returns the file backing this logbook.
func (l *Logbook) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Err returns the first error hit while mirroring entries to the file.
func (l *Logbook) Err() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.mirrorErr
}

// Close releases the status file.
func (l *Logbook) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// Append writes a single entry to the logbook.
func (l *Logbook) Append(level Level, task, message string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	entry := Entry{
		Time:    l.clock(),
		Level:   level,
		Task:    strings.TrimSpace(task),
		Message: strings.TrimSpace(message),
	}
	l.entries = append(l.entries, entry)
	if l.file == nil || l.mirrorErr != nil {
		return
	}
	if _, err := l.file.WriteString(entry.String() + "\n"); err != nil {
		l.mirrorErr = fmt.Errorf("logbook: write %s: %w", l.path, err)
		if l.logger != nil {
			l.logger.Warn("status log mirroring stopped", "path", l.path, "error", err)
		}
	}
}

// Entries returns a copy of every entry in write order.
func (l *Logbook) Entries() []Entry {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Tail returns up to maxLines of the most recent entries plus the total count.
func (l *Logbook) Tail(maxLines int) ([]Entry, int) {
	if l == nil || maxLines <= 0 {
		return nil, 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	total := len(l.entries)
	start := 0
	if total > maxLines {
		start = total - maxLines
	}
	out := make([]Entry, total-start)
	copy(out, l.entries[start:])
	return out, total
}

// Info appends an informational entry.
func (l *Logbook) Info(format string, args ...any) {
	l.Append(LevelInfo, "", fmt.Sprintf(format, args...))
}

// Warn appends a warning entry.
func (l *Logbook) Warn(format string, args ...any) {
	l.Append(LevelWarn, "", fmt.Sprintf(format, args...))
}

// Error appends an error entry.
func (l *Logbook) Error(format string, args ...any) {
	l.Append(LevelError, "", fmt.Sprintf(format, args...))
}

// ForTask returns a writer that tags every entry with the task name.
func (l *Logbook) ForTask(task string) *TaskLog {
	return &TaskLog{book: l, task: task}
}

// TaskLog appends entries scoped to one task.
type TaskLog struct {
	book *Logbook
	task string
}

// Info appends an informational entry for the task.
func (t *TaskLog) Info(format string, args ...any) {
	if t == nil {
		return
	}
	t.book.Append(LevelInfo, t.task, fmt.Sprintf(format, args...))
}

// Warn appends a warning entry for the task.
func (t *TaskLog) Warn(format string, args ...any) {
	if t == nil {
		return
	}
	t.book.Append(LevelWarn, t.task, fmt.Sprintf(format, args...))
}

// Error appends an error entry for the task.
func (t *TaskLog) Error(format string, args ...any) {
	if t == nil {
		return
	}
	t.book.Append(LevelError, t.task, fmt.Sprintf(format, args...))
}
