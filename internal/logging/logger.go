// Package logging writes structured run logs to .setup/logs/setup.log so
// operators can inspect a failed migration after the terminal is gone.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/kingrea/shopsetup/internal/config"
)

// FileName is the log file created under the logs directory.
const FileName = "setup.log"

// Logger owns the log file handle and the slog logger writing into it.
type Logger struct {
	file *os.File
	*slog.Logger
}

// New creates (or reuses) the log file for the given config.
func New(cfg *config.Config) (*Logger, error) {
	logDir := cfg.LogsDir()
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("logging: ensure log dir: %w", err)
	}
	path := filepath.Join(logDir, FileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logging: open log file: %w", err)
	}
	return &Logger{
		file:   f,
		Logger: NewHandlerLogger(f, cfg.Project.Log.Level, cfg.Project.Log.Format),
	}, nil
}

// NewHandlerLogger builds a slog logger writing to w with the given level and
// format ("text" or "json").
func NewHandlerLogger(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// ParseLevel maps a config level name onto slog.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Path returns the backing file path.
func (l *Logger) Path() string {
	if l == nil || l.file == nil {
		return ""
	}
	return l.file.Name()
}

// Close releases the file handle.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}
