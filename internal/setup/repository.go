package setup

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/kingrea/shopsetup/internal/scheduler"
)

// ErrReportNotFound is returned when no run has been saved yet.
var ErrReportNotFound = errors.New("setup: report not found")

const latestReport = "latest.json"

// ReportStore persists run reports.
type ReportStore interface {
	Latest() (scheduler.Report, error)
	Save(scheduler.Report) error
}

// Repository stores run reports as JSON files in a directory.
type Repository struct {
	dir string
}

// NewRepository creates a repository rooted at dir (.setup/reports).
func NewRepository(dir string) *Repository {
	return &Repository{dir: dir}
}

// Latest reads the most recently saved report.
func (r *Repository) Latest() (scheduler.Report, error) {
	return r.Load(latestReport)
}

// Load reads a report file by name, e.g. "<run-id>.json".
func (r *Repository) Load(name string) (scheduler.Report, error) {
	data, err := os.ReadFile(filepath.Join(r.dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return scheduler.Report{}, ErrReportNotFound
		}
		return scheduler.Report{}, err
	}
	var report scheduler.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return scheduler.Report{}, fmt.Errorf("setup: decode %s: %w", name, err)
	}
	return report, nil
}

// Save writes the report under its run id and as latest.json.
func (r *Repository) Save(report scheduler.Report) error {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return err
	}
	encoded, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	encoded = append(encoded, '\n')
	if report.RunID != "" {
		if err := writeAtomic(filepath.Join(r.dir, report.RunID+".json"), encoded); err != nil {
			return err
		}
	}
	return writeAtomic(filepath.Join(r.dir, latestReport), encoded)
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
