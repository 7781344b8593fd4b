package scheduler

import (
	"time"

	"github.com/kingrea/shopsetup/internal/task"
)

// Record is the outcome of one task in a run.
type Record struct {
	Task     string        `json:"task"`
	Outcome  task.Outcome  `json:"outcome"`
	Detail   string        `json:"detail,omitempty"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
}

// Summary aggregates a run.
type Summary struct {
	Total   int `json:"total"`
	Applied int `json:"applied"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
	// Pending counts tasks that never started.
	Pending int `json:"pending"`
	// HaltedAt names the task the run stopped at, empty when it completed.
	HaltedAt string `json:"haltedAt,omitempty"`
}

// Report is the ordered result of a run.
type Report struct {
	RunID      string    `json:"runId"`
	Engine     string    `json:"engine"`
	DryRun     bool      `json:"dryRun,omitempty"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	Records    []Record  `json:"records"`
	Summary    Summary   `json:"summary"`
	// Error holds the message of the error that halted the run.
	Error string `json:"error,omitempty"`
}

// Succeeded reports whether every task ran without failing.
func (r Report) Succeeded() bool {
	return r.Summary.Failed == 0 && r.Summary.HaltedAt == ""
}

// Record returns the record for name, if the task ran.
func (r Report) Record(name string) (Record, bool) {
	for _, rec := range r.Records {
		if rec.Task == name {
			return rec, true
		}
	}
	return Record{}, false
}

func (r *Report) add(rec Record) {
	r.Records = append(r.Records, rec)
	switch rec.Outcome {
	case task.OutcomeApplied:
		r.Summary.Applied++
	case task.OutcomeSkipped:
		r.Summary.Skipped++
	case task.OutcomeFailed:
		r.Summary.Failed++
	}
}
