// Package metrics exports run statistics in the Prometheus text format. A
// Recorder observes the scheduler and can write its registry to a file for
// node_exporter's textfile collector, which suits a short-lived CLI.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kingrea/shopsetup/internal/scheduler"
)

const namespace = "setup"

// Recorder wraps the Prometheus collectors for setup runs. It implements
// scheduler.Observer.
type Recorder struct {
	registry *prometheus.Registry

	TaskOutcomes *prometheus.CounterVec
	TaskDuration *prometheus.HistogramVec
	Runs         *prometheus.CounterVec
	LastRun      *prometheus.GaugeVec
}

// NewRecorder creates a Recorder with its own Prometheus registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		registry: reg,
		TaskOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "task_outcomes_total",
			Help:      "Number of task executions by outcome",
		}, []string{"outcome"}),
		TaskDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "task_duration_seconds",
			Help:      "Duration of task executions in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"task"}),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Number of setup runs by status",
		}, []string{"status"}),
		LastRun: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_tasks",
			Help:      "Task counts of the most recent run by outcome",
		}, []string{"outcome"}),
	}
	reg.MustRegister(r.TaskOutcomes, r.TaskDuration, r.Runs, r.LastRun)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// TaskStarted implements scheduler.Observer.
func (r *Recorder) TaskStarted(string) {}

// TaskFinished implements scheduler.Observer.
func (r *Recorder) TaskFinished(rec scheduler.Record) {
	r.TaskOutcomes.WithLabelValues(string(rec.Outcome)).Inc()
	r.TaskDuration.WithLabelValues(rec.Task).Observe(rec.Duration.Seconds())
}

// ObserveRun records the summary of a finished run.
func (r *Recorder) ObserveRun(report scheduler.Report) {
	status := "succeeded"
	switch {
	case report.Summary.Failed > 0:
		status = "failed"
	case !report.Succeeded():
		status = "halted"
	}
	r.Runs.WithLabelValues(status).Inc()
	r.LastRun.WithLabelValues("applied").Set(float64(report.Summary.Applied))
	r.LastRun.WithLabelValues("skipped").Set(float64(report.Summary.Skipped))
	r.LastRun.WithLabelValues("failed").Set(float64(report.Summary.Failed))
	r.LastRun.WithLabelValues("pending").Set(float64(report.Summary.Pending))
}

// WriteTextfile writes the registry to path in the text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("metrics: ensure dir: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("metrics: write %s: %w", path, err)
	}
	return nil
}
