package domain

import (
	"log/slog"
	"time"
)

// RunReport is the outcome of one pipeline run.
type RunReport struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time

	Fetch      FetchReport
	Validate   StageReport
	Clean      StageReport
	Dedup      StageReport
	Anonymize  StageReport
	Duplicates int
	Persisted  int
	PersistErr error
	Profile    Profile

	// Fault is set when a stage aborted the run; the counts after it are zero.
	Fault error
}

// Succeeded reports whether the run completed and persisted its records.
func (r RunReport) Succeeded() bool {
	return r.Fault == nil && r.PersistErr == nil
}

// Duration is the wall time of the run.
func (r RunReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Stages returns the per-record stage reports in execution order.
func (r RunReport) Stages() []StageReport {
	return []StageReport{r.Validate, r.Clean, r.Dedup, r.Anonymize}
}

// LogValue implements slog.LogValuer.
func (r RunReport) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("run_id", r.RunID),
		slog.Int("fetched", r.Fetch.Fetched),
		slog.Int("failed_chunks", len(r.Fetch.Failed)),
		slog.Int("valid", r.Validate.Out),
		slog.Int("cleaned", r.Clean.Out),
		slog.Int("unique", r.Dedup.Out),
		slog.Int("duplicates", r.Duplicates),
		slog.Int("anonymized", r.Anonymize.Out),
		slog.Int("persisted", r.Persisted),
		slog.Bool("persist_failed", r.PersistErr != nil),
		slog.Bool("faulted", r.Fault != nil),
		slog.Duration("duration", r.Duration()),
	)
}
