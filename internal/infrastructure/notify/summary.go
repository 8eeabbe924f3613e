package notify

import (
	"time"

	"PersonsPipeline/internal/domain"
)

// RunSummary is the event published once per pipeline run.
type RunSummary struct {
	RunID        string         `json:"run_id"`
	StartedAt    time.Time      `json:"started_at"`
	FinishedAt   time.Time      `json:"finished_at"`
	Counts       RunCounts      `json:"counts"`
	Dropped      map[string]int `json:"dropped,omitempty"`
	Profile      domain.Profile `json:"profile"`
	PersistError string         `json:"persist_error,omitempty"`
	Error        string         `json:"error,omitempty"`
	Succeeded    bool           `json:"succeeded"`
}

// RunCounts are the record totals after each stage.
type RunCounts struct {
	Requested    int `json:"requested"`
	Fetched      int `json:"fetched"`
	FailedChunks int `json:"failed_chunks"`
	Valid        int `json:"valid"`
	Cleaned      int `json:"cleaned"`
	Unique       int `json:"unique"`
	Duplicates   int `json:"duplicates"`
	Anonymized   int `json:"anonymized"`
	Persisted    int `json:"persisted"`
}

// NewRunSummary flattens a run report into its published form.
func NewRunSummary(report domain.RunReport) RunSummary {
	summary := RunSummary{
		RunID:      report.RunID,
		StartedAt:  report.StartedAt.UTC(),
		FinishedAt: report.FinishedAt.UTC(),
		Counts: RunCounts{
			Requested:    report.Fetch.Requested,
			Fetched:      report.Fetch.Fetched,
			FailedChunks: len(report.Fetch.Failed),
			Valid:        report.Validate.Out,
			Cleaned:      report.Clean.Out,
			Unique:       report.Dedup.Out,
			Duplicates:   report.Duplicates,
			Anonymized:   report.Anonymize.Out,
			Persisted:    report.Persisted,
		},
		Profile:   report.Profile,
		Succeeded: report.Succeeded(),
	}

	for _, stage := range report.Stages() {
		if n := len(stage.Dropped); n > 0 {
			if summary.Dropped == nil {
				summary.Dropped = make(map[string]int)
			}
			summary.Dropped[string(stage.Stage)] = n
		}
	}
	if report.PersistErr != nil {
		summary.PersistError = report.PersistErr.Error()
	}
	if report.Fault != nil {
		summary.Error = report.Fault.Error()
	}
	return summary
}
