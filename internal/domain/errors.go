package domain

import (
	"errors"
	"fmt"
	"log/slog"
)

var (
	ErrMalformedRecord   = errors.New("malformed record")
	ErrMissingField      = errors.New("required field missing")
	ErrInvalidEmail      = errors.New("invalid email")
	ErrInvalidDate       = errors.New("invalid date")
	ErrInvalidAddress    = errors.New("invalid address")
	ErrNoRecords         = errors.New("no records")
	ErrUnexpectedStatus  = errors.New("unexpected status")
	ErrUnexpectedPayload = errors.New("unexpected payload")
	ErrStageFault        = errors.New("stage fault")
)

// Stage names a pipeline step for reporting.
type Stage string

const (
	StageFetch       Stage = "fetch"
	StageValidate    Stage = "validate"
	StageClean       Stage = "clean"
	StageDeduplicate Stage = "deduplicate"
	StageAnonymize   Stage = "anonymize"
	StagePersist     Stage = "persist"
	StageProfile     Stage = "profile"
)

// RecordError is the failure of a single record inside a stage.
type RecordError struct {
	Stage    Stage
	Index    int
	RecordID string
	Err      error
}

func (e *RecordError) Error() string {
	if e.RecordID != "" {
		return fmt.Sprintf("%s record %d (id %s): %v", e.Stage, e.Index, e.RecordID, e.Err)
	}
	return fmt.Sprintf("%s record %d: %v", e.Stage, e.Index, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// StageReport summarizes one per-record stage.
type StageReport struct {
	Stage   Stage
	In      int
	Out     int
	Dropped []*RecordError
}

// Drop records a per-record failure.
func (r *StageReport) Drop(index int, id string, err error) *RecordError {
	recErr := &RecordError{Stage: r.Stage, Index: index, RecordID: id, Err: err}
	r.Dropped = append(r.Dropped, recErr)
	return recErr
}

// Reasons counts dropped records by their root sentinel error.
func (r StageReport) Reasons() map[string]int {
	out := make(map[string]int)
	for _, d := range r.Dropped {
		out[reasonOf(d.Err)]++
	}
	return out
}

// LogValue implements slog.LogValuer.
func (r StageReport) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("stage", string(r.Stage)),
		slog.Int("in", r.In),
		slog.Int("out", r.Out),
		slog.Int("dropped", len(r.Dropped)),
	)
}

// ChunkError tags a chunk whose retrieval failed after retries.
type ChunkError struct {
	Chunk    int
	Quantity int
	Err      error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("chunk %d (%d records): %v", e.Chunk, e.Quantity, e.Err)
}

func (e *ChunkError) Unwrap() error {
	return e.Err
}

// FetchReport summarizes a chunked retrieval.
type FetchReport struct {
	Requested int
	Chunks    int
	Fetched   int
	Failed    []*ChunkError
}

// LogValue implements slog.LogValuer.
func (r FetchReport) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("requested", r.Requested),
		slog.Int("chunks", r.Chunks),
		slog.Int("fetched", r.Fetched),
		slog.Int("failed_chunks", len(r.Failed)),
	)
}

var reasons = []error{
	ErrMalformedRecord, ErrMissingField, ErrInvalidEmail, ErrInvalidDate,
	ErrInvalidAddress,
}

func reasonOf(err error) string {
	for _, sentinel := range reasons {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return "other"
}
