// Package processing holds the per-record pipeline stages: validation, cleaning,
// deduplication, anonymization and profiling. Every stage runs over a fully
// materialized slice, drops failing records into a StageReport and keeps going.
package processing

import (
	"io"
	"log/slog"
)

func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return logger
}
