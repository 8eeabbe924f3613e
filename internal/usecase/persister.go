package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"PersonsPipeline/internal/domain"
	"PersonsPipeline/internal/ports"
)

// DefaultBatchSize is the number of rows written per commit when none is configured.
const DefaultBatchSize = 1000

// Persister replaces the contents of the persons store with one run's records.
type Persister struct {
	store     ports.PersonStore
	batchSize int
	logger    *slog.Logger
}

// NewPersister builds a Persister over store.
func NewPersister(store ports.PersonStore, batchSize int, logger *slog.Logger) *Persister {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Persister{store: store, batchSize: batchSize, logger: orDiscard(logger)}
}

// Persist ensures the table, clears it and writes records batch by batch.
// Each batch commits on its own, so a failure leaves the batches before it in place;
// the returned count is the number of rows committed.
func (p *Persister) Persist(ctx context.Context, records []domain.AnonymizedRecord) (int, error) {
	if p.store == nil {
		return 0, fmt.Errorf("persist: no store configured")
	}
	if err := p.store.EnsureSchema(ctx); err != nil {
		return 0, fmt.Errorf("ensure schema: %w", err)
	}
	if err := p.store.Clear(ctx); err != nil {
		return 0, fmt.Errorf("clear persons: %w", err)
	}

	written := 0
	batch := 0
	for rows := range slices.Chunk(records, p.batchSize) {
		if err := p.store.WriteBatch(ctx, rows); err != nil {
			return written, fmt.Errorf("write batch %d (%d rows): %w", batch, len(rows), err)
		}
		written += len(rows)
		batch++
		p.logger.Debug("batch committed", "batch", batch, "rows", len(rows), "written", written)
	}

	p.logger.Info("persisted records", "rows", written, "batches", batch)
	return written, nil
}
