package ports

import (
	"context"

	"PersonsPipeline/internal/domain"
)

// PageFetcher retrieves one page of exactly quantity raw records.
type PageFetcher interface {
	FetchPage(ctx context.Context, quantity int) ([]domain.RawRecord, error)
}

// PersonSource pulls the full run's raw records, tolerating partial chunk loss.
type PersonSource interface {
	FetchAll(ctx context.Context, totalQuantity, chunkSize int) ([]domain.RawRecord, domain.FetchReport)
}

// PersonStore is the relational sink for anonymized persons.
type PersonStore interface {
	EnsureSchema(ctx context.Context) error
	Clear(ctx context.Context) error
	WriteBatch(ctx context.Context, batch []domain.AnonymizedRecord) error
}

// SummaryPublisher announces a finished run to downstream consumers.
type SummaryPublisher interface {
	PublishRun(ctx context.Context, report domain.RunReport) error
}

// RunRecorder records run outcome metrics.
type RunRecorder interface {
	ObserveRun(report domain.RunReport)
	Flush(ctx context.Context) error
}
