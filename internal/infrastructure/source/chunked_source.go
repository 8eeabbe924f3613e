package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"PersonsPipeline/internal/domain"
	"PersonsPipeline/internal/ports"
)

// DefaultConcurrency is the worker pool size when none is configured.
const DefaultConcurrency = 5

// ChunkedSource implements PersonSource by paging through the source with a bounded worker pool.
type ChunkedSource struct {
	fetcher     ports.PageFetcher
	concurrency int
	logger      *slog.Logger
}

var _ ports.PersonSource = (*ChunkedSource)(nil)

// NewChunkedSource wires a page fetcher with the worker pool size.
func NewChunkedSource(fetcher ports.PageFetcher, concurrency int, logger *slog.Logger) *ChunkedSource {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &ChunkedSource{
		fetcher:     fetcher,
		concurrency: concurrency,
		logger:      logger,
	}
}

type chunkResult struct {
	index    int
	quantity int
	records  []domain.RawRecord
	err      error
}

// FetchAll requests every chunk and concatenates the successful ones in completion order.
// A failed chunk contributes no records and never aborts its siblings.
func (s *ChunkedSource) FetchAll(ctx context.Context, totalQuantity, chunkSize int) ([]domain.RawRecord, domain.FetchReport) {
	sizes := ChunkSizes(totalQuantity, chunkSize)
	report := domain.FetchReport{Requested: totalQuantity, Chunks: len(sizes)}
	if len(sizes) == 0 {
		s.logger.Warn("nothing to fetch", "total_quantity", totalQuantity, "chunk_size", chunkSize)
		return nil, report
	}

	results := make(chan chunkResult, len(sizes))

	var group errgroup.Group
	group.SetLimit(s.concurrency)
	for i, quantity := range sizes {
		group.Go(func() error {
			results <- s.fetchChunk(ctx, i, quantity)
			return nil
		})
	}
	_ = group.Wait()
	close(results)

	var all []domain.RawRecord
	for res := range results {
		if res.err != nil {
			report.Failed = append(report.Failed, &domain.ChunkError{Chunk: res.index, Quantity: res.quantity, Err: res.err})
			s.logger.Error("chunk fetch failed", "chunk", res.index, "quantity", res.quantity, "error", res.err)
			continue
		}
		s.logger.Debug("chunk fetched", "chunk", res.index, "records", len(res.records))
		all = append(all, res.records...)
	}

	report.Fetched = len(all)
	s.logger.Info("fetch complete", "report", report)
	return all, report
}

// fetchChunk turns a panicking fetcher into a failed chunk so it cannot take down the process.
func (s *ChunkedSource) fetchChunk(ctx context.Context, index, quantity int) (res chunkResult) {
	res = chunkResult{index: index, quantity: quantity}
	defer func() {
		if r := recover(); r != nil {
			res.records = nil
			res.err = fmt.Errorf("%w: fetch chunk panicked: %v", domain.ErrStageFault, r)
		}
	}()
	res.records, res.err = s.fetcher.FetchPage(ctx, quantity)
	return res
}

// ChunkSizes splits total into ceil(total/chunkSize) chunks; the last one holds the remainder.
func ChunkSizes(total, chunkSize int) []int {
	if total <= 0 || chunkSize <= 0 {
		return nil
	}
	sizes := make([]int, 0, (total+chunkSize-1)/chunkSize)
	for remaining := total; remaining > 0; remaining -= chunkSize {
		sizes = append(sizes, min(chunkSize, remaining))
	}
	return sizes
}
