package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PersonsPipeline/internal/domain"
)

type stubFetcher struct {
	mu       sync.Mutex
	calls    []int
	fail     func(call int) bool
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	delay    time.Duration
}

func (s *stubFetcher) FetchPage(ctx context.Context, quantity int) ([]domain.RawRecord, error) {
	current := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		seen := s.maxSeen.Load()
		if current <= seen || s.maxSeen.CompareAndSwap(seen, current) {
			break
		}
	}
	if s.delay > 0 {
		time.Sleep(s.delay)
	}

	s.mu.Lock()
	s.calls = append(s.calls, quantity)
	call := len(s.calls)
	s.mu.Unlock()

	if s.fail != nil && s.fail(call) {
		return nil, errors.New("upstream exhausted")
	}
	records := make([]domain.RawRecord, quantity)
	for i := range records {
		records[i] = domain.RawRecord{Body: []byte(fmt.Sprintf(`{"id":%d}`, i))}
	}
	return records, nil
}

func TestChunkSizes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []int{50, 50}, ChunkSizes(100, 50))
	assert.Equal(t, []int{50, 50, 5}, ChunkSizes(105, 50))
	assert.Equal(t, []int{7}, ChunkSizes(7, 1000))
	assert.Nil(t, ChunkSizes(0, 10))
	assert.Nil(t, ChunkSizes(10, 0))
}

func TestFetchAllAggregatesEveryChunk(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{}
	src := NewChunkedSource(fetcher, 3, nil)

	records, report := src.FetchAll(context.Background(), 105, 50)

	assert.Len(t, records, 105)
	assert.Equal(t, 3, report.Chunks)
	assert.Equal(t, 105, report.Fetched)
	assert.Empty(t, report.Failed)
	assert.ElementsMatch(t, []int{50, 50, 5}, fetcher.calls)
}

func TestFetchAllIsolatesFailedChunk(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{fail: func(call int) bool { return call == 1 }}
	src := NewChunkedSource(fetcher, 5, nil)

	records, report := src.FetchAll(context.Background(), 100, 50)

	assert.Len(t, records, 50)
	assert.Equal(t, 50, report.Fetched)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, 50, report.Failed[0].Quantity)
}

func TestFetchAllBoundsConcurrency(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{delay: 5 * time.Millisecond}
	src := NewChunkedSource(fetcher, 2, nil)

	records, _ := src.FetchAll(context.Background(), 100, 10)

	assert.Len(t, records, 100)
	assert.LessOrEqual(t, fetcher.maxSeen.Load(), int32(2))
}

func TestFetchAllNothingRequested(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{}
	records, report := NewChunkedSource(fetcher, 0, nil).FetchAll(context.Background(), 0, 50)

	assert.Empty(t, records)
	assert.Zero(t, report.Chunks)
	assert.Empty(t, fetcher.calls)
}

func TestFetchAllOverHTTPWithOneChunkExhausted(t *testing.T) {
	t.Parallel()

	// With a single worker the first chunk's request and its three retries all fail.
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 4 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(personsPage(50)))
	}))
	defer server.Close()

	client := NewClient(server.URL, server.Client(), fastPolicy(), nil)
	src := NewChunkedSource(client, 1, nil)

	records, report := src.FetchAll(context.Background(), 100, 50)

	assert.Len(t, records, 50)
	require.Len(t, report.Failed, 1)
	assert.ErrorIs(t, report.Failed[0], domain.ErrUnexpectedStatus)
	assert.Equal(t, int32(5), calls.Load())
}

type panickingFetcher struct {
	calls atomic.Int32
}

func (p *panickingFetcher) FetchPage(_ context.Context, quantity int) ([]domain.RawRecord, error) {
	if p.calls.Add(1) == 1 {
		panic("decoder blew up")
	}
	return make([]domain.RawRecord, quantity), nil
}

func TestFetchAllTurnsWorkerPanicIntoFailedChunk(t *testing.T) {
	t.Parallel()

	fetcher := &panickingFetcher{}
	records, report := NewChunkedSource(fetcher, 1, nil).FetchAll(context.Background(), 100, 50)

	assert.Len(t, records, 50)
	require.Len(t, report.Failed, 1)
	assert.ErrorIs(t, report.Failed[0], domain.ErrStageFault)
	assert.Contains(t, report.Failed[0].Error(), "decoder blew up")
}
