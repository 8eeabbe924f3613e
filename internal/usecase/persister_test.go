package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PersonsPipeline/internal/domain"
)

type memoryStore struct {
	calls     []string
	batches   [][]domain.AnonymizedRecord
	rows      []domain.AnonymizedRecord
	failAfter int
	schemaErr error
}

func (m *memoryStore) EnsureSchema(context.Context) error {
	m.calls = append(m.calls, "schema")
	return m.schemaErr
}

func (m *memoryStore) Clear(context.Context) error {
	m.calls = append(m.calls, "clear")
	m.rows = nil
	return nil
}

func (m *memoryStore) WriteBatch(_ context.Context, batch []domain.AnonymizedRecord) error {
	m.calls = append(m.calls, "write")
	if m.failAfter > 0 && len(m.batches) == m.failAfter {
		return errors.New("connection reset")
	}
	m.batches = append(m.batches, batch)
	m.rows = append(m.rows, batch...)
	return nil
}

func records(n int) []domain.AnonymizedRecord {
	out := make([]domain.AnonymizedRecord, n)
	for i := range out {
		out[i] = domain.AnonymizedRecord{City: "c", Country: "x"}
	}
	return out
}

func TestPersistWritesInBatches(t *testing.T) {
	t.Parallel()

	store := &memoryStore{rows: records(3)}
	written, err := NewPersister(store, 2, nil).Persist(context.Background(), records(5))

	require.NoError(t, err)
	assert.Equal(t, 5, written)
	assert.Equal(t, []string{"schema", "clear", "write", "write", "write"}, store.calls)
	require.Len(t, store.batches, 3)
	assert.Len(t, store.batches[0], 2)
	assert.Len(t, store.batches[2], 1)
	assert.Len(t, store.rows, 5, "previous rows are replaced")
}

func TestPersistStopsAtFailingBatch(t *testing.T) {
	t.Parallel()

	store := &memoryStore{failAfter: 1}
	written, err := NewPersister(store, 2, nil).Persist(context.Background(), records(5))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "write batch 1")
	assert.Equal(t, 2, written)
	assert.Len(t, store.rows, 2)
}

func TestPersistSchemaFailure(t *testing.T) {
	t.Parallel()

	store := &memoryStore{schemaErr: errors.New("permission denied")}
	written, err := NewPersister(store, 0, nil).Persist(context.Background(), records(1))

	require.Error(t, err)
	assert.Zero(t, written)
	assert.Equal(t, []string{"schema"}, store.calls)
}

func TestPersistEmptySetStillClears(t *testing.T) {
	t.Parallel()

	store := &memoryStore{rows: records(4)}
	written, err := NewPersister(store, 10, nil).Persist(context.Background(), nil)

	require.NoError(t, err)
	assert.Zero(t, written)
	assert.Equal(t, []string{"schema", "clear"}, store.calls)
	assert.Empty(t, store.rows)
}
