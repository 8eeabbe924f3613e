package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStageReportDrop(t *testing.T) {
	t.Parallel()

	report := StageReport{Stage: StageValidate, In: 3}
	first := report.Drop(0, "11", fmt.Errorf("%w: email", ErrMissingField))
	report.Drop(2, "", fmt.Errorf("%w: \"x\"", ErrInvalidDate))
	report.Drop(1, "12", fmt.Errorf("%w: birthday", ErrMissingField))

	require.Len(t, report.Dropped, 3)
	assert.ErrorIs(t, first, ErrMissingField)
	assert.Equal(t, StageValidate, first.Stage)
	assert.Equal(t, "validate record 0 (id 11): required field missing: email", first.Error())
	assert.Equal(t, `validate record 2: invalid date: "x"`, report.Dropped[1].Error())

	assert.Equal(t, map[string]int{"required field missing": 2, "invalid date": 1}, report.Reasons())
}

func TestReasonsFallsBackToOther(t *testing.T) {
	t.Parallel()

	report := StageReport{Stage: StageClean}
	report.Drop(0, "", errors.New("boom"))

	assert.Equal(t, map[string]int{"other": 1}, report.Reasons())
}

func TestChunkErrorUnwrap(t *testing.T) {
	t.Parallel()

	err := &ChunkError{Chunk: 3, Quantity: 1000, Err: ErrUnexpectedStatus}
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
	assert.Equal(t, "chunk 3 (1000 records): unexpected status", err.Error())
}
