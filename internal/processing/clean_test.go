package processing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PersonsPipeline/internal/domain"
)

func TestCleanNormalizesFields(t *testing.T) {
	t.Parallel()

	person := samplePerson("1", "  John.DOE@Example.COM ")
	person.Firstname = "john"
	person.Lastname = "mcDonald"
	person.Phone = strPtr("+1 (555) 010-9999")

	cleaned, report := NewCleaner(nil).Clean([]domain.ValidRecord{{Person: person}})
	require.Len(t, cleaned, 1)
	assert.Equal(t, 1, report.Out)

	got := cleaned[0]
	assert.Equal(t, "john.doe@example.com", got.Email)
	assert.Equal(t, "John", got.Firstname)
	assert.Equal(t, "McDonald", got.Lastname)
	require.NotNil(t, got.Phone)
	assert.Equal(t, "15550109999", *got.Phone)
}

func TestCleanKeepsSourceRecordIntact(t *testing.T) {
	t.Parallel()

	phone := "555-1234"
	person := samplePerson("1", "a@b.co")
	person.Phone = &phone

	_ = CleanPerson(person)
	assert.Equal(t, "555-1234", phone)
}

func TestCleanIsIdempotent(t *testing.T) {
	t.Parallel()

	person := samplePerson("1", "Jane.Smith@Example.com")
	person.Firstname = "jane"
	person.Phone = strPtr("(030) 1234 567")

	once := CleanPerson(person)
	twice := CleanPerson(once)

	assert.Equal(t, once, twice)
}

func TestCleanWithoutPhone(t *testing.T) {
	t.Parallel()

	got := CleanPerson(samplePerson("1", "a@b.co"))
	assert.Nil(t, got.Phone)
}

func TestCleanKeepsBlankNames(t *testing.T) {
	t.Parallel()

	blank := samplePerson("9", "a@b.co")
	blank.Firstname = "   "

	cleaned, report := NewCleaner(nil).Clean([]domain.ValidRecord{{Person: blank}, {Person: samplePerson("1", "c@d.co")}})
	require.Len(t, cleaned, 2)
	assert.Empty(t, report.Dropped)
	assert.Equal(t, 2, report.Out)
	assert.Equal(t, "", cleaned[0].Firstname)
}
