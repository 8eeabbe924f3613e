package processing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PersonsPipeline/internal/domain"
)

func anon(city, country, ageGroup, provider string) domain.AnonymizedRecord {
	return domain.AnonymizedRecord{City: city, Country: country, AgeGroup: ageGroup, EmailProvider: provider}
}

func TestBuildProfile(t *testing.T) {
	t.Parallel()

	profile, err := BuildProfile([]domain.AnonymizedRecord{
		anon("Anytown", "USA", "[30-39]", "example.com"),
		anon("Othertown", "Canada", "[30-39]", "example.com"),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, profile.TotalRecords)
	assert.Equal(t, map[string]int{"city": 2, "country": 2, "age_group": 1, "email_provider": 1}, profile.UniqueValues)
	assert.Equal(t, []domain.ValueCount{{Value: "USA", Count: 1}, {Value: "Canada", Count: 1}}, profile.MostCommonCountries)
	assert.Equal(t, []domain.ValueCount{{Value: "[30-39]", Count: 2}}, profile.AgeGroupDistribution)
	assert.Equal(t, []domain.ValueCount{{Value: "example.com", Count: 2}}, profile.TopEmailProviders)
}

func TestBuildProfileTopFive(t *testing.T) {
	t.Parallel()

	var records []domain.AnonymizedRecord
	add := func(country string, n int) {
		for range n {
			records = append(records, anon("c", country, "[20-29]", country+".mail"))
		}
	}
	add("Peru", 1)
	add("Chad", 3)
	add("Fiji", 2)
	add("Oman", 2)
	add("Mali", 4)
	add("Iran", 1)
	add("Cuba", 2)

	profile, err := BuildProfile(records)
	require.NoError(t, err)

	require.Len(t, profile.MostCommonCountries, TopN)
	assert.Equal(t, []domain.ValueCount{
		{Value: "Mali", Count: 4},
		{Value: "Chad", Count: 3},
		{Value: "Fiji", Count: 2},
		{Value: "Oman", Count: 2},
		{Value: "Cuba", Count: 2},
	}, profile.MostCommonCountries, "ties keep first-seen order")
	assert.Len(t, profile.TopEmailProviders, TopN)
	assert.Equal(t, 7, profile.UniqueValues["country"])
}

func TestProfileEmptyInput(t *testing.T) {
	t.Parallel()

	_, err := BuildProfile(nil)
	assert.ErrorIs(t, err, domain.ErrNoRecords)

	profile := NewProfiler(nil).Profile(nil)
	assert.True(t, profile.IsEmpty())
}
