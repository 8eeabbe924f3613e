package processing

import (
	"fmt"
	"log/slog"
	"sort"

	"PersonsPipeline/internal/domain"
)

// TopN is the length of the country and email provider rankings.
const TopN = 5

// Profiler computes aggregate statistics over anonymized records.
type Profiler struct {
	logger *slog.Logger
}

// NewProfiler builds a Profiler.
func NewProfiler(logger *slog.Logger) *Profiler {
	return &Profiler{logger: orDiscard(logger)}
}

// Profile returns the aggregate profile, or the empty profile when it cannot be computed.
func (p *Profiler) Profile(records []domain.AnonymizedRecord) domain.Profile {
	profile, err := BuildProfile(records)
	if err != nil {
		p.logger.Error("profiling failed", "error", err)
		return domain.Profile{}
	}
	p.logger.Info("profiling complete", "total_records", profile.TotalRecords)
	return profile
}

// BuildProfile counts distinct values, the top countries and providers, and the age distribution.
func BuildProfile(records []domain.AnonymizedRecord) (domain.Profile, error) {
	if len(records) == 0 {
		return domain.Profile{}, fmt.Errorf("profile: %w", domain.ErrNoRecords)
	}

	cities := newCounter()
	countries := newCounter()
	ageGroups := newCounter()
	providers := newCounter()
	for _, r := range records {
		cities.add(r.City)
		countries.add(r.Country)
		ageGroups.add(r.AgeGroup)
		providers.add(r.EmailProvider)
	}

	return domain.Profile{
		TotalRecords: len(records),
		UniqueValues: map[string]int{
			"city":           cities.distinct(),
			"country":        countries.distinct(),
			"age_group":      ageGroups.distinct(),
			"email_provider": providers.distinct(),
		},
		MostCommonCountries:  countries.top(TopN),
		AgeGroupDistribution: ageGroups.top(0),
		TopEmailProviders:    providers.top(TopN),
	}, nil
}

// counter is a frequency table that remembers first-seen order for tie breaks.
type counter struct {
	index  map[string]int
	counts []domain.ValueCount
}

func newCounter() *counter {
	return &counter{index: make(map[string]int)}
}

func (c *counter) add(value string) {
	if i, ok := c.index[value]; ok {
		c.counts[i].Count++
		return
	}
	c.index[value] = len(c.counts)
	c.counts = append(c.counts, domain.ValueCount{Value: value, Count: 1})
}

func (c *counter) distinct() int {
	return len(c.counts)
}

// top returns the n most frequent values, all of them when n <= 0.
func (c *counter) top(n int) []domain.ValueCount {
	sorted := make([]domain.ValueCount, len(c.counts))
	copy(sorted, c.counts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Count > sorted[j].Count
	})
	if n > 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
