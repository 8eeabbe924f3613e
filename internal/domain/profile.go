package domain

// ValueCount is one entry of a frequency table.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Profile aggregates the anonymized data set.
type Profile struct {
	TotalRecords         int            `json:"total_records"`
	UniqueValues         map[string]int `json:"unique_values"`
	MostCommonCountries  []ValueCount   `json:"most_common_countries"`
	AgeGroupDistribution []ValueCount   `json:"age_group_distribution"`
	TopEmailProviders    []ValueCount   `json:"top_email_providers"`
}

// IsEmpty reports whether the profile carries no computed data.
func (p Profile) IsEmpty() bool {
	return p.TotalRecords == 0 && len(p.UniqueValues) == 0
}
