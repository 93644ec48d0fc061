package risk

import "strings"

// Country risk scores per tier. Geography is scored as the worst country
// the subject touches; an unrecognized country sits between the low and
// medium tiers rather than defaulting to safe.
const (
	countryScoreHigh    = 0.9
	countryScoreMedium  = 0.6
	countryScoreLow     = 0.2
	countryScoreUnknown = 0.4
)

// Tables holds the static reference data the assessment engine scores
// against. Callers may override individual lists via configuration; the
// zero value of any list falls back to the defaults.
type Tables struct {
	HighRiskCountries    []string `yaml:"high_risk_countries" json:"high_risk_countries"`
	MediumRiskCountries  []string `yaml:"medium_risk_countries" json:"medium_risk_countries"`
	LowRiskCountries     []string `yaml:"low_risk_countries" json:"low_risk_countries"`
	HighRiskIndustries   []string `yaml:"high_risk_industries" json:"high_risk_industries"`
	MediumRiskIndustries []string `yaml:"medium_risk_industries" json:"medium_risk_industries"`
}

// DefaultTables returns the built-in country and industry risk lists.
func DefaultTables() Tables {
	return Tables{
		HighRiskCountries: []string{
			"Iran", "North Korea", "Syria", "Myanmar", "Afghanistan",
		},
		MediumRiskCountries: []string{
			"Russia", "Pakistan", "Turkey", "UAE", "China",
		},
		LowRiskCountries: []string{
			"Switzerland", "UK", "United Kingdom", "Germany", "Canada",
			"Australia", "USA", "United States",
		},
		HighRiskIndustries: []string{
			"crypto", "gambling", "casino", "money service", "money_services",
			"arms", "weapons", "precious metals",
		},
		MediumRiskIndustries: []string{
			"finance", "financial", "trading", "import", "export",
		},
	}
}

// Merge overlays non-empty lists from o onto t.
func (t Tables) Merge(o Tables) Tables {
	if len(o.HighRiskCountries) > 0 {
		t.HighRiskCountries = o.HighRiskCountries
	}
	if len(o.MediumRiskCountries) > 0 {
		t.MediumRiskCountries = o.MediumRiskCountries
	}
	if len(o.LowRiskCountries) > 0 {
		t.LowRiskCountries = o.LowRiskCountries
	}
	if len(o.HighRiskIndustries) > 0 {
		t.HighRiskIndustries = o.HighRiskIndustries
	}
	if len(o.MediumRiskIndustries) > 0 {
		t.MediumRiskIndustries = o.MediumRiskIndustries
	}
	return t
}

// countryScore looks a single country up across the three tiers.
func (t Tables) countryScore(country string) float64 {
	switch {
	case containsFold(t.HighRiskCountries, country):
		return countryScoreHigh
	case containsFold(t.MediumRiskCountries, country):
		return countryScoreMedium
	case containsFold(t.LowRiskCountries, country):
		return countryScoreLow
	default:
		return countryScoreUnknown
	}
}

func (t Tables) countryTier(country string) string {
	switch t.countryScore(country) {
	case countryScoreHigh:
		return "High"
	case countryScoreMedium:
		return "Medium"
	case countryScoreLow:
		return "Low"
	default:
		return "Unknown"
	}
}

func containsFold(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}

// matchesIndustry reports whether any term appears as a case-insensitive
// substring of the industry description.
func matchesIndustry(terms []string, industry string) (string, bool) {
	industry = strings.ToLower(industry)
	for _, term := range terms {
		if strings.Contains(industry, strings.ToLower(term)) {
			return term, true
		}
	}
	return "", false
}
