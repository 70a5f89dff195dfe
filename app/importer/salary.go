package importer

import (
	"strings"

	"github.com/jobsift/jobsift/app/policy"
)

// estimateBandwidth gives the ±15% min/max band around the estimated midpoint.
const estimateBandwidth = 0.15

// SalaryEstimate is the computed compensation band for a posting that
// arrived without salary data.
type SalaryEstimate struct {
	Min      int
	Max      int
	Currency string
	Period   string
}

// Estimator computes salary estimates from the policy tables:
// base(category) x levelMultiplier(level) x countryCoefficient(country).
type Estimator struct {
	table policy.SalaryTable
}

func NewEstimator(table policy.SalaryTable) *Estimator {
	return &Estimator{table: table}
}

// Estimate returns the salary band for a title/level/location combination.
func (e *Estimator) Estimate(title, level, location string) SalaryEstimate {
	base := e.table.Base[CategoryFromTitle(title)]
	if base == 0 {
		base = e.table.Base["other"]
	}

	multiplier := 1.0
	if m, ok := e.table.LevelMultipliers[strings.ToLower(level)]; ok {
		multiplier = m
	}

	coefficient := 1.0
	if c, ok := e.table.CountryCoefficients[countryFromLocation(location)]; ok {
		coefficient = c
	}

	midpoint := base * multiplier * coefficient
	return SalaryEstimate{
		Min:      int(midpoint * (1 - estimateBandwidth)),
		Max:      int(midpoint * (1 + estimateBandwidth)),
		Currency: e.table.Currency,
		Period:   "year",
	}
}

var categoryKeywords = []struct {
	keyword  string
	category string
}{
	{"engineer", "engineering"},
	{"developer", "engineering"},
	{"devops", "engineering"},
	{"sre", "engineering"},
	{"architect", "engineering"},
	{"data scientist", "engineering"},
	{"qa", "engineering"},
	{"designer", "design"},
	{"ux", "design"},
	{"ui", "design"},
	{"marketing", "marketing"},
	{"growth", "marketing"},
	{"content", "marketing"},
	{"seo", "marketing"},
	{"sales", "sales"},
	{"account executive", "sales"},
	{"business development", "sales"},
	{"support", "support"},
	{"customer success", "support"},
	{"customer service", "support"},
}

// CategoryFromTitle buckets a title into a salary category by keyword.
func CategoryFromTitle(title string) string {
	lower := strings.ToLower(title)
	for _, ck := range categoryKeywords {
		if strings.Contains(lower, ck.keyword) {
			return ck.category
		}
	}
	return "other"
}

// countryFromLocation maps a free-text location to a country code used in
// the coefficient table. Aliases are tried in order and must match whole
// words, so "Austria" never resolves through "us". Unknown locations fall
// back to coefficient 1.0.
var countryAliases = []struct {
	alias string
	code  string
}{
	{"united states", "us"},
	{"usa", "us"},
	{"us", "us"},
	{"canada", "ca"},
	{"united kingdom", "gb"},
	{"uk", "gb"},
	{"england", "gb"},
	{"london", "gb"},
	{"germany", "de"},
	{"berlin", "de"},
	{"netherlands", "nl"},
	{"amsterdam", "nl"},
	{"france", "fr"},
	{"paris", "fr"},
	{"spain", "es"},
	{"portugal", "pt"},
	{"lisbon", "pt"},
	{"poland", "pl"},
	{"brazil", "br"},
	{"india", "in"},
	{"argentina", "ar"},
}

func countryFromLocation(location string) string {
	tokens := strings.FieldsFunc(strings.ToLower(location), func(r rune) bool {
		return r < 'a' || r > 'z'
	})
	if len(tokens) == 0 {
		return ""
	}
	padded := " " + strings.Join(tokens, " ") + " "

	for _, ca := range countryAliases {
		if strings.Contains(padded, " "+ca.alias+" ") {
			return ca.code
		}
	}
	return ""
}
