package policy

// Policy holds operator-maintained rules consumed by the import engine.
type Policy struct {
	Blacklist        Blacklist   `yaml:"blacklist"`
	OnsitePatterns   []string    `yaml:"onsite_patterns"`
	FreeEmailDomains []string    `yaml:"free_email_domains"`
	Salary           SalaryTable `yaml:"salary"`
}

// Blacklist lists companies whose postings are never imported.
type Blacklist struct {
	Slugs        []string `yaml:"slugs"`
	NamePatterns []string `yaml:"name_patterns"`
}

// SalaryTable drives compensation estimation for postings without salary data.
// Estimate = Base[category] * LevelMultipliers[level] * CountryCoefficients[country].
type SalaryTable struct {
	Currency            string             `yaml:"currency"`
	Base                map[string]float64 `yaml:"base"`
	LevelMultipliers    map[string]float64 `yaml:"level_multipliers"`
	CountryCoefficients map[string]float64 `yaml:"country_coefficients"`
}
