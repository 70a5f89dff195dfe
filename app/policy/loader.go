package policy

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Loader reads policy YAML files from a directory. Files are merged over the
// compiled-in defaults, so an empty or missing directory still yields a usable
// policy set.
type Loader struct {
	policyDir string
}

func NewLoader(policyDir string) *Loader {
	return &Loader{policyDir: policyDir}
}

// Load returns the effective policy: defaults overridden by any YAML files
// found in the policy directory.
func (l *Loader) Load() (*Policy, error) {
	p := Defaults()

	if _, err := os.Stat(l.policyDir); os.IsNotExist(err) {
		slog.Debug("Policy directory not found, using defaults", "dir", l.policyDir)
		return p, nil
	}

	files, err := filepath.Glob(filepath.Join(l.policyDir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to find policy files: %w", err)
	}
	ymlFiles, err := filepath.Glob(filepath.Join(l.policyDir, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to find policy files: %w", err)
	}
	files = append(files, ymlFiles...)

	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read policy file %s: %w", file, err)
		}

		var override Policy
		if err := yaml.Unmarshal(data, &override); err != nil {
			return nil, fmt.Errorf("failed to parse policy file %s: %w", file, err)
		}

		merge(p, &override)
		slog.Debug("Loaded policy file", "file", file)
	}

	return p, nil
}

func merge(dst, src *Policy) {
	dst.Blacklist.Slugs = append(dst.Blacklist.Slugs, src.Blacklist.Slugs...)
	dst.Blacklist.NamePatterns = append(dst.Blacklist.NamePatterns, src.Blacklist.NamePatterns...)
	dst.OnsitePatterns = append(dst.OnsitePatterns, src.OnsitePatterns...)
	dst.FreeEmailDomains = append(dst.FreeEmailDomains, src.FreeEmailDomains...)

	if src.Salary.Currency != "" {
		dst.Salary.Currency = src.Salary.Currency
	}
	for k, v := range src.Salary.Base {
		dst.Salary.Base[k] = v
	}
	for k, v := range src.Salary.LevelMultipliers {
		dst.Salary.LevelMultipliers[k] = v
	}
	for k, v := range src.Salary.CountryCoefficients {
		dst.Salary.CountryCoefficients[k] = v
	}
}

// Defaults returns the compiled-in policy baseline.
func Defaults() *Policy {
	return &Policy{
		Blacklist: Blacklist{},
		OnsitePatterns: []string{
			"warehouse",
			"forklift",
			"cashier",
			"barista",
			"delivery driver",
			"truck driver",
			"line cook",
			"housekeep",
			"janitor",
			"security guard",
			"retail associate",
			"store manager",
			"nurse",
			"dental",
			"on-site",
			"onsite only",
		},
		FreeEmailDomains: []string{
			"gmail.com",
			"yahoo.com",
			"hotmail.com",
			"outlook.com",
			"icloud.com",
			"aol.com",
			"proton.me",
			"protonmail.com",
			"gmx.com",
			"mail.ru",
		},
		Salary: SalaryTable{
			Currency: "USD",
			Base: map[string]float64{
				"engineering": 110000,
				"design":      85000,
				"marketing":   75000,
				"sales":       70000,
				"support":     50000,
				"other":       60000,
			},
			LevelMultipliers: map[string]float64{
				"intern":    0.4,
				"junior":    0.7,
				"mid":       1.0,
				"senior":    1.3,
				"lead":      1.5,
				"principal": 1.7,
				"manager":   1.4,
				"director":  1.8,
			},
			CountryCoefficients: map[string]float64{
				"us": 1.0,
				"ca": 0.85,
				"gb": 0.8,
				"de": 0.75,
				"nl": 0.75,
				"fr": 0.7,
				"es": 0.55,
				"pt": 0.5,
				"pl": 0.5,
				"br": 0.4,
				"in": 0.35,
				"ar": 0.35,
			},
		},
	}
}
