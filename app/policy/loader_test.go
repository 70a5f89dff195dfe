package policy

import (
	"os"
	"path/filepath"
	"testing"
)

func writePolicyFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write policy file: %v", err)
	}
}

func TestLoader_Load_MissingDirUsesDefaults(t *testing.T) {
	loader := NewLoader(filepath.Join(t.TempDir(), "does-not-exist"))

	p, err := loader.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if p.Salary.Currency != "USD" {
		t.Errorf("Expected default currency USD, got %s", p.Salary.Currency)
	}
	if len(p.Blacklist.Slugs) != 0 {
		t.Errorf("Expected empty default blacklist, got %v", p.Blacklist.Slugs)
	}
	if len(p.OnsitePatterns) == 0 {
		t.Error("Expected default onsite patterns")
	}
}

func TestLoader_Load_MergesOverDefaults(t *testing.T) {
	dir := t.TempDir()
	writePolicyFile(t, dir, "blacklist.yaml", `
blacklist:
  slugs:
    - spamcorp
  name_patterns:
    - "(?i)crypto"
`)
	writePolicyFile(t, dir, "salary.yml", `
salary:
  currency: EUR
  base:
    engineering: 95000
  country_coefficients:
    de: 0.8
`)

	p, err := NewLoader(dir).Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(p.Blacklist.Slugs) != 1 || p.Blacklist.Slugs[0] != "spamcorp" {
		t.Errorf("Expected blacklist slug spamcorp, got %v", p.Blacklist.Slugs)
	}
	if len(p.Blacklist.NamePatterns) != 1 {
		t.Errorf("Expected 1 name pattern, got %v", p.Blacklist.NamePatterns)
	}
	if p.Salary.Currency != "EUR" {
		t.Errorf("Expected currency override EUR, got %s", p.Salary.Currency)
	}
	if p.Salary.Base["engineering"] != 95000 {
		t.Errorf("Expected engineering base override 95000, got %v", p.Salary.Base["engineering"])
	}
	if p.Salary.Base["design"] != 85000 {
		t.Errorf("Expected design base to keep default 85000, got %v", p.Salary.Base["design"])
	}
	if p.Salary.CountryCoefficients["de"] != 0.8 {
		t.Errorf("Expected de coefficient override 0.8, got %v", p.Salary.CountryCoefficients["de"])
	}
	if p.Salary.CountryCoefficients["us"] != 1.0 {
		t.Errorf("Expected us coefficient to keep default 1.0, got %v", p.Salary.CountryCoefficients["us"])
	}
	if len(p.FreeEmailDomains) == 0 {
		t.Error("Expected default free email domains to survive merge")
	}
}

func TestLoader_Load_BadYAMLFails(t *testing.T) {
	dir := t.TempDir()
	writePolicyFile(t, dir, "broken.yaml", "blacklist: [unclosed")

	if _, err := NewLoader(dir).Load(); err == nil {
		t.Error("Expected error for malformed policy file")
	}
}

func TestLoader_Load_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	writePolicyFile(t, dir, "notes.txt", "not yaml at all {{{")

	p, err := NewLoader(dir).Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if p.Salary.Currency != "USD" {
		t.Errorf("Expected defaults untouched, got currency %s", p.Salary.Currency)
	}
}
