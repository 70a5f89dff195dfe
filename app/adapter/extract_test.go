package adapter

import (
	"testing"
)

func TestExtractPosting_HiringPattern(t *testing.T) {
	out := ExtractPosting("Acme Labs is hiring a Senior Backend Engineer! Fully remote, apply at jobs@acmelabs.io")

	if out.CompanyName != "Acme Labs" {
		t.Errorf("Expected company Acme Labs, got %q", out.CompanyName)
	}
	if out.Title != "Senior Backend Engineer" {
		t.Errorf("Expected title Senior Backend Engineer, got %q", out.Title)
	}
	if out.ApplyEmail != "jobs@acmelabs.io" {
		t.Errorf("Expected apply email, got %q", out.ApplyEmail)
	}
	if out.LocationType != "remote" {
		t.Errorf("Expected remote location type, got %q", out.LocationType)
	}
	if out.Level != "senior" {
		t.Errorf("Expected senior level, got %q", out.Level)
	}
}

func TestExtractPosting_ApplyURL(t *testing.T) {
	out := ExtractPosting("We're hiring: Platform Engineer at Globex. Apply: https://globex.example/careers/42.")

	if out.ApplyURL != "https://globex.example/careers/42" {
		t.Errorf("Expected trailing punctuation trimmed from URL, got %q", out.ApplyURL)
	}
}

func TestExtractPosting_SalaryRange(t *testing.T) {
	tests := []struct {
		text     string
		min      int
		max      int
		currency string
	}{
		{"Salary: $120k-$150k plus equity", 120000, 150000, "USD"},
		{"Compensation €60,000 - €80,000", 60000, 80000, "EUR"},
		{"Pay band £70k to £90k", 70000, 90000, "GBP"},
	}

	for _, tt := range tests {
		out := ExtractPosting(tt.text)
		if out.SalaryMin != tt.min || out.SalaryMax != tt.max {
			t.Errorf("%q: expected %d-%d, got %d-%d", tt.text, tt.min, tt.max, out.SalaryMin, out.SalaryMax)
		}
		if out.SalaryCurrency != tt.currency {
			t.Errorf("%q: expected currency %s, got %s", tt.text, tt.currency, out.SalaryCurrency)
		}
	}
}

func TestExtractPosting_BareNumericRangeIgnored(t *testing.T) {
	tests := []string{
		"Acme is hiring a Senior Backend Engineer. 10-15 years experience required.",
		"Flexible role, 10-20 hours per week.",
		"Team of 30-40 people across 3 offices.",
	}

	for _, text := range tests {
		out := ExtractPosting(text)
		if out.SalaryMin != 0 || out.SalaryMax != 0 {
			t.Errorf("%q: expected no salary without currency or k marker, got %d-%d",
				text, out.SalaryMin, out.SalaryMax)
		}
	}
}

func TestExtractPosting_LoneSmallAmountIgnored(t *testing.T) {
	out := ExtractPosting("Join our team of 50 engineers! Stipend of $500 for equipment.")

	if out.SalaryMin != 0 || out.SalaryMax != 0 {
		t.Errorf("Expected small lone amounts ignored, got %d-%d", out.SalaryMin, out.SalaryMax)
	}
}

func TestExtractPosting_Location(t *testing.T) {
	out := ExtractPosting("DevOps Engineer wanted. Based in Berlin. We offer a hybrid setup.")

	if out.Location != "Berlin" {
		t.Errorf("Expected location Berlin, got %q", out.Location)
	}
	if out.LocationType != "hybrid" {
		t.Errorf("Expected hybrid location type, got %q", out.LocationType)
	}
}

func TestExtractPosting_NothingPlausible(t *testing.T) {
	out := ExtractPosting("Had a great time at the conference last week!")

	if out.Title != "" || out.SalaryMin != 0 {
		t.Errorf("Expected empty extraction, got %+v", out)
	}
}
