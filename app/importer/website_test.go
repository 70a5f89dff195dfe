package importer

import (
	"testing"

	"github.com/jobsift/jobsift/app/adapter"
	"github.com/jobsift/jobsift/app/policy"
)

func TestDeriveWebsite_StrategyOrder(t *testing.T) {
	free := policy.Defaults().FreeEmailDomains

	tests := []struct {
		name     string
		posting  adapter.RawPosting
		expected string
	}{
		{
			"ats slug wins over everything",
			adapter.RawPosting{
				CompanySlug: "acme",
				CompanyName: "Acme Labs Inc",
				ApplyEmail:  "jobs@acmelabs.io",
			},
			"https://acme.com",
		},
		{
			"apply email domain when no slug",
			adapter.RawPosting{
				CompanyName: "Acme Labs Inc",
				ApplyEmail:  "jobs@acmelabs.io",
			},
			"https://acmelabs.io",
		},
		{
			"free email provider is rejected",
			adapter.RawPosting{
				CompanyName: "Acme Labs Inc",
				ApplyEmail:  "hiring@gmail.com",
			},
			"https://acme-labs.com",
		},
		{
			"company name fallback",
			adapter.RawPosting{
				CompanyName: "Acme Labs Inc",
			},
			"https://acme-labs.com",
		},
		{
			"nothing usable",
			adapter.RawPosting{},
			"",
		},
	}

	for _, tt := range tests {
		if got := DeriveWebsite(tt.posting, free); got != tt.expected {
			t.Errorf("%s: DeriveWebsite = %q, expected %q", tt.name, got, tt.expected)
		}
	}
}
