package importer

import (
	"strings"

	"github.com/jobsift/jobsift/app/adapter"
)

// websiteStrategy proposes a website for a newly created company. It
// returns "" when it has nothing plausible, letting the next strategy try.
type websiteStrategy func(posting adapter.RawPosting, freeEmailDomains []string) string

// websiteStrategies are tried in priority order: ATS slug as a domain,
// then the apply address domain (rejecting free email providers), then the
// slugified company name.
var websiteStrategies = []websiteStrategy{
	websiteFromATSSlug,
	websiteFromApplyEmail,
	websiteFromCompanyName,
}

// DeriveWebsite runs the strategy chain and returns the first hit.
func DeriveWebsite(posting adapter.RawPosting, freeEmailDomains []string) string {
	for _, strategy := range websiteStrategies {
		if site := strategy(posting, freeEmailDomains); site != "" {
			return site
		}
	}
	return ""
}

func websiteFromATSSlug(posting adapter.RawPosting, _ []string) string {
	if posting.CompanySlug == "" {
		return ""
	}
	return "https://" + posting.CompanySlug + ".com"
}

func websiteFromApplyEmail(posting adapter.RawPosting, freeEmailDomains []string) string {
	at := strings.LastIndex(posting.ApplyEmail, "@")
	if at < 0 {
		return ""
	}
	domain := strings.ToLower(posting.ApplyEmail[at+1:])
	if domain == "" {
		return ""
	}
	for _, free := range freeEmailDomains {
		if domain == free {
			return ""
		}
	}
	return "https://" + domain
}

func websiteFromCompanyName(posting adapter.RawPosting, _ []string) string {
	slug := Slugify(NormalizeCompanyName(posting.CompanyName))
	if slug == "" {
		return ""
	}
	return "https://" + slug + ".com"
}
