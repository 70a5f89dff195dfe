package importer

import (
	"strings"

	"github.com/jobsift/jobsift/app/adapter"
	"github.com/jobsift/jobsift/app/policy"
)

// Reason codes recorded on FilteredJob rows.
const (
	ReasonParseError    = "PARSE_ERROR"
	ReasonBlacklisted   = "BLACKLISTED"
	ReasonNotRemote     = "NOT_REMOTE"
	ReasonMissingFields = "MISSING_FIELDS"
)

// Filterer applies the pre-write policy filters. A non-empty reason routes
// the posting to the FilteredJob audit trail instead of import.
type Filterer struct {
	policy *policy.Policy
}

func NewFilterer(p *policy.Policy) *Filterer {
	return &Filterer{policy: p}
}

// Check returns the first matching rejection reason, or "" when the
// posting may proceed to import.
func (f *Filterer) Check(posting adapter.RawPosting) string {
	if posting.ParseError != "" {
		return ReasonParseError
	}
	if strings.TrimSpace(posting.Title) == "" || strings.TrimSpace(posting.CompanyName) == "" {
		return ReasonMissingFields
	}
	if f.isBlacklisted(posting) {
		return ReasonBlacklisted
	}
	if f.isNotRemote(posting) {
		return ReasonNotRemote
	}
	return ""
}

func (f *Filterer) isBlacklisted(posting adapter.RawPosting) bool {
	slug := posting.CompanySlug
	if slug == "" {
		slug = Slugify(NormalizeCompanyName(posting.CompanyName))
	}
	for _, blocked := range f.policy.Blacklist.Slugs {
		if slug == blocked {
			return true
		}
	}

	name := strings.ToLower(posting.CompanyName)
	for _, pattern := range f.policy.Blacklist.NamePatterns {
		if pattern != "" && strings.Contains(name, strings.ToLower(pattern)) {
			return true
		}
	}
	return false
}

func (f *Filterer) isNotRemote(posting adapter.RawPosting) bool {
	if posting.LocationType == "onsite" {
		return true
	}
	title := strings.ToLower(posting.Title)
	for _, pattern := range f.policy.OnsitePatterns {
		if pattern != "" && strings.Contains(title, strings.ToLower(pattern)) {
			return true
		}
	}
	return false
}
