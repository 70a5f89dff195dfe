package importer

import (
	"testing"

	"github.com/jobsift/jobsift/app/adapter"
	"github.com/jobsift/jobsift/app/policy"
)

func TestFilterer_Check_PassesRemoteRole(t *testing.T) {
	filterer := NewFilterer(policy.Defaults())

	reason := filterer.Check(adapter.RawPosting{
		Title:       "Senior Backend Engineer",
		CompanyName: "Acme",
	})
	if reason != "" {
		t.Errorf("Expected posting to pass, got reason %q", reason)
	}
}

func TestFilterer_Check_ParseErrorWinsFirst(t *testing.T) {
	filterer := NewFilterer(policy.Defaults())

	reason := filterer.Check(adapter.RawPosting{
		ParseError: "post has no text content",
	})
	if reason != ReasonParseError {
		t.Errorf("Expected PARSE_ERROR, got %q", reason)
	}
}

func TestFilterer_Check_MissingFields(t *testing.T) {
	filterer := NewFilterer(policy.Defaults())

	tests := []struct {
		name    string
		posting adapter.RawPosting
	}{
		{"no title", adapter.RawPosting{CompanyName: "Acme"}},
		{"no company", adapter.RawPosting{Title: "Engineer"}},
		{"whitespace title", adapter.RawPosting{Title: "   ", CompanyName: "Acme"}},
	}

	for _, tt := range tests {
		if reason := filterer.Check(tt.posting); reason != ReasonMissingFields {
			t.Errorf("%s: expected MISSING_FIELDS, got %q", tt.name, reason)
		}
	}
}

func TestFilterer_Check_Blacklist(t *testing.T) {
	p := policy.Defaults()
	p.Blacklist.Slugs = []string{"spammy-staffing"}
	p.Blacklist.NamePatterns = []string{"bodyshop"}
	filterer := NewFilterer(p)

	bySlug := filterer.Check(adapter.RawPosting{
		Title:       "Engineer",
		CompanyName: "Spammy Staffing LLC",
		CompanySlug: "spammy-staffing",
	})
	if bySlug != ReasonBlacklisted {
		t.Errorf("Expected slug blacklist hit, got %q", bySlug)
	}

	byName := filterer.Check(adapter.RawPosting{
		Title:       "Engineer",
		CompanyName: "Global Bodyshop Partners",
	})
	if byName != ReasonBlacklisted {
		t.Errorf("Expected name-pattern blacklist hit, got %q", byName)
	}

	// Without a slug set, the normalized company name is slugified and
	// matched against the slug blacklist.
	derived := filterer.Check(adapter.RawPosting{
		Title:       "Engineer",
		CompanyName: "Spammy Staffing LLC",
	})
	if derived != ReasonBlacklisted {
		t.Errorf("Expected derived-slug blacklist hit, got %q", derived)
	}
}

func TestFilterer_Check_NotRemote(t *testing.T) {
	filterer := NewFilterer(policy.Defaults())

	byLocationType := filterer.Check(adapter.RawPosting{
		Title:        "Software Engineer",
		CompanyName:  "Acme",
		LocationType: "onsite",
	})
	if byLocationType != ReasonNotRemote {
		t.Errorf("Expected onsite location type to be rejected, got %q", byLocationType)
	}

	byTitle := filterer.Check(adapter.RawPosting{
		Title:       "Warehouse Associate",
		CompanyName: "Acme Logistics",
	})
	if byTitle != ReasonNotRemote {
		t.Errorf("Expected warehouse title to be rejected, got %q", byTitle)
	}
}
