package adapter

import (
	"regexp"
	"strconv"
	"strings"
)

// ExtractedPosting holds the structured fields pulled out of a free-text
// social post. Every field is optional.
type ExtractedPosting struct {
	Title          string
	CompanyName    string
	Location       string
	LocationType   string
	Level          string
	ApplyEmail     string
	ApplyURL       string
	SalaryMin      int
	SalaryMax      int
	SalaryCurrency string
	SalaryPeriod   string
}

var (
	emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	urlRe   = regexp.MustCompile(`https?://[^\s<>"')\]]+`)

	// "Acme is hiring a Senior Backend Engineer", "hiring: Backend Engineer"
	hiringRe    = regexp.MustCompile(`(?i)^(.{2,60}?)\s+is\s+hiring\s+(?:an?\s+)?(.{3,80}?)(?:[.!\n]|$)`)
	hiringAltRe = regexp.MustCompile(`(?i)\bhiring[:\s]+(?:an?\s+)?([A-Z][^.!\n]{3,80}?)(?:\s+at\s+(.{2,60}?))?(?:[.!\n]|$)`)
	atRe        = regexp.MustCompile(`(?i)\b(?:at|@)\s+([A-Z][\w&.\- ]{1,48})`)

	// "$120k-$150k", "$120,000 - $150,000", "€60k", "100k-130k USD"
	salaryRangeRe  = regexp.MustCompile(`(?i)([$€£])?\s?(\d{2,3}(?:[,.]\d{3})*|\d{2,3})\s?(k)?\s?[-–—to]{1,4}\s?([$€£])?\s?(\d{2,3}(?:[,.]\d{3})*|\d{2,3})\s?(k)?`)
	salarySingleRe = regexp.MustCompile(`(?i)([$€£])\s?(\d{2,3}(?:[,.]\d{3})*|\d{2,3})\s?(k)?`)

	locationRe = regexp.MustCompile(`(?i)\b(?:based in|located in|location[:\s]+)\s*([A-Z][\w,\- ]{1,40})`)
)

var levelKeywords = []struct {
	keyword string
	level   string
}{
	{"intern", "intern"},
	{"junior", "junior"},
	{"entry level", "junior"},
	{"entry-level", "junior"},
	{"principal", "principal"},
	{"staff", "principal"},
	{"senior", "senior"},
	{"sr.", "senior"},
	{"lead", "lead"},
	{"head of", "director"},
	{"director", "director"},
	{"vp ", "director"},
	{"manager", "manager"},
}

// ExtractPosting pulls structured fields out of a free-text post, leaving
// fields empty when nothing plausible is found.
func ExtractPosting(text string) ExtractedPosting {
	var out ExtractedPosting

	lower := strings.ToLower(text)

	if m := hiringRe.FindStringSubmatch(text); m != nil {
		out.CompanyName = cleanFragment(m[1])
		out.Title = cleanFragment(m[2])
	} else if m := hiringAltRe.FindStringSubmatch(text); m != nil {
		out.Title = cleanFragment(m[1])
		if m[2] != "" {
			out.CompanyName = cleanFragment(m[2])
		}
	}

	if out.CompanyName == "" {
		if m := atRe.FindStringSubmatch(text); m != nil {
			out.CompanyName = cleanFragment(m[1])
		}
	}

	if m := emailRe.FindString(text); m != "" {
		out.ApplyEmail = strings.ToLower(m)
	}
	if m := urlRe.FindString(text); m != "" {
		out.ApplyURL = strings.TrimRight(m, ".,;")
	}

	if m := locationRe.FindStringSubmatch(text); m != nil {
		out.Location = cleanFragment(m[1])
	}
	switch {
	case strings.Contains(lower, "fully remote"), strings.Contains(lower, "100% remote"),
		strings.Contains(lower, "remote-first"), strings.Contains(lower, "remote "):
		out.LocationType = "remote"
	case strings.Contains(lower, "hybrid"):
		out.LocationType = "hybrid"
	case strings.Contains(lower, "on-site"), strings.Contains(lower, "onsite"), strings.Contains(lower, "in office"):
		out.LocationType = "onsite"
	}

	for _, lk := range levelKeywords {
		if strings.Contains(lower, lk.keyword) {
			out.Level = lk.level
			break
		}
	}

	extractSalary(text, &out)

	return out
}

func extractSalary(text string, out *ExtractedPosting) {
	if m := salaryRangeRe.FindStringSubmatch(text); m != nil {
		// A bare numeric range ("10-15 years", "10-20 hours") is not
		// compensation; at least one side must carry a currency symbol
		// or a k suffix.
		marked := m[1] != "" || m[3] != "" || m[4] != "" || m[6] != ""
		min := parseAmount(m[2], m[3] != "")
		max := parseAmount(m[5], m[6] != "")
		if marked && min > 0 && max >= min {
			out.SalaryMin = min
			out.SalaryMax = max
			out.SalaryCurrency = currencyFromSymbol(m[1] + m[4])
			out.SalaryPeriod = "year"
			return
		}
	}
	if m := salarySingleRe.FindStringSubmatch(text); m != nil {
		amount := parseAmount(m[2], m[3] != "")
		// A lone small figure is more likely an hourly rate or noise.
		if amount >= 10000 {
			out.SalaryMin = amount
			out.SalaryMax = amount
			out.SalaryCurrency = currencyFromSymbol(m[1])
			out.SalaryPeriod = "year"
		}
	}
}

func parseAmount(raw string, thousands bool) int {
	raw = strings.NewReplacer(",", "", ".", "").Replace(raw)
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	if thousands {
		n *= 1000
	}
	return n
}

func currencyFromSymbol(symbol string) string {
	switch {
	case strings.Contains(symbol, "€"):
		return "EUR"
	case strings.Contains(symbol, "£"):
		return "GBP"
	default:
		return "USD"
	}
}

func cleanFragment(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	s = strings.Trim(s, " .,;:!-–")
	return s
}
