package importer

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// legalSuffixes are stripped from company names before matching so
// "Acme Inc." and "Acme" resolve to the same employer.
var legalSuffixes = []string{
	"inc", "inc.", "llc", "l.l.c", "ltd", "ltd.", "limited", "gmbh",
	"co", "co.", "corp", "corp.", "corporation", "sa", "s.a", "bv",
	"b.v", "ag", "plc", "oy", "ab", "pty",
}

var asciiFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeTitle case-folds and collapses whitespace for dedup matching.
func NormalizeTitle(title string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(title))), " ")
}

// NormalizeCompanyName case-folds, trims and strips trailing legal suffixes.
func NormalizeCompanyName(name string) string {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(name)))
	for len(fields) > 1 {
		last := strings.Trim(fields[len(fields)-1], ",")
		if !isLegalSuffix(last) {
			break
		}
		fields = fields[:len(fields)-1]
	}
	return strings.Join(fields, " ")
}

func isLegalSuffix(word string) bool {
	for _, s := range legalSuffixes {
		if word == s {
			return true
		}
	}
	return false
}

// Slugify derives a URL-safe slug: diacritics folded to ASCII, anything
// non-alphanumeric collapsed to single hyphens.
func Slugify(s string) string {
	folded, _, err := transform.String(asciiFolder, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(folded) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
