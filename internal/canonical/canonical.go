// Package canonical turns resolver output and raw descriptions into the
// merchant names that get stored. The "Unknown" sentinel stops here: it is
// never handed to storage as a merchant.
package canonical

import (
	"regexp"
	"strings"

	"fjacquet/merchant-resolver/internal/models"
	"fjacquet/merchant-resolver/internal/textnorm"
)

var (
	punctRe     = regexp.MustCompile(`[^\w\s&'.\-]+`)
	stateCodeRe = regexp.MustCompile(`\b(?:AL|AK|AZ|AR|CA|CO|CT|DE|FL|GA|HI|ID|IL|IN|IA|KS|KY|LA|ME|MD|MA|MI|MN|MS|MO|MT|NE|NV|NH|NJ|NM|NY|NC|ND|OH|OK|OR|PA|RI|SC|SD|TN|TX|UT|VT|VA|WA|WV|WI|WY|DC)\b`)
	numberRe    = regexp.MustCompile(`\b\d{2,}\b`)
)

// maxMerchantWords bounds the heuristic merchant derived from a
// description.
const maxMerchantWords = 5

// Clean trims whitespace and quotes and collapses internal whitespace. Empty
// input and any casing of the sentinel word come back as the sentinel.
func Clean(s string) string {
	s = textnorm.CollapseSpaces(textnorm.Dequote(s))
	if IsUnresolved(s) {
		return models.UnresolvedSentinel
	}
	return s
}

// IsUnresolved reports whether s carries no merchant information.
func IsUnresolved(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || strings.EqualFold(s, models.UnresolvedSentinel)
}

// ForStorage is the persistence boundary: it returns nil for blank input or
// any casing of the sentinel, and a pointer to the cleaned name otherwise.
func ForStorage(s string) *string {
	if IsUnresolved(s) {
		return nil
	}
	cleaned := Clean(s)
	if IsUnresolved(cleaned) {
		return nil
	}
	return &cleaned
}

// FromDescription derives a best-effort merchant from raw text: known
// brands first, then a title-cased head of the scrubbed description.
// It returns "" when nothing usable remains.
func FromDescription(desc string) string {
	if brand, ok := KnownBrand(desc); ok {
		return brand
	}
	s := textnorm.Normalize(desc)
	s = punctRe.ReplaceAllString(s, " ")
	s = numberRe.ReplaceAllString(s, " ")
	s = stateCodeRe.ReplaceAllString(strings.ToUpper(s), " ")
	fields := strings.Fields(s)
	if len(fields) > maxMerchantWords {
		fields = fields[:maxMerchantWords]
	}
	s = textnorm.Trim(strings.Join(fields, " "))
	if len(s) < 2 {
		return ""
	}
	return textnorm.TitleCase(s)
}
