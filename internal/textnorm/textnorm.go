// Package textnorm scrubs noisy bank description text. Every function is
// pure: the same input always yields the same output and nothing is shared
// between calls.
package textnorm

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	referenceRe  = regexp.MustCompile(`(?i)\b(?:ref(?:erence)?|conf(?:irmation)?|trace|txn)\b\s*[:#]?\s*#?\s*[\w-]+`)
	maskedRe     = regexp.MustCompile(`(?i)(?:\bx{2,}|\*{2,}|#{2,})\d{2,}\b`)
	dateTailRe   = regexp.MustCompile(`(?i)\bon\s+\d{1,2}[/-]\d{1,2}(?:[/-]\d{2,4})?\b.*$`)
	accountTail  = regexp.MustCompile(`(?i)(?:\b(?:account|acct|ending|number)\b|\bno\.(?:\s|$)).*$`)
	recurringRe  = regexp.MustCompile(`(?i)\brecurr?ing\b`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// edgePunct is trimmed from both ends of normalized output.
const edgePunct = " -:.,#\t"

// Normalize applies, in order: reference token removal, masked account
// removal, trailing "on MM/DD/YYYY" clause removal, account phrase removal,
// whitespace collapsing and edge punctuation trimming. Empty in, empty out.
func Normalize(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	s = referenceRe.ReplaceAllString(s, " ")
	s = maskedRe.ReplaceAllString(s, " ")
	s = dateTailRe.ReplaceAllString(s, "")
	s = accountTail.ReplaceAllString(s, "")
	s = recurringRe.ReplaceAllString(s, " ")
	return Trim(CollapseSpaces(s))
}

// CollapseSpaces replaces every whitespace run with a single space and trims
// the ends.
func CollapseSpaces(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// Trim strips stray punctuation and whitespace from both ends.
func Trim(s string) string {
	return strings.Trim(s, edgePunct)
}

// TitleCase renders a person or account name as "Jane Doe". Input case is
// ignored.
func TitleCase(s string) string {
	s = CollapseSpaces(s)
	if s == "" {
		return ""
	}
	return cases.Title(language.English).String(strings.ToLower(s))
}

// IsHandleOrEmail reports whether s is an @handle or an email address,
// which keep their original casing.
func IsHandleOrEmail(s string) bool {
	return strings.Contains(s, "@")
}

// Dequote trims whitespace and surrounding quote characters.
func Dequote(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"'`+"`")
}
