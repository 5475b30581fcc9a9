package common

import (
	"path/filepath"
	"regexp"
	"strings"
)

// AccountIdentifier is an account name derived for an import file.
type AccountIdentifier struct {
	ID     string // e.g. "Chase1234"
	Source string // "flag", "filename" or "default"
}

// Export file names look like Chase1234_Activity_20250812.CSV or
// checking_2025-04-01_2025-04-30.csv; the account is the leading part.
var (
	exportSuffixRe = regexp.MustCompile(`(?i)[_\-. ]+(?:activity|transactions?|statement|export|history)\b.*$`)
	dateSuffixRe   = regexp.MustCompile(`[_\-. ]+\d{4}-?\d{2}-?\d{2}(?:[_\-. ]+.*)?$`)
)

// ResolveAccount returns explicit when it is set, otherwise an account
// derived from the import file name.
func ResolveAccount(explicit, filename string) AccountIdentifier {
	if s := strings.TrimSpace(explicit); s != "" {
		return AccountIdentifier{ID: s, Source: "flag"}
	}
	return ExtractAccountFromFilename(filename)
}

// ExtractAccountFromFilename strips export and date suffixes from the base
// file name.
func ExtractAccountFromFilename(filename string) AccountIdentifier {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	trimmed := dateSuffixRe.ReplaceAllString(exportSuffixRe.ReplaceAllString(base, ""), "")
	if id := SanitizeAccountID(trimmed); id != "UNKNOWN" {
		return AccountIdentifier{ID: id, Source: "filename"}
	}
	return AccountIdentifier{ID: SanitizeAccountID(base), Source: "default"}
}

// SanitizeAccountID keeps letters, digits, '_', '-' and '.', replacing
// everything else with '_'. Path traversal sequences are removed.
func SanitizeAccountID(accountID string) string {
	sanitized := strings.ReplaceAll(strings.TrimSpace(accountID), " ", "_")

	var result strings.Builder
	for _, r := range sanitized {
		if (r >= 'a' && r <= 'z') ||
			(r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') ||
			r == '_' || r == '-' || r == '.' {
			result.WriteRune(r)
		} else {
			result.WriteRune('_')
		}
	}
	sanitized = result.String()

	for strings.Contains(sanitized, "..") {
		sanitized = strings.ReplaceAll(sanitized, "..", "_")
	}
	for strings.Contains(sanitized, "__") {
		sanitized = strings.ReplaceAll(sanitized, "__", "_")
	}
	sanitized = strings.Trim(sanitized, "_.")

	if sanitized == "" {
		sanitized = "UNKNOWN"
	}
	return sanitized
}
