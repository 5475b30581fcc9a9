package models

// UnresolvedSentinel is the word the external resolver uses for "no merchant
// could be determined". It is an in-flight value only and is never stored.
const UnresolvedSentinel = "Unknown"

// CategoryUncategorized is the fallback category for learned rules that
// have no category signal yet.
const CategoryUncategorized = "Uncategorized"

// MaxPatternLength bounds the length of a rule pattern.
const MaxPatternLength = 64

// File permissions
const (
	PermissionConfigFile = 0600
	PermissionDirectory  = 0750
	PermissionReportFile = 0644
)
