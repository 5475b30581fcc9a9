package models

import "strings"

// Rule is a learned association from a lowercase substring pattern to a
// category and, optionally, a subcategory and canonical merchant.
type Rule struct {
	Pattern           string `json:"pattern" yaml:"pattern"`
	Category          string `json:"category" yaml:"category"`
	Subcategory       string `json:"subcategory,omitempty" yaml:"subcategory,omitempty"`
	MerchantCanonical string `json:"merchant_canonical,omitempty" yaml:"merchant_canonical,omitempty"`
	// Seq is the insertion order, used to break ties between equally long patterns.
	Seq int64 `json:"-" yaml:"-"`
}

// NormalizePattern lowercases, trims and bounds a pattern to MaxPatternLength
// characters.
func NormalizePattern(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	r := []rune(s)
	if len(r) > MaxPatternLength {
		s = strings.TrimSpace(string(r[:MaxPatternLength]))
	}
	return s
}
