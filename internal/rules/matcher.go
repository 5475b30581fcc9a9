// Package rules holds learned pattern rules and matches them against text.
package rules

import (
	"sort"
	"strings"
	"unicode/utf8"

	"fjacquet/merchant-resolver/internal/models"
)

// Matcher finds the most specific rule for a piece of text. It is immutable
// once built.
type Matcher struct {
	rules []models.Rule
}

// NewMatcher sorts rules longest pattern first, then by insertion order.
func NewMatcher(rules []models.Rule) *Matcher {
	sorted := make([]models.Rule, 0, len(rules))
	for _, r := range rules {
		r.Pattern = models.NormalizePattern(r.Pattern)
		if r.Pattern == "" {
			continue
		}
		sorted = append(sorted, r)
	}
	sortRules(sorted)
	return &Matcher{rules: sorted}
}

func sortRules(rules []models.Rule) {
	sort.SliceStable(rules, func(i, j int) bool {
		li, lj := utf8.RuneCountInString(rules[i].Pattern), utf8.RuneCountInString(rules[j].Pattern)
		if li != lj {
			return li > lj
		}
		if rules[i].Seq != rules[j].Seq {
			return rules[i].Seq < rules[j].Seq
		}
		return rules[i].Pattern < rules[j].Pattern
	})
}

// Match returns the rule with the longest pattern contained in text.
func (m *Matcher) Match(text string) (models.Rule, bool) {
	return m.first(text, func(models.Rule) bool { return true })
}

// MatchCategory is Match restricted to rules of the given category that
// carry a subcategory.
func (m *Matcher) MatchCategory(text, category string) (models.Rule, bool) {
	return m.first(text, func(r models.Rule) bool {
		return strings.EqualFold(r.Category, category) && r.Subcategory != ""
	})
}

func (m *Matcher) first(text string, keep func(models.Rule) bool) (models.Rule, bool) {
	lower := strings.ToLower(text)
	if strings.TrimSpace(lower) == "" {
		return models.Rule{}, false
	}
	for _, r := range m.rules {
		if keep(r) && strings.Contains(lower, r.Pattern) {
			return r, true
		}
	}
	return models.Rule{}, false
}

// Rules returns a copy of the rules in match order.
func (m *Matcher) Rules() []models.Rule {
	out := make([]models.Rule, len(m.rules))
	copy(out, m.rules)
	return out
}

// Len is the number of rules.
func (m *Matcher) Len() int { return len(m.rules) }
