// Package inspect explains how raw description lines are interpreted. It
// never writes rules or transactions.
package inspect

import (
	"context"
	"strings"

	"fjacquet/merchant-resolver/internal/canonical"
	"fjacquet/merchant-resolver/internal/detector"
	"fjacquet/merchant-resolver/internal/models"
	"fjacquet/merchant-resolver/internal/textnorm"
)

// Resolver turns lines into merchant names, one per input, using the
// sentinel for lines it cannot resolve.
type Resolver interface {
	Resolve(ctx context.Context, texts []string) []string
}

// RuleMatcher finds the rule that applies to a text.
type RuleMatcher interface {
	Match(text string) (models.Rule, bool)
}

// Report is the interpretation of one line.
type Report struct {
	Input           string           `json:"input"`
	Normalized      string           `json:"normalized"`
	Provider        models.Provider  `json:"provider"`
	Direction       models.Direction `json:"direction"`
	Counterparty    string           `json:"counterparty"`
	CanonicalPhrase string           `json:"canonical_phrase"`
	Prefill         string           `json:"prefill"`
	Resolved        string           `json:"resolved"`
	MatchedRule     string           `json:"matched_rule"`
}

// Inspector combines the detector, resolver and rules into a per-line
// report.
type Inspector struct {
	detector *detector.Detector
	resolver Resolver
	rules    RuleMatcher
}

// NewInspector creates an Inspector. resolver and rules may be nil.
func NewInspector(det *detector.Detector, res Resolver, rules RuleMatcher) *Inspector {
	return &Inspector{detector: det, resolver: res, rules: rules}
}

// Inspect reports on every line, in input order.
func (i *Inspector) Inspect(ctx context.Context, lines []string) []Report {
	reports := make([]Report, len(lines))
	for n, line := range lines {
		r := Report{Input: line, Normalized: textnorm.Normalize(line)}
		if res, ok := i.detector.Detect(line); ok {
			r.Provider = res.Provider
			r.Direction = res.Direction
			r.Counterparty = res.Counterparty
			r.CanonicalPhrase = res.CanonicalPhrase
		}
		r.Prefill, _ = i.detector.Prefill(line)
		reports[n] = r
	}

	resolved := i.resolve(ctx, lines, reports)
	for n := range reports {
		reports[n].Resolved = resolved[n]
		if i.rules == nil {
			continue
		}
		text := strings.ToUpper(reports[n].Normalized)
		if !canonical.IsUnresolved(resolved[n]) {
			text = resolved[n]
		}
		if rule, ok := i.rules.Match(text); ok {
			reports[n].MatchedRule = rule.Pattern
		}
	}
	return reports
}

func (i *Inspector) resolve(ctx context.Context, lines []string, reports []Report) []string {
	if i.resolver != nil && len(lines) > 0 {
		return i.resolver.Resolve(ctx, lines)
	}
	out := make([]string, len(lines))
	for n, r := range reports {
		out[n] = canonical.Clean(r.Prefill)
	}
	return out
}
