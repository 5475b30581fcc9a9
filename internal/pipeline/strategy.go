package pipeline

import (
	"context"

	"fjacquet/merchant-resolver/internal/canonical"
	"fjacquet/merchant-resolver/internal/detector"
	"fjacquet/merchant-resolver/internal/models"
	"fjacquet/merchant-resolver/internal/rules"
)

// Line is the text of one import row as the strategies see it.
type Line struct {
	Original string
	Cleaned  string
}

// Candidate is a merchant proposed by a strategy.
type Candidate struct {
	Merchant string
	Source   models.Source
	Rule     *models.Rule
}

// MerchantStrategy resolves a merchant from local knowledge. Strategies run
// in order ahead of the external resolver and the first hit wins.
type MerchantStrategy interface {
	// Resolve returns the candidate and whether this strategy found one.
	Resolve(ctx context.Context, line Line) (Candidate, bool, error)

	// Name returns the name of this strategy for logging and debugging purposes.
	Name() string
}

// DetectorStrategy accepts peer-to-peer and transfer lines with a named
// counterparty. A bare provider is not a merchant.
type DetectorStrategy struct {
	detector *detector.Detector
}

// NewDetectorStrategy wraps det.
func NewDetectorStrategy(det *detector.Detector) *DetectorStrategy {
	return &DetectorStrategy{detector: det}
}

func (s *DetectorStrategy) Name() string { return "Detector" }

func (s *DetectorStrategy) Resolve(_ context.Context, line Line) (Candidate, bool, error) {
	phrase, ok := s.detector.Prefill(line.Original)
	if !ok {
		return Candidate{}, false, nil
	}
	return Candidate{Merchant: phrase, Source: models.SourceDeterministic}, true, nil
}

// RuleStrategy reuses the canonical merchant of a learned rule whose
// pattern occurs in the cleaned text.
type RuleStrategy struct {
	book *rules.Book
}

// NewRuleStrategy wraps book.
func NewRuleStrategy(book *rules.Book) *RuleStrategy {
	return &RuleStrategy{book: book}
}

func (s *RuleStrategy) Name() string { return "RuleStore" }

func (s *RuleStrategy) Resolve(_ context.Context, line Line) (Candidate, bool, error) {
	r, ok := s.book.Match(line.Cleaned + " " + line.Original)
	if !ok || canonical.IsUnresolved(r.MerchantCanonical) {
		return Candidate{}, false, nil
	}
	return Candidate{Merchant: r.MerchantCanonical, Source: models.SourceRuleStore, Rule: &r}, true, nil
}

// BrandStrategy looks the raw text up in the known-brand table.
type BrandStrategy struct{}

func (BrandStrategy) Name() string { return "KnownBrand" }

func (BrandStrategy) Resolve(_ context.Context, line Line) (Candidate, bool, error) {
	brand, ok := canonical.KnownBrand(line.Original)
	if !ok {
		return Candidate{}, false, nil
	}
	return Candidate{Merchant: brand, Source: models.SourceDeterministic}, true, nil
}
