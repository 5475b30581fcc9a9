package rules

import (
	"context"
	"fmt"
	"sync"

	"fjacquet/merchant-resolver/internal/canonical"
	"fjacquet/merchant-resolver/internal/logging"
	"fjacquet/merchant-resolver/internal/models"
)

// RuleStore persists rules.
type RuleStore interface {
	UpsertRule(ctx context.Context, r models.Rule) error
	ListRules(ctx context.Context) ([]models.Rule, error)
}

// Book keeps an in-memory matcher in step with the backing store. Writes go
// to the store first and are then merged locally with the same semantics
// the store applies.
type Book struct {
	store  RuleStore
	logger logging.Logger

	mu      sync.RWMutex
	matcher *Matcher
	byKey   map[string]models.Rule
	nextSeq int64
}

// NewBook creates an empty Book. Call Refresh to load stored rules.
func NewBook(store RuleStore, logger logging.Logger) *Book {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &Book{
		store:   store,
		logger:  logger,
		matcher: NewMatcher(nil),
		byKey:   make(map[string]models.Rule),
		nextSeq: 1,
	}
}

// Refresh reloads every rule from the store.
func (b *Book) Refresh(ctx context.Context) error {
	rules, err := b.store.ListRules(ctx)
	if err != nil {
		return fmt.Errorf("load rules: %w", err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.byKey = make(map[string]models.Rule, len(rules))
	b.nextSeq = 1
	for _, r := range rules {
		b.byKey[r.Pattern] = r
		if r.Seq >= b.nextSeq {
			b.nextSeq = r.Seq + 1
		}
	}
	b.rebuildLocked()
	b.logger.Debug("Loaded category rules", logging.F(logging.FieldCount, len(rules)))
	return nil
}

// Match returns the longest stored pattern contained in text.
func (b *Book) Match(text string) (models.Rule, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.matcher.Match(text)
}

// SuggestSubcategory returns the subcategory of the longest rule with the
// same category whose pattern occurs in text, or "".
func (b *Book) SuggestSubcategory(text, category string) string {
	if category == "" {
		return ""
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if r, ok := b.matcher.MatchCategory(text, category); ok {
		return r.Subcategory
	}
	return ""
}

// Rules returns all rules in match order.
func (b *Book) Rules() []models.Rule {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.matcher.Rules()
}

// Upsert stores r and merges it into the in-memory set. Empty subcategory,
// canonical merchant and category never blank existing values.
func (b *Book) Upsert(ctx context.Context, r models.Rule) error {
	r.Pattern = models.NormalizePattern(r.Pattern)
	if r.Pattern == "" {
		return fmt.Errorf("rule pattern is required")
	}
	if canonical.IsUnresolved(canonical.Clean(r.MerchantCanonical)) {
		r.MerchantCanonical = ""
	}
	if err := b.store.UpsertRule(ctx, r); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	existing, ok := b.byKey[r.Pattern]
	if !ok {
		if r.Category == "" {
			r.Category = models.CategoryUncategorized
		}
		r.Seq = b.nextSeq
		b.nextSeq++
		b.byKey[r.Pattern] = r
	} else {
		b.byKey[r.Pattern] = merge(existing, r)
	}
	b.rebuildLocked()
	b.logger.Debug("Upserted category rule",
		logging.F(logging.FieldPattern, r.Pattern),
		logging.F(logging.FieldCategory, r.Category))
	return nil
}

// Learn records an accepted merchant resolution as a rule keyed by the
// lowercase merchant. An empty category leaves any stored category alone.
func (b *Book) Learn(ctx context.Context, merchant, category, subcategory string) error {
	return b.Upsert(ctx, models.Rule{
		Pattern:           merchant,
		Category:          category,
		Subcategory:       subcategory,
		MerchantCanonical: merchant,
	})
}

func merge(old, in models.Rule) models.Rule {
	if in.Category != "" {
		old.Category = in.Category
	}
	if in.Subcategory != "" {
		old.Subcategory = in.Subcategory
	}
	if in.MerchantCanonical != "" {
		old.MerchantCanonical = in.MerchantCanonical
	}
	return old
}

func (b *Book) rebuildLocked() {
	rules := make([]models.Rule, 0, len(b.byKey))
	for _, r := range b.byKey {
		rules = append(rules, r)
	}
	b.matcher = NewMatcher(rules)
}
