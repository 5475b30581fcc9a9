package rules

import (
	"context"
	"sync"

	"fjacquet/merchant-resolver/internal/models"
)

// MockRuleStore is an in-memory RuleStore for tests. It applies the same
// merge semantics as the SQLite store.
type MockRuleStore struct {
	mu    sync.Mutex
	rules map[string]models.Rule
	seq   int64

	// Error flags for testing error conditions
	UpsertError error
	ListError   error

	UpsertCalls int
}

// NewMockRuleStore seeds a mock with rules.
func NewMockRuleStore(seed ...models.Rule) *MockRuleStore {
	m := &MockRuleStore{rules: make(map[string]models.Rule)}
	for _, r := range seed {
		_ = m.UpsertRule(context.Background(), r)
	}
	m.UpsertCalls = 0
	return m
}

// UpsertRule stores r, keeping non-empty fields of an existing rule.
func (m *MockRuleStore) UpsertRule(_ context.Context, r models.Rule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpsertCalls++
	if m.UpsertError != nil {
		return m.UpsertError
	}
	if m.rules == nil {
		m.rules = make(map[string]models.Rule)
	}
	r.Pattern = models.NormalizePattern(r.Pattern)
	if old, ok := m.rules[r.Pattern]; ok {
		m.rules[r.Pattern] = merge(old, r)
		return nil
	}
	if r.Category == "" {
		r.Category = models.CategoryUncategorized
	}
	m.seq++
	r.Seq = m.seq
	m.rules[r.Pattern] = r
	return nil
}

// ListRules returns the stored rules in match order.
func (m *MockRuleStore) ListRules(_ context.Context) ([]models.Rule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListError != nil {
		return nil, m.ListError
	}
	out := make([]models.Rule, 0, len(m.rules))
	for _, r := range m.rules {
		out = append(out, r)
	}
	sortRules(out)
	return out, nil
}

// Get returns the stored rule for pattern.
func (m *MockRuleStore) Get(pattern string) (models.Rule, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rules[models.NormalizePattern(pattern)]
	return r, ok
}
