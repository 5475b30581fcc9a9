package pipeline

import (
	"context"
	"fmt"

	"fjacquet/merchant-resolver/internal/canonical"
	"fjacquet/merchant-resolver/internal/logging"
	"fjacquet/merchant-resolver/internal/models"
	"fjacquet/merchant-resolver/internal/parsererror"
	"fjacquet/merchant-resolver/internal/store"
)

// Rule application targets.
const (
	TargetSuggested = "suggested"
	TargetFinal     = "final"
)

// ApplyRules fills empty category fields of stored rows from the longest
// matching rule. TargetSuggested fills the advisory fields; TargetFinal sets
// the final category of rows that have none. Existing values are never
// replaced. It returns the number of rows changed.
func (im *Importer) ApplyRules(ctx context.Context, target string) (int, error) {
	var fill func(ctx context.Context, id int64, category, subcategory, merchant *string) (bool, error)
	filter := store.TransactionFilter{}
	switch target {
	case TargetSuggested:
		fill = im.store.FillSuggested
	case TargetFinal:
		fill = im.store.FillFinal
		filter.Uncategorized = true
	default:
		return 0, fmt.Errorf("unknown rule target %q: want %q or %q", target, TargetSuggested, TargetFinal)
	}

	records, err := im.store.ListTransactions(ctx, filter)
	if err != nil {
		return 0, &parsererror.StoreError{Operation: "list transactions", Err: err}
	}

	updated := 0
	for _, rec := range records {
		r, ok := im.book.Match(rec.MatchText())
		if !ok || r.Category == models.CategoryUncategorized {
			continue
		}
		changed, err := fill(ctx, rec.ID,
			models.StringPtr(r.Category),
			models.StringPtr(r.Subcategory),
			canonical.ForStorage(r.MerchantCanonical))
		if err != nil {
			return updated, &parsererror.StoreError{Operation: "apply rule", Err: err}
		}
		if changed {
			updated++
		}
	}

	im.logger.Info("Applied rules to stored transactions",
		logging.F("target", target),
		logging.F(logging.FieldCount, updated))
	return updated, nil
}
