package pipeline

import (
	"context"
	"strings"

	"fjacquet/merchant-resolver/internal/canonical"
	"fjacquet/merchant-resolver/internal/logging"
	"fjacquet/merchant-resolver/internal/models"
	"fjacquet/merchant-resolver/internal/parsererror"
	"fjacquet/merchant-resolver/internal/rules"
)

// Corrector applies user-confirmed fixes and learns from them.
type Corrector struct {
	store  Store
	book   *rules.Book
	logger logging.Logger
}

// NewCorrector creates a Corrector.
func NewCorrector(st Store, book *rules.Book, logger logging.Logger) *Corrector {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &Corrector{store: st, book: book, logger: logger}
}

// Apply writes each correction to the final fields of its row. A
// correction naming both merchant and category also becomes a rule. A
// missing subcategory is taken from the longest rule of the same category
// matching the merchant. Corrections for unknown transactions, or with
// nothing to write, are skipped.
func (c *Corrector) Apply(ctx context.Context, corrections []models.Correction) (updated, skipped int, err error) {
	for _, corr := range corrections {
		txid := strings.TrimSpace(corr.TransactionID)
		if txid == "" {
			skipped++
			continue
		}
		merchant := canonical.Clean(corr.Merchant)
		if canonical.IsUnresolved(merchant) {
			merchant = ""
		}
		category := strings.TrimSpace(corr.Category)
		subcategory := strings.TrimSpace(corr.Subcategory)
		if merchant == "" && category == "" && subcategory == "" {
			skipped++
			continue
		}

		if merchant != "" && category != "" {
			if err := c.book.Learn(ctx, merchant, category, subcategory); err != nil {
				return updated, skipped, &parsererror.StoreError{Operation: "learn rule", Err: err}
			}
		}
		if subcategory == "" && category != "" {
			text := merchant
			if text == "" {
				if rec, err := c.store.GetTransaction(ctx, txid); err == nil {
					text = rec.MatchText()
				}
			}
			subcategory = c.book.SuggestSubcategory(text, category)
		}

		ok, err := c.store.ApplyCorrection(ctx, txid,
			models.StringPtr(category),
			models.StringPtr(subcategory),
			canonical.ForStorage(merchant))
		if err != nil {
			return updated, skipped, &parsererror.StoreError{Operation: "apply correction", Err: err}
		}
		if !ok {
			c.logger.Debug("Correction matched no transaction", logging.F(logging.FieldTransactionID, txid))
			skipped++
			continue
		}
		updated++
	}

	c.logger.Info("Applied corrections",
		logging.F("updated", updated),
		logging.F("skipped", skipped))
	return updated, skipped, nil
}
