package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ImportRow is one transaction handed to the pipeline by an import source.
// Date and Amount are already coerced.
type ImportRow struct {
	TransactionID        string
	Date                 time.Time
	Description          string
	CleanedDescription   string
	Merchant             string
	Amount               decimal.Decimal
	SuggestedCategory    string
	SuggestedSubcategory string
}

// ImportSummary is what a batch import reports to its caller.
type ImportSummary struct {
	BatchID    string `json:"batch_id"`
	Added      int    `json:"added"`
	Skipped    int    `json:"skipped"`
	Unresolved int    `json:"unresolved"`
}

// Correction is a user-confirmed fix to a stored transaction.
type Correction struct {
	TransactionID string
	Category      string
	Subcategory   string
	Merchant      string
}

// RebuildStats describes a fingerprint rebuild run.
type RebuildStats struct {
	RunID        string `json:"run_id"`
	DryRun       bool   `json:"dry_run"`
	RowsScanned  int    `json:"rows_scanned"`
	Groups       int    `json:"groups"`
	RowsToDelete int    `json:"rows_to_delete"`
	RowsDeleted  int    `json:"rows_deleted"`
	RowsUpdated  int    `json:"rows_updated"`
	IndexPresent bool   `json:"index_present"`
}

// FormatAmount renders an amount with exactly two decimals.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
