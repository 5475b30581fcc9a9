package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"fjacquet/merchant-resolver/internal/models"

	"github.com/shopspring/decimal"
)

const selectTransactions = `
	SELECT t.id, t.transaction_id, t.transaction_date, t.account_id, COALESCE(a.name, ''),
		   t.amount, t.original_description, t.cleaned_description, t.merchant,
		   t.category, t.subcategory, t.ai_category, t.ai_subcategory, t.unique_fingerprint
	FROM transactions t
	LEFT JOIN accounts a ON a.id = t.account_id`

// TransactionFilter narrows ListTransactions. Zero values mean "any".
type TransactionFilter struct {
	AccountID int64
	// Uncategorized keeps only rows without a final category.
	Uncategorized bool
	Limit         int
}

// NextTransactionID returns one more than the largest purely numeric
// transaction id in the table.
func (db *DB) NextTransactionID(ctx context.Context) (int64, error) {
	var next int64
	err := db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(CAST(transaction_id AS INTEGER)), 0) + 1
		FROM transactions
		WHERE transaction_id GLOB '[0-9]*' AND transaction_id NOT GLOB '*[^0-9]*'
	`).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("query next transaction id: %w", err)
	}
	return next, nil
}

// InsertTransaction inserts r unless its transaction id or fingerprint
// already exists. It reports whether a row was written and sets r.ID when
// it was.
func (db *DB) InsertTransaction(ctx context.Context, r *models.TransactionRecord) (bool, error) {
	result, err := db.ExecContext(ctx, `
		INSERT OR IGNORE INTO transactions (
			transaction_id, transaction_date, account_id, original_description,
			cleaned_description, merchant, amount, ai_category, ai_subcategory,
			category, subcategory, unique_fingerprint
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.TransactionID, r.ISODate(), r.AccountID, r.OriginalDescription,
		r.CleanedDescription, r.Merchant, models.FormatAmount(r.Amount), r.SuggestedCategory, r.SuggestedSubcategory,
		r.Category, r.Subcategory, r.Fingerprint)
	if err != nil {
		return false, fmt.Errorf("insert transaction: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert transaction: %w", err)
	}
	if n == 0 {
		return false, nil
	}
	if id, err := result.LastInsertId(); err == nil {
		r.ID = id
	}
	return true, nil
}

// GetTransaction returns the row with the given external id
func (db *DB) GetTransaction(ctx context.Context, transactionID string) (*models.TransactionRecord, error) {
	row := db.QueryRowContext(ctx, selectTransactions+` WHERE t.transaction_id = ?`, transactionID)
	r, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query transaction: %w", err)
	}
	return r, nil
}

// ListTransactions returns rows ordered by date then id
func (db *DB) ListTransactions(ctx context.Context, f TransactionFilter) ([]models.TransactionRecord, error) {
	var (
		where []string
		args  []any
	)
	if f.AccountID != 0 {
		where = append(where, "t.account_id = ?")
		args = append(args, f.AccountID)
	}
	if f.Uncategorized {
		where = append(where, "(t.category IS NULL OR t.category = '')")
	}
	query := selectTransactions
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY t.transaction_date, t.id"
	if f.Limit > 0 {
		query += " LIMIT " + strconv.Itoa(f.Limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []models.TransactionRecord
	for rows.Next() {
		r, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// FillSuggested writes suggested category fields and the merchant only where
// they are currently empty.
func (db *DB) FillSuggested(ctx context.Context, id int64, category, subcategory, merchant *string) (bool, error) {
	result, err := db.ExecContext(ctx, `
		UPDATE transactions SET
			ai_category = COALESCE(NULLIF(ai_category, ''), ?),
			ai_subcategory = COALESCE(NULLIF(ai_subcategory, ''), ?),
			merchant = COALESCE(NULLIF(merchant, ''), ?)
		WHERE id = ?
		  AND ((NULLIF(ai_category, '') IS NULL AND ? IS NOT NULL)
		    OR (NULLIF(ai_subcategory, '') IS NULL AND ? IS NOT NULL)
		    OR (NULLIF(merchant, '') IS NULL AND ? IS NOT NULL))
	`, category, subcategory, merchant, id, category, subcategory, merchant)
	if err != nil {
		return false, fmt.Errorf("fill suggested fields: %w", err)
	}
	return affected(result)
}

// FillFinal sets the final category on a row that has none yet. An existing
// final category is never replaced.
func (db *DB) FillFinal(ctx context.Context, id int64, category, subcategory, merchant *string) (bool, error) {
	if category == nil {
		return false, nil
	}
	result, err := db.ExecContext(ctx, `
		UPDATE transactions SET
			category = ?,
			subcategory = COALESCE(NULLIF(subcategory, ''), ?),
			merchant = COALESCE(NULLIF(merchant, ''), ?)
		WHERE id = ? AND (category IS NULL OR category = '')
	`, category, subcategory, merchant, id)
	if err != nil {
		return false, fmt.Errorf("fill final fields: %w", err)
	}
	return affected(result)
}

// ApplyCorrection overwrites the final fields of a row with user-confirmed
// values. Nil arguments leave the column unchanged.
func (db *DB) ApplyCorrection(ctx context.Context, transactionID string, category, subcategory, merchant *string) (bool, error) {
	result, err := db.ExecContext(ctx, `
		UPDATE transactions SET
			category = COALESCE(?, category),
			subcategory = COALESCE(?, subcategory),
			merchant = COALESCE(?, merchant)
		WHERE transaction_id = ?
	`, category, subcategory, merchant, transactionID)
	if err != nil {
		return false, fmt.Errorf("apply correction: %w", err)
	}
	return affected(result)
}

// CountTransactions returns the number of stored rows.
func (db *DB) CountTransactions(ctx context.Context) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s rowScanner) (*models.TransactionRecord, error) {
	var (
		r                                 models.TransactionRecord
		date, amount                      string
		merchant, category, subcategory   sql.NullString
		aiCategory, aiSubcategory, fprint sql.NullString
	)
	if err := s.Scan(&r.ID, &r.TransactionID, &date, &r.AccountID, &r.AccountName,
		&amount, &r.OriginalDescription, &r.CleanedDescription, &merchant,
		&category, &subcategory, &aiCategory, &aiSubcategory, &fprint); err != nil {
		return nil, err
	}

	d, err := time.Parse(models.DateLayoutISO, date)
	if err != nil {
		return nil, fmt.Errorf("parse transaction date %q: %w", date, err)
	}
	r.Date = d
	if r.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	r.Merchant = nullString(merchant)
	r.Category = nullString(category)
	r.Subcategory = nullString(subcategory)
	r.SuggestedCategory = nullString(aiCategory)
	r.SuggestedSubcategory = nullString(aiSubcategory)
	r.Fingerprint = nullString(fprint)
	return &r, nil
}

func affected(result sql.Result) (bool, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
