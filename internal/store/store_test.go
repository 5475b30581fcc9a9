package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"fjacquet/merchant-resolver/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Init())
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testRecord(accountID int64, txid, desc string, fp *string) *models.TransactionRecord {
	return &models.TransactionRecord{
		TransactionID:       txid,
		Date:                time.Date(2025, 8, 12, 0, 0, 0, 0, time.UTC),
		AccountID:           accountID,
		Amount:              decimal.RequireFromString("-42.1"),
		OriginalDescription: desc,
		CleanedDescription:  desc,
		Fingerprint:         fp,
	}
}

func insert(t *testing.T, db *DB, r *models.TransactionRecord) {
	t.Helper()
	ok, err := db.InsertTransaction(context.Background(), r)
	require.NoError(t, err)
	require.True(t, ok, "insert %s", r.TransactionID)
}

func TestOpen_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "finance.db")
	db, err := Open(path)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Init())
	require.NoError(t, db.Init(), "schema must be re-runnable")
	assert.FileExists(t, path)
}

func TestGetOrCreateAccount(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	id1, err := db.GetOrCreateAccount(ctx, "Checking")
	require.NoError(t, err)
	id2, err := db.GetOrCreateAccount(ctx, " Checking ")
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	_, err = db.GetOrCreateAccount(ctx, "")
	assert.Error(t, err)

	_, err = db.GetAccountID(ctx, "Savings")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNextTransactionID(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	acct, err := db.GetOrCreateAccount(ctx, "Checking")
	require.NoError(t, err)

	next, err := db.NextTransactionID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), next)

	insert(t, db, testRecord(acct, "5", "A", nil))
	insert(t, db, testRecord(acct, "plaid-abc", "B", nil))
	insert(t, db, testRecord(acct, "12x", "C", nil))

	next, err = db.NextTransactionID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(6), next)
}

func TestInsertTransaction_IgnoresConflicts(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	acct, err := db.GetOrCreateAccount(ctx, "Checking")
	require.NoError(t, err)

	first := testRecord(acct, "1", "ZELLE TO JANE DOE", models.StringPtr("fp1"))
	insert(t, db, first)
	assert.NotZero(t, first.ID)

	ok, err := db.InsertTransaction(ctx, testRecord(acct, "1", "OTHER", models.StringPtr("fp2")))
	require.NoError(t, err)
	assert.False(t, ok, "duplicate transaction id")

	ok, err = db.InsertTransaction(ctx, testRecord(acct, "2", "ZELLE TO JANE DOE", models.StringPtr("fp1")))
	require.NoError(t, err)
	assert.False(t, ok, "duplicate fingerprint")

	insert(t, db, testRecord(acct, "3", "NO FP", nil))
	insert(t, db, testRecord(acct, "4", "NO FP", nil))

	n, err := db.CountTransactions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestGetTransaction(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	acct, err := db.GetOrCreateAccount(ctx, "Checking")
	require.NoError(t, err)

	r := testRecord(acct, "7", "WHOLEFDS MKT", models.StringPtr("abc"))
	r.Merchant = models.StringPtr("Whole Foods Market")
	insert(t, db, r)

	got, err := db.GetTransaction(ctx, "7")
	require.NoError(t, err)
	assert.Equal(t, "Checking", got.AccountName)
	assert.Equal(t, "2025-08-12", got.ISODate())
	assert.True(t, decimal.RequireFromString("-42.10").Equal(got.Amount))
	assert.Equal(t, "Whole Foods Market", models.Deref(got.Merchant))
	assert.Nil(t, got.Category)

	_, err = db.GetTransaction(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListTransactions_Filter(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	a, err := db.GetOrCreateAccount(ctx, "A")
	require.NoError(t, err)
	b, err := db.GetOrCreateAccount(ctx, "B")
	require.NoError(t, err)

	insert(t, db, testRecord(a, "1", "ONE", nil))
	done := testRecord(a, "2", "TWO", nil)
	done.Category = models.StringPtr("Food")
	insert(t, db, done)
	insert(t, db, testRecord(b, "3", "THREE", nil))

	all, err := db.ListTransactions(ctx, TransactionFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	onlyA, err := db.ListTransactions(ctx, TransactionFilter{AccountID: a, Uncategorized: true})
	require.NoError(t, err)
	require.Len(t, onlyA, 1)
	assert.Equal(t, "1", onlyA[0].TransactionID)

	limited, err := db.ListTransactions(ctx, TransactionFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestFillSuggested_OnlyFillsEmpty(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	acct, err := db.GetOrCreateAccount(ctx, "Checking")
	require.NoError(t, err)

	r := testRecord(acct, "1", "STARBUCKS", nil)
	r.SuggestedCategory = models.StringPtr("Coffee")
	insert(t, db, r)

	ok, err := db.FillSuggested(ctx, r.ID, models.StringPtr("Food"), models.StringPtr("Cafe"), models.StringPtr("Starbucks"))
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := db.GetTransaction(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "Coffee", models.Deref(got.SuggestedCategory))
	assert.Equal(t, "Cafe", models.Deref(got.SuggestedSubcategory))
	assert.Equal(t, "Starbucks", models.Deref(got.Merchant))

	ok, err = db.FillSuggested(ctx, r.ID, models.StringPtr("Food"), models.StringPtr("Other"), models.StringPtr("Other"))
	require.NoError(t, err)
	assert.False(t, ok, "nothing left to fill")
}

func TestFillFinal_NeverReplacesCategory(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	acct, err := db.GetOrCreateAccount(ctx, "Checking")
	require.NoError(t, err)

	r := testRecord(acct, "1", "SHELL OIL", nil)
	insert(t, db, r)

	ok, err := db.FillFinal(ctx, r.ID, models.StringPtr("Auto"), models.StringPtr("Fuel"), nil)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = db.FillFinal(ctx, r.ID, models.StringPtr("Other"), nil, nil)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = db.FillFinal(ctx, r.ID, nil, nil, nil)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := db.GetTransaction(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "Auto", models.Deref(got.Category))
	assert.Equal(t, "Fuel", models.Deref(got.Subcategory))
}

func TestApplyCorrection(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	acct, err := db.GetOrCreateAccount(ctx, "Checking")
	require.NoError(t, err)

	r := testRecord(acct, "1", "SQ *BLUE BOTTLE", nil)
	r.Category = models.StringPtr("Shopping")
	r.Subcategory = models.StringPtr("Misc")
	insert(t, db, r)

	ok, err := db.ApplyCorrection(ctx, "1", models.StringPtr("Food"), nil, models.StringPtr("Blue Bottle"))
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := db.GetTransaction(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "Food", models.Deref(got.Category))
	assert.Equal(t, "Misc", models.Deref(got.Subcategory))
	assert.Equal(t, "Blue Bottle", models.Deref(got.Merchant))

	ok, err = db.ApplyCorrection(ctx, "missing", models.StringPtr("Food"), nil, nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUpsertRule_NeverBlanksFields(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.UpsertRule(ctx, models.Rule{
		Pattern: "  Blue Bottle ", Category: "Food", Subcategory: "Coffee", MerchantCanonical: "Blue Bottle Coffee",
	}))
	require.NoError(t, db.UpsertRule(ctx, models.Rule{Pattern: "blue bottle", Category: "Dining"}))

	r, err := db.GetRule(ctx, "blue bottle")
	require.NoError(t, err)
	assert.Equal(t, "Dining", r.Category)
	assert.Equal(t, "Coffee", r.Subcategory)
	assert.Equal(t, "Blue Bottle Coffee", r.MerchantCanonical)

	require.NoError(t, db.UpsertRule(ctx, models.Rule{Pattern: "blue bottle", Subcategory: "Cafe"}))
	r, err = db.GetRule(ctx, "blue bottle")
	require.NoError(t, err)
	assert.Equal(t, "Dining", r.Category, "empty category keeps the stored one")
	assert.Equal(t, "Cafe", r.Subcategory)

	require.NoError(t, db.UpsertRule(ctx, models.Rule{Pattern: "new merchant"}))
	r, err = db.GetRule(ctx, "new merchant")
	require.NoError(t, err)
	assert.Equal(t, models.CategoryUncategorized, r.Category)

	assert.Error(t, db.UpsertRule(ctx, models.Rule{Pattern: "  ", Category: "X"}))

	_, err = db.GetRule(ctx, "absent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListRules_Order(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for _, p := range []string{"zelle", "uber", "zelle to jane doe", "lyft"} {
		require.NoError(t, db.UpsertRule(ctx, models.Rule{Pattern: p, Category: "C"}))
	}

	rules, err := db.ListRules(ctx)
	require.NoError(t, err)
	var patterns []string
	for _, r := range rules {
		patterns = append(patterns, r.Pattern)
	}
	assert.Equal(t, []string{"zelle to jane doe", "zelle", "uber", "lyft"}, patterns)
	assert.Less(t, rules[2].Seq, rules[3].Seq)
}

func TestUpsertRule_TruncatesPattern(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	long := "abcdefghij abcdefghij abcdefghij abcdefghij abcdefghij abcdefghij abcdefghij"

	require.NoError(t, db.UpsertRule(ctx, models.Rule{Pattern: long, Category: "C"}))
	rules, err := db.ListRules(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.LessOrEqual(t, len(rules[0].Pattern), models.MaxPatternLength)
}

func TestEnsureFingerprintIndex(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx, `DROP INDEX `+fingerprintIndex)
	require.NoError(t, err)
	present, err := db.FingerprintIndexPresent(ctx)
	require.NoError(t, err)
	assert.False(t, present)

	present, err = db.EnsureFingerprintIndex(ctx)
	require.NoError(t, err)
	assert.True(t, present)
}

// seedRebuild stores rows whose fingerprints swap and collide under the new
// scheme. Description doubles as the key of the new fingerprint.
func seedRebuild(t *testing.T, db *DB) map[string]string {
	t.Helper()
	ctx := context.Background()
	acct, err := db.GetOrCreateAccount(ctx, "Checking")
	require.NoError(t, err)

	insert(t, db, testRecord(acct, "1", "to-b", models.StringPtr("a")))
	insert(t, db, testRecord(acct, "2", "to-a", models.StringPtr("b")))
	insert(t, db, testRecord(acct, "3", "to-k", models.StringPtr("m")))
	insert(t, db, testRecord(acct, "4", "to-k", models.StringPtr("k")))
	insert(t, db, testRecord(acct, "5", "to-b", models.StringPtr("n")))
	insert(t, db, testRecord(acct, "6", "none", nil))

	return map[string]string{"to-b": "b", "to-a": "a", "to-k": "k", "none": ""}
}

func fingerprints(t *testing.T, db *DB) map[string]string {
	t.Helper()
	rows, err := db.ListTransactions(context.Background(), TransactionFilter{})
	require.NoError(t, err)
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.TransactionID] = models.Deref(r.Fingerprint)
	}
	return out
}

func TestRebuildFingerprints(t *testing.T) {
	db := newTestDB(t)
	next := seedRebuild(t, db)
	compute := func(r models.TransactionRecord) string { return next[r.OriginalDescription] }

	stats, err := db.RebuildFingerprints(context.Background(), compute, false)
	require.NoError(t, err)

	assert.NotEmpty(t, stats.RunID)
	assert.Equal(t, 6, stats.RowsScanned)
	assert.Equal(t, 3, stats.Groups)
	assert.Equal(t, 2, stats.RowsToDelete)
	assert.Equal(t, 2, stats.RowsDeleted)
	assert.Equal(t, 2, stats.RowsUpdated)
	assert.True(t, stats.IndexPresent)

	// 1 and 2 swap values, 4 already held k so 3 loses, 5 loses to 1.
	assert.Equal(t, map[string]string{"1": "b", "2": "a", "4": "k", "6": ""}, fingerprints(t, db))
}

func TestRebuildFingerprints_DryRun(t *testing.T) {
	db := newTestDB(t)
	next := seedRebuild(t, db)
	before := fingerprints(t, db)

	stats, err := db.RebuildFingerprints(context.Background(),
		func(r models.TransactionRecord) string { return next[r.OriginalDescription] }, true)
	require.NoError(t, err)

	assert.True(t, stats.DryRun)
	assert.Equal(t, 2, stats.RowsToDelete)
	assert.Zero(t, stats.RowsDeleted)
	assert.Zero(t, stats.RowsUpdated)
	assert.Equal(t, before, fingerprints(t, db))
}

func TestRebuildFingerprints_RollsBackOnFailure(t *testing.T) {
	db := newTestDB(t)
	next := seedRebuild(t, db)
	before := fingerprints(t, db)

	// Fails the first fingerprint write, after duplicates are already deleted.
	_, err := db.Exec(`CREATE TRIGGER fail_fingerprint_write
		BEFORE UPDATE OF unique_fingerprint ON transactions
		BEGIN SELECT RAISE(ABORT, 'power loss'); END`)
	require.NoError(t, err)

	_, err = db.RebuildFingerprints(context.Background(),
		func(r models.TransactionRecord) string { return next[r.OriginalDescription] }, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRebuildAborted)

	assert.Equal(t, before, fingerprints(t, db), "no partial rebuild may be visible")

	_, err = db.Exec(`DROP TRIGGER fail_fingerprint_write`)
	require.NoError(t, err)
	_, err = db.RebuildFingerprints(context.Background(),
		func(r models.TransactionRecord) string { return next[r.OriginalDescription] }, false)
	require.NoError(t, err)
	assert.Len(t, fingerprints(t, db), 4)
}
