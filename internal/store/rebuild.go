package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"fjacquet/merchant-resolver/internal/models"

	"github.com/google/uuid"
)

// FingerprintFunc computes the new fingerprint of a stored row. An empty
// result clears the row's fingerprint.
type FingerprintFunc func(models.TransactionRecord) string

type rebuildRow struct {
	record  models.TransactionRecord
	current string
	next    string
}

// EnsureFingerprintIndex creates the partial unique fingerprint index when
// it is missing and reports whether it is present afterwards. Creation fails
// while duplicate fingerprints exist; run RebuildFingerprints first.
func (db *DB) EnsureFingerprintIndex(ctx context.Context) (bool, error) {
	if _, err := db.ExecContext(ctx, `
		CREATE UNIQUE INDEX IF NOT EXISTS `+fingerprintIndex+`
		ON transactions(unique_fingerprint) WHERE unique_fingerprint IS NOT NULL
	`); err != nil {
		return false, fmt.Errorf("create fingerprint index: %w", err)
	}
	return db.FingerprintIndexPresent(ctx)
}

// FingerprintIndexPresent reports whether the partial unique index exists.
func (db *DB) FingerprintIndexPresent(ctx context.Context) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name = ?`, fingerprintIndex).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("query fingerprint index: %w", err)
	}
	return n > 0, nil
}

// RebuildFingerprints recomputes every fingerprint and collapses rows that
// now share one. In each group the winner is the lowest id already holding
// the new value, or else the lowest id; the others are deleted. Everything
// happens in one transaction: losers are deleted, changed winners get a
// per-row placeholder, then their final value. With dryRun nothing is
// written.
func (db *DB) RebuildFingerprints(ctx context.Context, compute FingerprintFunc, dryRun bool) (models.RebuildStats, error) {
	stats := models.RebuildStats{RunID: uuid.NewString(), DryRun: dryRun}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return stats, fmt.Errorf("begin rebuild: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	rows, err := loadRebuildRows(ctx, tx, compute)
	if err != nil {
		return stats, err
	}
	stats.RowsScanned = len(rows)

	winners, losers := planRebuild(rows)
	for _, w := range winners {
		if w.next != "" {
			stats.Groups++
		}
	}
	stats.RowsToDelete = len(losers)

	if dryRun {
		present, err := db.indexPresentTx(ctx, tx)
		if err != nil {
			return stats, err
		}
		stats.IndexPresent = present
		return stats, nil
	}

	for _, id := range losers {
		if _, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id); err != nil {
			return stats, fmt.Errorf("%w: delete duplicate %d: %v", ErrRebuildAborted, id, err)
		}
	}
	var changed []*rebuildRow
	for _, w := range winners {
		if w.current != w.next {
			changed = append(changed, w)
		}
	}
	for _, w := range changed {
		if _, err := tx.ExecContext(ctx, `UPDATE transactions SET unique_fingerprint = ? WHERE id = ?`,
			stagePlaceholder(w.record.ID), w.record.ID); err != nil {
			return stats, fmt.Errorf("%w: stage %d: %v", ErrRebuildAborted, w.record.ID, err)
		}
	}
	for _, w := range changed {
		var value any
		if w.next != "" {
			value = w.next
		}
		if _, err := tx.ExecContext(ctx, `UPDATE transactions SET unique_fingerprint = ? WHERE id = ?`,
			value, w.record.ID); err != nil {
			return stats, fmt.Errorf("%w: update %d: %v", ErrRebuildAborted, w.record.ID, err)
		}
	}

	present, err := db.indexPresentTx(ctx, tx)
	if err != nil {
		return stats, err
	}
	if err := tx.Commit(); err != nil {
		return stats, fmt.Errorf("%w: commit: %v", ErrRebuildAborted, err)
	}

	stats.RowsDeleted = len(losers)
	stats.RowsUpdated = len(changed)
	stats.IndexPresent = present
	return stats, nil
}

func loadRebuildRows(ctx context.Context, tx *sql.Tx, compute FingerprintFunc) ([]*rebuildRow, error) {
	rows, err := tx.QueryContext(ctx, selectTransactions+` ORDER BY t.id`)
	if err != nil {
		return nil, fmt.Errorf("query transactions for rebuild: %w", err)
	}
	defer rows.Close()

	var out []*rebuildRow
	for rows.Next() {
		r, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, &rebuildRow{record: *r, current: models.Deref(r.Fingerprint)})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, r := range out {
		r.next = compute(r.record)
	}
	return out, nil
}

// planRebuild groups rows by new fingerprint and picks one winner per group.
// Rows whose new fingerprint is empty are never grouped.
func planRebuild(rows []*rebuildRow) (winners []*rebuildRow, losers []int64) {
	groups := make(map[string][]*rebuildRow)
	var keys []string
	for _, r := range rows {
		if r.next == "" {
			winners = append(winners, r)
			continue
		}
		if _, seen := groups[r.next]; !seen {
			keys = append(keys, r.next)
		}
		groups[r.next] = append(groups[r.next], r)
	}

	for _, k := range keys {
		members := groups[k]
		sort.Slice(members, func(i, j int) bool { return members[i].record.ID < members[j].record.ID })
		winner := members[0]
		for _, m := range members {
			if m.current == m.next {
				winner = m
				break
			}
		}
		winners = append(winners, winner)
		for _, m := range members {
			if m != winner {
				losers = append(losers, m.record.ID)
			}
		}
	}
	return winners, losers
}

func stagePlaceholder(id int64) string {
	return fmt.Sprintf("__stage__%d__", id)
}

func (db *DB) indexPresentTx(ctx context.Context, tx *sql.Tx) (bool, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name = ?`, fingerprintIndex).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("query fingerprint index: %w", err)
	}
	return n > 0, nil
}
