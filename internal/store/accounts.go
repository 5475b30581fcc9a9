package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// GetOrCreateAccount returns the id of the named account, creating it on
// first use.
func (db *DB) GetOrCreateAccount(ctx context.Context, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("account name is required")
	}
	if _, err := db.ExecContext(ctx, `INSERT OR IGNORE INTO accounts (name) VALUES (?)`, name); err != nil {
		return 0, fmt.Errorf("insert account: %w", err)
	}
	var id int64
	err := db.QueryRowContext(ctx, `SELECT id FROM accounts WHERE name = ?`, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("query account: %w", err)
	}
	return id, nil
}

// GetAccountID looks up an existing account by name.
func (db *DB) GetAccountID(ctx context.Context, name string) (int64, error) {
	var id int64
	err := db.QueryRowContext(ctx, `SELECT id FROM accounts WHERE name = ?`, strings.TrimSpace(name)).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("query account: %w", err)
	}
	return id, nil
}
