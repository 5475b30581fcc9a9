// Package store is the SQLite persistence layer for transactions and
// category rules.
package store

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"fjacquet/merchant-resolver/internal/models"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schema string

// fingerprintIndex is the partial unique index over non-null fingerprints.
const fingerprintIndex = "ux_transactions_fingerprint"

var (
	// ErrNotFound is returned when a looked-up row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrRebuildAborted is returned when a fingerprint rebuild was rolled back.
	ErrRebuildAborted = errors.New("fingerprint rebuild aborted")
)

type DB struct {
	*sql.DB
}

// Open opens or creates the database at the given path. ":memory:" and
// "file::memory:" give a private in-memory database.
func Open(dbPath string) (*DB, error) {
	memory := isMemory(dbPath)
	if !memory {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, models.PermissionDirectory); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	db, err := sql.Open("sqlite3", dbPath+sep+"_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if memory {
		// every pooled connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &DB{DB: db}, nil
}

// Init creates tables and indexes if they don't exist
func (db *DB) Init() error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

func isMemory(path string) bool {
	return path == ":memory:" || strings.HasPrefix(path, "file::memory:") || strings.Contains(path, "mode=memory")
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return models.StringPtr(ns.String)
}
