// Package index provides the SQLite-backed bookmark index with optional
// FTS5 full-text search and the per-bookmark tag store.
package index

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/cleanwk/bookdex/internal/apperr"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS bookmarks (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL DEFAULT '',
	url         TEXT NOT NULL DEFAULT '',
	date_added  TEXT NOT NULL DEFAULT '',
	folder_path TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_bookmarks_name   ON bookmarks(name);
CREATE INDEX IF NOT EXISTS idx_bookmarks_url    ON bookmarks(url);
CREATE INDEX IF NOT EXISTS idx_bookmarks_folder ON bookmarks(folder_path);

CREATE TABLE IF NOT EXISTS bookmark_tags (
	bookmark_id TEXT NOT NULL,
	tag         TEXT NOT NULL,
	PRIMARY KEY (bookmark_id, tag)
);

CREATE INDEX IF NOT EXISTS idx_bookmark_tags_tag ON bookmark_tags(tag);
`

const ftsSchemaSQL = `
CREATE VIRTUAL TABLE IF NOT EXISTS bookmarks_fts USING fts5(
	bookmark_id UNINDEXED,
	name,
	url,
	folder_path,
	tokenize = 'unicode61'
);
`

const metaFingerprint = "bookmarks_fingerprint"

// DB wraps a sql.DB with index-specific operations.
type DB struct {
	conn       *sql.DB
	ftsEnabled bool
	ftsErr     error
}

// Open opens (or creates) the SQLite database at path and applies the schema.
// FTS5 availability is probed at open time; when the build of the SQLite
// library lacks it, text search degrades to in-memory scanning and
// TextSearchEnabled reports false.
func Open(path string) (*DB, error) {
	dsn := path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=500&_cache_size=-4000&_txlock=immediate"
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, apperr.Unavailable(fmt.Errorf("index: open db: %w", err))
	}
	// The session pragmas below are per-connection; a single connection keeps
	// them in effect for every statement.
	conn.SetMaxOpenConns(1)
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, apperr.Unavailable(fmt.Errorf("index: ping: %w", err))
	}
	if _, err := conn.Exec(`PRAGMA temp_store = MEMORY; PRAGMA mmap_size = 268435456;`); err != nil {
		conn.Close()
		return nil, apperr.Unavailable(fmt.Errorf("index: session pragmas: %w", err))
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, apperr.Unavailable(fmt.Errorf("index: apply core schema: %w", err))
	}

	db := &DB{conn: conn}
	if _, err := conn.Exec(ftsSchemaSQL); err == nil {
		db.ftsEnabled = true
	} else {
		db.ftsErr = errors.Join(apperr.ErrIndexDegraded, err)
	}
	return db, nil
}

// TextSearchEnabled reports whether the FTS5 virtual table is available.
func (db *DB) TextSearchEnabled() bool {
	return db.ftsEnabled
}

// TextSearchErr returns why text search is degraded, or nil when FTS5 is
// available. Matches apperr.ErrIndexDegraded.
func (db *DB) TextSearchErr() error {
	return db.ftsErr
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
