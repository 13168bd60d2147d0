package index

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/cleanwk/bookdex/internal/apperr"
	"github.com/cleanwk/bookdex/internal/models"
	"github.com/cleanwk/bookdex/internal/search"
)

// NeedsRefresh reports whether the stored source fingerprint differs from
// the given one. A missing fingerprint row means the index was never built.
func (db *DB) NeedsRefresh(fingerprint string) (bool, error) {
	var stored string
	err := db.conn.QueryRow(`SELECT value FROM meta WHERE key = ?`, metaFingerprint).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		return true, nil
	}
	if err != nil {
		return false, apperr.Unavailable(fmt.Errorf("index: read fingerprint: %w", err))
	}
	return stored != fingerprint, nil
}

// ReplaceAll atomically swaps the full bookmark set and records the source
// fingerprint. Tags survive the swap; rows pointing at bookmarks that no
// longer exist are purged in the same transaction. On any failure the
// previous index contents remain intact.
func (db *DB) ReplaceAll(bookmarks []models.Bookmark, fingerprint string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return apperr.Unavailable(fmt.Errorf("index: begin tx: %w", err))
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if _, err := tx.Exec(`DELETE FROM bookmarks`); err != nil {
		return apperr.Unavailable(fmt.Errorf("index: clear bookmarks: %w", err))
	}
	if db.ftsEnabled {
		if _, err := tx.Exec(`DELETE FROM bookmarks_fts`); err != nil {
			return apperr.Unavailable(fmt.Errorf("index: clear fts: %w", err))
		}
	}

	stmt, err := tx.Prepare(`INSERT INTO bookmarks (id, name, url, date_added, folder_path) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return apperr.Unavailable(fmt.Errorf("index: prepare insert: %w", err))
	}
	defer stmt.Close()

	var ftsStmt *sql.Stmt
	if db.ftsEnabled {
		ftsStmt, err = tx.Prepare(`INSERT INTO bookmarks_fts (bookmark_id, name, url, folder_path) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return apperr.Unavailable(fmt.Errorf("index: prepare fts insert: %w", err))
		}
		defer ftsStmt.Close()
	}

	for _, b := range bookmarks {
		if _, err := stmt.Exec(b.ID, b.Name, b.URL, b.DateAdded, b.FolderPath); err != nil {
			return fmt.Errorf("index: insert bookmark %q: %w", b.ID, err)
		}
		if ftsStmt != nil {
			if _, err := ftsStmt.Exec(b.ID, b.Name, b.URL, b.FolderPath); err != nil {
				return fmt.Errorf("index: insert fts row %q: %w", b.ID, err)
			}
		}
	}

	// Tags for bookmarks that vanished from the source are orphans now.
	if _, err := tx.Exec(`DELETE FROM bookmark_tags WHERE bookmark_id NOT IN (SELECT id FROM bookmarks)`); err != nil {
		return apperr.Unavailable(fmt.Errorf("index: prune orphan tags: %w", err))
	}

	if _, err := tx.Exec(`INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, metaFingerprint, fingerprint); err != nil {
		return apperr.Unavailable(fmt.Errorf("index: store fingerprint: %w", err))
	}

	return tx.Commit()
}

// Clear drops every bookmark and the stored fingerprint, forcing the next
// refresh to rebuild. Tags are kept so they reattach when the same
// bookmarks come back.
func (db *DB) Clear() error {
	tx, err := db.conn.Begin()
	if err != nil {
		return apperr.Unavailable(fmt.Errorf("index: begin tx: %w", err))
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`DELETE FROM bookmarks`); err != nil {
		return apperr.Unavailable(fmt.Errorf("index: clear bookmarks: %w", err))
	}
	if db.ftsEnabled {
		if _, err := tx.Exec(`DELETE FROM bookmarks_fts`); err != nil {
			return apperr.Unavailable(fmt.Errorf("index: clear fts: %w", err))
		}
	}
	if _, err := tx.Exec(`DELETE FROM meta WHERE key = ?`, metaFingerprint); err != nil {
		return apperr.Unavailable(fmt.Errorf("index: clear fingerprint: %w", err))
	}
	return tx.Commit()
}

// List returns bookmarks in insertion order. limit <= 0 returns all.
func (db *DB) List(limit int) ([]models.Bookmark, error) {
	q := `SELECT id, name, url, date_added, folder_path FROM bookmarks ORDER BY rowid`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	return db.queryBookmarks(q, args...)
}

// ListByFolder returns bookmarks whose folder path satisfies every filter,
// in insertion order. The LIKE clause narrows the scan; the exact hierarchy
// check runs on the rows it lets through, so the filter semantics match the
// in-memory matcher.
func (db *DB) ListByFolder(folders [][]string, limit int) ([]models.Bookmark, error) {
	if len(folders) == 0 {
		return db.List(limit)
	}
	clauses, args := folderClauses("folder_path", folders)
	q := `SELECT id, name, url, date_added, folder_path FROM bookmarks WHERE ` +
		strings.Join(clauses, " AND ") + ` ORDER BY rowid`
	rows, err := db.queryBookmarks(q, args...)
	if err != nil {
		return nil, err
	}
	out := rows[:0]
	for _, b := range rows {
		if !search.MatchesFolderFilters(b.FolderLower, folders) {
			continue
		}
		out = append(out, b)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// LoadAll returns the full bookmark set for in-memory ranking.
func (db *DB) LoadAll() ([]models.Bookmark, error) {
	return db.List(0)
}

// GetByIDOrURL looks a bookmark up by its ID, then by exact URL.
// Returns apperr.ErrNotFound when neither matches.
func (db *DB) GetByIDOrURL(key string) (*models.Bookmark, error) {
	rows, err := db.queryBookmarks(
		`SELECT id, name, url, date_added, folder_path FROM bookmarks WHERE id = ? OR url = ? ORDER BY id = ? DESC LIMIT 1`,
		key, key, key)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("index: bookmark %q: %w", key, apperr.ErrNotFound)
	}
	return &rows[0], nil
}

// Count returns the number of indexed bookmarks.
func (db *DB) Count() (int, error) {
	var n int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM bookmarks`).Scan(&n); err != nil {
		return 0, apperr.Unavailable(fmt.Errorf("index: count: %w", err))
	}
	return n, nil
}

func (db *DB) queryBookmarks(query string, args ...any) ([]models.Bookmark, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, apperr.Unavailable(fmt.Errorf("index: query bookmarks: %w", err))
	}
	defer rows.Close()

	var out []models.Bookmark
	for rows.Next() {
		var b models.Bookmark
		if err := rows.Scan(&b.ID, &b.Name, &b.URL, &b.DateAdded, &b.FolderPath); err != nil {
			return nil, apperr.Unavailable(fmt.Errorf("index: scan bookmark: %w", err))
		}
		b.Normalize()
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Unavailable(fmt.Errorf("index: iterate bookmarks: %w", err))
	}
	return out, nil
}
