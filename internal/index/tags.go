package index

import (
	"fmt"
	"strings"

	"github.com/cleanwk/bookdex/internal/apperr"
	"github.com/cleanwk/bookdex/internal/models"
)

// Tags stores user-assigned bookmark tags. Tags are keyed by bookmark ID so
// they survive full index rebuilds; rebuild-time pruning of orphans happens
// in ReplaceAll.
type Tags struct {
	db *DB
}

// NewTags returns a tag store sharing the index's database.
func NewTags(db *DB) *Tags {
	return &Tags{db: db}
}

// NormalizeTag trims surrounding whitespace, returning "" for unusable
// input. Tags keep their case: "Go" and "go" are distinct.
func NormalizeTag(tag string) string {
	return strings.TrimSpace(tag)
}

// AddTags attaches tags to a bookmark and returns how many pairs were newly
// inserted. Already-present tags and duplicates within the call are ignored,
// as are empty ones after trimming.
func (t *Tags) AddTags(bookmarkID string, tags []string) (int, error) {
	tx, err := t.db.conn.Begin()
	if err != nil {
		return 0, apperr.Unavailable(fmt.Errorf("tags: begin tx: %w", err))
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.Prepare(`INSERT OR IGNORE INTO bookmark_tags (bookmark_id, tag) VALUES (?, ?)`)
	if err != nil {
		return 0, apperr.Unavailable(fmt.Errorf("tags: prepare insert: %w", err))
	}
	defer stmt.Close()

	inserted := 0
	for _, tag := range tags {
		tag = NormalizeTag(tag)
		if tag == "" {
			continue
		}
		res, err := stmt.Exec(bookmarkID, tag)
		if err != nil {
			return 0, apperr.Unavailable(fmt.Errorf("tags: insert %q: %w", tag, err))
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, apperr.Unavailable(fmt.Errorf("tags: commit insert: %w", err))
	}
	return inserted, nil
}

// RemoveTag detaches one tag from a bookmark. Reports whether anything was
// actually removed.
func (t *Tags) RemoveTag(bookmarkID, tag string) (bool, error) {
	res, err := t.db.conn.Exec(`DELETE FROM bookmark_tags WHERE bookmark_id = ? AND tag = ?`,
		bookmarkID, NormalizeTag(tag))
	if err != nil {
		return false, apperr.Unavailable(fmt.Errorf("tags: remove: %w", err))
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// RemoveAllTags detaches every tag from a bookmark, returning how many.
func (t *Tags) RemoveAllTags(bookmarkID string) (int, error) {
	res, err := t.db.conn.Exec(`DELETE FROM bookmark_tags WHERE bookmark_id = ?`, bookmarkID)
	if err != nil {
		return 0, apperr.Unavailable(fmt.Errorf("tags: remove all: %w", err))
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// FindByTags returns the set of bookmark IDs carrying every given tag.
// An empty tag list returns a nil map, meaning no constraint.
func (t *Tags) FindByTags(tags []string) (map[string]struct{}, error) {
	normalized := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag = NormalizeTag(tag); tag != "" {
			normalized = append(normalized, tag)
		}
	}
	if len(normalized) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(normalized)), ",")
	args := make([]any, 0, len(normalized)+1)
	for _, tag := range normalized {
		args = append(args, tag)
	}
	args = append(args, len(normalized))

	rows, err := t.db.conn.Query(`
		SELECT bookmark_id FROM bookmark_tags
		WHERE tag IN (`+placeholders+`)
		GROUP BY bookmark_id
		HAVING COUNT(DISTINCT tag) = ?
	`, args...)
	if err != nil {
		return nil, apperr.Unavailable(fmt.Errorf("tags: find by tags: %w", err))
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, apperr.Unavailable(fmt.Errorf("tags: scan id: %w", err))
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

// Rename moves every use of oldTag to newTag. Bookmarks that already carry
// newTag end up with a single merged row. Returns the number of bookmarks
// affected.
func (t *Tags) Rename(oldTag, newTag string) (int, error) {
	oldTag, newTag = NormalizeTag(oldTag), NormalizeTag(newTag)
	if oldTag == "" || newTag == "" {
		return 0, fmt.Errorf("tags: rename: empty tag")
	}
	if oldTag == newTag {
		return 0, nil
	}

	tx, err := t.db.conn.Begin()
	if err != nil {
		return 0, apperr.Unavailable(fmt.Errorf("tags: begin tx: %w", err))
	}
	defer tx.Rollback() //nolint:errcheck

	var total int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM bookmark_tags WHERE tag = ?`, oldTag).Scan(&total); err != nil {
		return 0, apperr.Unavailable(fmt.Errorf("tags: count old tag: %w", err))
	}

	// Moves rows unless the bookmark already has newTag, in which case the
	// old row is left behind and swept up below (the merge case).
	if _, err := tx.Exec(`UPDATE OR IGNORE bookmark_tags SET tag = ? WHERE tag = ?`, newTag, oldTag); err != nil {
		return 0, apperr.Unavailable(fmt.Errorf("tags: rename: %w", err))
	}
	if _, err := tx.Exec(`DELETE FROM bookmark_tags WHERE tag = ?`, oldTag); err != nil {
		return 0, apperr.Unavailable(fmt.Errorf("tags: sweep merged: %w", err))
	}

	if err := tx.Commit(); err != nil {
		return 0, apperr.Unavailable(fmt.Errorf("tags: commit rename: %w", err))
	}
	return total, nil
}

// TagsFor returns the tags of every given bookmark in one query, grouped by
// bookmark ID, lexically ordered per bookmark. Untagged bookmarks have no
// entry in the result.
func (t *Tags) TagsFor(bookmarkIDs []string) (map[string][]string, error) {
	if len(bookmarkIDs) == 0 {
		return map[string][]string{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(bookmarkIDs)), ",")
	args := make([]any, 0, len(bookmarkIDs))
	for _, id := range bookmarkIDs {
		args = append(args, id)
	}

	rows, err := t.db.conn.Query(`
		SELECT bookmark_id, tag FROM bookmark_tags
		WHERE bookmark_id IN (`+placeholders+`)
		ORDER BY bookmark_id, tag
	`, args...)
	if err != nil {
		return nil, apperr.Unavailable(fmt.Errorf("tags: tags for: %w", err))
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var id, tag string
		if err := rows.Scan(&id, &tag); err != nil {
			return nil, apperr.Unavailable(fmt.Errorf("tags: scan tag: %w", err))
		}
		out[id] = append(out[id], tag)
	}
	return out, rows.Err()
}

// AllTags returns every distinct tag with its usage count, most used first,
// ties in lexical order.
func (t *Tags) AllTags() ([]models.TagCount, error) {
	rows, err := t.db.conn.Query(`
		SELECT tag, COUNT(*) FROM bookmark_tags
		GROUP BY tag
		ORDER BY COUNT(*) DESC, tag ASC
	`)
	if err != nil {
		return nil, apperr.Unavailable(fmt.Errorf("tags: all tags: %w", err))
	}
	defer rows.Close()

	var out []models.TagCount
	for rows.Next() {
		var tc models.TagCount
		if err := rows.Scan(&tc.Tag, &tc.Count); err != nil {
			return nil, apperr.Unavailable(fmt.Errorf("tags: scan tag count: %w", err))
		}
		out = append(out, tc)
	}
	return out, rows.Err()
}

// TaggedCount returns how many bookmarks carry at least one tag.
func (t *Tags) TaggedCount() (int, error) {
	var n int
	if err := t.db.conn.QueryRow(`SELECT COUNT(DISTINCT bookmark_id) FROM bookmark_tags`).Scan(&n); err != nil {
		return 0, apperr.Unavailable(fmt.Errorf("tags: tagged count: %w", err))
	}
	return n, nil
}
