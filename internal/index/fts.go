package index

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/cleanwk/bookdex/internal/apperr"
	"github.com/cleanwk/bookdex/internal/models"
	"github.com/cleanwk/bookdex/internal/search"
)

// ftsQuery turns free text into an FTS5 MATCH expression: each whitespace
// token is stripped to its letters, digits and a few URL-safe runes, then
// suffixed with * for prefix matching. Returns "" when nothing tokenizable
// remains, in which case FTS cannot serve the query.
func ftsQuery(raw string) string {
	var terms []string
	for _, tok := range strings.Fields(raw) {
		var sb strings.Builder
		for _, r := range tok {
			if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' || r == '.' {
				sb.WriteRune(r)
			}
		}
		if sb.Len() > 0 {
			terms = append(terms, `"`+sb.String()+`"*`)
		}
	}
	return strings.Join(terms, " ")
}

// SearchText runs the query through the FTS5 table, best match first. The
// second return value reports whether FTS could serve the query at all;
// when false the caller falls back to scanning, and results are nil.
func (db *DB) SearchText(query string, folders [][]string, limit int) ([]models.Bookmark, bool, error) {
	if !db.ftsEnabled || limit <= 0 {
		return nil, false, nil
	}
	match := ftsQuery(query)
	if match == "" {
		return nil, false, nil
	}

	conds := []string{`bookmarks_fts MATCH ?`}
	args := []any{match}
	if len(folders) > 0 {
		clauses, folderArgs := folderClauses("b.folder_path", folders)
		conds = append(conds, clauses...)
		args = append(args, folderArgs...)
	}
	// No SQL LIMIT here: the LIKE folder clauses over-match, and cutting
	// before the exact re-check below could evict true matches ranked past
	// the limit. The loop stops once limit rows survive the re-check.
	q := `
		SELECT b.id, b.name, b.url, b.date_added, b.folder_path
		FROM bookmarks_fts f
		JOIN bookmarks b ON b.id = f.bookmark_id
		WHERE ` + strings.Join(conds, " AND ") + `
		ORDER BY f.rank`

	rows, err := db.conn.Query(q, args...)
	if err != nil {
		return nil, false, apperr.Unavailable(fmt.Errorf("index: fts search: %w", err))
	}
	defer rows.Close()

	var out []models.Bookmark
	for rows.Next() {
		var b models.Bookmark
		if err := rows.Scan(&b.ID, &b.Name, &b.URL, &b.DateAdded, &b.FolderPath); err != nil {
			return nil, false, apperr.Unavailable(fmt.Errorf("index: scan fts row: %w", err))
		}
		b.Normalize()
		if !search.MatchesFolderFilters(b.FolderLower, folders) {
			continue
		}
		out = append(out, b)
		if len(out) == limit {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, false, apperr.Unavailable(fmt.Errorf("index: iterate fts rows: %w", err))
	}
	return out, true, nil
}
