// Package testutil provides shared test helpers for setting up indexes and
// bookmark fixtures.
package testutil

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/cleanwk/bookdex/internal/index"
	"github.com/cleanwk/bookdex/internal/models"
)

// TestDB creates a temporary SQLite index that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "bookdex-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// Bookmark builds a normalized bookmark fixture.
func Bookmark(id, name, url, folder string) models.Bookmark {
	b := models.Bookmark{ID: id, Name: name, URL: url, FolderPath: folder}
	b.Normalize()
	return b
}

// WriteBookmarksFile writes a Chromium-format bookmark file into dir and
// returns its path. Each entry goes under the bookmark bar, nested in its
// folder when one is given.
func WriteBookmarksFile(t *testing.T, dir string, entries []models.Bookmark) string {
	t.Helper()

	bar := map[string]any{
		"type":     "folder",
		"name":     "Bookmarks bar",
		"children": []any{},
	}
	folders := make(map[string]map[string]any)
	for _, b := range entries {
		node := map[string]any{
			"type":       "url",
			"id":         b.ID,
			"name":       b.Name,
			"url":        b.URL,
			"date_added": b.DateAdded,
		}
		if b.FolderPath == "" {
			bar["children"] = append(bar["children"].([]any), node)
			continue
		}
		f, ok := folders[b.FolderPath]
		if !ok {
			f = map[string]any{
				"type":     "folder",
				"name":     b.FolderPath,
				"children": []any{},
			}
			folders[b.FolderPath] = f
			bar["children"] = append(bar["children"].([]any), f)
		}
		f["children"] = append(f["children"].([]any), node)
	}

	doc := map[string]any{
		"roots": map[string]any{
			"bookmark_bar": bar,
			"other":        map[string]any{"type": "folder", "name": "Other bookmarks", "children": []any{}},
		},
		"version": 1,
	}
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "Bookmarks")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// Bookmarks generates n sequential fixtures for bulk tests.
func Bookmarks(n int) []models.Bookmark {
	out := make([]models.Bookmark, n)
	for i := range out {
		out[i] = Bookmark(
			fmt.Sprintf("id-%03d", i),
			fmt.Sprintf("Bookmark %03d", i),
			fmt.Sprintf("https://example.com/%03d", i),
			"",
		)
	}
	return out
}
