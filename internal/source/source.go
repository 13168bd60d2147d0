// Package source reads Chromium-family bookmark files: locating them per
// browser, parsing the JSON tree, fingerprinting for change detection, and
// watching for live edits.
package source

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/cleanwk/bookdex/internal/models"
)

// bookmarkFile mirrors the top level of a Chromium "Bookmarks" file.
type bookmarkFile struct {
	Roots map[string]bookmarkNode `json:"roots"`
}

type bookmarkNode struct {
	Type      string         `json:"type"`
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	URL       string         `json:"url"`
	DateAdded string         `json:"date_added"`
	Children  []bookmarkNode `json:"children"`
}

// Root keys appear in the file in no guaranteed order; walking them in this
// fixed order keeps extraction deterministic.
var rootOrder = []struct {
	key   string
	label string
}{
	{"bookmark_bar", "Bookmarks Bar"},
	{"other", "Other Bookmarks"},
	{"synced", "Synced Bookmarks"},
}

// Parse extracts every URL bookmark from raw Chromium bookmark JSON.
// Folder paths are slash-joined from the root label down.
func Parse(data []byte) ([]models.Bookmark, error) {
	var f bookmarkFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("source: parse bookmarks json: %w", err)
	}
	var out []models.Bookmark
	for _, root := range rootOrder {
		node, ok := f.Roots[root.key]
		if !ok {
			continue
		}
		// The root node's own (localized) name is replaced by a fixed label.
		for _, child := range node.Children {
			collect(&out, child, root.label)
		}
	}
	return out, nil
}

// ParseFile reads and parses the bookmark file at path.
func ParseFile(path string) ([]models.Bookmark, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("source: read %s: %w", path, err)
	}
	return Parse(data)
}

func collect(out *[]models.Bookmark, node bookmarkNode, folderPath string) {
	switch node.Type {
	case "url":
		if node.URL == "" {
			return
		}
		b := models.Bookmark{
			ID:         node.ID,
			Name:       strings.TrimSpace(node.Name),
			URL:        node.URL,
			DateAdded:  node.DateAdded,
			FolderPath: folderPath,
		}
		b.Normalize()
		*out = append(*out, b)
	case "folder":
		child := folderPath
		if name := strings.TrimSpace(node.Name); name != "" {
			if child == "" {
				child = name
			} else {
				child = child + "/" + name
			}
		}
		for _, c := range node.Children {
			collect(out, c, child)
		}
	}
}
