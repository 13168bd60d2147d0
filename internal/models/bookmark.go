// Package models defines the domain types for Bookdex.
package models

import "strings"

// Bookmark is one flat record extracted from a browser's bookmark file.
// The ID is assigned by the browser and is the primary key everywhere.
// Records are only ever replaced wholesale by a reindex, never mutated
// field by field.
type Bookmark struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	URL        string `json:"url"`
	DateAdded  string `json:"date_added"`
	FolderPath string `json:"folder_path,omitempty"`

	// Lower-cased projections used by the ranking engine and folder filter.
	// Recomputed on every load, never trusted from storage.
	NameLower   string `json:"-"`
	URLLower    string `json:"-"`
	FolderLower string `json:"-"`
}

// Normalize recomputes the derived lower-cased fields.
func (b *Bookmark) Normalize() {
	b.NameLower = strings.ToLower(b.Name)
	b.URLLower = strings.ToLower(b.URL)
	b.FolderLower = strings.ToLower(b.FolderPath)
}

// TagCount pairs a tag with its usage count, used for autocompletion.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}
