package api

import (
	"github.com/cleanwk/bookdex/internal/bookmarks"
	"github.com/cleanwk/bookdex/internal/models"
)

// BookmarkItem is one bookmark in an API response, with tags when the
// endpoint resolves them.
type BookmarkItem struct {
	ID         string   `json:"id" example:"129"`
	Name       string   `json:"name" example:"Go Documentation"`
	URL        string   `json:"url" example:"https://go.dev/doc/"`
	DateAdded  string   `json:"date_added,omitempty" example:"13320000000000000"`
	FolderPath string   `json:"folder_path,omitempty" example:"Bookmarks Bar/Dev"`
	Tags       []string `json:"tags,omitempty"`
}

func toItem(b models.Bookmark, tags []string) BookmarkItem {
	return BookmarkItem{
		ID:         b.ID,
		Name:       b.Name,
		URL:        b.URL,
		DateAdded:  b.DateAdded,
		FolderPath: b.FolderPath,
		Tags:       tags,
	}
}

func toItems(bs []models.Bookmark) []BookmarkItem {
	items := make([]BookmarkItem, len(bs))
	for i, b := range bs {
		items[i] = toItem(b, nil)
	}
	return items
}

// BookmarkListResponse wraps bookmark listings and search results.
type BookmarkListResponse struct {
	Bookmarks []BookmarkItem `json:"bookmarks" validate:"required"`
	Total     int            `json:"total" example:"42" validate:"required"`
}

// TagListResponse wraps the tag inventory.
type TagListResponse struct {
	Tags []models.TagCount `json:"tags" validate:"required"`
}

// TagRequest is the request body for attaching tags.
type TagRequest struct {
	Tags []string `json:"tags" example:"reading,golang" validate:"required"`
}

// TagResponse is the tagged bookmark plus how many tags were newly attached;
// re-adding an existing tag counts as zero.
type TagResponse struct {
	BookmarkItem
	Added int `json:"added" example:"1" validate:"required"`
}

// RenameTagRequest is the request body for renaming a tag.
type RenameTagRequest struct {
	From string `json:"from" example:"golang" validate:"required"`
	To   string `json:"to" example:"go" validate:"required"`
}

// RenameTagResponse reports how many bookmarks a rename touched.
type RenameTagResponse struct {
	Affected int `json:"affected" example:"3" validate:"required"`
}

// RefreshResponse reports the outcome of an index refresh.
type RefreshResponse struct {
	Refreshed bool `json:"refreshed" validate:"required"`
	Bookmarks int  `json:"bookmarks" example:"1204" validate:"required"`
}

// StatsResponse is the index status (aliased from the domain layer).
type StatsResponse = bookmarks.Stats
