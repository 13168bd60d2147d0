package index

import "github.com/cleanwk/bookdex/internal/models"

// Store defines the interface for bookmark index operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type Store interface {
	NeedsRefresh(fingerprint string) (bool, error)
	ReplaceAll(bookmarks []models.Bookmark, fingerprint string) error
	Clear() error
	List(limit int) ([]models.Bookmark, error)
	ListByFolder(folders [][]string, limit int) ([]models.Bookmark, error)
	SearchText(query string, folders [][]string, limit int) ([]models.Bookmark, bool, error)
	LoadAll() ([]models.Bookmark, error)
	GetByIDOrURL(key string) (*models.Bookmark, error)
	Count() (int, error)
	TextSearchEnabled() bool
	Close() error
}

// Verify *DB satisfies Store at compile time.
var _ Store = (*DB)(nil)

// TagStore defines the interface for tag operations.
type TagStore interface {
	AddTags(bookmarkID string, tags []string) (int, error)
	RemoveTag(bookmarkID, tag string) (bool, error)
	RemoveAllTags(bookmarkID string) (int, error)
	FindByTags(tags []string) (map[string]struct{}, error)
	Rename(oldTag, newTag string) (int, error)
	TagsFor(bookmarkIDs []string) (map[string][]string, error)
	AllTags() ([]models.TagCount, error)
	TaggedCount() (int, error)
}

var _ TagStore = (*Tags)(nil)
