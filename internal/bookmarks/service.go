package bookmarks

import (
	"context"
	"log/slog"
	"strings"

	"github.com/cleanwk/bookdex/internal/index"
	"github.com/cleanwk/bookdex/internal/models"
	"github.com/cleanwk/bookdex/internal/search"
	"github.com/cleanwk/bookdex/internal/source"
)

// Stats summarizes the index for status reporting.
type Stats struct {
	Bookmarks       int  `json:"bookmarks"`
	Tags            int  `json:"tags"`
	TaggedBookmarks int  `json:"tagged_bookmarks"`
	TextSearch      bool `json:"text_search"`
}

// Service coordinates the index, tag store and bookmark source.
type Service struct {
	db     index.Store
	tags   index.TagStore
	loader *source.Loader
	logger *slog.Logger
}

// NewService creates a bookmark service.
func NewService(db index.Store, tags index.TagStore, loader *source.Loader, logger *slog.Logger) *Service {
	return &Service{db: db, tags: tags, loader: loader, logger: logger}
}

// Search runs a ranked query. Inline filter tokens in the query text
// (#tag, dir:path) are folded into the explicit filters. A non-positive
// limit yields no results.
func (s *Service) Search(_ context.Context, q Query) ([]models.Bookmark, error) {
	if q.Limit <= 0 {
		return nil, nil
	}
	text, inlineTags, inlineFolders := ExtractInlineFilters(q.Text)
	tags := mergeStrings(q.Tags, inlineTags)
	folders := search.NormalizeFolderFilters(mergeStrings(q.Folders, inlineFolders))

	var tagIDs map[string]struct{}
	if len(tags) > 0 {
		ids, err := s.tags.FindByTags(tags)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return nil, nil
		}
		tagIDs = ids
	}

	text = strings.TrimSpace(text)

	// The FTS path serves the common exact-match case without loading the
	// whole index. Tag constraints and fuzzy scoring need the in-memory
	// ranker, as does any query FTS cannot tokenize.
	if text != "" && !q.Fuzzy && tagIDs == nil {
		results, ok, err := s.db.SearchText(text, folders, q.Limit)
		if err != nil {
			return nil, err
		}
		if ok {
			return results, nil
		}
	}

	if text == "" && tagIDs == nil {
		return s.db.ListByFolder(folders, q.Limit)
	}

	all, err := s.db.LoadAll()
	if err != nil {
		return nil, err
	}
	return search.Search(all, text, search.Options{
		TagIDs:  tagIDs,
		Folders: folders,
		Fuzzy:   q.Fuzzy,
		Limit:   q.Limit,
	}), nil
}

// List returns bookmarks in source order, optionally narrowed by folder
// filters.
func (s *Service) List(_ context.Context, folders []string, limit int) ([]models.Bookmark, error) {
	return s.db.ListByFolder(search.NormalizeFolderFilters(folders), limit)
}

// Get resolves a bookmark by ID or exact URL and returns it with its tags.
func (s *Service) Get(_ context.Context, key string) (*models.Bookmark, []string, error) {
	b, err := s.db.GetByIDOrURL(key)
	if err != nil {
		return nil, nil, err
	}
	byID, err := s.tags.TagsFor([]string{b.ID})
	if err != nil {
		return nil, nil, err
	}
	return b, byID[b.ID], nil
}

// TagBookmark attaches tags to the bookmark identified by ID or URL and
// returns the bookmark with its full tag set and how many tags were newly
// added; re-adding an existing tag counts as zero.
func (s *Service) TagBookmark(_ context.Context, key string, tags []string) (*models.Bookmark, []string, int, error) {
	b, err := s.db.GetByIDOrURL(key)
	if err != nil {
		return nil, nil, 0, err
	}
	added, err := s.tags.AddTags(b.ID, tags)
	if err != nil {
		return nil, nil, 0, err
	}
	byID, err := s.tags.TagsFor([]string{b.ID})
	if err != nil {
		return nil, nil, 0, err
	}
	return b, byID[b.ID], added, nil
}

// UntagBookmark removes one tag from the bookmark identified by ID or URL,
// or all of its tags when tag is empty. Returns how many tags came off.
func (s *Service) UntagBookmark(_ context.Context, key, tag string) (int, error) {
	b, err := s.db.GetByIDOrURL(key)
	if err != nil {
		return 0, err
	}
	if strings.TrimSpace(tag) == "" {
		return s.tags.RemoveAllTags(b.ID)
	}
	removed, err := s.tags.RemoveTag(b.ID, tag)
	if err != nil {
		return 0, err
	}
	if removed {
		return 1, nil
	}
	return 0, nil
}

// RenameTag moves every use of oldTag to newTag, merging where a bookmark
// already carries both. Returns the number of bookmarks affected.
func (s *Service) RenameTag(_ context.Context, oldTag, newTag string) (int, error) {
	return s.tags.Rename(oldTag, newTag)
}

// TagsFor returns the tags of each listed bookmark in one batched query,
// keyed by bookmark ID. Untagged bookmarks are absent from the map.
func (s *Service) TagsFor(_ context.Context, ids []string) (map[string][]string, error) {
	return s.tags.TagsFor(ids)
}

// ListTags returns every tag with its usage count, most used first.
func (s *Service) ListTags(_ context.Context) ([]models.TagCount, error) {
	return s.tags.AllTags()
}

// TagSuggestions returns up to limit existing tags starting with prefix,
// most used first. An empty prefix suggests the most used tags overall.
func (s *Service) TagSuggestions(_ context.Context, prefix string, limit int) ([]string, error) {
	if limit <= 0 {
		return nil, nil
	}
	all, err := s.tags.AllTags()
	if err != nil {
		return nil, err
	}
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	var out []string
	for _, tc := range all {
		if prefix != "" && !strings.HasPrefix(strings.ToLower(tc.Tag), prefix) {
			continue
		}
		out = append(out, tc.Tag)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// Stats reports index size, tag usage and text search availability.
func (s *Service) Stats(_ context.Context) (*Stats, error) {
	count, err := s.db.Count()
	if err != nil {
		return nil, err
	}
	tags, err := s.tags.AllTags()
	if err != nil {
		return nil, err
	}
	tagged, err := s.tags.TaggedCount()
	if err != nil {
		return nil, err
	}
	return &Stats{
		Bookmarks:       count,
		Tags:            len(tags),
		TaggedBookmarks: tagged,
		TextSearch:      s.db.TextSearchEnabled(),
	}, nil
}

// Refresh syncs the index with the bookmark source. Unless force is set,
// an unchanged source fingerprint makes it a no-op. Returns whether the
// index was rebuilt and the current bookmark count.
func (s *Service) Refresh(_ context.Context, force bool) (bool, int, error) {
	bookmarks, fp, err := s.loader.Load(force)
	if err != nil {
		return false, 0, err
	}
	if !force {
		needs, err := s.db.NeedsRefresh(fp)
		if err != nil {
			return false, 0, err
		}
		if !needs {
			count, err := s.db.Count()
			return false, count, err
		}
	}
	if err := s.db.ReplaceAll(bookmarks, fp); err != nil {
		return false, 0, err
	}
	s.logger.Info("index refreshed",
		slog.Int("bookmarks", len(bookmarks)),
		slog.String("source", s.loader.Path()))
	return true, len(bookmarks), nil
}
