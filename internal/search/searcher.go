package search

import (
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/cleanwk/bookdex/internal/models"
)

const (
	scoreNameContains   = 200
	scoreNameEqual      = 100
	scoreNamePrefix     = 50
	scoreURLContains    = 100
	scoreFolderContains = 50
)

// Options narrows and shapes a ranked search.
type Options struct {
	// TagIDs restricts results to bookmarks whose ID is in the set.
	// A nil map means no tag constraint.
	TagIDs map[string]struct{}

	// Folders holds normalized folder filters, each a list of lowercase
	// path segments. All filters must match (see MatchesFolderFilters).
	Folders [][]string

	// Fuzzy switches from substring scoring to subsequence scoring.
	Fuzzy bool

	// Limit caps the number of results. Zero or negative yields nothing.
	Limit int
}

type scored struct {
	score int
	index int
	b     models.Bookmark
}

func betterScored(a, b scored) bool {
	if a.score != b.score {
		return a.score > b.score
	}
	return a.index < b.index
}

// Search ranks bookmarks against query and returns the top opts.Limit
// matches, best first. Ties break toward the earlier input position so the
// ordering is stable across runs. An empty query returns the filtered input
// in its original order.
func Search(bookmarks []models.Bookmark, query string, opts Options) []models.Bookmark {
	if opts.Limit <= 0 {
		return nil
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return listFiltered(bookmarks, opts)
	}

	queryLower := strings.ToLower(query)
	top := NewTopK(opts.Limit, betterScored)
	for i, b := range bookmarks {
		if !allowed(opts.TagIDs, b.ID) {
			continue
		}
		if !MatchesFolderFilters(b.FolderLower, opts.Folders) {
			continue
		}
		var score int
		if opts.Fuzzy {
			score = fuzzyScore(b, query)
		} else {
			score = exactScore(b, queryLower)
		}
		if score <= 0 {
			continue
		}
		top.Offer(scored{score: score, index: i, b: b})
	}

	ranked := top.Results()
	out := make([]models.Bookmark, len(ranked))
	for i, s := range ranked {
		out[i] = s.b
	}
	return out
}

func listFiltered(bookmarks []models.Bookmark, opts Options) []models.Bookmark {
	out := make([]models.Bookmark, 0, min(len(bookmarks), opts.Limit))
	for _, b := range bookmarks {
		if !allowed(opts.TagIDs, b.ID) {
			continue
		}
		if !MatchesFolderFilters(b.FolderLower, opts.Folders) {
			continue
		}
		out = append(out, b)
		if len(out) == opts.Limit {
			break
		}
	}
	return out
}

// exactScore rewards substring hits across fields. The name field dominates:
// containing the query outranks any URL or folder hit, with bonuses for an
// exact or prefix match on top.
func exactScore(b models.Bookmark, queryLower string) int {
	score := 0
	if strings.Contains(b.NameLower, queryLower) {
		score += scoreNameContains
		if b.NameLower == queryLower {
			score += scoreNameEqual
		}
		// Equality implies prefix, so an exact name collects both bonuses.
		if strings.HasPrefix(b.NameLower, queryLower) {
			score += scoreNamePrefix
		}
	}
	if strings.Contains(b.URLLower, queryLower) {
		score += scoreURLContains
	}
	if strings.Contains(b.FolderLower, queryLower) {
		score += scoreFolderContains
	}
	return score
}

// fuzzyScore takes the best single-field subsequence score, weighted so a
// name hit beats an equally good URL hit, which beats a folder hit. Fields
// never accumulate.
func fuzzyScore(b models.Bookmark, query string) int {
	best := 0
	if s := fieldScore(query, b.Name); s*2 > best {
		best = s * 2
	}
	if s := fieldScore(query, b.URL); s > best {
		best = s
	}
	if s := fieldScore(query, b.FolderPath); s/2 > best {
		best = s / 2
	}
	return best
}

func fieldScore(query, field string) int {
	matches := fuzzy.Find(query, []string{field})
	if len(matches) == 0 {
		return 0
	}
	return matches[0].Score
}

func allowed(ids map[string]struct{}, id string) bool {
	if ids == nil {
		return true
	}
	_, ok := ids[id]
	return ok
}
