// Package bookmarks coordinates the index, tag store, ranking engine and
// bookmark source into the operations the CLI, HTTP API and MCP server
// expose.
package bookmarks

import "strings"

// Query is a fully parsed search request.
type Query struct {
	Text    string
	Tags    []string
	Folders []string
	Fuzzy   bool
	Limit   int
}

var folderPrefixes = []string{"dir:", "folder:", "path:", "in:"}

// ExtractInlineFilters pulls tag and folder filter tokens out of free text.
// A token starting with '#' is a tag filter; one starting with dir:,
// folder:, path: or in: is a folder filter whose value may hold several
// comma-separated paths. Remaining tokens are rejoined as the search text.
func ExtractInlineFilters(text string) (remaining string, tags []string, folders []string) {
	var rest []string
	for _, tok := range strings.Fields(text) {
		if len(tok) > 1 && strings.HasPrefix(tok, "#") {
			tags = append(tags, tok[1:])
			continue
		}
		if val, ok := folderValue(tok); ok {
			for _, f := range strings.Split(val, ",") {
				if f = strings.TrimSpace(f); f != "" {
					folders = append(folders, f)
				}
			}
			continue
		}
		rest = append(rest, tok)
	}
	return strings.Join(rest, " "), tags, folders
}

func folderValue(tok string) (string, bool) {
	lower := strings.ToLower(tok)
	for _, p := range folderPrefixes {
		if strings.HasPrefix(lower, p) && len(tok) > len(p) {
			return tok[len(p):], true
		}
	}
	return "", false
}

// mergeStrings appends extras onto base, skipping case-insensitive
// duplicates while preserving first-seen order.
func mergeStrings(base, extras []string) []string {
	seen := make(map[string]struct{}, len(base)+len(extras))
	out := make([]string, 0, len(base)+len(extras))
	for _, s := range append(append([]string{}, base...), extras...) {
		key := strings.ToLower(strings.TrimSpace(s))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}
