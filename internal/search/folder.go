package search

import "strings"

// Folder filters accept "/", "\", ">" and "|" as equivalent hierarchy
// separators so queries typed for any browser's path style behave the same.
var folderSeparators = strings.NewReplacer(`\`, "/", ">", "/", "|", "/")

// NormalizeFolderFilter splits a raw filter into lower-cased hierarchy
// segments. An empty or all-separator input yields nil, meaning no
// constraint.
func NormalizeFolderFilter(raw string) []string {
	cleaned := folderSeparators.Replace(strings.ToLower(strings.TrimSpace(raw)))
	var segments []string
	for _, seg := range strings.Split(cleaned, "/") {
		seg = strings.TrimSpace(seg)
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	return segments
}

// NormalizeFolderFilters normalizes a batch of raw filters, dropping the
// vacuous ones.
func NormalizeFolderFilters(raw []string) [][]string {
	var filters [][]string
	for _, r := range raw {
		if segments := NormalizeFolderFilter(r); len(segments) > 0 {
			filters = append(filters, segments)
		}
	}
	return filters
}

// MatchesFolderFilters reports whether a lower-cased folder path satisfies
// every normalized filter (logical AND). A record without a folder path only
// matches when there is no constraint.
func MatchesFolderFilters(folderLower string, filters [][]string) bool {
	if len(filters) == 0 {
		return true
	}
	if folderLower == "" {
		return false
	}
	segments := splitPathSegments(folderLower)
	for _, filter := range filters {
		if !matchesHierarchy(segments, filter) {
			return false
		}
	}
	return true
}

func splitPathSegments(pathLower string) []string {
	var segments []string
	for _, seg := range strings.Split(pathLower, "/") {
		seg = strings.TrimSpace(seg)
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	return segments
}

// matchesHierarchy implements the ordered-subsequence match: a single-segment
// filter matches if any path segment contains it; a multi-segment filter
// needs each piece found in order, at or after the previous hit, via a greedy
// left-to-right cursor with no backtracking.
func matchesHierarchy(folderSegments []string, filter []string) bool {
	if len(filter) == 0 {
		return true
	}
	if len(filter) == 1 {
		for _, seg := range folderSegments {
			if strings.Contains(seg, filter[0]) {
				return true
			}
		}
		return false
	}
	cursor := 0
	for _, wanted := range filter {
		found := false
		for cursor < len(folderSegments) {
			if strings.Contains(folderSegments[cursor], wanted) {
				found = true
				cursor++
				break
			}
			cursor++
		}
		if !found {
			return false
		}
	}
	return true
}
