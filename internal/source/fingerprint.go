package source

import (
	"fmt"
	"os"
	"path/filepath"
)

// Fingerprint derives a cheap change token for a bookmark file from its
// modification time, size, and canonical path. Chromium rewrites the file
// on every change, so mtime plus size is a reliable signal without hashing
// multi-megabyte JSON.
func Fingerprint(path string) (string, error) {
	canonical, err := filepath.EvalSymlinks(path)
	if err != nil {
		canonical = path
	}
	if abs, err := filepath.Abs(canonical); err == nil {
		canonical = abs
	}
	info, err := os.Stat(canonical)
	if err != nil {
		return "", fmt.Errorf("source: stat %s: %w", path, err)
	}
	return fmt.Sprintf("%d-%d-%s", info.ModTime().UnixNano(), info.Size(), canonical), nil
}
