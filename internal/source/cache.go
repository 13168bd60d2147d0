package source

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cleanwk/bookdex/internal/models"
)

const (
	cacheFileName       = "bookmarks_cache.json"
	fingerprintFileName = "bookmarks_fingerprint"
)

// Loader reads the bookmark source with a parse cache in front of it. The
// cache holds the last successful parse beside a fingerprint sidecar, so an
// unchanged source costs a stat instead of a multi-megabyte JSON walk, and
// a source the browser is mid-rewrite on falls back to the last good data.
type Loader struct {
	path    string
	dataDir string
	logger  *slog.Logger
}

// NewLoader creates a loader for the bookmark file at path, caching under
// dataDir.
func NewLoader(path, dataDir string, logger *slog.Logger) *Loader {
	return &Loader{path: path, dataDir: dataDir, logger: logger}
}

// Path returns the bookmark file this loader reads.
func (l *Loader) Path() string { return l.path }

// Load returns the current bookmark set and the source fingerprint it
// corresponds to. force bypasses the cache and reparses the source.
func (l *Loader) Load(force bool) ([]models.Bookmark, string, error) {
	fp, err := Fingerprint(l.path)
	if err != nil {
		return nil, "", err
	}

	if !force && l.cachedFingerprint() == fp {
		if cached, err := l.readCache(); err == nil {
			return cached, fp, nil
		}
		// Cache unreadable; fall through and reparse.
	}

	bookmarks, parseErr := ParseFile(l.path)
	if parseErr != nil {
		// Chromium rewrites the file via temp-and-rename, but a reader can
		// still catch a torn state. Serve the last good parse if we have one.
		if cached, err := l.readCache(); err == nil {
			l.logger.Warn("source: parse failed, serving stale cache",
				slog.String("path", l.path), slog.String("error", parseErr.Error()))
			return cached, l.cachedFingerprint(), nil
		}
		return nil, "", parseErr
	}

	if err := l.writeCache(bookmarks, fp); err != nil {
		l.logger.Warn("source: cache write failed", slog.String("error", err.Error()))
	}
	return bookmarks, fp, nil
}

func (l *Loader) cachedFingerprint() string {
	data, err := os.ReadFile(filepath.Join(l.dataDir, fingerprintFileName))
	if err != nil {
		return ""
	}
	return string(data)
}

func (l *Loader) readCache() ([]models.Bookmark, error) {
	data, err := os.ReadFile(filepath.Join(l.dataDir, cacheFileName))
	if err != nil {
		return nil, err
	}
	var out []models.Bookmark
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("source: decode cache: %w", err)
	}
	for i := range out {
		out[i].Normalize()
	}
	return out, nil
}

func (l *Loader) writeCache(bookmarks []models.Bookmark, fp string) error {
	data, err := json.Marshal(bookmarks)
	if err != nil {
		return fmt.Errorf("source: encode cache: %w", err)
	}
	if err := writeAtomic(filepath.Join(l.dataDir, cacheFileName), data); err != nil {
		return err
	}
	// Sidecar goes second so a crash between the writes leaves a mismatched
	// fingerprint, which just forces a reparse next time.
	return writeAtomic(filepath.Join(l.dataDir, fingerprintFileName), []byte(fp))
}

// writeAtomic writes via a temp file and rename so readers never observe a
// partial file.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("source: create temp: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("source: write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("source: close temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("source: rename temp: %w", err)
	}
	return nil
}
