package source

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Env overrides checked before any browser discovery.
const (
	EnvBookmarksPath = "BOOKDEX_BOOKMARKS_PATH"
	EnvBrowser       = "BOOKDEX_BROWSER"
)

// browserSources maps a browser key to the per-platform data directories
// (relative to the user config root) that may hold profile folders.
var browserSources = []struct {
	key  string
	dirs []string
}{
	{"chrome", []string{"Google/Chrome", "google-chrome"}},
	{"chrome-beta", []string{"Google/Chrome Beta", "google-chrome-beta"}},
	{"chrome-canary", []string{"Google/Chrome Canary"}},
	{"chromium", []string{"Chromium", "chromium"}},
	{"brave", []string{"BraveSoftware/Brave-Browser"}},
	{"brave-beta", []string{"BraveSoftware/Brave-Browser-Beta"}},
	{"edge", []string{"Microsoft Edge", "microsoft-edge"}},
	{"vivaldi", []string{"Vivaldi", "vivaldi"}},
	{"arc", []string{"Arc/User Data"}},
	{"dia", []string{"Dia/User Data"}},
	{"opera", []string{"com.operasoftware.Opera", "opera"}},
	{"opera-gx", []string{"com.operasoftware.OperaGX"}},
	{"sidekick", []string{"Sidekick"}},
}

// ResolvePath decides which bookmark file to read: an explicit path wins,
// then the env override, then discovery across installed browsers
// (optionally narrowed to one browser key). When several candidates exist,
// the most recently modified file is picked.
func ResolvePath(explicitPath, browser string) (string, error) {
	if explicitPath != "" {
		return explicitPath, nil
	}
	if p := os.Getenv(EnvBookmarksPath); p != "" {
		return p, nil
	}
	if browser == "" {
		browser = os.Getenv(EnvBrowser)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("source: home dir: %w", err)
	}
	return Discover(home, browser)
}

// Discover scans known browser data directories under home for Bookmarks
// files. key narrows the scan to one browser; empty means all. Among all
// candidates the newest by modification time wins, tie broken by size.
func Discover(home, key string) (string, error) {
	root := configRoot(home)
	var candidates []string
	for _, src := range browserSources {
		if key != "" && src.key != key {
			continue
		}
		for _, dir := range src.dirs {
			base := filepath.Join(root, filepath.FromSlash(dir))
			candidates = append(candidates, profileBookmarkFiles(base)...)
		}
	}
	best := selectLatest(candidates)
	if best == "" {
		if key != "" {
			return "", fmt.Errorf("source: no bookmark file found for browser %q", key)
		}
		return "", fmt.Errorf("source: no bookmark file found in any known browser profile")
	}
	return best, nil
}

func configRoot(home string) string {
	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Library", "Application Support")
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return xdg
	}
	return filepath.Join(home, ".config")
}

// profileBookmarkFiles lists the Bookmarks files inside a browser data dir,
// covering the standard profile folder names plus a flat layout (Opera
// keeps the file at the top level).
func profileBookmarkFiles(base string) []string {
	var out []string
	if fileExists(filepath.Join(base, "Bookmarks")) {
		out = append(out, filepath.Join(base, "Bookmarks"))
	}
	entries, err := os.ReadDir(base)
	if err != nil {
		return out
	}
	for _, e := range entries {
		if !e.IsDir() || !isProfileDir(e.Name()) {
			continue
		}
		p := filepath.Join(base, e.Name(), "Bookmarks")
		if fileExists(p) {
			out = append(out, p)
		}
	}
	return out
}

func isProfileDir(name string) bool {
	switch name {
	case "Default", "Guest Profile", "System Profile":
		return true
	}
	return strings.HasPrefix(name, "Profile ") || strings.HasPrefix(name, "Person ")
}

func selectLatest(paths []string) string {
	var (
		best      string
		bestMtime int64
		bestSize  int64
	)
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		mtime := info.ModTime().UnixNano()
		if best == "" || mtime > bestMtime || (mtime == bestMtime && info.Size() > bestSize) {
			best, bestMtime, bestSize = p, mtime, info.Size()
		}
	}
	return best
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
