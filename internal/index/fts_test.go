package index

import (
	"testing"

	"github.com/cleanwk/bookdex/internal/models"
)

func TestFTSQueryTokenizer(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"go blog", `"go"* "blog"*`},
		{"c++ refs", `"c"* "refs"*`},
		{"node.js", `"node.js"*`},
		{"snake_case-name", `"snake_case-name"*`},
		{"  spaced   out  ", `"spaced"* "out"*`},
		{"!!! ???", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ftsQuery(tt.in); got != tt.want {
			t.Errorf("ftsQuery(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSearchTextDeclinesUntokenizable(t *testing.T) {
	db := testDB(t)
	_, ok, err := db.SearchText("!!!", nil, 10)
	if err != nil {
		t.Fatalf("SearchText: %v", err)
	}
	if ok {
		t.Error("untokenizable query must decline")
	}
}

func TestSearchText(t *testing.T) {
	db := testDB(t)
	if !db.TextSearchEnabled() {
		t.Skip("sqlite build lacks FTS5")
	}

	if err := db.ReplaceAll([]models.Bookmark{
		bm("1", "Go Blog", "https://go.dev/blog", "Bookmarks Bar/Dev"),
		bm("2", "Rust Book", "https://doc.rust-lang.org", "Bookmarks Bar/Dev"),
		bm("3", "Weather", "https://weather.test", "News"),
	}, "fp"); err != nil {
		t.Fatal(err)
	}

	got, ok, err := db.SearchText("go", nil, 10)
	if err != nil {
		t.Fatalf("SearchText: %v", err)
	}
	if !ok {
		t.Fatal("expected FTS to serve the query")
	}
	if len(got) != 1 || got[0].ID != "1" {
		t.Fatalf("SearchText = %v", got)
	}

	// Folder filter narrows within the FTS hits.
	got, ok, err = db.SearchText("b", [][]string{{"dev"}}, 10)
	if err != nil || !ok {
		t.Fatalf("SearchText: ok=%v err=%v", ok, err)
	}
	for _, b := range got {
		if b.FolderLower != "bookmarks bar/dev" {
			t.Errorf("folder filter leaked %v", b)
		}
	}
}

func TestSearchTextLimitAppliesAfterFolderRecheck(t *testing.T) {
	db := testDB(t)
	if !db.TextSearchEnabled() {
		t.Skip("sqlite build lacks FTS5")
	}

	// "workgo" satisfies the coarse LIKE pattern %work%go% but fails the
	// hierarchical re-check, which wants "work" and "go" in separate ordered
	// segments. Its name repeats the query term so it outranks the real
	// match; a limit applied in SQL would return it alone and then drop it.
	if err := db.ReplaceAll([]models.Bookmark{
		bm("decoy", "guide guide guide", "https://decoy.test", "workgo"),
		bm("real", "guide", "https://real.test", "Work/Go"),
	}, "fp"); err != nil {
		t.Fatal(err)
	}

	got, ok, err := db.SearchText("guide", [][]string{{"work", "go"}}, 1)
	if err != nil {
		t.Fatalf("SearchText: %v", err)
	}
	if !ok {
		t.Fatal("expected FTS to serve the query")
	}
	if len(got) != 1 || got[0].ID != "real" {
		t.Fatalf("SearchText = %v, want the hierarchy match", got)
	}
}
