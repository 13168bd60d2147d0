package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"testing"

	"github.com/cleanwk/bookdex/internal/bookmarks"
	"github.com/cleanwk/bookdex/internal/index"
	"github.com/cleanwk/bookdex/internal/models"
	"github.com/cleanwk/bookdex/internal/source"
	"github.com/cleanwk/bookdex/internal/testutil"
)

// testEnv sets up a temp index, bookmark source, service, and router.
// An empty authToken means disabled auth.
func testEnv(t *testing.T, authToken string) (*bookmarks.Service, http.Handler) {
	t.Helper()

	db := testutil.TestDB(t)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	path := testutil.WriteBookmarksFile(t, t.TempDir(), []models.Bookmark{
		testutil.Bookmark("10", "Go Blog", "https://go.dev/blog", ""),
		testutil.Bookmark("11", "Go Docs", "https://go.dev/doc", "Dev"),
		testutil.Bookmark("12", "Weather", "https://weather.test", "News"),
	})
	loader := source.NewLoader(path, t.TempDir(), logger)

	svc := bookmarks.NewService(db, index.NewTags(db), loader, logger)
	if _, _, err := svc.Refresh(context.Background(), false); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	router := NewRouter(svc, authToken != "", authToken, nil, nil)
	return svc, router
}

func doJSON(t *testing.T, router http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestListBookmarks(t *testing.T) {
	_, router := testEnv(t, "")

	w := doJSON(t, router, http.MethodGet, "/bookmarks?limit=10", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp BookmarkListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 3 {
		t.Errorf("total = %d, want 3", resp.Total)
	}
	if resp.Bookmarks[0].ID != "10" {
		t.Errorf("first = %v", resp.Bookmarks[0])
	}
}

func TestListBookmarksFolderFilter(t *testing.T) {
	_, router := testEnv(t, "")

	w := doJSON(t, router, http.MethodGet, "/bookmarks?folder=dev", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp BookmarkListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 1 || resp.Bookmarks[0].ID != "11" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestSearchEndpoint(t *testing.T) {
	_, router := testEnv(t, "")

	w := doJSON(t, router, http.MethodGet, "/search?q=weather", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp BookmarkListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 1 || resp.Bookmarks[0].ID != "12" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestGetBookmarkByEscapedURL(t *testing.T) {
	_, router := testEnv(t, "")

	key := url.PathEscape("https://go.dev/blog")
	w := doJSON(t, router, http.MethodGet, "/bookmarks/"+key, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var item BookmarkItem
	_ = json.Unmarshal(w.Body.Bytes(), &item)
	if item.ID != "10" {
		t.Errorf("item = %+v", item)
	}

	w = doJSON(t, router, http.MethodGet, "/bookmarks/missing", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing = %d, want 404", w.Code)
	}
}

func TestTagEndpoints(t *testing.T) {
	_, router := testEnv(t, "")

	// Attach.
	w := doJSON(t, router, http.MethodPost, "/bookmarks/10/tags", TagRequest{Tags: []string{"Go", "reading"}})
	if w.Code != http.StatusOK {
		t.Fatalf("add tags = %d, body = %s", w.Code, w.Body.String())
	}
	var item TagResponse
	_ = json.Unmarshal(w.Body.Bytes(), &item)
	if len(item.Tags) != 2 {
		t.Errorf("tags = %v", item.Tags)
	}
	if item.Added != 2 {
		t.Errorf("added = %d, want 2", item.Added)
	}

	// Re-attaching reports zero newly added.
	w = doJSON(t, router, http.MethodPost, "/bookmarks/10/tags", TagRequest{Tags: []string{"Go"}})
	if w.Code != http.StatusOK {
		t.Fatalf("re-add tags = %d", w.Code)
	}
	item = TagResponse{}
	_ = json.Unmarshal(w.Body.Bytes(), &item)
	if item.Added != 0 {
		t.Errorf("re-add added = %d, want 0", item.Added)
	}

	// Inventory.
	w = doJSON(t, router, http.MethodGet, "/tags", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list tags = %d", w.Code)
	}
	var tl TagListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &tl)
	if len(tl.Tags) != 2 {
		t.Errorf("tag list = %v", tl.Tags)
	}

	// Remove one; tags are case-sensitive, so the stored casing is required.
	w = doJSON(t, router, http.MethodDelete, "/bookmarks/10/tags/Go", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("remove tag = %d", w.Code)
	}

	// Remove the rest.
	w = doJSON(t, router, http.MethodDelete, "/bookmarks/10/tags", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("remove all = %d", w.Code)
	}
	var removed map[string]int
	_ = json.Unmarshal(w.Body.Bytes(), &removed)
	if removed["removed"] != 1 {
		t.Errorf("removed = %v", removed)
	}
}

func TestAddTagsValidation(t *testing.T) {
	_, router := testEnv(t, "")

	w := doJSON(t, router, http.MethodPost, "/bookmarks/10/tags", TagRequest{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty tags = %d, want 400", w.Code)
	}
	w = doJSON(t, router, http.MethodPost, "/bookmarks/missing/tags", TagRequest{Tags: []string{"x"}})
	if w.Code != http.StatusNotFound {
		t.Errorf("missing bookmark = %d, want 404", w.Code)
	}
}

func TestRenameTagEndpoint(t *testing.T) {
	_, router := testEnv(t, "")

	doJSON(t, router, http.MethodPost, "/bookmarks/10/tags", TagRequest{Tags: []string{"golang"}})
	doJSON(t, router, http.MethodPost, "/bookmarks/11/tags", TagRequest{Tags: []string{"golang"}})

	w := doJSON(t, router, http.MethodPost, "/tags/rename", RenameTagRequest{From: "golang", To: "go"})
	if w.Code != http.StatusOK {
		t.Fatalf("rename = %d, body = %s", w.Code, w.Body.String())
	}
	var resp RenameTagResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Affected != 2 {
		t.Errorf("affected = %d, want 2", resp.Affected)
	}

	w = doJSON(t, router, http.MethodPost, "/tags/rename", RenameTagRequest{From: "golang"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing to = %d, want 400", w.Code)
	}
}

func TestRefreshEndpoint(t *testing.T) {
	_, router := testEnv(t, "")

	w := doJSON(t, router, http.MethodPost, "/refresh", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("refresh = %d, body = %s", w.Code, w.Body.String())
	}
	var resp RefreshResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Refreshed {
		t.Error("unchanged source must not rebuild")
	}
	if resp.Bookmarks != 3 {
		t.Errorf("bookmarks = %d", resp.Bookmarks)
	}

	w = doJSON(t, router, http.MethodPost, "/refresh?force=true", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("force refresh = %d", w.Code)
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if !resp.Refreshed {
		t.Error("force must rebuild")
	}
}

func TestStatsEndpoint(t *testing.T) {
	_, router := testEnv(t, "")

	w := doJSON(t, router, http.MethodGet, "/stats", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("stats = %d", w.Code)
	}
	var stats StatsResponse
	_ = json.Unmarshal(w.Body.Bytes(), &stats)
	if stats.Bookmarks != 3 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestAuthMiddleware(t *testing.T) {
	_, router := testEnv(t, "secret")

	// No token → 401.
	w := doJSON(t, router, http.MethodGet, "/bookmarks", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no token = %d, want 401", w.Code)
	}

	// Wrong token → 401.
	req := httptest.NewRequest(http.MethodGet, "/bookmarks", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", rec.Code)
	}

	// Correct token → 200.
	req = httptest.NewRequest(http.MethodGet, "/bookmarks", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("correct token = %d, want 200", rec.Code)
	}
}

func TestRefreshCallbackFires(t *testing.T) {
	db := testutil.TestDB(t)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	path := testutil.WriteBookmarksFile(t, t.TempDir(), []models.Bookmark{
		testutil.Bookmark("1", "A", "https://a.test", ""),
	})
	loader := source.NewLoader(path, t.TempDir(), logger)
	svc := bookmarks.NewService(db, index.NewTags(db), loader, logger)

	var fired int
	router := NewRouter(svc, false, "", nil, func(count int) { fired = count })

	w := doJSON(t, router, http.MethodPost, "/refresh", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("refresh = %d", w.Code)
	}
	if fired != 1 {
		t.Errorf("callback count = %d, want 1", fired)
	}
}
