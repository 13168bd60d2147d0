package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cleanwk/bookdex/internal/bookmarks"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
// refreshed, if non-nil, is called after each successful refresh.
func NewRouter(svc *bookmarks.Service, authEnabled bool, token string, sseHandler http.Handler, refreshed func(count int)) chi.Router {
	h := NewHandler(svc, refreshed)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Bookmarks.
	r.Get("/bookmarks", h.ListBookmarks)
	r.Get("/bookmarks/{key}", h.GetBookmark)

	// Search.
	r.Get("/search", h.Search)

	// Tags.
	r.Get("/tags", h.ListTags)
	r.Post("/tags/rename", h.RenameTag)
	r.Get("/bookmarks/{key}/tags", h.BookmarkTags)
	r.Post("/bookmarks/{key}/tags", h.AddTags)
	r.Delete("/bookmarks/{key}/tags", h.RemoveTag)
	r.Delete("/bookmarks/{key}/tags/{tag}", h.RemoveTag)

	// Index maintenance.
	r.Post("/refresh", h.Refresh)
	r.Get("/stats", h.Stats)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
