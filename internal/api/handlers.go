package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/cleanwk/bookdex/internal/apperr"
	"github.com/cleanwk/bookdex/internal/bookmarks"
)

const defaultLimit = 50

// Handler holds API route handlers.
type Handler struct {
	svc *bookmarks.Service

	// refreshed, if non-nil, is called after a successful refresh so the
	// server can fan the event out to SSE subscribers.
	refreshed func(count int)
}

// NewHandler creates a new Handler. refreshed may be nil.
func NewHandler(svc *bookmarks.Service, refreshed func(count int)) *Handler {
	return &Handler{svc: svc, refreshed: refreshed}
}

// bookmarkKey extracts the bookmark ID-or-URL from the route. URLs arrive
// path-escaped (e.g. https%3A%2F%2Fgo.dev%2F).
func bookmarkKey(r *http.Request) string {
	raw := chi.URLParam(r, "key")
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

func queryLimit(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		return defaultLimit
	}
	return limit
}

// ListBookmarks handles GET /api/bookmarks.
//
//	@Summary		List bookmarks in source order
//	@Tags			bookmarks
//	@Produce		json
//	@Param			limit	query		int		false	"Max results"
//	@Param			folder	query		string	false	"Folder filter (repeatable)"
//	@Success		200		{object}	BookmarkListResponse
//	@Security		BearerAuth
//	@Router			/bookmarks [get]
func (h *Handler) ListBookmarks(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.List(r.Context(), r.URL.Query()["folder"], queryLimit(r))
	if err != nil {
		slog.Error("list bookmarks failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, BookmarkListResponse{Bookmarks: toItems(items), Total: len(items)})
}

// Search handles GET /api/search.
//
//	@Summary		Ranked bookmark search
//	@Tags			bookmarks
//	@Produce		json
//	@Param			q		query		string	true	"Query text; supports #tag and dir: tokens"
//	@Param			tag		query		string	false	"Tag filter (repeatable, AND)"
//	@Param			folder	query		string	false	"Folder filter (repeatable, AND)"
//	@Param			fuzzy	query		bool	false	"Use fuzzy matching"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	BookmarkListResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	fuzzy, _ := strconv.ParseBool(q.Get("fuzzy"))
	items, err := h.svc.Search(r.Context(), bookmarks.Query{
		Text:    q.Get("q"),
		Tags:    q["tag"],
		Folders: q["folder"],
		Fuzzy:   fuzzy,
		Limit:   queryLimit(r),
	})
	if err != nil {
		slog.Error("search failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, BookmarkListResponse{Bookmarks: toItems(items), Total: len(items)})
}

// GetBookmark handles GET /api/bookmarks/{key}.
//
//	@Summary		Get one bookmark by ID or URL
//	@Tags			bookmarks
//	@Produce		json
//	@Param			key	path		string	true	"Bookmark ID or path-escaped URL"
//	@Success		200	{object}	BookmarkItem
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/bookmarks/{key} [get]
func (h *Handler) GetBookmark(w http.ResponseWriter, r *http.Request) {
	key := bookmarkKey(r)
	b, tags, err := h.svc.Get(r.Context(), key)
	if err != nil {
		h.writeError(w, "get bookmark", key, err)
		return
	}
	writeJSON(w, http.StatusOK, toItem(*b, tags))
}

// BookmarkTags handles GET /api/bookmarks/{key}/tags.
//
//	@Summary		List a bookmark's tags
//	@Tags			tags
//	@Produce		json
//	@Param			key	path		string	true	"Bookmark ID or path-escaped URL"
//	@Success		200	{object}	TagRequest
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/bookmarks/{key}/tags [get]
func (h *Handler) BookmarkTags(w http.ResponseWriter, r *http.Request) {
	key := bookmarkKey(r)
	_, tags, err := h.svc.Get(r.Context(), key)
	if err != nil {
		h.writeError(w, "bookmark tags", key, err)
		return
	}
	if tags == nil {
		tags = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"tags": tags})
}

// AddTags handles POST /api/bookmarks/{key}/tags.
//
//	@Summary		Attach tags to a bookmark
//	@Tags			tags
//	@Accept			json
//	@Produce		json
//	@Param			key		path		string		true	"Bookmark ID or path-escaped URL"
//	@Param			body	body		TagRequest	true	"Tags to attach"
//	@Success		200		{object}	TagResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/bookmarks/{key}/tags [post]
func (h *Handler) AddTags(w http.ResponseWriter, r *http.Request) {
	key := bookmarkKey(r)
	var req TagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if len(req.Tags) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("tags are required"))
		return
	}
	b, tags, added, err := h.svc.TagBookmark(r.Context(), key, req.Tags)
	if err != nil {
		h.writeError(w, "add tags", key, err)
		return
	}
	writeJSON(w, http.StatusOK, TagResponse{BookmarkItem: toItem(*b, tags), Added: added})
}

// RemoveTag handles DELETE /api/bookmarks/{key}/tags/{tag} and
// DELETE /api/bookmarks/{key}/tags (all tags).
//
//	@Summary		Detach a tag, or all tags, from a bookmark
//	@Tags			tags
//	@Produce		json
//	@Param			key	path		string	true	"Bookmark ID or path-escaped URL"
//	@Param			tag	path		string	false	"Tag to remove; omit to remove all"
//	@Success		200	{object}	map[string]int
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/bookmarks/{key}/tags/{tag} [delete]
func (h *Handler) RemoveTag(w http.ResponseWriter, r *http.Request) {
	key := bookmarkKey(r)
	tag := chi.URLParam(r, "tag")
	removed, err := h.svc.UntagBookmark(r.Context(), key, tag)
	if err != nil {
		h.writeError(w, "remove tag", key, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

// ListTags handles GET /api/tags.
//
//	@Summary		List all tags with usage counts
//	@Tags			tags
//	@Produce		json
//	@Success		200	{object}	TagListResponse
//	@Security		BearerAuth
//	@Router			/tags [get]
func (h *Handler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.svc.ListTags(r.Context())
	if err != nil {
		slog.Error("list tags failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, TagListResponse{Tags: tags})
}

// RenameTag handles POST /api/tags/rename.
//
//	@Summary		Rename a tag everywhere, merging on collision
//	@Tags			tags
//	@Accept			json
//	@Produce		json
//	@Param			body	body		RenameTagRequest	true	"Old and new tag names"
//	@Success		200		{object}	RenameTagResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tags/rename [post]
func (h *Handler) RenameTag(w http.ResponseWriter, r *http.Request) {
	var req RenameTagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.From == "" || req.To == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("from and to are required"))
		return
	}
	affected, err := h.svc.RenameTag(r.Context(), req.From, req.To)
	if err != nil {
		slog.Error("rename tag failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, RenameTagResponse{Affected: affected})
}

// Refresh handles POST /api/refresh.
//
//	@Summary		Sync the index with the bookmark source
//	@Tags			index
//	@Produce		json
//	@Param			force	query		bool	false	"Rebuild even when unchanged"
//	@Success		200		{object}	RefreshResponse
//	@Security		BearerAuth
//	@Router			/refresh [post]
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))
	refreshed, count, err := h.svc.Refresh(r.Context(), force)
	if err != nil {
		slog.Error("refresh failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("refresh failed"))
		return
	}
	if refreshed && h.refreshed != nil {
		h.refreshed(count)
	}
	writeJSON(w, http.StatusOK, RefreshResponse{Refreshed: refreshed, Bookmarks: count})
}

// Stats handles GET /api/stats.
//
//	@Summary		Index status
//	@Tags			index
//	@Produce		json
//	@Success		200	{object}	StatsResponse
//	@Security		BearerAuth
//	@Router			/stats [get]
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		slog.Error("stats failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) writeError(w http.ResponseWriter, op, key string, err error) {
	if errors.Is(err, apperr.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	slog.Error(op+" failed", slog.String("key", key), slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
}
