// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Bookdex tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/cleanwk/bookdex/internal/bookmarks"
)

// Server wraps the MCP server with Bookdex tools.
type Server struct {
	mcp *server.MCPServer
	svc *bookmarks.Service
}

// New creates a new MCP server with all Bookdex tools registered.
func New(svc *bookmarks.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Bookdex",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	s.mcp.AddTool(mcp.NewTool("search_bookmarks",
		mcp.WithDescription("Ranked search over indexed browser bookmarks. "+
			"The query may embed #tag and dir:folder filter tokens."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithString("tags", mcp.Description("Comma-separated tag filters (all must match)")),
		mcp.WithString("folder", mcp.Description("Folder path filter, e.g. 'Bookmarks Bar/Dev'")),
		mcp.WithBoolean("fuzzy", mcp.Description("Use fuzzy subsequence matching instead of substring scoring")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 20)")),
	), s.searchBookmarks)

	s.mcp.AddTool(mcp.NewTool("tag_bookmark",
		mcp.WithDescription("Attach one or more tags to a bookmark identified by its ID or exact URL."),
		mcp.WithString("bookmark", mcp.Required(), mcp.Description("Bookmark ID or URL")),
		mcp.WithString("tags", mcp.Required(), mcp.Description("Comma-separated tags to attach")),
	), s.tagBookmark)

	s.mcp.AddTool(mcp.NewTool("untag_bookmark",
		mcp.WithDescription("Remove a tag from a bookmark, or all of its tags when no tag is given."),
		mcp.WithString("bookmark", mcp.Required(), mcp.Description("Bookmark ID or URL")),
		mcp.WithString("tag", mcp.Description("Tag to remove; omit to remove all")),
	), s.untagBookmark)

	s.mcp.AddTool(mcp.NewTool("bookmark_tags",
		mcp.WithDescription("Show a bookmark with its current tags."),
		mcp.WithString("bookmark", mcp.Required(), mcp.Description("Bookmark ID or URL")),
	), s.bookmarkTags)

	s.mcp.AddTool(mcp.NewTool("list_tags",
		mcp.WithDescription("List every tag in use with its bookmark count."),
	), s.listTags)

	s.mcp.AddTool(mcp.NewTool("refresh_index",
		mcp.WithDescription("Sync the index with the browser's bookmark file."),
		mcp.WithBoolean("force", mcp.Description("Rebuild even when the source is unchanged")),
	), s.refreshIndex)

	s.mcp.AddTool(mcp.NewTool("index_stats",
		mcp.WithDescription("Report index size, tag usage and text search availability."),
	), s.indexStats)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func splitTags(raw string) []string {
	var out []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func (s *Server) searchBookmarks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	q := bookmarks.Query{
		Text:  query,
		Tags:  splitTags(req.GetString("tags", "")),
		Fuzzy: req.GetBool("fuzzy", false),
		Limit: req.GetInt("limit", 20),
	}
	if folder := req.GetString("folder", ""); folder != "" {
		q.Folders = []string{folder}
	}
	results, err := s.svc.Search(ctx, q)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) tagBookmark(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := req.RequireString("bookmark")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := req.RequireString("tags")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tags := splitTags(raw)
	if len(tags) == 0 {
		return mcp.NewToolResultError("tags must not be empty"), nil
	}
	b, all, added, err := s.svc.TagBookmark(ctx, key, tags)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s (%s): %s (%d added)", b.Name, b.URL, strings.Join(all, ", "), added)), nil
}

func (s *Server) untagBookmark(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := req.RequireString("bookmark")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	removed, err := s.svc.UntagBookmark(ctx, key, req.GetString("tag", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("removed %d tag(s)", removed)), nil
}

func (s *Server) bookmarkTags(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := req.RequireString("bookmark")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	b, tags, err := s.svc.Get(ctx, key)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(map[string]any{
		"id":     b.ID,
		"name":   b.Name,
		"url":    b.URL,
		"folder": b.FolderPath,
		"tags":   tags,
	}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listTags(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tags, err := s.svc.ListTags(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var sb strings.Builder
	for _, tc := range tags {
		fmt.Fprintf(&sb, "%s (%d)\n", tc.Tag, tc.Count)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) refreshIndex(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	refreshed, count, err := s.svc.Refresh(ctx, req.GetBool("force", false))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !refreshed {
		return mcp.NewToolResultText(fmt.Sprintf("index up to date (%d bookmarks)", count)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("index rebuilt (%d bookmarks)", count)), nil
}

func (s *Server) indexStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.svc.Stats(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(stats, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}
