package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/cleanwk/bookdex/internal/bookmarks"
	"github.com/cleanwk/bookdex/internal/index"
	"github.com/cleanwk/bookdex/internal/mcpserver"
	"github.com/cleanwk/bookdex/internal/models"
	"github.com/cleanwk/bookdex/internal/source"
	pkgconfig "github.com/cleanwk/bookdex/pkg/config"
)

// LoadConfig reads the YAML config at path, falling back to the built-in
// defaults when the file does not exist.
func LoadConfig(path string) (*Config, error) {
	cfg := NewDefaultConfig()
	if _, err := os.Stat(path); err == nil {
		if err := pkgconfig.Load(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	} else if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// session bundles the pieces a one-shot CLI command needs. Unlike the
// server path it logs to stderr so stdout stays clean JSON.
type session struct {
	cfg    *Config
	db     *index.DB
	svc    *bookmarks.Service
	logger *slog.Logger
}

func openSession(cfg *Config) (*session, error) {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	if err := os.MkdirAll(cfg.Source.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	sourcePath, err := source.ResolvePath(cfg.Source.Path, cfg.Source.Browser)
	if err != nil {
		return nil, fmt.Errorf("resolve bookmark source: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}

	loader := source.NewLoader(sourcePath, cfg.Source.DataDir, logger)
	svc := bookmarks.NewService(db, index.NewTags(db), loader, logger)
	return &session{cfg: cfg, db: db, svc: svc, logger: logger}, nil
}

func (s *session) Close() {
	_ = s.db.Close()
}

// ensureFresh syncs the index before a read. A source failure only aborts
// when the index is empty; otherwise the stale index still serves.
func (s *session) ensureFresh(ctx context.Context) error {
	if _, _, err := s.svc.Refresh(ctx, false); err != nil {
		count, countErr := s.db.Count()
		if countErr != nil || count == 0 {
			return err
		}
		s.logger.Warn("refresh failed, using existing index", slog.String("error", err.Error()))
	}
	return nil
}

func sessionFor(cmd *cli.Command) (*session, error) {
	cfg, err := LoadConfig(cmd.String("config"))
	if err != nil {
		return nil, err
	}
	return openSession(cfg)
}

type bookmarkOut struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	URL    string   `json:"url"`
	Folder string   `json:"folder,omitempty"`
	Tags   []string `json:"tags,omitempty"`
}

func printBookmark(enc *json.Encoder, b models.Bookmark, tags []string) error {
	return enc.Encode(bookmarkOut{
		ID:     b.ID,
		Name:   b.Name,
		URL:    b.URL,
		Folder: b.FolderPath,
		Tags:   tags,
	})
}

// Commands returns the CLI subcommands.
func Commands() []*cli.Command {
	return []*cli.Command{
		{
			Name:      "search",
			Usage:     "Ranked search over indexed bookmarks (supports #tag and dir: tokens)",
			ArgsUsage: "[query]",
			Flags: []cli.Flag{
				&cli.StringSliceFlag{Name: "tag", Aliases: []string{"t"}, Usage: "Tag filter (repeatable, all must match)"},
				&cli.StringSliceFlag{Name: "path", Aliases: []string{"p"}, Usage: "Folder filter (repeatable, all must match)"},
				&cli.BoolFlag{Name: "fuzzy", Aliases: []string{"f"}, Usage: "Use fuzzy subsequence matching"},
				&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: 20, Usage: "Maximum results"},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				s, err := sessionFor(cmd)
				if err != nil {
					return err
				}
				defer s.Close()
				if err := s.ensureFresh(ctx); err != nil {
					return err
				}
				results, err := s.svc.Search(ctx, bookmarks.Query{
					Text:    strings.Join(cmd.Args().Slice(), " "),
					Tags:    cmd.StringSlice("tag"),
					Folders: cmd.StringSlice("path"),
					Fuzzy:   cmd.Bool("fuzzy"),
					Limit:   int(cmd.Int("limit")),
				})
				if err != nil {
					return err
				}
				ids := make([]string, len(results))
				for i, b := range results {
					ids[i] = b.ID
				}
				tagsByID, err := s.svc.TagsFor(ctx, ids)
				if err != nil {
					tagsByID = nil
				}
				enc := json.NewEncoder(os.Stdout)
				for _, b := range results {
					if err := printBookmark(enc, b, tagsByID[b.ID]); err != nil {
						return err
					}
				}
				return nil
			},
		},
		{
			Name:      "tag",
			Usage:     "Attach tags to a bookmark by ID or URL",
			ArgsUsage: "<id-or-url> <tag> [tag...]",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				args := cmd.Args().Slice()
				if len(args) < 2 {
					return fmt.Errorf("usage: tag <id-or-url> <tag> [tag...]")
				}
				s, err := sessionFor(cmd)
				if err != nil {
					return err
				}
				defer s.Close()
				if err := s.ensureFresh(ctx); err != nil {
					return err
				}
				b, tags, added, err := s.svc.TagBookmark(ctx, args[0], args[1:])
				if err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "%d tag(s) added\n", added)
				return printBookmark(json.NewEncoder(os.Stdout), *b, tags)
			},
		},
		{
			Name:      "untag",
			Usage:     "Remove a tag from a bookmark, or all tags when none given",
			ArgsUsage: "<id-or-url> [tag]",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				args := cmd.Args().Slice()
				if len(args) < 1 {
					return fmt.Errorf("usage: untag <id-or-url> [tag]")
				}
				s, err := sessionFor(cmd)
				if err != nil {
					return err
				}
				defer s.Close()
				tag := ""
				if len(args) > 1 {
					tag = args[1]
				}
				removed, err := s.svc.UntagBookmark(ctx, args[0], tag)
				if err != nil {
					return err
				}
				fmt.Printf("removed %d tag(s)\n", removed)
				return nil
			},
		},
		{
			Name:  "tags",
			Usage: "List all tags with usage counts",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				s, err := sessionFor(cmd)
				if err != nil {
					return err
				}
				defer s.Close()
				tags, err := s.svc.ListTags(ctx)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(os.Stdout)
				for _, tc := range tags {
					if err := enc.Encode(tc); err != nil {
						return err
					}
				}
				return nil
			},
		},
		{
			Name:      "show",
			Usage:     "Show one bookmark with its tags",
			ArgsUsage: "<id-or-url>",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				if cmd.Args().Len() < 1 {
					return fmt.Errorf("usage: show <id-or-url>")
				}
				s, err := sessionFor(cmd)
				if err != nil {
					return err
				}
				defer s.Close()
				if err := s.ensureFresh(ctx); err != nil {
					return err
				}
				b, tags, err := s.svc.Get(ctx, cmd.Args().First())
				if err != nil {
					return err
				}
				return printBookmark(json.NewEncoder(os.Stdout), *b, tags)
			},
		},
		{
			Name:      "rename",
			Usage:     "Rename a tag everywhere, merging where both exist",
			ArgsUsage: "<old-tag> <new-tag>",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				args := cmd.Args().Slice()
				if len(args) != 2 {
					return fmt.Errorf("usage: rename <old-tag> <new-tag>")
				}
				s, err := sessionFor(cmd)
				if err != nil {
					return err
				}
				defer s.Close()
				affected, err := s.svc.RenameTag(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				fmt.Printf("renamed on %d bookmark(s)\n", affected)
				return nil
			},
		},
		{
			Name:  "refresh",
			Usage: "Sync the index with the bookmark source",
			Flags: []cli.Flag{
				&cli.BoolFlag{Name: "force", Usage: "Rebuild even when the source is unchanged"},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				s, err := sessionFor(cmd)
				if err != nil {
					return err
				}
				defer s.Close()
				refreshed, count, err := s.svc.Refresh(ctx, cmd.Bool("force"))
				if err != nil {
					return err
				}
				if refreshed {
					fmt.Printf("index rebuilt (%d bookmarks)\n", count)
				} else {
					fmt.Printf("index up to date (%d bookmarks)\n", count)
				}
				return nil
			},
		},
		{
			Name:  "stats",
			Usage: "Report index size, tag usage and text search availability",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				s, err := sessionFor(cmd)
				if err != nil {
					return err
				}
				defer s.Close()
				stats, err := s.svc.Stats(ctx)
				if err != nil {
					return err
				}
				return json.NewEncoder(os.Stdout).Encode(stats)
			},
		},
		{
			Name:  "serve",
			Usage: "Run the HTTP server with live refresh and SSE events",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg, err := LoadConfig(cmd.String("config"))
				if err != nil {
					return err
				}
				return Run(ctx, WithConfig(cfg))
			},
		},
		{
			Name:  "mcp",
			Usage: "Run the MCP server on stdin/stdout",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				s, err := sessionFor(cmd)
				if err != nil {
					return err
				}
				defer s.Close()
				if err := s.ensureFresh(ctx); err != nil {
					return err
				}
				return mcpserver.New(s.svc).ServeStdio()
			},
		},
	}
}
