// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/cleanwk/bookdex/internal/api"
	"github.com/cleanwk/bookdex/internal/bookmarks"
	"github.com/cleanwk/bookdex/internal/index"
	"github.com/cleanwk/bookdex/internal/source"
	"github.com/cleanwk/bookdex/internal/sse"
)

// Run starts the HTTP server with the given options: it opens the index,
// syncs it with the bookmark source, watches the source for changes, and
// serves the REST API with an SSE event stream until interrupted.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("data_dir", cfg.Source.DataDir),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure data directory exists (parse cache lives there).
	if err := os.MkdirAll(cfg.Source.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	// Locate the bookmark source.
	sourcePath, err := source.ResolvePath(cfg.Source.Path, cfg.Source.Browser)
	if err != nil {
		return fmt.Errorf("resolve bookmark source: %w", err)
	}
	logger.Info("Bookmark source resolved", slog.String("path", sourcePath))

	// Initialize SQLite index and tag store.
	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()
	if ftsErr := db.TextSearchErr(); ftsErr != nil {
		logger.Warn("text search degraded, falling back to scans", slog.String("error", ftsErr.Error()))
	}

	loader := source.NewLoader(sourcePath, cfg.Source.DataDir, logger)
	svc := bookmarks.NewService(db, index.NewTags(db), loader, logger)

	// Run initial sync.
	if _, _, err := svc.Refresh(ctx, false); err != nil {
		logger.Warn("initial refresh failed", slog.String("error", err.Error()))
	}

	// SSE broker.
	broker := sse.NewBroker()
	defer broker.Close()

	// Build API router.
	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker, broker.PublishRefreshed)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Watch the bookmark file and refresh the index when the browser saves.
	g.Go(func() error {
		return source.Watch(gCtx, sourcePath, logger, func() {
			refreshed, count, err := svc.Refresh(gCtx, false)
			if err != nil {
				logger.Warn("watch refresh failed", slog.String("error", err.Error()))
				return
			}
			if refreshed {
				broker.PublishRefreshed(count)
			}
		})
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
