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

	"github.com/starford/quire/internal/api"
	"github.com/starford/quire/internal/blob"
	"github.com/starford/quire/internal/kv"
	"github.com/starford/quire/internal/mcpserver"
	"github.com/starford/quire/internal/models"
	"github.com/starford/quire/internal/notebook"
	"github.com/starford/quire/internal/remote"
	"github.com/starford/quire/internal/sse"
	"github.com/starford/quire/internal/watch"
)

const pdfURLPrefix = "/api/pdfs/"

func newApplication(opts []Option) (*application, error) {
	app := &application{logOutput: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// logger initializes the structured JSON logger and makes it the default.
func (a *application) logger() *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(a.logOutput, &slog.HandlerOptions{
		Level: a.config.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// workspace is the storage and service graph shared by every entry point.
type workspace struct {
	store   kv.Store
	file    *kv.File
	tracker *watch.Tracker
	blobs   *blob.Registry
	svc     *notebook.Service
}

func openWorkspace(cfg *Config, logger *slog.Logger, onEvent notebook.EventFunc) (*workspace, error) {
	store, err := kv.Open(cfg.Storage.Driver, cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	ws := &workspace{store: store, blobs: blob.NewRegistry(pdfURLPrefix)}
	backing := store
	if f, ok := store.(*kv.File); ok {
		ws.file = f
		ws.tracker = watch.NewTracker(f)
		backing = ws.tracker
	}

	var backend remote.Backend = remote.Disabled{}
	if cfg.Remote.Enabled() {
		backend = remote.NewREST(remote.RESTConfig{
			BaseURL: cfg.Remote.URL,
			APIKey:  cfg.Remote.APIKey,
			Timeout: cfg.Remote.Timeout,
		})
	}

	opts := []notebook.Option{
		notebook.WithRemote(backend),
		notebook.WithLocator(ws.blobs),
		notebook.WithLogger(logger),
	}
	if onEvent != nil {
		opts = append(opts, notebook.WithEvents(onEvent))
	}
	ws.svc = notebook.New(backing, opts...)
	return ws, nil
}

func (w *workspace) Close() error {
	return w.store.Close()
}

// Run starts the HTTP application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.logger()

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("storage_driver", cfg.Storage.Driver),
		slog.String("storage_path", cfg.Storage.Path),
		slog.String("remote_mode", cfg.Remote.Mode),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// SSE broker.
	broker := sse.NewBroker(500 * time.Millisecond)

	ws, err := openWorkspace(cfg, logger, func(e notebook.Event) {
		broker.PublishChange(e.Entity, e.Kind, e.ID)
	})
	if err != nil {
		broker.Close()
		return err
	}
	defer ws.Close()

	apiRouter := api.NewRouter(ws.svc, ws.blobs, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker, cfg.Trash.Retention)

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

	// Report edits made to the store directory by other processes.
	if ws.file != nil {
		g.Go(func() error {
			return watch.Watch(gCtx, ws.file, ws.tracker, logger, broker.PublishCollectionChanged)
		})
	}

	// Periodic trash purge.
	if cfg.Trash.PurgeInterval > 0 {
		g.Go(func() error {
			purgeLoop(gCtx, ws.svc, cfg.Trash, logger)
			return nil
		})
	}

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
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		// Closing the broker ends open SSE streams so Shutdown does not wait on them.
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return context.Canceled
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

func purgeLoop(ctx context.Context, svc *notebook.Service, cfg TrashConfig, logger *slog.Logger) {
	ticker := time.NewTicker(cfg.PurgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if purged := svc.PurgeTrash(ctx, cfg.Retention); len(purged) > 0 {
				logger.Info("trash purged", slog.Int("folders", len(purged)))
			}
		}
	}
}

// RunMCP serves the MCP tools over stdin/stdout until the client disconnects.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(append([]Option{WithLogOutput(os.Stderr)}, opts...))
	if err != nil {
		return err
	}
	logger := app.logger()

	ws, err := openWorkspace(app.config, logger, nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	logger.Info("MCP server starting on stdio")
	err = mcpserver.New(ws.svc).Serve(ctx, os.Stdin, os.Stdout)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Purge removes trashed folders deleted more than olderThan ago and returns them.
func Purge(ctx context.Context, olderThan time.Duration, opts ...Option) ([]models.Folder, error) {
	app, err := newApplication(opts)
	if err != nil {
		return nil, err
	}
	logger := app.logger()

	ws, err := openWorkspace(app.config, logger, nil)
	if err != nil {
		return nil, err
	}
	defer ws.Close()

	purged := ws.svc.PurgeTrash(ctx, olderThan)
	logger.Info("trash purged",
		slog.Int("folders", len(purged)),
		slog.Duration("older_than", olderThan))
	return purged, nil
}
