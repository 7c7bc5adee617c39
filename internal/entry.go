// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/inkwell/internal/api"
	"github.com/starford/inkwell/internal/history"
	"github.com/starford/inkwell/internal/mcpserver"
	"github.com/starford/inkwell/internal/sse"
	"github.com/starford/inkwell/internal/storage"
	"github.com/starford/inkwell/internal/vault"
)

func newApplication(opts []Option) (*application, error) {
	app := &application{version: "dev", out: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// logger builds the structured JSON logger writing to w.
func (a *application) logger(w io.Writer) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: a.config.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// openVault opens the version store and the vault. The caller closes the
// returned history store.
func (a *application) openVault(logger *slog.Logger, extra ...vault.Option) (*vault.Vault, storage.Provider, *history.Store, error) {
	cfg := a.config

	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return nil, nil, nil, fmt.Errorf("create vault dir: %w", err)
	}
	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init storage: %w", err)
	}
	h, err := history.Open(cfg.HistoryPath())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init history: %w", err)
	}

	opts := []vault.Option{
		vault.WithStorage(store),
		vault.WithLogger(logger),
		vault.WithHistory(h),
		vault.WithArchiveOnDelete(cfg.History.Archive()),
	}
	v, err := vault.Open(cfg.Vault.Path, append(opts, extra...)...)
	if err != nil {
		_ = h.Close()
		return nil, nil, nil, fmt.Errorf("open vault: %w", err)
	}
	return v, store, h, nil
}

func closeHistory(logger *slog.Logger, h *history.Store) {
	if err := h.Close(); err != nil {
		logger.Error("history close failed", slog.String("error", err.Error()))
	}
}

// Run starts the HTTP server, the SSE feed and, when enabled, the vault watcher.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.logger(os.Stdout)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("history_path", cfg.History.Path),
		slog.Bool("watch", cfg.Vault.Watch),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// SSE broker, fed by vault events.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	v, store, h, err := app.openVault(logger, vault.WithEventHook(broker.PublishChange))
	if err != nil {
		return err
	}
	defer closeHistory(logger, h)

	apiRouter := api.NewRouter(v, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker, store)
	attachments := api.NewAttachmentHandler(store)

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

	// Attachments are public so they can be embedded in rendered notes.
	r.Get("/attachments/{filename}", attachments.ServeFile)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	if cfg.Vault.Watch {
		g.Go(func() error {
			if err := v.Watch(gCtx); err != nil {
				logger.Error("watcher stopped", slog.String("error", err.Error()))
			}
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

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the watcher stops with the server.
var errShutdown = errors.New("shutdown")

// RunMCP serves the MCP tools on stdio. Logs go to stderr since stdout
// carries the protocol.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := app.logger(os.Stderr)

	v, _, h, err := app.openVault(logger)
	if err != nil {
		return err
	}
	defer closeHistory(logger, h)

	if app.config.Vault.Watch {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			if err := v.Watch(ctx); err != nil {
				logger.Error("watcher stopped", slog.String("error", err.Error()))
			}
		}()
	}

	logger.Info("MCP server starting", slog.String("vault_path", app.config.Vault.Path))
	return mcpserver.New(v, app.version).ServeStdio()
}

// Check loads the vault, repairing what it can, and writes one line per
// diagnostic and per orphaned history. It returns the number of problems.
func Check(_ context.Context, opts ...Option) (int, error) {
	app, err := newApplication(opts)
	if err != nil {
		return 0, err
	}
	logger := app.logger(io.Discard)

	v, _, h, err := app.openVault(logger)
	if err != nil {
		return 0, err
	}
	defer closeHistory(logger, h)

	diags := v.Diagnostics()
	for _, d := range diags {
		fmt.Fprintf(app.out, "%-10s %s: %s\n", d.Kind, d.Path, d.Message)
	}

	keys, err := h.Keys()
	if err != nil {
		return 0, fmt.Errorf("list history keys: %w", err)
	}
	notes := v.Notes()
	for _, n := range notes {
		delete(keys, n.Key)
	}
	orphans := make([]string, 0, len(keys))
	for k := range keys {
		orphans = append(orphans, k)
	}
	sort.Strings(orphans)
	for _, k := range orphans {
		fmt.Fprintf(app.out, "%-10s history %s: no note with this key\n", "orphaned", k)
	}

	problems := len(diags) + len(orphans)
	fmt.Fprintf(app.out, "%d folders, %d notes, %d problems\n", len(v.Folders()), len(notes), problems)
	return problems, nil
}
