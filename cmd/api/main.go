package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"scriptvault/internal/config"
	"scriptvault/internal/handlers"
	"scriptvault/internal/http"
	"scriptvault/internal/ratelimit"
	"scriptvault/internal/storage"
	"scriptvault/internal/storage/cache"
	"scriptvault/internal/storage/file"
	"scriptvault/internal/storage/github"
	"scriptvault/internal/storage/mem"
	"scriptvault/internal/storage/postgres"
	"scriptvault/internal/storage/sqlite"
	"scriptvault/internal/vault"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel, "format", cfg.LogFormat)

	// Select the storage backend
	store, closeStore, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open storage backend: %v", err)
	}
	defer closeStore()
	slog.Info("Storage backend ready", "backend", cfg.StorageBackend)

	// Optionally wrap it in the read-through cache
	var cacheSizer handlers.CacheSizer
	if cfg.CacheEnabled {
		cached, err := cache.New(store, cfg.CacheTTL, cfg.CacheSize)
		if err != nil {
			log.Fatalf("Failed to create cache: %v", err)
		}
		store = cached
		cacheSizer = cached
		slog.Info("Read-through cache enabled", "ttl", cfg.CacheTTL, "size", cfg.CacheSize)
	}

	svc := vault.New(store, vault.Limits{
		MaxScriptLength:    cfg.MaxScriptLength,
		MaxScriptsPerOwner: cfg.MaxScriptsPerOwner,
	})

	limiter := ratelimit.New(cfg.RateLimitWindow, cfg.RateLimitMax)

	// Sweep idle limiter keys so long-running servers don't accumulate
	// one entry per client forever.
	pruneDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(cfg.RateLimitWindow)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				limiter.Prune()
			case <-pruneDone:
				return
			}
		}
	}()
	defer close(pruneDone)

	router, err := http.NewRouter(&http.Deps{
		Service:        svc,
		Cache:          cacheSizer,
		Limiter:        limiter,
		AllowedClients: cfg.AllowedClients,
	})
	if err != nil {
		log.Fatalf("Failed to build router: %v", err)
	}

	server := &nethttp.Server{
		Addr:    cfg.Addr(),
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting API server", "addr", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		slog.Info("Shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Graceful shutdown failed", "error", err)
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			log.Fatalf("API server failed: %v", err)
		}
	}
}

// openStore builds the configured backend and returns it with its
// cleanup function.
func openStore(cfg *config.Config) (storage.ScriptStore, func(), error) {
	noop := func() {}
	switch cfg.StorageBackend {
	case config.BackendMemory:
		return mem.New(), noop, nil
	case config.BackendFile:
		store, err := file.New(cfg.DBFile)
		return store, noop, err
	case config.BackendSQLite:
		store, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			return nil, noop, err
		}
		return store, func() { _ = store.Close() }, nil
	case config.BackendPostgres:
		db, err := sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			return nil, noop, err
		}
		store, err := postgres.New(context.Background(), db)
		if err != nil {
			_ = db.Close()
			return nil, noop, err
		}
		return store, func() { _ = db.Close() }, nil
	case config.BackendGitHub:
		return github.New(cfg.GitHubToken, cfg.GitHubOwner, cfg.GitHubRepo, cfg.GitHubDir), noop, nil
	}
	return nil, noop, errors.New("unknown storage backend " + cfg.StorageBackend)
}

// parseLogLevel maps the configured level name to a slog level,
// defaulting to info.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
