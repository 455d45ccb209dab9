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
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/starford/menuboard/internal/api"
	"github.com/starford/menuboard/internal/assetmeta"
	"github.com/starford/menuboard/internal/backend"
	"github.com/starford/menuboard/internal/localstore"
	"github.com/starford/menuboard/internal/mcpserver"
	"github.com/starford/menuboard/internal/session"
	"github.com/starford/menuboard/internal/sse"
	"github.com/starford/menuboard/internal/watcher"
)

// services are the long-lived collaborators shared by the HTTP server and
// the background goroutines.
type services struct {
	db      *localstore.DB
	blobs   *localstore.BlobDir
	backend *backend.Client
	assets  assetmeta.Store
	pool    *pgxpool.Pool
	broker  *sse.Broker
	limiter *api.RateLimiter
	metrics *api.Metrics
}

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

func openStores(cfg *Config) (*localstore.DB, *localstore.BlobDir, error) {
	if err := os.MkdirAll(cfg.Store.BlobDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create blob dir: %w", err)
	}
	blobs, err := localstore.NewBlobDir(cfg.Store.BlobDir)
	if err != nil {
		return nil, nil, fmt.Errorf("init blob dir: %w", err)
	}
	db, err := localstore.Open(cfg.Store.SQLitePath)
	if err != nil {
		return nil, nil, fmt.Errorf("init store: %w", err)
	}
	return db, blobs, nil
}

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger := app.newLogger()
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("sqlite_path", cfg.Store.SQLitePath),
		slog.String("blob_dir", cfg.Store.BlobDir),
		slog.Bool("backend_configured", cfg.Backend.URL != ""),
		slog.Bool("postgres_metadata", cfg.Postgres.DSN != ""),
		slog.String("log_level", cfg.App.LogLevel.String()))

	db, blobs, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	svc := &services{db: db, blobs: blobs}

	svc.backend = app.newBackend()

	// Asset metadata goes straight to Postgres when a DSN is set.
	if cfg.Postgres.DSN != "" {
		pool, err := assetmeta.OpenPool(ctx, cfg.Postgres.DSN)
		if err != nil {
			return fmt.Errorf("init postgres: %w", err)
		}
		defer pool.Close()
		pg := assetmeta.NewPostgres(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			return err
		}
		svc.pool = pool
		svc.assets = pg
	} else {
		svc.assets = assetmeta.NewREST(svc.backend, cfg.Backend.AssetsTable)
	}

	svc.broker = sse.NewBroker(2 * time.Second)
	defer svc.broker.Close()

	if cfg.App.RateLimit.Enabled() {
		svc.limiter = api.NewRateLimiter(cfg.App.RateLimit.RPS, cfg.App.RateLimit.Burst)
	}
	if cfg.Metrics.Enabled {
		svc.metrics = api.NewMetrics(prometheus.NewRegistry())
	}

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           newHTTPHandler(cfg, svc, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	g, gCtx := errgroup.WithContext(runCtx)

	// Blob directory watcher feeding the SSE broker.
	g.Go(func() error {
		err := watcher.Watch(gCtx, blobs.Root(), watcher.DefaultDebounce, logger, func(userID, key, kind string) {
			// Legacy unscoped blobs belong to nobody who can subscribe.
			if userID == "" {
				return
			}
			svc.broker.PublishChange(userID, sse.TypeBlobChanged, map[string]string{"key": key, "op": kind})
		})
		if err != nil {
			logger.Warn("blob watcher disabled", slog.String("error", err.Error()))
		}
		return nil
	})

	if svc.limiter != nil {
		g.Go(func() error {
			svc.limiter.Cleanup(gCtx, time.Minute)
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

		// Stop the watcher and cleanup loops.
		stop()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// newHTTPHandler assembles the top-level router: health checks, metrics and
// the API under /api.
func newHTTPHandler(cfg *Config, svc *services, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if svc.metrics != nil {
		r.Use(svc.metrics.Middleware)
		r.Handle(cfg.Metrics.Path, svc.metrics.Handler())
	}

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := svc.ready(req.Context()); err != nil {
			logger.Warn("readiness check failed", slog.String("error", err.Error()))
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", api.NewRouter(api.Deps{
		Backend:               svc.backend,
		Assets:                svc.assets,
		KV:                    svc.db,
		Blobs:                 svc.blobs,
		Broker:                svc.broker,
		Limiter:               svc.limiter,
		UnverifiedJWTFallback: cfg.Backend.UnverifiedJWTFallback,
		CORSOrigins:           cfg.App.CORSOrigins,
		Logger:                logger,
	}))

	return r
}

func (s *services) ready(ctx context.Context) error {
	if err := s.db.Ping(); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if s.pool != nil {
		if err := s.pool.Ping(ctx); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
	}
	return nil
}

// RunMCP serves the MCP tools over stdio against the local store.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(append([]Option{WithLogOutput(os.Stderr)}, opts...))
	if err != nil {
		return err
	}
	logger := app.newLogger()
	slog.SetDefault(logger)

	db, blobs, err := openStores(app.config)
	if err != nil {
		return err
	}
	defer db.Close()

	// One stdio client per process, so the signed-in user is process-wide.
	srv := mcpserver.New(db, blobs, mcpserver.WithAuth(app.newBackend(), session.NewHolder()))

	logger.Info("MCP server starting", slog.String("sqlite_path", app.config.Store.SQLitePath))
	if err := srv.ServeStdio(ctx); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}
