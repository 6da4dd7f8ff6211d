// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/acm-mitb/acm-site/internal/auth"
	"github.com/acm-mitb/acm-site/internal/cache"
	"github.com/acm-mitb/acm-site/internal/config"
	"github.com/acm-mitb/acm-site/internal/content"
	"github.com/acm-mitb/acm-site/internal/gate"
	"github.com/acm-mitb/acm-site/internal/handler"
	"github.com/acm-mitb/acm-site/internal/handler/api"
	"github.com/acm-mitb/acm-site/internal/live"
	"github.com/acm-mitb/acm-site/internal/logging"
	"github.com/acm-mitb/acm-site/internal/media"
	"github.com/acm-mitb/acm-site/internal/middleware"
	"github.com/acm-mitb/acm-site/internal/model"
	"github.com/acm-mitb/acm-site/internal/scheduler"
	"github.com/acm-mitb/acm-site/internal/session"
	"github.com/acm-mitb/acm-site/internal/store"
	"github.com/acm-mitb/acm-site/internal/version"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "acmsite - ACM MIT Bengaluru website backend\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  ACM_SESSION_SECRET      Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  ACM_DB_PATH             SQLite database path (default: ./data/acm.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  ACM_SERVER_PORT         Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  ACM_ENV                 Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  ACM_PROJECT_ID          Enables the document store\n")
		_, _ = fmt.Fprintf(os.Stderr, "  ACM_GOOGLE_CLIENT_ID    Enables Google sign-in\n")
		_, _ = fmt.Fprintf(os.Stderr, "  ACM_STORAGE_BACKEND     Image storage: local|cloudinary (default: local)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  ACM_PUBLIC_DIR          Built frontend directory (default: ./public)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  ACM_REDIS_URL           Redis URL for caching and live fan-out (optional)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	info := version.Info{Version: appVersion, GitCommit: appGitCommit, BuildTime: appBuildTime}
	if *showVersion {
		_, _ = fmt.Printf("acmsite %s\n", info)
		os.Exit(0)
	}

	if err := run(info); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run(info version.Info) error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(textHandler))

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	logger := slog.New(logging.NewEventLogHandler(textHandler, db))
	slog.SetDefault(logger)
	slog.Info("event log integration enabled", "min_level", "warn")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	backend := cfg.Backend()
	if !backend.Ready() {
		slog.Warn("backend not fully configured, running with inert stubs", "missing", backend.Missing)
	}

	queries := store.New(db)
	var docs store.Documents = queries
	if !backend.Data {
		slog.Error("document store not configured, content writes disabled", "category", model.LogCategoryConfig)
		docs = store.Inert{}
	}

	hub := live.NewHub()
	if cfg.UseRedis() {
		relay, err := live.NewRelayFromURL(cfg.RedisURL, cfg.CachePrefix, hub)
		if err != nil {
			slog.Warn("live relay disabled", "url", cache.SanitizeRedisURL(cfg.RedisURL), "error", err)
		} else {
			defer func() { _ = relay.Close() }()
			go func() {
				if err := relay.Run(ctx); err != nil {
					slog.Error("live relay stopped", "error", err)
				}
			}()
			slog.Info("live relay enabled")
		}
	}

	snapshots := cache.New(cache.Config{
		RedisURL:   cfg.RedisURL,
		Prefix:     cfg.CachePrefix,
		DefaultTTL: cfg.CacheTTLDuration(),
		MaxSize:    cfg.CacheMaxSize,
	})
	defer func() { _ = snapshots.Close() }()

	site := content.NewSite(docs, hub)
	public := content.NewPublic(site, snapshots, cfg.CacheTTLDuration())

	if err := store.Seed(ctx, docs, cfg.DoSeed && backend.Data); err != nil {
		return fmt.Errorf("seeding documents: %w", err)
	}

	sessions := session.New(db, cfg.IsDevelopment())
	townhall := gate.New(sessions, site.Profiles, func() bool { return backend.Auth && backend.Data })

	sched := scheduler.New(logger)
	for _, job := range []scheduler.Job{
		scheduler.EventLogRetention(queries, cfg.EventLogRetentionDays, time.Now),
		scheduler.CarouselAudit(site.Carousel),
	} {
		if err := sched.Add(job); err != nil {
			return err
		}
	}
	sched.Start()
	defer sched.Stop()

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5, "application/json", "text/html", "text/css", "text/javascript", "application/javascript", "text/calendar"))
	r.Use(chimw.GetHead)
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())))
	r.Use(sessions.LoadAndSave)

	healthHandler := handler.NewHealthHandler(db, cfg, snapshots, townhall, info.String())
	r.Get("/health", healthHandler.Health)
	r.Get("/health/live", healthHandler.Liveness)
	r.Get("/health/ready", healthHandler.Readiness)

	apiHandler := api.NewHandler(api.Deps{
		Site:     site,
		Public:   public,
		Sessions: sessions,
		Verifier: auth.New(cfg.GoogleClientID),
		Gate:     townhall,
		Uploader: media.New(cfg),
		Events:   queries,
		SignIn:   middleware.NewSignInProtection(middleware.DefaultSignInProtectionConfig()),
	})
	apiHandler.Mount(r, api.Middlewares{
		RateLimit:    middleware.NewRateLimiter(20, 40).Middleware(),
		ProfileLimit: middleware.NewRateLimiter(0.2, 3).Middleware(),
		CSRF:         middleware.CSRF(middleware.DefaultCSRFConfig([]byte(cfg.SessionSecret), cfg.IsDevelopment())),
		Timeout:      middleware.Timeout(30 * time.Second),
	})

	if cfg.StorageBackend != config.StorageCloudinary && backend.Storage {
		uploads := http.StripPrefix(cfg.UploadsURL+"/", http.FileServer(http.Dir(cfg.UploadsDir)))
		r.Handle(cfg.UploadsURL+"/*", uploads)
	}

	handler.NewFrontendHandler(cfg.PublicDir).Mount(r)

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second, // event streams clear their own deadline
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "version", info.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	// Open event streams end when their request context is cancelled.
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
