package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/park285/cheese-arbiter/internal/archive"
	appcfg "github.com/park285/cheese-arbiter/internal/config"
	"github.com/park285/cheese-arbiter/internal/httpapi"
	"github.com/park285/cheese-arbiter/internal/msgcat"
	"github.com/park285/cheese-arbiter/internal/obslog"
	"github.com/park285/cheese-arbiter/internal/render"
	"github.com/park285/cheese-arbiter/internal/store"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()
	defer func() { _ = logger.Sync() }()

	games, err := store.NewManager(cfg.RedisURL,
		store.WithTTL(cfg.GameTTL()),
		store.WithLogger(logger.Named("store")),
	)
	if err != nil {
		log.Fatalf("store init error: %v", err)
	}

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := games.Ping(pingCtx); err != nil {
		cancel()
		log.Fatalf("redis ping error: %v", err)
	}
	cancel()

	// Postgres when configured, otherwise an in-process archive.
	var repo archive.Repository
	if cfg.DatabaseURL != "" {
		repo, err = archive.NewPostgres(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("archive init error: %v", err)
		}
	} else {
		logger.Warn("archive_memory_fallback", zap.String("reason", "DATABASE_URL not set"))
		repo = archive.NewMemory()
	}
	games.AttachArchive(repo)

	catalog, err := msgcat.New(cfg.MsgOverrideDir)
	if err != nil {
		log.Fatalf("message catalog error: %v", err)
	}

	srv := httpapi.New(games,
		httpapi.WithArchive(repo),
		httpapi.WithCatalog(catalog),
		httpapi.WithRenderer(render.NewPNGRenderer(cfg.RenderSquarePx)),
		httpapi.WithLogger(logger.Named("http")),
		httpapi.WithRecentLimit(cfg.ArchiveRecentLimit),
	)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http_listen", zap.String("addr", cfg.HTTPAddr))
		errCh <- srv.ListenAndServe(cfg.HTTPAddr)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Info("shutdown", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("http_serve_failed", zap.Error(err))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("http_shutdown", zap.Error(err))
	}
	_ = games.Close()
	_ = repo.Close()
}
