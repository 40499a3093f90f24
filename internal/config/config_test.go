package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("GAME_TTL", "")
	t.Setenv("RENDER_SQUARE_PX", "")
	t.Setenv("DATABASE_URL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" || cfg.GameTTL() != 24*time.Hour || cfg.RenderSquarePx != 64 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.DatabaseURL != "" {
		t.Fatalf("database url should be empty")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("REDIS_URL", " redis://cache:6379/2 ")
	t.Setenv("HTTP_ADDR", "127.0.0.1:9000")
	t.Setenv("GAME_TTL", "600")
	t.Setenv("RENDER_SQUARE_PX", "9999")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RedisURL != "redis://cache:6379/2" {
		t.Fatalf("redis url not trimmed: %q", cfg.RedisURL)
	}
	if cfg.HTTPAddr != "127.0.0.1:9000" || cfg.GameTTLSec != 600 {
		t.Fatalf("overrides ignored: %+v", cfg)
	}
	if cfg.RenderSquarePx != 64 {
		t.Fatalf("out-of-range square size accepted: %d", cfg.RenderSquarePx)
	}
}

func TestLoadRequiresRedis(t *testing.T) {
	t.Setenv("REDIS_URL", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error without REDIS_URL")
	}
}
