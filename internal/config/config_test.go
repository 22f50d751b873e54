package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "Postgres")
	t.Setenv("SWEEP_AT", "04:30")
	t.Setenv("STORE_MAX_ATTEMPTS", "not-a-number")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example,")

	cfg := Load()

	if cfg.StoreDriver != StorePostgres {
		t.Fatalf("expected driver %q, got %q", StorePostgres, cfg.StoreDriver)
	}
	if cfg.SweepAt != "04:30" {
		t.Fatalf("expected sweep time 04:30, got %q", cfg.SweepAt)
	}
	if cfg.StoreMaxAttempts != 5 {
		t.Fatalf("expected fallback attempts 5, got %d", cfg.StoreMaxAttempts)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins: %#v", cfg.AllowedOrigins)
	}
}

func TestParseDurationFallback(t *testing.T) {
	if got := parseDuration("abc", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback, got %v", got)
	}
	if got := parseDuration("90s", time.Minute); got != 90*time.Second {
		t.Fatalf("expected 90s, got %v", got)
	}
}
