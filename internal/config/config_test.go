package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SourceID != "hn" {
		t.Fatalf("unexpected source_id %q", cfg.SourceID)
	}
	if cfg.DefaultTarget != "comments" {
		t.Fatalf("unexpected default_target %q", cfg.DefaultTarget)
	}
	if cfg.FetchTimeout != 15*time.Second {
		t.Fatalf("unexpected fetch timeout %v", cfg.FetchTimeout)
	}
	if cfg.HistoryTTL != 7*24*time.Hour {
		t.Fatalf("unexpected history ttl %v", cfg.HistoryTTL)
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("DEFAULT_TARGET", "Article")
	t.Setenv("MAX_PAGES", "64")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DefaultTarget != "article" {
		t.Fatalf("expected normalized target, got %q", cfg.DefaultTarget)
	}
	if cfg.MaxPages != 64 {
		t.Fatalf("expected max_pages 64, got %d", cfg.MaxPages)
	}
}

func TestLoadRejectsUnknownTarget(t *testing.T) {
	t.Setenv("DEFAULT_TARGET", "profile")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unknown default_target")
	}
}

func TestLoadRejectsNonPositiveTimeout(t *testing.T) {
	t.Setenv("FETCH_TIMEOUT_SECONDS", "0")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for zero fetch timeout")
	}
}
