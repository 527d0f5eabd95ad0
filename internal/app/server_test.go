package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/samvad-hq/randfav/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		AppName:         "randfav",
		ListenAddr:      "127.0.0.1:0",
		SourceID:        "hn",
		DefaultUsername: "arnok",
		DefaultTarget:   "comments",
		FetchTimeout:    config.DefaultFetchTimeout,
		MaxPages:        1 << 10,
		StorageType:     "bbolt",
		BBoltPath:       filepath.Join(dir, "history.db"),
		HistoryTTL:      config.DefaultHistoryTTL,
		HistoryCleanup:  config.DefaultHistoryCleanup,
		HistoryLimit:    5,
		ShutdownTimeout: config.DefaultShutdownTimeout,
	}
}

func TestNewServerServesHealth(t *testing.T) {
	srv, err := NewServer(context.Background(), testConfig(t), nil)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	defer srv.close()

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestNewServerRejectsUnknownSource(t *testing.T) {
	cfg := testConfig(t)
	cfg.SourceID = "lobsters"

	if _, err := NewServer(context.Background(), cfg, nil); err == nil {
		t.Fatalf("expected error for unknown source")
	}
}

func TestNewServerLoadsPublishers(t *testing.T) {
	cfg := testConfig(t)
	cfg.PublishersFile = filepath.Join(t.TempDir(), "publishers.yaml")
	raw := `
publishers:
  - id: hook
    type: http
    http:
      url: http://127.0.0.1:1/hook
`
	if err := os.WriteFile(cfg.PublishersFile, []byte(raw), 0o644); err != nil {
		t.Fatalf("write publishers: %v", err)
	}

	srv, err := NewServer(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	defer srv.close()
	if srv.fanout.Size() != 1 {
		t.Fatalf("expected 1 publisher, got %d", srv.fanout.Size())
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	srv, err := NewServer(context.Background(), testConfig(t), nil)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := srv.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestNewPickerReportsAvailableSources(t *testing.T) {
	cfg := testConfig(t)
	cfg.SourcesFile = filepath.Join(t.TempDir(), "sources.yaml")
	raw := `
sources:
  - id: hn
    name: Hacker News
    base_url: https://news.ycombinator.com/
  - id: mirror
    name: HN mirror
    base_url: https://hn.example.com/
`
	if err := os.WriteFile(cfg.SourcesFile, []byte(raw), 0o644); err != nil {
		t.Fatalf("write sources: %v", err)
	}

	cfg.SourceID = "mirror"
	svc, err := NewPicker(cfg, nil)
	if err != nil {
		t.Fatalf("NewPicker: %v", err)
	}
	if svc.Source().BaseURL != "https://hn.example.com/" {
		t.Fatalf("unexpected source %+v", svc.Source())
	}

	cfg.SourceID = "lobsters"
	_, err = NewPicker(cfg, nil)
	if err == nil || !strings.Contains(err.Error(), "available: hn, mirror") {
		t.Fatalf("expected available sources in error, got %v", err)
	}
}
