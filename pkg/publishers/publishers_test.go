package publishers

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadRegistryEnabledFilter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "publishers.yaml")
	raw := `
publishers:
  - id: http1
    type: http
    enabled: false
    http:
      url: https://example.com
  - id: http2
    type: http
    enabled: true
    http:
      url: https://example.com/2
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	enabled := reg.Enabled()
	if len(enabled) != 1 || enabled[0].ID != "http2" {
		t.Fatalf("expected only http2 enabled, got %#v", enabled)
	}
}

func TestValidatePublisherConfigRejectsMissingHTTP(t *testing.T) {
	err := validatePublisherConfig(PublisherConfig{
		ID:   "h1",
		Type: TypeHTTP,
	})
	if err == nil {
		t.Fatalf("expected validation error for missing http block")
	}
}

func TestLoadRegistryEmptyPath(t *testing.T) {
	reg, err := LoadRegistry("")
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	if len(reg.Enabled()) != 0 {
		t.Fatalf("expected no publishers")
	}
}

func TestLoadRegistryCloudSinks(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "publishers.json")
	raw := `{"publishers":[
  {"id":" events ","type":"SNS","sns":{"topic_arn":"arn:aws:sns:us-east-1:1:picks","region":"us-east-1"}},
  {"id":"gcp","type":"pubsub","pubsub":{"project_id":"p","topic":"picks"}}
]}`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	cfg, ok := reg.ByID("events")
	if !ok || cfg.Type != TypeSNS {
		t.Fatalf("expected normalized sns entry, got %#v", cfg)
	}
	if _, ok := reg.ByID("gcp"); !ok {
		t.Fatalf("expected pubsub entry")
	}
}

func TestLoadRegistryRejectsDuplicateIDs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "publishers.yaml")
	raw := `
publishers:
  - id: hook
    type: http
    http:
      url: https://example.com
  - id: hook
    type: http
    http:
      url: https://example.com/2
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := LoadRegistry(path); err == nil {
		t.Fatalf("expected duplicate id error")
	}
}

func TestValidatePublisherConfigRejectsIncompleteSQS(t *testing.T) {
	err := validatePublisherConfig(PublisherConfig{
		ID:   "q",
		Type: TypeSQS,
		SQS:  &SQSPublisherConfig{QueueURL: "https://example.com/q"},
	})
	if err == nil {
		t.Fatalf("expected validation error for missing region")
	}
}
