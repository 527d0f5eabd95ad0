package sources

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Package sources describes the forums whose favorites listings can be sampled.

// Source describes one forum: where its favorites listing lives and how its
// markup is read.
type Source struct {
	ID            string         `json:"id" yaml:"id"`
	Name          string         `json:"name" yaml:"name"`
	BaseURL       string         `json:"base_url" yaml:"base_url"`
	FavoritesPath string         `json:"favorites_path" yaml:"favorites_path"`
	UserParam     string         `json:"user_param" yaml:"user_param"`
	PageParam     string         `json:"page_param" yaml:"page_param"`
	ItemPath      string         `json:"item_path" yaml:"item_path"`
	RowSelector   string         `json:"row_selector" yaml:"row_selector"`
	LinkSelector  string         `json:"link_selector" yaml:"link_selector"`
	MoreSelector  string         `json:"more_selector" yaml:"more_selector"`
	Config        map[string]any `json:"config" yaml:"config"`
}

const (
	DefaultSourceID = "hn"

	defaultFavoritesPath = "favorites"
	defaultUserParam     = "id"
	defaultPageParam     = "p"
	defaultItemPath      = "item?id="
	defaultRowSelector   = "tr.athing"
	defaultLinkSelector  = "span.titleline > a"
	defaultMoreSelector  = "a.morelink"
)

// HackerNews is the built-in source used when no sources file is configured.
func HackerNews() Source {
	return sanitizeSource(Source{
		ID:      DefaultSourceID,
		Name:    "Hacker News",
		BaseURL: "https://news.ycombinator.com/",
	})
}

type fileRegistry struct {
	Sources []Source `json:"sources" yaml:"sources"`
}

// Registry holds the sources loaded from a config file.
type Registry struct {
	mu      sync.RWMutex
	sources []Source
	idx     map[string]Source
}

// NewRegistry builds a registry from already validated sources.
func NewRegistry(srcs ...Source) (*Registry, error) {
	reg := &Registry{
		sources: make([]Source, 0, len(srcs)),
		idx:     make(map[string]Source, len(srcs)),
	}
	for i, src := range srcs {
		src = sanitizeSource(src)
		if err := validateSource(src); err != nil {
			return nil, fmt.Errorf("source[%d]: %w", i, err)
		}
		if _, exists := reg.idx[src.ID]; exists {
			return nil, fmt.Errorf("duplicate source id %q", src.ID)
		}
		reg.sources = append(reg.sources, src)
		reg.idx[src.ID] = src
	}
	return reg, nil
}

// DefaultRegistry returns a registry holding only the built-in Hacker News source.
func DefaultRegistry() *Registry {
	reg, _ := NewRegistry(HackerNews())
	return reg
}

// LoadRegistry loads sources from a YAML/JSON file. An empty path yields the
// default registry.
func LoadRegistry(path string) (*Registry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return DefaultRegistry(), nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sources file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}

	parsed, err := parseRegistry(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	if len(parsed.Sources) == 0 {
		return nil, errors.New("sources file contains no sources entries")
	}

	return NewRegistry(parsed.Sources...)
}

func parseRegistry(data []byte, ext string) (fileRegistry, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   unmarshalFn
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		if reg, err := unmarshalRegistry(d.name, data, d.fn); err == nil {
			return reg, nil
		}
	}

	return fileRegistry{}, errors.New("sources file format not recognized (expected YAML or JSON)")
}

type unmarshalFn func([]byte, any) error

func unmarshalRegistry(name string, data []byte, fn unmarshalFn) (fileRegistry, error) {
	var reg fileRegistry
	if err := fn(data, &reg); err != nil {
		return fileRegistry{}, fmt.Errorf("decode %s sources: %w", name, err)
	}
	return reg, nil
}

func sanitizeSource(s Source) Source {
	s.ID = strings.TrimSpace(s.ID)
	s.Name = strings.TrimSpace(s.Name)
	s.BaseURL = strings.TrimSpace(s.BaseURL)
	if s.BaseURL != "" && !strings.HasSuffix(s.BaseURL, "/") {
		s.BaseURL += "/"
	}

	s.FavoritesPath = strings.TrimPrefix(orDefault(s.FavoritesPath, defaultFavoritesPath), "/")
	s.UserParam = orDefault(s.UserParam, defaultUserParam)
	s.PageParam = orDefault(s.PageParam, defaultPageParam)
	s.ItemPath = strings.TrimPrefix(orDefault(s.ItemPath, defaultItemPath), "/")
	s.RowSelector = orDefault(s.RowSelector, defaultRowSelector)
	s.LinkSelector = orDefault(s.LinkSelector, defaultLinkSelector)
	s.MoreSelector = orDefault(s.MoreSelector, defaultMoreSelector)

	if s.Config == nil {
		s.Config = map[string]any{}
	}
	return s
}

func orDefault(v, fallback string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return fallback
}

func validateSource(s Source) error {
	if s.ID == "" {
		return errors.New("id is required")
	}
	if s.Name == "" {
		return fmt.Errorf("name is required for source %q", s.ID)
	}
	if s.BaseURL == "" {
		return fmt.Errorf("base_url is required for source %q", s.ID)
	}
	u, err := url.Parse(s.BaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("base_url %q is not an absolute http(s) url for source %q", s.BaseURL, s.ID)
	}
	return nil
}

// ByID returns the source with the given id.
func (r *Registry) ByID(id string) (Source, bool) {
	if r == nil {
		return Source{}, false
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Source{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	src, ok := r.idx[id]
	return src, ok
}

// All returns all configured sources.
func (r *Registry) All() []Source {
	if r == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Source, len(r.sources))
	copy(out, r.sources)
	return out
}
