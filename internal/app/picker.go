package app

import (
	"fmt"
	"strings"

	"github.com/samvad-hq/randfav/internal/config"
	"github.com/samvad-hq/randfav/internal/favorites"
	"github.com/samvad-hq/randfav/internal/logger"
	"github.com/samvad-hq/randfav/pkg/httpclient"
	"github.com/samvad-hq/randfav/pkg/sources"
)

// NewPicker resolves the configured source and builds a favorites service
// around a resty transport.
func NewPicker(cfg *config.Config, log logger.Logger) (*favorites.Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	log = logger.Ensure(log)

	reg, err := sources.LoadRegistry(cfg.SourcesFile)
	if err != nil {
		return nil, fmt.Errorf("load sources registry: %w", err)
	}
	all := reg.All()
	ids := make([]string, 0, len(all))
	for _, s := range all {
		ids = append(ids, s.ID)
	}
	log.InfoObj("sources registry loaded", "sources_meta", map[string]any{
		"count": len(ids),
		"ids":   ids,
	})

	src, ok := reg.ByID(cfg.SourceID)
	if !ok {
		return nil, fmt.Errorf("source %q not found in registry (available: %s)", cfg.SourceID, strings.Join(ids, ", "))
	}
	log.InfoObj("source resolved", "source_meta", map[string]any{
		"id":       src.ID,
		"name":     src.Name,
		"base_url": src.BaseURL,
	})

	client := httpclient.NewRestyClient(cfg.FetchTimeout)
	return favorites.NewService(client, src, favorites.Options{
		MaxPages: cfg.MaxPages,
		Logger:   log,
	}), nil
}
