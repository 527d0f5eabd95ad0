package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/samvad-hq/randfav/internal/domain"
)

// Package storage keeps a short history of picks per user. It never holds
// fetched listing pages.

// Pick is one recorded selection.
type Pick struct {
	SourceID   string        `json:"source_id"`
	Username   string        `json:"username"`
	Target     domain.Target `json:"target"`
	Item       domain.Item   `json:"item"`
	TotalItems int           `json:"total_items"`
	PickedAt   time.Time     `json:"picked_at"`
}

// Store records picks and lists the recent ones for a user.
type Store interface {
	Close() error
	RecordPick(p Pick) error
	RecentPicks(username string, limit int) ([]Pick, error)
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	PickTTL         time.Duration
	CleanupInterval time.Duration
}

const (
	defaultPickTTL         = 7 * 24 * time.Hour
	defaultCleanupInterval = 6 * time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.PickTTL <= 0 {
		opts.PickTTL = defaultPickTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                            { return nil }
func (noopStore) RecordPick(Pick) error                   { return nil }
func (noopStore) RecentPicks(string, int) ([]Pick, error) { return nil, nil }
