package favorites

import (
	"context"
	"errors"
	"net/http"

	"github.com/samvad-hq/randfav/internal/logger"
	"github.com/samvad-hq/randfav/pkg/httpclient"
	"github.com/samvad-hq/randfav/pkg/sources"
)

// Cache maps page URLs to raw content for the lifetime of one run.
// Entries are written once and never evicted.
type Cache struct {
	pages  map[string][]byte
	hits   int
	misses int
}

// NewCache returns an empty page cache.
func NewCache() *Cache {
	return &Cache{pages: make(map[string][]byte)}
}

func (c *Cache) get(url string) ([]byte, bool) {
	raw, ok := c.pages[url]
	if ok {
		c.hits++
	}
	return raw, ok
}

func (c *Cache) put(url string, raw []byte) {
	if _, exists := c.pages[url]; exists {
		return
	}
	c.misses++
	c.pages[url] = raw
}

// Len returns the number of distinct pages held.
func (c *Cache) Len() int { return len(c.pages) }

// FetchStats summarizes the network activity of a run.
type FetchStats struct {
	Fetches   int `json:"fetches"`
	CacheHits int `json:"cache_hits"`
}

// PageFetcher resolves page numbers of one user's listing to raw content,
// fetching each URL at most once.
type PageFetcher struct {
	client   httpclient.Client
	src      sources.Source
	username string
	headers  map[string]string
	cache    *Cache
	tracer   Tracer
	log      logger.Logger
}

// NewPageFetcher binds a fetcher to username with a fresh cache.
func NewPageFetcher(client httpclient.Client, src sources.Source, username string, tracer Tracer, log logger.Logger) *PageFetcher {
	return &PageFetcher{
		client:   client,
		src:      src,
		username: username,
		headers:  sources.Headers(src),
		cache:    NewCache(),
		tracer:   ensureTracer(tracer),
		log:      logger.Ensure(log),
	}
}

// Page returns the raw content of the given 1-based page.
func (f *PageFetcher) Page(ctx context.Context, page int) ([]byte, error) {
	return f.Fetch(ctx, f.src.PageURL(f.username, page), page)
}

// Fetch returns the raw content at url, which is reported as page in errors
// and logs. Each url is requested at most once per fetcher.
func (f *PageFetcher) Fetch(ctx context.Context, url string, page int) ([]byte, error) {
	if raw, ok := f.cache.get(url); ok {
		return raw, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, &FetchError{URL: url, Page: page, Err: err}
	}

	resp, err := f.client.Get(ctx, url, f.headers)
	if err != nil {
		f.tracer.Tracef("Failed to fetch: %s", url)
		return nil, &FetchError{URL: url, Page: page, Err: err}
	}
	if code := resp.StatusCode(); code < http.StatusOK || code >= http.StatusMultipleChoices {
		f.tracer.Tracef("Failed to fetch: %s (status %d)", url, code)
		return nil, &FetchError{
			URL:        url,
			Page:       page,
			StatusCode: code,
			Err:        errors.New(http.StatusText(code)),
		}
	}

	raw := resp.Body()
	f.cache.put(url, raw)
	f.log.DebugObj("listing page fetched", "page_fetch", map[string]any{
		"url":   url,
		"page":  page,
		"bytes": len(raw),
	})
	return raw, nil
}

// Stats reports fetches and cache hits so far.
func (f *PageFetcher) Stats() FetchStats {
	return FetchStats{Fetches: f.cache.misses, CacheHits: f.cache.hits}
}
