package favorites

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/samvad-hq/randfav/internal/domain"
	"github.com/samvad-hq/randfav/internal/logger"
	"github.com/samvad-hq/randfav/pkg/httpclient"
	"github.com/samvad-hq/randfav/pkg/sources"
)

// Options tunes a Service. Zero values select the defaults.
type Options struct {
	Parser    Parser
	NewRandom func() RandomSource
	MaxPages  int
	Logger    logger.Logger
}

// Service picks random favorites for a single source. It holds no per-request
// state; every call runs with its own page cache and random source.
type Service struct {
	client    httpclient.Client
	src       sources.Source
	parser    Parser
	newRandom func() RandomSource
	maxPages  int
	log       logger.Logger
}

// NewService wires a picker for src using client as transport.
func NewService(client httpclient.Client, src sources.Source, opts Options) *Service {
	if client == nil {
		client = httpclient.NewRestyClient(15 * time.Second)
	}
	if opts.Parser == nil {
		opts.Parser = NewHTMLParser(src)
	}
	if opts.NewRandom == nil {
		opts.NewRandom = defaultRandom
	}
	if opts.MaxPages <= 1 {
		opts.MaxPages = DefaultMaxPages
	}
	return &Service{
		client:    client,
		src:       src,
		parser:    opts.Parser,
		newRandom: opts.NewRandom,
		maxPages:  opts.MaxPages,
		log:       logger.Ensure(opts.Logger),
	}
}

func defaultRandom() RandomSource {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// Source returns the source the service reads from.
func (s *Service) Source() sources.Source { return s.src }

// Run is one discovery-and-selection pass over a user's listing. It owns a
// private page cache and must not be shared between goroutines.
type Run struct {
	username string
	fetcher  *PageFetcher
	parser   Parser
	rng      RandomSource
	tracer   Tracer
	maxPages int
	log      logger.Logger
}

// NewRun starts a run for username. tracer may be nil.
func (s *Service) NewRun(username string, tracer Tracer) *Run {
	tracer = ensureTracer(tracer)
	return &Run{
		username: username,
		fetcher:  NewPageFetcher(s.client, s.src, username, tracer, s.log),
		parser:   s.parser,
		rng:      s.newRandom(),
		tracer:   tracer,
		maxPages: s.maxPages,
		log:      s.log,
	}
}

// Stats reports the network activity of the run so far.
func (r *Run) Stats() FetchStats { return r.fetcher.Stats() }

// Pick is the outcome of a successful run.
type Pick struct {
	Username  string          `json:"username"`
	Item      domain.Item     `json:"item"`
	Discovery DiscoveryResult `json:"discovery"`
	Stats     FetchStats      `json:"stats"`
}

// Pick discovers the size of username's favorites and returns one of them
// chosen uniformly at random.
func (s *Service) Pick(ctx context.Context, username string, tracer Tracer) (Pick, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return Pick{}, fmt.Errorf("username is empty")
	}

	start := time.Now()
	run := s.NewRun(username, tracer)

	res, err := run.Discover(ctx)
	if err != nil {
		s.logRunFailure(run, err)
		return Pick{}, err
	}
	item, err := run.Select(ctx, res)
	if err != nil {
		s.logRunFailure(run, err)
		return Pick{}, err
	}

	pick := Pick{Username: username, Item: item, Discovery: res, Stats: run.Stats()}
	s.log.InfoObj("favorite picked", "pick", map[string]any{
		"source_id":    s.src.ID,
		"username":     username,
		"item_id":      item.ID,
		"total_items":  res.TotalItems,
		"last_page":    res.LastPage,
		"fetches":      pick.Stats.Fetches,
		"cache_hits":   pick.Stats.CacheHits,
		"cached_pages": run.fetcher.cache.Len(),
		"elapsed_ms":   time.Since(start).Milliseconds(),
	})
	return pick, nil
}

func (s *Service) logRunFailure(run *Run, err error) {
	s.log.WarnObj("favorite pick failed", "pick_error", map[string]any{
		"source_id": s.src.ID,
		"username":  run.username,
		"fetches":   run.Stats().Fetches,
		"error":     err.Error(),
	})
}
