package favorites

import (
	"context"
	"fmt"

	"github.com/samvad-hq/randfav/internal/domain"
)

// Walk visits every listing page of username in order, following the
// next-page link of each page, and calls fn with each page's items. It fetches
// every page, so it is linear in the number of pages.
func (s *Service) Walk(ctx context.Context, username string, tracer Tracer, fn func(page int, items []domain.Item) error) error {
	run := s.NewRun(username, tracer)

	total := 0
	url := s.src.PageURL(username, 1)
	for page := 1; ; page++ {
		if page > run.maxPages {
			return fmt.Errorf("%w: walked %d pages", ErrPaginationUnbounded, run.maxPages)
		}

		raw, err := run.fetcher.Fetch(ctx, url, page)
		if err != nil {
			return err
		}
		summary, err := run.parser.Summarize(raw)
		if err != nil {
			return fmt.Errorf("summarize page %d: %w", page, err)
		}
		items, err := run.parser.Extract(raw)
		if err != nil {
			return fmt.Errorf("extract page %d: %w", page, err)
		}
		run.tracer.Tracef("Page %d: %d articles found", page, len(items))

		if page == 1 && len(items) == 0 {
			return ErrNoFavorites
		}
		total += len(items)
		if err := fn(page, items); err != nil {
			return err
		}
		if !summary.HasNext {
			break
		}
		url = summary.NextURL
		if url == "" {
			url = s.src.PageURL(username, page+1)
		}
	}

	run.tracer.Tracef("")
	run.tracer.Tracef("=== Summary ===")
	run.tracer.Tracef("Pages fetched: %d", run.Stats().Fetches)
	run.tracer.Tracef("Total articles: %d", total)
	return nil
}
