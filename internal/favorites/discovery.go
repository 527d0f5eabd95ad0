package favorites

import (
	"context"
	"fmt"
)

// DefaultMaxPages bounds probing when no limit is configured.
const DefaultMaxPages = 1 << 16

// DiscoveryResult describes the shape of a user's favorites listing.
// TotalItems == (LastPage-1)*ItemsPerPage + LastPageCount.
type DiscoveryResult struct {
	ItemsPerPage  int `json:"items_per_page"`
	LastPage      int `json:"last_page"`
	LastPageCount int `json:"last_page_count"`
	TotalItems    int `json:"total_items"`
}

func newDiscoveryResult(perPage, lastPage, lastCount int) DiscoveryResult {
	return DiscoveryResult{
		ItemsPerPage:  perPage,
		LastPage:      lastPage,
		LastPageCount: lastCount,
		TotalItems:    (lastPage-1)*perPage + lastCount,
	}
}

// Discover finds the total number of items using exponential probing over
// page numbers followed by bisection. Every page but the last is assumed to
// hold exactly as many items as page 1, and pages past the end are empty.
func (r *Run) Discover(ctx context.Context) (DiscoveryResult, error) {
	first, err := r.summary(ctx, 1)
	if err != nil {
		return DiscoveryResult{}, err
	}
	r.tracer.Tracef("Page 1: %d articles, hasMore: %s", first.ItemCount, yesNo(first.HasNext))

	if first.ItemCount == 0 {
		return DiscoveryResult{}, ErrNoFavorites
	}
	perPage := first.ItemCount

	if !first.HasNext {
		r.tracer.Tracef("Only 1 page with %d articles", perPage)
		return newDiscoveryResult(perPage, 1, perPage), nil
	}

	r.tracer.Tracef("")
	r.tracer.Tracef("=== Exponential Search ===")

	lastGood, lastGoodCount := 1, perPage
	probe := 2
	for {
		s, err := r.summary(ctx, probe)
		if err != nil {
			return DiscoveryResult{}, err
		}
		r.tracer.Tracef("Page %d: %d articles", probe, s.ItemCount)

		if s.ItemCount == 0 {
			break
		}
		lastGood, lastGoodCount = probe, s.ItemCount
		if !s.HasNext {
			res := newDiscoveryResult(perPage, probe, s.ItemCount)
			r.traceSummary(res)
			return res, nil
		}
		if probe >= r.maxPages {
			return DiscoveryResult{}, fmt.Errorf("%w: page %d still has a next page (limit %d)", ErrPaginationUnbounded, probe, r.maxPages)
		}
		probe = min(probe*2, r.maxPages)
	}

	r.tracer.Tracef("")
	r.tracer.Tracef("=== Binary Search ===")

	lastPage, lastCount := lastGood, lastGoodCount
	low, high := lastGood, probe
	for low <= high {
		mid := low + (high-low)/2
		s, err := r.summary(ctx, mid)
		if err != nil {
			return DiscoveryResult{}, err
		}
		r.tracer.Tracef("Checking page %d: %d articles", mid, s.ItemCount)

		if s.ItemCount == 0 {
			high = mid - 1
			continue
		}
		lastPage, lastCount = mid, s.ItemCount
		if !s.HasNext {
			break
		}
		low = mid + 1
	}

	res := newDiscoveryResult(perPage, lastPage, lastCount)
	r.traceSummary(res)
	return res, nil
}

func (r *Run) summary(ctx context.Context, page int) (PageSummary, error) {
	raw, err := r.fetcher.Page(ctx, page)
	if err != nil {
		return PageSummary{}, err
	}
	s, err := r.parser.Summarize(raw)
	if err != nil {
		return PageSummary{}, fmt.Errorf("summarize page %d: %w", page, err)
	}
	return s, nil
}

func (r *Run) traceSummary(res DiscoveryResult) {
	r.tracer.Tracef("")
	r.tracer.Tracef("=== Summary ===")
	r.tracer.Tracef("Items per page: %d", res.ItemsPerPage)
	r.tracer.Tracef("Last page: %d", res.LastPage)
	r.tracer.Tracef("Items on last page: %d", res.LastPageCount)
	r.tracer.Tracef("Total articles: %d", res.TotalItems)
	r.tracer.Tracef("Pages fetched: %d", r.fetcher.Stats().Fetches)
}
