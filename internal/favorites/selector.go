package favorites

import (
	"context"
	"fmt"

	"github.com/samvad-hq/randfav/internal/domain"
)

// RandomSource draws integers uniformly from [0, n). *math/rand/v2.Rand
// satisfies it.
type RandomSource interface {
	IntN(n int) int
}

// Select draws one item uniformly among res.TotalItems and fetches the page
// that holds it. Single-page listings draw among page 1's items directly.
func (r *Run) Select(ctx context.Context, res DiscoveryResult) (domain.Item, error) {
	if res.TotalItems <= 0 || res.ItemsPerPage <= 0 {
		return domain.Item{}, ErrNoFavorites
	}

	if res.LastPage == 1 {
		items, err := r.items(ctx, 1)
		if err != nil {
			return domain.Item{}, err
		}
		picked := items[r.rng.IntN(len(items))]
		r.tracer.Tracef("Selected article #%s", picked.ID)
		return picked, nil
	}

	randomIndex := r.rng.IntN(res.TotalItems) + 1
	targetPage := (randomIndex + res.ItemsPerPage - 1) / res.ItemsPerPage
	offset := randomIndex - (targetPage-1)*res.ItemsPerPage - 1

	r.tracer.Tracef("")
	r.tracer.Tracef("=== Random Selection ===")
	r.tracer.Tracef("Random index: %d of %d", randomIndex, res.TotalItems)
	r.tracer.Tracef("Target page: %d", targetPage)
	r.tracer.Tracef("Position on page: %d", offset+1)

	items, err := r.items(ctx, targetPage)
	if err != nil {
		return domain.Item{}, err
	}

	if offset >= len(items) {
		r.tracer.Tracef("Position out of bounds, selecting last article")
		r.log.WarnObj("selection offset beyond extracted items", "extraction_mismatch", map[string]any{
			"page":      targetPage,
			"offset":    offset,
			"extracted": len(items),
		})
		offset = len(items) - 1
	}
	return items[offset], nil
}

func (r *Run) items(ctx context.Context, page int) ([]domain.Item, error) {
	raw, err := r.fetcher.Page(ctx, page)
	if err != nil {
		return nil, err
	}
	items, err := r.parser.Extract(raw)
	if err != nil {
		return nil, fmt.Errorf("extract page %d: %w", page, err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("page %d: %w", page, ErrNoItemsExtracted)
	}
	return items, nil
}
