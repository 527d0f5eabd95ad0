package favorites

import (
	"errors"
	"fmt"
)

var (
	// ErrNoFavorites is returned when the first listing page holds no items.
	ErrNoFavorites = errors.New("no favorited items found")
	// ErrNoItemsExtracted is returned when a non-empty page yields no usable items.
	ErrNoItemsExtracted = errors.New("no items extracted from listing page")
	// ErrPaginationUnbounded is returned when probing reaches the page limit
	// without finding the end of the listing.
	ErrPaginationUnbounded = errors.New("pagination did not terminate within page limit")
)

// FetchError reports a listing page that could not be retrieved.
type FetchError struct {
	URL        string
	Page       int
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch page %d (%s): status %d", e.Page, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch page %d (%s): %v", e.Page, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
