package favorites

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/samvad-hq/randfav/internal/domain"
	"github.com/samvad-hq/randfav/pkg/sources"
)

func TestWalkVisitsEveryItemInOrder(t *testing.T) {
	listing := newFakeListing(95, 30)
	var trace bytes.Buffer

	var ids []string
	var pages []int
	err := newTestService(listing, nil).Walk(context.Background(), "user", NewWriterTracer(&trace), func(page int, items []domain.Item) error {
		pages = append(pages, page)
		for _, it := range items {
			ids = append(ids, it.ID)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}

	if len(ids) != 95 {
		t.Fatalf("expected 95 items, got %d", len(ids))
	}
	for i, id := range ids {
		if id != strconv.Itoa(i+1) {
			t.Fatalf("item %d has id %s", i, id)
		}
	}
	if len(pages) != 4 {
		t.Fatalf("expected 4 pages, got %v", pages)
	}
	if !strings.Contains(trace.String(), "Total articles: 95") {
		t.Fatalf("trace missing summary:\n%s", trace.String())
	}
}

func TestWalkEmptyListing(t *testing.T) {
	err := newTestService(newFakeListing(0, 30), nil).Walk(context.Background(), "user", nil, func(int, []domain.Item) error {
		t.Fatalf("callback must not run for empty listing")
		return nil
	})
	if !errors.Is(err, ErrNoFavorites) {
		t.Fatalf("expected ErrNoFavorites, got %v", err)
	}
}

func TestWalkStopsOnCallbackError(t *testing.T) {
	listing := newFakeListing(95, 30)
	stop := errors.New("stop")

	err := newTestService(listing, nil).Walk(context.Background(), "user", nil, func(page int, _ []domain.Item) error {
		if page == 2 {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) {
		t.Fatalf("expected callback error, got %v", err)
	}
	if len(listing.requests) != 2 {
		t.Fatalf("expected walk to stop after page 2, fetched %d", len(listing.requests))
	}
}

func TestWalkPageLimit(t *testing.T) {
	listing := newFakeListing(0, 5)
	listing.endless = true
	svc := NewService(listing, sources.HackerNews(), Options{MaxPages: 3})

	err := svc.Walk(context.Background(), "user", nil, func(int, []domain.Item) error { return nil })
	if !errors.Is(err, ErrPaginationUnbounded) {
		t.Fatalf("expected ErrPaginationUnbounded, got %v", err)
	}
}

func TestWalkFollowsNextLinks(t *testing.T) {
	listing := newFakeListing(95, 30)
	listing.moreQuery = "next=41234"

	var pages []int
	err := newTestService(listing, nil).Walk(context.Background(), "user", nil, func(page int, _ []domain.Item) error {
		pages = append(pages, page)
		return nil
	})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}

	want := []string{
		"https://news.ycombinator.com/favorites?id=user",
		"https://news.ycombinator.com/favorites?id=user&p=2&next=41234",
		"https://news.ycombinator.com/favorites?id=user&p=3&next=41234",
		"https://news.ycombinator.com/favorites?id=user&p=4&next=41234",
	}
	if len(listing.requests) != len(want) {
		t.Fatalf("expected %d requests, got %v", len(want), listing.requests)
	}
	for i, u := range want {
		if listing.requests[i] != u {
			t.Fatalf("request %d = %q, want %q", i, listing.requests[i], u)
		}
	}
	if len(pages) != 4 || pages[3] != 4 {
		t.Fatalf("unexpected pages %v", pages)
	}
}
