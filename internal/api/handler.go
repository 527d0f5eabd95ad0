package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"sync"
	"time"

	"github.com/samvad-hq/randfav/internal/domain"
	"github.com/samvad-hq/randfav/internal/favorites"
	"github.com/samvad-hq/randfav/internal/logger"
	"github.com/samvad-hq/randfav/internal/storage"
	"github.com/samvad-hq/randfav/pkg/publishers"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{2,15}$`)

// Picker chooses a random favorite for a user.
type Picker interface {
	Pick(ctx context.Context, username string, tracer favorites.Tracer) (favorites.Pick, error)
}

// EventPublisher delivers pick events downstream.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

// Options configures a Handler. Store and Events may be nil.
type Options struct {
	SourceID        string
	DefaultUsername string
	DefaultTarget   domain.Target
	HistoryLimit    int
	PublishTimeout  time.Duration
	Store           storage.Store
	Events          EventPublisher
	Logger          logger.Logger
}

// Handler serves the redirect, history and health endpoints.
type Handler struct {
	picker Picker
	opts   Options
	log    logger.Logger

	// pending tracks event deliveries still running after their response.
	pending sync.WaitGroup
}

// NewHandler returns a handler backed by picker.
func NewHandler(picker Picker, opts Options) *Handler {
	if opts.DefaultTarget == "" {
		opts.DefaultTarget = domain.TargetComments
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 20
	}
	if opts.PublishTimeout <= 0 {
		opts.PublishTimeout = 5 * time.Second
	}
	return &Handler{picker: picker, opts: opts, log: logger.Ensure(opts.Logger)}
}

func (h *Handler) username(r *http.Request) (string, error) {
	q := r.URL.Query()
	username := h.opts.DefaultUsername
	if q.Has("id") {
		username = q.Get("id")
	}
	if !usernamePattern.MatchString(username) {
		return "", errors.New("Invalid username. Must be 2-15 characters, containing only letters, digits, dashes, and underscores.")
	}
	return username, nil
}

func (h *Handler) target(r *http.Request) (domain.Target, error) {
	q := r.URL.Query()
	if !q.Has("target") {
		return h.opts.DefaultTarget, nil
	}
	target, ok := domain.ParseTarget(q.Get("target"))
	if !ok {
		return "", errors.New(`Invalid target. Must be "article" or "comments".`)
	}
	return target, nil
}

// Random picks a favorite and redirects to it. With ?debug the trace is
// returned as plain text instead.
func (h *Handler) Random(w http.ResponseWriter, r *http.Request) {
	username, err := h.username(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	target, err := h.target(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if r.URL.Query().Has("debug") {
		h.debug(w, r, username, target)
		return
	}

	pick, err := h.picker.Pick(r.Context(), username, nil)
	if err != nil {
		status, msg := errorStatus(err, username)
		http.Error(w, msg, status)
		return
	}

	h.record(r.Context(), username, target, pick)
	http.Redirect(w, r, pick.Item.URL(target), http.StatusFound)
}

func (h *Handler) debug(w http.ResponseWriter, r *http.Request, username string, target domain.Target) {
	var buf bytes.Buffer
	tracer := favorites.NewWriterTracer(&buf)
	tracer.Tracef("Debug mode enabled")
	tracer.Tracef("Username: %s", username)
	tracer.Tracef("Target: %s", target)
	tracer.Tracef("")

	pick, err := h.picker.Pick(r.Context(), username, tracer)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err != nil {
		status, msg := errorStatus(err, username)
		tracer.Tracef("")
		tracer.Tracef("=== Error ===")
		tracer.Tracef("%s", msg)
		w.WriteHeader(status)
		_, _ = w.Write(buf.Bytes())
		return
	}

	tracer.Tracef("")
	tracer.Tracef("=== Result ===")
	tracer.Tracef("Item ID: %s", pick.Item.ID)
	tracer.Tracef("Article: %s", pick.Item.ArticleURL)
	tracer.Tracef("Comments: %s", pick.Item.CommentsURL)
	tracer.Tracef("Redirecting to (%s): %s", target, pick.Item.URL(target))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// record stores the pick and emits an event in the background. Failures are
// logged only.
func (h *Handler) record(ctx context.Context, username string, target domain.Target, pick favorites.Pick) {
	if h.opts.Store != nil {
		err := h.opts.Store.RecordPick(storage.Pick{
			SourceID:   h.opts.SourceID,
			Username:   username,
			Target:     target,
			Item:       pick.Item,
			TotalItems: pick.Discovery.TotalItems,
			PickedAt:   time.Now().UTC(),
		})
		if err != nil {
			h.log.WarnObj("record pick failed", "history_error", map[string]any{
				"username": username,
				"error":    err.Error(),
			})
		}
	}

	if h.opts.Events == nil {
		return
	}
	evt := publishers.NewEvent(h.opts.SourceID, username, target, pick.Item, pick.Discovery.TotalItems)
	pubCtx := context.WithoutCancel(ctx)
	h.pending.Add(1)
	go func() {
		defer h.pending.Done()
		h.publish(pubCtx, evt)
	}()
}

func (h *Handler) publish(ctx context.Context, evt publishers.Event) {
	ctx, cancel := context.WithTimeout(ctx, h.opts.PublishTimeout)
	defer cancel()
	delivered, err := h.opts.Events.Publish(ctx, evt)
	if err != nil {
		h.log.WarnObj("publish pick event failed", "publish_error", map[string]any{
			"event_id":  evt.ID,
			"delivered": delivered,
			"error":     err.Error(),
		})
	}
}

// Wait blocks until every in-flight event delivery has finished.
func (h *Handler) Wait() {
	h.pending.Wait()
}

// History lists the recent picks of a user as JSON.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	username, err := h.username(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	picks := []storage.Pick{}
	if h.opts.Store != nil {
		picks, err = h.opts.Store.RecentPicks(username, h.opts.HistoryLimit)
		if err != nil {
			h.log.ErrorObj("load history failed", "history_error", map[string]any{
				"username": username,
				"error":    err.Error(),
			})
			http.Error(w, "Failed to load history.", http.StatusInternalServerError)
			return
		}
		if picks == nil {
			picks = []storage.Pick{}
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"username": username,
		"picks":    picks,
	})
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func errorStatus(err error, username string) (int, string) {
	var fetchErr *favorites.FetchError
	switch {
	case errors.Is(err, favorites.ErrNoFavorites):
		return http.StatusNotFound, fmt.Sprintf("No favorited articles found for user: %s", username)
	case errors.As(err, &fetchErr):
		return http.StatusBadGateway, "Failed to fetch favorites from upstream."
	case errors.Is(err, favorites.ErrNoItemsExtracted):
		return http.StatusBadGateway, "Failed to extract favorites from upstream page."
	case errors.Is(err, favorites.ErrPaginationUnbounded):
		return http.StatusBadGateway, "Favorites pagination did not terminate."
	default:
		return http.StatusInternalServerError, "Internal error."
	}
}
