package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/samvad-hq/randfav/internal/logger"
)

// NewRouter mounts the handler's routes.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestLogger(h.log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.GetHead)

	r.Get("/", h.Random)
	r.Get("/random", h.Random)
	r.Get("/history", h.History)
	r.Get("/healthz", h.Health)
	return r
}

func requestLogger(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.InfoObj("request served", "http_request", map[string]any{
				"method":      r.Method,
				"path":        r.URL.Path,
				"query":       r.URL.RawQuery,
				"status":      ww.Status(),
				"bytes":       ww.BytesWritten(),
				"duration_ms": time.Since(start).Milliseconds(),
			})
		}
		return http.HandlerFunc(fn)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
