package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/samvad-hq/randfav/internal/api"
	"github.com/samvad-hq/randfav/internal/config"
	"github.com/samvad-hq/randfav/internal/domain"
	"github.com/samvad-hq/randfav/internal/logger"
	"github.com/samvad-hq/randfav/internal/storage"
	"github.com/samvad-hq/randfav/pkg/publishers"
)

// Server is the long-running redirector. It owns the HTTP listener, the pick
// history store and the publisher clients.
type Server struct {
	cfg     *config.Config
	http    *http.Server
	handler *api.Handler
	fanout  *publishers.Fanout
	store   storage.Store
	log     logger.Logger
}

// NewServer builds the server runtime from config.
func NewServer(ctx context.Context, cfg *config.Config, log logger.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	log = logger.Ensure(log)
	if ctx == nil {
		ctx = context.Background()
	}

	picker, err := NewPicker(cfg, log)
	if err != nil {
		return nil, err
	}

	fanout, err := buildFanout(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{
		PickTTL:         cfg.HistoryTTL,
		CleanupInterval: cfg.HistoryCleanup,
	})
	if err != nil {
		_ = fanout.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"pick_ttl_seconds":         int(cfg.HistoryTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.HistoryCleanup.Seconds()),
	})

	target, _ := domain.ParseTarget(cfg.DefaultTarget)
	handler := api.NewHandler(picker, api.Options{
		SourceID:        picker.Source().ID,
		DefaultUsername: cfg.DefaultUsername,
		DefaultTarget:   target,
		HistoryLimit:    cfg.HistoryLimit,
		Store:           store,
		Events:          fanout,
		Logger:          log,
	})

	return &Server{
		cfg: cfg,
		http: &http.Server{
			Addr:              cfg.ListenAddr,
			Handler:           api.NewRouter(handler),
			ReadHeaderTimeout: 10 * time.Second,
		},
		handler: handler,
		fanout:  fanout,
		store:   store,
		log:     log,
	}, nil
}

func buildFanout(ctx context.Context, cfg *config.Config, log logger.Logger) (*publishers.Fanout, error) {
	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}

	enabled := publisherReg.Enabled()
	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, pubCfg := range enabled {
		summaries = append(summaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})
	return publishers.NewFanout(pubClients), nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.http.Handler }

// Run serves requests until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	if s == nil || s.http == nil {
		return fmt.Errorf("server is not initialized")
	}
	defer s.close()

	errCh := make(chan error, 1)
	go func() {
		s.log.InfoObj("http server listening", "server_state", map[string]any{
			"addr":             s.cfg.ListenAddr,
			"publishers_count": s.fanout.Size(),
		})
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
		s.log.InfoObj("http server shutting down", "reason", ctx.Err())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

// close waits for in-flight event deliveries, then releases the storage
// backend and publisher clients, logging failures.
func (s *Server) close() {
	s.handler.Wait()
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.log.ErrorObj("storage close failed", "error", err)
		}
	}
	if err := s.fanout.Close(); err != nil {
		s.log.ErrorObj("publisher close failed", "error", err)
	}
}
