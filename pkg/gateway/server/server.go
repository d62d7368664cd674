package server

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hovorka-app/hovorka/pkg/completion"
	"github.com/hovorka-app/hovorka/pkg/gateway/config"
	"github.com/hovorka-app/hovorka/pkg/gateway/handlers"
	"github.com/hovorka-app/hovorka/pkg/gateway/metrics"
	"github.com/hovorka-app/hovorka/pkg/gateway/mw"
	"github.com/hovorka-app/hovorka/pkg/store"
)

// Deps are the external collaborators the gateway serves with.
type Deps struct {
	Scenarios   store.Scenarios
	Archive     store.Archive
	Completions completion.Client
	Upstream    handlers.RealtimeNegotiator
}

type Server struct {
	cfg    config.Config
	logger *slog.Logger
	mux    *http.ServeMux
	deps   Deps

	registry *prometheus.Registry
	metrics  *metrics.Metrics
	saveWG   sync.WaitGroup
}

func New(cfg config.Config, logger *slog.Logger, deps Deps) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	registry := prometheus.NewRegistry()
	s := &Server{
		cfg:      cfg,
		logger:   logger,
		mux:      http.NewServeMux(),
		deps:     deps,
		registry: registry,
		metrics:  metrics.New(registry),
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.Handle("/healthz", handlers.HealthHandler{})
	s.mux.Handle("/readyz", handlers.ReadyHandler{Config: s.cfg})
	s.mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	s.mux.Handle("/realtime-session", handlers.SessionHandler{
		Config:    s.cfg,
		Scenarios: s.deps.Scenarios,
		Upstream:  s.deps.Upstream,
		Logger:    s.logger,
		Metrics:   s.metrics,
	})
	s.mux.Handle("/realtime-connect", handlers.ConnectHandler{
		Config:   s.cfg,
		Upstream: s.deps.Upstream,
		Logger:   s.logger,
		Metrics:  s.metrics,
	})
	s.mux.Handle("/save-realtime-transcript", handlers.SaveHandler{
		Config:    s.cfg,
		Scenarios: s.deps.Scenarios,
		Archive:   s.deps.Archive,
		Logger:    s.logger,
		Metrics:   s.metrics,
	})
	s.mux.Handle("/chat", handlers.ChatHandler{
		Config:      s.cfg,
		Scenarios:   s.deps.Scenarios,
		Archive:     s.deps.Archive,
		Completions: s.deps.Completions,
		Logger:      s.logger,
		Metrics:     s.metrics,
		SaveWG:      &s.saveWG,
	})

	s.mux.Handle("/", handlers.NotFoundHandler{})
}

func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = s.metrics.Middleware(h)
	h = mw.CORS(s.cfg, h)
	h = mw.Recover(s.logger, h)
	h = mw.AccessLog(s.logger, h)
	h = mw.RequestID(h)
	return h
}

// WaitDetachedSaves blocks until all background transcript saves finish or
// ctx expires. It reports whether the saves drained in time.
func (s *Server) WaitDetachedSaves(ctx context.Context) bool {
	done := make(chan struct{})
	go func() {
		s.saveWG.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}
