package web

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"pairhunter/internal/config"
	"pairhunter/internal/provider"
	"pairhunter/internal/report"
)

// Server exposes screening over HTTP
type Server struct {
	router   *chi.Mux
	srv      *http.Server
	cfg      *config.Config
	provider provider.Provider
	cache    *provider.CachingProvider
	store    *report.Store
	auth     *authMiddleware
	log      zerolog.Logger

	// one screening at a time; runs are heavy on upstream quotas
	screening atomic.Bool
}

// NewServer creates a new web server. Price history is cached for
// cfg.Server.CacheTTL so repeated screens of a universe do not refetch.
// store may be nil, which disables the report endpoints.
func NewServer(cfg *config.Config, p provider.Provider, store *report.Store, log zerolog.Logger) *Server {
	s := &Server{
		router: chi.NewRouter(),
		cfg:    cfg,
		store:  store,
		log:    log.With().Str("component", "server").Logger(),
	}
	if cfg.Server.CacheTTL > 0 {
		s.cache = provider.NewCachingProvider(p, cfg.Server.CacheTTL)
		s.provider = s.cache
	} else {
		s.provider = p
	}
	if cfg.Server.JWTSecret != "" {
		s.auth = newAuthMiddleware(cfg.Server.JWTSecret)
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.srv = &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		if s.auth != nil {
			r.Use(s.auth.requireAuth)
		}
		r.Get("/universes", s.handleUniverses)
		r.Post("/screen", s.handleScreen)
		r.Get("/reports/latest", s.handleLatestReport)
		r.Delete("/cache", s.handlePurgeCache)
	})
}

// Handler returns the routed handler, for embedding and tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens until Shutdown is called
func (s *Server) Start() error {
	s.log.Info().
		Str("addr", s.srv.Addr).
		Bool("auth", s.auth != nil).
		Dur("cache_ttl", s.cfg.Server.CacheTTL).
		Msg("Starting HTTP server")
	return s.srv.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.srv.Shutdown(ctx)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
