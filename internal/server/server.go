// Package server exposes the document index over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/ziadkadry99/docrag/internal/audit"
	"github.com/ziadkadry99/docrag/internal/lifecycle"
	"github.com/ziadkadry99/docrag/internal/library"
	"github.com/ziadkadry99/docrag/internal/rag"
	"github.com/ziadkadry99/docrag/internal/settings"
)

// Config holds server configuration.
type Config struct {
	Port           int
	AllowedOrigins []string
	AllowAll       bool // allow all CORS origins (dev mode)
	// RequestTimeout bounds each request. Zero means 5 minutes, which leaves
	// room for slow local models.
	RequestTimeout time.Duration
}

// Deps are the services the HTTP handlers delegate to.
type Deps struct {
	Library   *library.Library
	Engine    *rag.Engine
	Lifecycle *lifecycle.Manager
	Settings  *settings.Runtime
	Audit     *audit.Store // optional
	Logger    *zap.Logger
}

// Server is the docrag HTTP API server.
type Server struct {
	cfg        Config
	deps       Deps
	logger     *zap.Logger
	router     chi.Router
	httpServer *http.Server
}

// New creates a server with all routes registered.
func New(cfg Config, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 5 * time.Minute
	}
	s := &Server{
		cfg:    cfg,
		deps:   deps,
		logger: deps.Logger.Named("http"),
	}
	s.router = s.buildRouter()
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.cfg.RequestTimeout))

	// CORS
	corsOpts := cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
		corsOpts.AllowCredentials = false
	}
	r.Use(cors.Handler(corsOpts))

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	h := &handler{deps: s.deps, logger: s.logger}
	r.Route("/documents", func(r chi.Router) {
		r.Post("/", h.addDocument)
		r.Get("/", h.listDocuments)
		r.Delete("/{id}", h.deleteDocument)
	})
	r.Post("/query", h.query)
	r.Post("/search", h.search)
	r.Get("/stats", h.stats)
	r.Post("/reindex", h.reindex)
	r.Get("/model", h.model)
	r.Get("/search-config", h.getSearchConfig)
	r.Post("/search-config", h.updateSearchConfig)
	r.Get("/llm-config", h.getLLMConfig)
	r.Post("/llm-config", h.updateLLMConfig)

	if s.deps.Audit != nil {
		audit.RegisterRoutes(r, s.deps.Audit)
	}

	return r
}

// Router returns the chi router for registering additional routes.
func (s *Server) Router() chi.Router { return s.router }

// Start begins listening on the configured port. It returns
// http.ErrServerClosed after Shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Port))
	if err != nil {
		return fmt.Errorf("listening on port %d: %w", s.cfg.Port, err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln.
func (s *Server) Serve(ln net.Listener) error {
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.cfg.RequestTimeout + 10*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info("docrag server listening", zap.String("addr", ln.Addr().String()))
	err := s.httpServer.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return err
	}
	if err != nil {
		return fmt.Errorf("serving http: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
