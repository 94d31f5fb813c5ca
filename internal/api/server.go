// Package api provides the HTTP API server for the event platform.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/opensource-retail/kestrel/internal/analytics"
	"github.com/opensource-retail/kestrel/internal/domain"
	"github.com/opensource-retail/kestrel/internal/rules"
	"github.com/opensource-retail/kestrel/internal/segment"
)

// Server represents the HTTP API server.
type Server struct {
	router  *chi.Mux
	handler *Handler
	server  *http.Server
	config  domain.ServerConfig
}

// NewServer creates a new API server.
func NewServer(cfg domain.ServerConfig, repo domain.Repository, cache domain.Cache, bus domain.EventBus, engine *rules.Engine, segments *segment.Service, reports *analytics.Processor, version string) *Server {
	handler := NewHandler(repo, cache, bus, engine, segments, reports, version)
	router := chi.NewRouter()

	// Global middleware stack
	router.Use(CORSMiddleware)         // CORS for browser clients
	router.Use(RecoverMiddleware)      // Recover from panics
	router.Use(TracingMiddleware)      // OpenTelemetry tracing
	router.Use(LoggingMiddleware)      // Request logging
	router.Use(middleware.RealIP)      // Extract real IP
	router.Use(middleware.Compress(5)) // Gzip compression

	// Health endpoints (no org required)
	router.Get("/health", handler.Health)
	router.Get("/ready", handler.Ready)

	// API routes (org required)
	router.Route("/", func(r chi.Router) {
		r.Use(OrgMiddleware)

		// Event ingestion
		r.Post("/events", handler.ProcessEvent)

		// Engine result retrieval
		r.Get("/results/{id}", handler.GetEngineResult)

		// Transactions
		r.Post("/transactions", handler.CreateTransaction)
		r.Get("/transactions/{id}", handler.GetTransaction)

		// Customer segmentation
		r.Get("/segments", handler.GetSegments)

		// Sales analytics
		r.Get("/analytics/sales", handler.GetSalesReport)

		// Rule management
		r.Get("/rules", handler.ListRules)
		r.Get("/rules/{event}", handler.GetRule)
		r.Post("/rules", handler.CreateRule)
		r.Post("/rules/{event}/enable", handler.EnableRule)
		r.Post("/rules/{event}/disable", handler.DisableRule)
		r.Delete("/rules/{event}", handler.DeleteRule)
	})

	return &Server{
		router:  router,
		handler: handler,
		config:  cfg,
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.config.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.config.WriteTimeout) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the Chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Handler returns the handler for testing.
func (s *Server) Handler() *Handler {
	return s.handler
}
