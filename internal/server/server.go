// Package server provides the HTTP API for passage search.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/passagesearch/internal/config"
	"github.com/hyperjump/passagesearch/internal/models"
	"github.com/hyperjump/passagesearch/internal/storage"
)

// QueryService answers search queries against one index.
type QueryService interface {
	Search(ctx context.Context, query string) (*models.SearchResponse, error)
	Index() string
}

// EngineStatus reports reachability and size of the search engine.
type EngineStatus interface {
	Ping(ctx context.Context) error
	Count(ctx context.Context, index string) (int64, error)
}

// Server is the HTTP server for the passage search API.
type Server struct {
	search  QueryService
	engine  EngineStatus
	runs    storage.RunStore
	config  *config.Config
	logger  *zap.Logger
	server  *http.Server
	handler http.Handler
}

// NewServer creates a server with the given dependencies. runs may be nil when no ledger is configured.
func NewServer(
	search QueryService,
	engine EngineStatus,
	runs storage.RunStore,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		search: search,
		engine: engine,
		runs:   runs,
		config: cfg,
		logger: logger,
	}
	s.handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/search", s.handleSearch)
		r.Get("/search", s.handleSearchGet)
		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{id}", s.handleGetRun)
		r.Get("/status", s.handleStatus)
	})
	r.Get("/health", s.handleHealth)
	return r
}

// Handler returns the routed handler, for embedding and tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.handler,
		ReadTimeout:  config.Seconds(s.config.Server.ReadTimeoutSeconds),
		WriteTimeout: config.Seconds(s.config.Server.WriteTimeoutSeconds),
	}
	s.logger.Info("Starting server", zap.String("addr", addr), zap.String("index", s.search.Index()))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
