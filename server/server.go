package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/rest/logger"
	"github.com/go-pkgz/routegroup"

	"github.com/umputun/feedscope/pkg/domain"
)

// Server exposes the insight engine over a small REST API. The dashboard
// consumes snapshots and record lists and writes back only filter
// parameters and regeneration or upload triggers.
type Server struct {
	config   ConfigProvider
	insights Insights
	pipeline Pipeline
	version  string
	debug    bool

	lock       sync.Mutex
	httpServer *http.Server
	router     *routegroup.Bundle
}

// Insights is the read side of the engine
type Insights interface {
	Snapshot(filter domain.Filter) *domain.InsightSnapshot
	Records(filter domain.Filter) []domain.FeedbackRecord
	Report() *domain.ReportData
	Ask(ctx context.Context, question string, filter domain.Filter) string
	LoadedAt() time.Time
}

// Pipeline is the write side: dataset regeneration and CSV upload
type Pipeline interface {
	Refresh(ctx context.Context) error
	IngestCSV(ctx context.Context, r io.Reader) (int, error)
}

// ConfigProvider provides server configuration
type ConfigProvider interface {
	GetServerConfig() (listen string, timeout time.Duration)
}

// New initializes a new server instance
func New(cfg ConfigProvider, insights Insights, pipeline Pipeline, version string, debug bool) *Server {
	s := &Server{
		config:   cfg,
		insights: insights,
		pipeline: pipeline,
		version:  version,
		debug:    debug,
		router:   routegroup.New(http.NewServeMux()),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// Run starts the HTTP server and handles graceful shutdown
func (s *Server) Run(ctx context.Context) error {
	listen, timeout := s.config.GetServerConfig()
	log.Printf("[INFO] starting server on %s", listen)

	s.lock.Lock()
	s.httpServer = &http.Server{
		Addr:         listen,
		Handler:      s.router,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	}
	s.lock.Unlock()

	go func() {
		<-ctx.Done()
		log.Printf("[INFO] shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] server shutdown error: %v", err)
		}
	}()

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}

	return nil
}

// setupMiddleware configures standard middleware for the server
func (s *Server) setupMiddleware() {
	s.router.Use(rest.AppInfo("feedscope", "umputun", s.version))
	s.router.Use(rest.Ping)

	if s.debug {
		s.router.Use(logger.New(logger.Log(lgr.Default()), logger.Prefix("[DEBUG]")).Handler)
	}

	s.router.Use(rest.Recoverer(lgr.Default()))
	s.router.Use(rest.Throttle(100))
	s.router.Use(rest.SizeLimit(5 * 1024 * 1024)) // 5MB, CSV uploads included
}

// setupRoutes configures application routes
func (s *Server) setupRoutes() {
	s.router.Mount("/api/v1").Route(func(r *routegroup.Bundle) {
		r.HandleFunc("GET /status", s.statusHandler)
		r.HandleFunc("GET /snapshot", s.snapshotHandler)
		r.HandleFunc("GET /records", s.recordsHandler)
		r.HandleFunc("GET /report", s.reportHandler)
		r.HandleFunc("POST /ask", s.askHandler)
		r.HandleFunc("POST /regenerate", s.regenerateHandler)
		r.HandleFunc("POST /upload", s.uploadHandler)
	})
}
