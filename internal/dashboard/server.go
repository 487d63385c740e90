// Package dashboard serves the review API: inspect drafts, approve or
// reject them, publish to GitHub, and ingest scraped threads.
package dashboard

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ghosthub/ghosthub/internal/store"
	"github.com/ghosthub/ghosthub/internal/workflow"
)

// Server is the dashboard HTTP API.
type Server struct {
	router *gin.Engine
	store  *store.Store
	flow   *workflow.Orchestrator
	port   int
	out    io.Writer
}

// Opts holds configuration for the dashboard server.
type Opts struct {
	Store    *store.Store
	Workflow *workflow.Orchestrator
	Port     int
	Out      io.Writer
}

// New creates a dashboard Server with all routes registered.
func New(opts Opts) (*Server, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("dashboard: store is required")
	}
	if opts.Workflow == nil {
		return nil, fmt.Errorf("dashboard: workflow is required")
	}
	if opts.Port <= 0 {
		opts.Port = 8080
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		router: router,
		store:  opts.Store,
		flow:   opts.Workflow,
		port:   opts.Port,
		out:    opts.Out,
	}
	s.registerRoutes()
	return s, nil
}

// Handler exposes the underlying HTTP handler. For testing.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start launches the HTTP server. It blocks until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s.router,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if s.out != nil {
		fmt.Fprintf(s.out, "Dashboard API running at http://localhost:%d\n", s.port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("dashboard: %w", err)
	}
	return nil
}
