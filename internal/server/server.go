// Package server exposes the catalog query surface over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/vidindex/internal/api"
	"github.com/mantonx/vidindex/internal/config"
	"github.com/mantonx/vidindex/internal/logger"
	"github.com/mantonx/vidindex/internal/middleware"
	"github.com/mantonx/vidindex/internal/server/handlers"
)

// shutdownTimeout bounds graceful shutdown.
const shutdownTimeout = 5 * time.Second

// Server is the HTTP API server.
type Server struct {
	cfg    config.ServerConfig
	engine *gin.Engine
	routes []APIRoute
}

// New builds the router for the given handler.
func New(cfg config.ServerConfig, h *handlers.Handler) *Server {
	engine := gin.New()
	engine.Use(
		api.ErrorMiddleware(),
		middleware.RequestLogger(),
		middleware.ErrorLogger(),
	)

	s := &Server{
		cfg:    cfg,
		engine: engine,
	}
	s.routes = setupRoutes(engine, h)
	return s
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Routes returns the registered API routes.
func (s *Server) Routes() []APIRoute {
	return append([]APIRoute(nil), s.routes...)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr(),
		Handler:      s.engine,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("HTTP server shutdown complete")
	return nil
}
