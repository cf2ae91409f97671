// Package server wraps the gateway's HTTP listener.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/GatherLoop/gathersync/internal/application/container"
	"github.com/GatherLoop/gathersync/internal/infrastructure/observability/logging"
	"github.com/GatherLoop/gathersync/internal/presentation/http/routes"
	"github.com/GatherLoop/gathersync/pkg/config"
)

// Server owns the gateway listener and its graceful shutdown.
type Server struct {
	httpServer *http.Server
	logger     *logging.ChanneledLogger
}

// New builds the route tree from the container and wraps it in a
// configured http.Server.
func New(port string, c *container.Container) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         ":" + port,
			Handler:      routes.SetupRoutes(c),
			ReadTimeout:  config.ServerReadTimeout,
			WriteTimeout: config.ServerWriteTimeout,
			IdleTimeout:  config.ServerIdleTimeout,
		},
		logger: c.Logger,
	}
}

// Start listens until shutdown. A graceful close is not an error.
func (s *Server) Start() error {
	s.logger.Server().Info("Gateway listening", "addr", s.httpServer.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("gateway server failed: %w", err)
	}
	return nil
}

// Stop drains in-flight requests within the context deadline.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Shutdown().Info("Gateway server stopping")
	return s.httpServer.Shutdown(ctx)
}
