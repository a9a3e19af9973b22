package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"isitdown/internal/checker"
)

// Server wraps the http.Server to provide graceful shutdown.
type Server struct {
	httpServer *http.Server
	logger     zerolog.Logger
}

// NewServer creates and configures a new API server.
func NewServer(port string, c checker.TargetChecker, logger zerolog.Logger) *Server {
	router := NewRouter(c, logger)
	return &Server{
		logger: logger.With().Str("component", "server").Logger(),
		httpServer: &http.Server{
			Addr:              ":" + port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Start runs the HTTP server in a new goroutine. A listen failure is sent on
// the returned channel.
func (s *Server) Start() <-chan error {
	errCh := make(chan error, 1)
	s.logger.Info().Str("addr", s.httpServer.Addr).Msg("starting HTTP server")
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	return errCh
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
