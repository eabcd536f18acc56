package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"shopping-agent/internal/application/port/output"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"
	"github.com/rs/zerolog"
)

const shutdownTimeout = 10 * time.Second

// NewAccessLogger returns the zerolog logger used for request logs.
func NewAccessLogger(service string) zerolog.Logger {
	return httplog.NewLogger(service, httplog.Options{
		JSON:    true,
		Concise: true,
	})
}

func NewRouter(h *Handler, accessLog zerolog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(httplog.RequestLogger(accessLog))
	r.Use(middleware.Recoverer)

	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/search/{query}", h.Search)
		r.Get("/compare/{product}", h.Compare)
		r.Post("/purchase", h.Purchase)
		r.Get("/track/{orderID}", h.Track)
		r.Post("/tasks/{taskID}/stop", h.StopTask)
		r.Get("/summary", h.Summary)
		r.Post("/alice/chat", h.Chat)
	})

	return r
}

type Server struct {
	srv    *http.Server
	logger output.LoggerPort
}

func NewServer(addr string, handler http.Handler, logger output.LoggerPort) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Run serves until ctx is canceled, then shuts the server down gracefully.
// Poll loops block a request for minutes, so there is no write timeout.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", s.srv.Addr)
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.logger.Info("HTTP server shutting down")
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}
