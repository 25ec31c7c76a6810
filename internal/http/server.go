// Package http exposes the dashboard aggregations as a small JSON API.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	applog "lifeboard/internal/log"
	"lifeboard/internal/services"
)

type Server struct {
	dashboard *services.Dashboard
	ownerID   string
	logger    *applog.Logger
	srv       *http.Server
}

func NewServer(port string, dashboard *services.Dashboard, ownerID string, logger *applog.Logger) *Server {
	s := &Server{
		dashboard: dashboard,
		ownerID:   ownerID,
		logger:    logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("GET /api/habits/progress", s.handleHabitProgress)
	mux.HandleFunc("POST /api/habits/{id}/checkin", s.handleCheckIn)
	mux.HandleFunc("GET /api/calendar", s.handleCalendar)
	mux.HandleFunc("GET /api/review", s.handleReview)

	handler := applog.RequestLogging(logger, requestID)(mux)

	s.srv = &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// ListenAndServe blocks until the server stops.
func (s *Server) ListenAndServe() error {
	s.logger.Info("HTTP server listening", "addr", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("listen and serve: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// Handler returns the configured handler, used directly by tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

func requestID(_ *http.Request) string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "unknown"
	}
	return hex.EncodeToString(buf)
}
