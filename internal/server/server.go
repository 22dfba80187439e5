// ============================================================================
// meinSPRACHWERK (mSW) - Lokaler Text-to-Speech Dienst
// ============================================================================
//
// Package:     server
// Description: Loopback-only HTTP server for the speech API
// Author:      Mike Stoffels with Claude
// Created:     2025-12-14
// License:     MIT
// ============================================================================

package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/msto63/mSW/pkg/core/logging"
)

// Server hosts the JSON API and the event stream. It binds to loopback
// only; this service has no authentication.
type Server struct {
	httpServer *http.Server
	handler    *Handler
	hub        *EventHub
	logger     *logging.Logger
	config     Config
}

// Config holds server configuration
type Config struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Version      string
}

// DefaultConfig returns default server configuration
func DefaultConfig() Config {
	return Config{
		Port:         8731,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		Version:      "1.0.0",
	}
}

// New creates the server over an already-wired handler and event hub
func New(cfg Config, handler *Handler, hub *EventHub) *Server {
	logger := logging.New("server")

	mux := http.NewServeMux()
	handler.Register(mux)
	if hub != nil {
		mux.Handle("/api/events", hub)
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("127.0.0.1:%d", cfg.Port),
		Handler:      loggingMiddleware(logger, mux),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &Server{
		httpServer: httpServer,
		handler:    handler,
		hub:        hub,
		logger:     logger,
		config:     cfg,
	}
}

// loggingMiddleware adds request logging
func loggingMiddleware(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r)

		logger.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapper.statusCode,
			"duration", time.Since(start),
		)
	})
}

// responseWrapper wraps http.ResponseWriter to capture the status code
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWrapper) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

// StartAsync starts serving in the background
func (s *Server) StartAsync() {
	s.logger.Info("Starting speech API", "addr", s.httpServer.Addr)

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server error", "error", err)
		}
	}()
}

// Stop gracefully shuts the server down
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping speech API")
	if s.hub != nil {
		s.hub.Close()
	}
	return s.httpServer.Shutdown(ctx)
}

// Address returns the bound address
func (s *Server) Address() string {
	return s.httpServer.Addr
}
