// Package api exposes the enrichment workflow over HTTP: single
// product enrichment (plain and streaming), catalog listings, and a
// health probe.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"catalog/internal/models"
	"catalog/internal/pipeline"
	"catalog/internal/storage"
	"catalog/internal/textgen"
	"catalog/internal/tracing"
)

type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

type ServerConfig struct {
	Port          int
	Enricher      *pipeline.Enricher
	Generator     textgen.Generator
	Tracer        *tracing.Tracer
	SimpleStore   storage.Store[models.Product]
	EnrichedStore storage.Store[models.EnrichedProduct]
	Logger        *slog.Logger
	StartTime     time.Time
}

func NewServer(cfg ServerConfig) *Server {
	router := NewRouter(cfg)

	return &Server{
		httpServer: &http.Server{
			Addr:        fmt.Sprintf(":%d", cfg.Port),
			Handler:     router,
			ReadTimeout: 15 * time.Second,
			// Streaming responses stay open indefinitely.
			WriteTimeout: 0,
			IdleTimeout:  60 * time.Second,
		},
		logger: cfg.Logger,
	}
}

func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Addr() string {
	return s.httpServer.Addr
}
