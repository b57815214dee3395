// Package api exposes a small diagnostics/health HTTP surface: process
// health, credit-ledger totals, registry size, and live token count.
// Modeled on the teacher's gorilla/mux + rs/cors server shape.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/sentinelsignal/sentinel/internal/config"
	"github.com/sentinelsignal/sentinel/internal/logger"
	"github.com/sentinelsignal/sentinel/pkg/models"
)

// CreditSource reports the fetcher's accumulated provider-credit spend.
type CreditSource interface {
	TotalCreditsUsed() int64
	CreditsUsed(provider string) int64
}

// RegistrySource reports the curated wallet registry's current size.
type RegistrySource interface {
	Size() int
}

// TrackerSource reports the set of currently live tokens.
type TrackerSource interface {
	LiveTokens() []models.TokenAddress
}

// Server serves SENTINEL's diagnostics endpoints.
type Server struct {
	cfg        *config.APIConfig
	logger     *logger.Logger
	router     *mux.Router
	httpServer *http.Server

	credits  CreditSource
	registry RegistrySource
	tracker  TrackerSource
}

// NewServer builds a Server and registers its routes.
func NewServer(cfg *config.APIConfig, log *logger.Logger, credits CreditSource, registry RegistrySource, tracker TrackerSource) *Server {
	s := &Server{
		cfg:      cfg,
		logger:   log,
		router:   mux.NewRouter(),
		credits:  credits,
		registry: registry,
		tracker:  tracker,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	})

	s.router.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/diagnostics", s.handleDiagnostics).Methods("GET")

	s.router.Use(corsMiddleware.Handler)
	s.router.Use(s.loggingMiddleware)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("http_request", map[string]interface{}{
			"method":      r.Method,
			"path":        r.URL.Path,
			"duration_ms": time.Since(start).Milliseconds(),
		})
	})
}

// Start runs the HTTP server until it's shut down. Blocks the calling
// goroutine, matching net/http.Server.ListenAndServe's convention.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:           addr,
		Handler:        s.router,
		ReadTimeout:    time.Duration(s.cfg.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(s.cfg.WriteTimeout) * time.Second,
		MaxHeaderBytes: s.cfg.MaxHeaderBytes,
	}

	s.logger.Info("api_server_starting", map[string]interface{}{"address": addr})

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("api_server_stopping")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}
