// Package server assembles the HTTP API and manages its lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"research-assistant/server/api/handlers"
	"research-assistant/server/events"
	"research-assistant/server/store"
)

// Config holds server configuration.
type Config struct {
	Address         string
	ShutdownTimeout time.Duration
}

var defaultConfig = &Config{
	Address:         ":8080",
	ShutdownTimeout: 10 * time.Second,
}

// Server is the research API server.
type Server struct {
	httpServer *http.Server
	cfg        *Config
	log        zerolog.Logger
}

// New wires the handlers into a server instance.
func New(cfg *Config, runner handlers.Runner, generator handlers.AnalystGenerator, runStore store.RunStore, broker *events.Broker, log zerolog.Logger) *Server {
	if cfg == nil {
		cfg = defaultConfig
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultConfig.ShutdownTimeout
	}

	researchHandler := handlers.NewResearchHandler(runner, runStore, broker, log)
	analystsHandler := handlers.NewAnalystsHandler(generator, log)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /research", researchHandler.StartResearch)
	mux.HandleFunc("GET /research", researchHandler.ListRuns)
	mux.HandleFunc("GET /research/{id}", researchHandler.GetRun)
	mux.HandleFunc("GET /research/{id}/report", researchHandler.GetReport)
	mux.HandleFunc("GET /research/{id}/events", researchHandler.StreamEvents)
	mux.HandleFunc("POST /analysts", analystsHandler.GenerateAnalysts)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status": "healthy"}`))
	})

	srvLog := log.With().Str("component", "api-server").Logger()
	handler := corsMiddleware(loggingMiddleware(srvLog)(mux))

	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Address,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		cfg: cfg,
		log: srvLog,
	}
}

// Handler exposes the assembled handler, used by tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves until a shutdown signal or listener error, then shuts
// down gracefully.
func (s *Server) Start() error {
	serverErr := make(chan error, 1)
	go func() {
		s.log.Info().Str("address", s.cfg.Address).Msg("starting research API server")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-quit:
		s.log.Info().Str("signal", sig.String()).Msg("shutting down")
		return s.Shutdown()
	}
}

// Shutdown stops the server, giving in-flight requests time to finish.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	s.log.Info().Msg("server exited")
	return nil
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func loggingMiddleware(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Dur("duration", time.Since(start)).
				Msg("request handled")
		})
	}
}
