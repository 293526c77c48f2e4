// Package server provides the HTTP and WebSocket surface of signbridge.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ayusman/signbridge/internal/inference"
	"github.com/ayusman/signbridge/internal/labels"
	"github.com/ayusman/signbridge/internal/sentence"
	"github.com/ayusman/signbridge/internal/server/api"
	"github.com/ayusman/signbridge/internal/telemetry"
)

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Labels    *labels.Set
	// Dataset enables the /api/samples endpoints.
	Dataset api.Counter
	// Orchestrator enables /ws/predict.
	Orchestrator *inference.Orchestrator
	Sentence     sentence.Config
	Telemetry    *telemetry.Recorder
	Logger       *slog.Logger
}

// Server represents the HTTP server for the signbridge application.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
	log    *slog.Logger
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	if config.Labels == nil && config.Orchestrator != nil {
		config.Labels = config.Orchestrator.Labels()
	}
	if config.Labels == nil {
		config.Labels = labels.MustDefault()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
		log:    config.Logger.With("component", "server.Server"),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.Handle("/api/labels", api.NewLabelsHandler(s.config.Labels))

	if s.config.Telemetry != nil {
		s.mux.Handle("/api/stats", api.NewStatsHandler(s.config.Telemetry))
	}

	if s.config.Dataset != nil {
		samples := api.NewSamplesHandler(s.config.Dataset, s.config.Labels)
		s.mux.Handle("/api/samples/", samples)
	}

	if s.config.Orchestrator != nil {
		predict := NewPredictHandler(s.config.Orchestrator, s.config.Sentence, s.config.Telemetry, s.config.Logger)
		s.mux.Handle("/ws/predict", predict)
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(s.start)

	response := map[string]interface{}{
		"status":    "ok",
		"uptime":    uptime.String(),
		"predict":   s.config.Orchestrator != nil,
		"collected": s.config.Dataset != nil,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ShutdownTimeout bounds graceful shutdown in Run.
const ShutdownTimeout = 5 * time.Second

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.log.Warn("graceful shutdown timed out, closing", "error", err)
		srv.Close()
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
