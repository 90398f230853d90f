package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"netflow9-collector/internal/decoder"
	"netflow9-collector/internal/store"
)

// Server is the HTTP API server backing the dashboard
type Server struct {
	server   *http.Server
	handlers *Handlers
	port     int
	log      *zap.Logger
}

// NewServer creates a new API server
func NewServer(recordStore *store.RecordStore, cache *decoder.TemplateCache, port int, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	handlers := NewHandlers(recordStore, cache, log)

	registry := prometheus.NewRegistry()
	registry.MustRegister(decoder.Metrics()...)
	registry.MustRegister(collectors.NewGoCollector())

	mux := http.NewServeMux()

	// API v1 endpoints
	mux.HandleFunc("/api/v1/packets", corsMiddleware(handlers.HandlePackets))
	mux.HandleFunc("/api/v1/records", corsMiddleware(handlers.HandleRecords))
	mux.HandleFunc("/api/v1/templates", corsMiddleware(handlers.HandleTemplates))
	mux.HandleFunc("/api/v1/stats", corsMiddleware(handlers.HandleStats))

	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	// Health check
	mux.HandleFunc("/health", corsMiddleware(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		server:   server,
		handlers: handlers,
		port:     port,
		log:      log,
	}
}

// Start runs the server in a goroutine
func (s *Server) Start() error {
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error("API server failed", zap.Error(err))
		}
	}()
	s.log.Info("API server started", zap.Int("port", s.port))
	return nil
}

// Stop shuts the server down gracefully
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// Port returns the configured port
func (s *Server) Port() int {
	return s.port
}

// corsMiddleware adds CORS headers for cross-origin dashboard requests
func corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}
