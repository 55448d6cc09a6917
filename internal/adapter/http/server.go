// Package http exposes the ranking API plus health, readiness, and metrics
// endpoints.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arcticlab/coldwatch/internal/domain"
)

// Ranker produces the coldest-place report for one request.
type Ranker interface {
	ColdestReport(ctx context.Context) (domain.RankedResult, error)
}

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// coldestResponse wraps the ranking with the time it was computed.
type coldestResponse struct {
	domain.RankedResult
	LastUpdated string `json:"lastUpdated"`
}

// Server exposes the coldest-place API over HTTP.
type Server struct {
	httpServer *http.Server
	ranker     Ranker
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /api/coldest, /healthz, /readyz, and
// /metrics routes.
func NewServer(addr string, ranker Ranker, ready ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:    addr,
			Handler: mux,
			// Rankings fetch several upstreams on a cold cache; the write
			// timeout has to cover a full fan-out.
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 120 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		ranker: ranker,
		logger: logger,
	}

	mux.HandleFunc("GET /api/coldest", s.handleColdest)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// handleColdest runs a full ranking and writes the result. An empty
// observation set is reported distinctly from other failures: it means the
// upstreams were reachable but nothing decoded, which operators treat
// differently from the service being broken.
func (s *Server) handleColdest(w http.ResponseWriter, r *http.Request) {
	result, err := s.ranker.ColdestReport(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrNoObservations) {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"error": "no observations available from any source",
			})
			return
		}
		s.logger.Error("ranking failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "internal error",
		})
		return
	}

	writeJSON(w, http.StatusOK, coldestResponse{
		RankedResult: result,
		LastUpdated:  time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response write
}
