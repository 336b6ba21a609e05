// Package status exposes the read-only HTTP interface for a running harvest.
// The server reports liveness, Prometheus metrics, and per-run progress
// snapshots while the pipeline works through its phases.
package status

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wikiharvest/wikiharvest/internal/metrics"
	"github.com/wikiharvest/wikiharvest/internal/progress/sinks"
)

const handlerTimeout = 30 * time.Second

// Snapshots answers run progress queries. The snapshot progress sink
// implements it.
type Snapshots interface {
	Current() (sinks.RunSnapshot, bool)
	Run(id uuid.UUID) (sinks.RunSnapshot, bool)
	Runs() []sinks.RunSnapshot
}

// Server serves the status endpoints over HTTP.
type Server struct {
	router    chi.Router
	snapshots Snapshots
	logger    *zap.Logger
	httpSrv   *http.Server
}

// NewServer constructs a Server with middleware and routes.
func NewServer(snapshots Snapshots, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		snapshots: snapshots,
		logger:    logger,
	}

	r := chi.NewRouter()
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(metrics.Middleware)

	r.Get("/healthz", s.healthz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Route("/v1", func(r chi.Router) {
		r.Get("/run", s.getCurrentRun)
		r.Route("/runs", func(r chi.Router) {
			r.Get("/", s.listRuns)
			r.Get("/{run_id}", s.getRun)
		})
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return http.TimeoutHandler(s.router, handlerTimeout, "request timed out")
}

// Start binds addr and begins serving in the background. Bind failures
// are returned immediately; later serve errors are logged.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	s.httpSrv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if serveErr := s.httpSrv.Serve(ln); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			s.logger.Error("status server stopped", zap.Error(serveErr))
		}
	}()
	s.logger.Info("status server listening", zap.String("addr", ln.Addr().String()))
	return nil
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	if err := s.httpSrv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown status server: %w", err)
	}
	return nil
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// getCurrentRun handles GET /v1/run. It returns the most recent run
// snapshot, or 404 when no run has been registered yet.
func (s *Server) getCurrentRun(w http.ResponseWriter, _ *http.Request) {
	if s.snapshots == nil {
		s.writeError(w, http.StatusServiceUnavailable, "progress snapshots unavailable")
		return
	}
	snap, ok := s.snapshots.Current()
	if !ok {
		s.writeError(w, http.StatusNotFound, "no run registered")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"run": snap})
}

// listRuns handles GET /v1/runs. It returns all retained snapshots,
// oldest first.
func (s *Server) listRuns(w http.ResponseWriter, _ *http.Request) {
	if s.snapshots == nil {
		s.writeError(w, http.StatusServiceUnavailable, "progress snapshots unavailable")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"runs": s.snapshots.Runs()})
}

// getRun handles GET /v1/runs/{run_id}. It returns 400 for malformed IDs
// and 404 for unknown runs.
func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	if s.snapshots == nil {
		s.writeError(w, http.StatusServiceUnavailable, "progress snapshots unavailable")
		return
	}
	runID, err := uuid.Parse(chi.URLParam(r, "run_id"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid run_id")
		return
	}
	snap, ok := s.snapshots.Run(runID)
	if !ok {
		s.writeError(w, http.StatusNotFound, "run not found")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"run": snap})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Debug("write JSON failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
