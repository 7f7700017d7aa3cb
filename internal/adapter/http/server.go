// Package http exposes the service's HTTP surface: operational endpoints
// (/healthz, /readyz, /metrics) and the /api/v1 routes the dashboard
// widgets call.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/air-quality-monitor/internal/dashboard"
	"github.com/couchcryptid/air-quality-monitor/internal/domain"
	"github.com/couchcryptid/air-quality-monitor/internal/monitor"
	"github.com/couchcryptid/air-quality-monitor/internal/session"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Deps are the collaborators behind the API routes. Geocoder may be nil
// when place search is not configured.
type Deps struct {
	Session   *session.Session
	Dashboard *dashboard.Refresher
	Monitor   *monitor.Monitor
	Geocoder  domain.Geocoder
	Ready     ReadinessChecker
	Logger    *slog.Logger
}

// Server exposes the HTTP API.
type Server struct {
	httpServer *http.Server
	deps       Deps
	logger     *slog.Logger
}

// NewServer creates the HTTP server with all routes registered.
func NewServer(addr string, deps Deps) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		deps:   deps,
		logger: deps.Logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(deps.Ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/v1/location", s.handleGetLocation)
	mux.HandleFunc("PUT /api/v1/location", s.handlePutLocation)
	mux.HandleFunc("GET /api/v1/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /api/v1/search", s.handleSearch)
	mux.HandleFunc("POST /api/v1/alerts", s.handleCreateAlert)
	mux.HandleFunc("GET /api/v1/alerts", s.handleAlertStatus)
	mux.HandleFunc("DELETE /api/v1/alerts", s.handleDeleteAlert)

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

type locationPayload struct {
	Location string   `json:"location"`
	Lat      *float64 `json:"lat,omitempty"`
	Lon      *float64 `json:"lon,omitempty"`
}

func (s *Server) handleGetLocation(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, locationPayload{Location: s.deps.Session.Current()})
}

// handlePutLocation accepts either a place name or a lat/lon pair, which is
// stored in the canonical geo:<lat>;<lon> form. The session bump fans out
// to the dashboard refresher and the next monitor poll.
func (s *Server) handlePutLocation(w http.ResponseWriter, r *http.Request) {
	var payload locationPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	location := strings.TrimSpace(payload.Location)
	if location == "" && payload.Lat != nil && payload.Lon != nil {
		location = session.GeoLocation(*payload.Lat, *payload.Lon)
	}
	if location == "" {
		writeError(w, http.StatusBadRequest, "location or lat/lon required")
		return
	}

	s.deps.Session.Set(location)
	s.logger.Info("location changed", "location", location)
	writeJSON(w, http.StatusOK, locationPayload{Location: location})
}

func (s *Server) handleDashboard(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Dashboard.Snapshot())
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.deps.Geocoder == nil {
		writeError(w, http.StatusNotImplemented, "place search is not configured")
		return
	}
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "query parameter q required")
		return
	}

	places, err := s.deps.Geocoder.Search(r.Context(), query)
	if err != nil {
		s.logger.Error("place search failed", "query", query, "error", err)
		writeError(w, http.StatusBadGateway, "place search failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"places": places})
}

func (s *Server) handleCreateAlert(w http.ResponseWriter, r *http.Request) {
	var sub domain.AlertSubscription
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.deps.Monitor.Start(r.Context(), sub); err != nil {
		if errors.Is(err, domain.ErrInvalidSubscription) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("alert setup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not start alert monitoring")
		return
	}

	status, err := s.deps.Monitor.Status(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not read monitor status")
		return
	}
	writeJSON(w, http.StatusCreated, status)
}

func (s *Server) handleAlertStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.deps.Monitor.Status(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not read monitor status")
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleDeleteAlert(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Monitor.Teardown(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "could not tear down alert monitoring")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort health response
}
