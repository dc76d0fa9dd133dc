// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/opsboard/internal/adapters/csvsource"
	"github.com/okian/opsboard/internal/domain/types"
	"github.com/okian/opsboard/pkg/logger"
	"github.com/okian/opsboard/pkg/metrics"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Render builds the dashboard view for a filter query.
	Render(ctx context.Context, q types.Query) (types.ViewModel, error)
	// FilterOptions describes the dashboard controls.
	FilterOptions(ctx context.Context) (types.FilterOptions, error)
	// Reload drops cached datasets and loads them again.
	Reload(ctx context.Context) (types.FilterOptions, error)
}

// Server wires HTTP routes for the dashboard API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	viewHandler      *ViewHandler
	dashboardHandler *dashboardHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		viewHandler:      NewViewHandler(deps),
		dashboardHandler: newDashboardHandler(),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("/metrics", s.healthHandler.MetricsHandler())
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/dashboard", MetricsMiddleware(s.dashboardHandler.HandleDashboard, "dashboard"))
	mux.Handle("/static/", s.dashboardHandler.StaticHandler())
	mux.HandleFunc("/api/options", MetricsMiddleware(s.viewHandler.HandleOptions, "options"))
	mux.HandleFunc("/api/view", MetricsMiddleware(s.viewHandler.HandleView, "view"))
	mux.HandleFunc("/api/reload", MetricsMiddleware(s.viewHandler.HandleReload, "reload"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure maps an upstream error to a status and code.
func writeFailure(ctx context.Context, w http.ResponseWriter, err error) {
	status, code := http.StatusInternalServerError, "internal_error"
	switch {
	case errors.Is(err, ErrBadRequest):
		status, code = http.StatusBadRequest, "bad_request"
	case errors.Is(err, csvsource.ErrParse):
		code = "parse_error"
	case errors.Is(err, csvsource.ErrLoad):
		code = "load_error"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		code = "canceled"
	}
	if status >= http.StatusInternalServerError {
		metrics.RecordErrorByComponent("api", code)
		logger.Named("api").Error(ctx, "request failed", logger.String("code", code), logger.Error(err))
	}
	writeError(w, status, code, err)
}
