// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
)

// dashboardHandler serves the embedded dashboard page and its assets.
type dashboardHandler struct{}

func newDashboardHandler() *dashboardHandler {
	return &dashboardHandler{}
}

// HandleDashboard handles GET /dashboard requests.
func (h *dashboardHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	http.ServeFileFS(w, r, dashboardFS, "dashboard.html")
}

// StaticHandler serves /static/* from the embedded assets.
func (h *dashboardHandler) StaticHandler() http.Handler {
	return http.StripPrefix("/static/", http.FileServerFS(dashboardFS))
}
