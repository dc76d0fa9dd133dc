// Package site serves the root of the web UI.
package site

import (
	"context"
	"net/http"
)

// DashboardPath is where the root redirects.
const DashboardPath = "/dashboard"

// Register attaches the root routes to mux.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.Handle("/", NewRootHandler())
}

// RootHandler redirects / to the dashboard and serves the small set of
// well-known files (favicon, robots.txt) from the embedded site assets.
type RootHandler struct {
	files http.Handler
}

// NewRootHandler creates a new root handler.
func NewRootHandler() *RootHandler {
	return &RootHandler{files: http.FileServer(FS())}
}

// ServeHTTP implements http.Handler.
func (h *RootHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/" {
		http.Redirect(w, r, DashboardPath, http.StatusFound)
		return
	}
	h.files.ServeHTTP(w, r)
}
