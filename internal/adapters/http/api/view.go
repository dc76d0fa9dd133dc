package api

import (
	"net/http"
)

// ViewHandler serves the dashboard data endpoints.
type ViewHandler struct {
	deps Dependencies
}

// NewViewHandler creates a new view handler.
func NewViewHandler(deps Dependencies) *ViewHandler {
	return &ViewHandler{deps: deps}
}

// HandleView handles GET /api/view requests.
func (h *ViewHandler) HandleView(w http.ResponseWriter, r *http.Request) {
	const op = "api.view"
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", NewKind(op, ErrMethod))
		return
	}
	q, err := parseQuery(r.URL.Query())
	if err != nil {
		writeFailure(r.Context(), w, err)
		return
	}
	vm, err := h.deps.Render(r.Context(), q)
	if err != nil {
		writeFailure(r.Context(), w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, vm)
}

// HandleOptions handles GET /api/options requests.
func (h *ViewHandler) HandleOptions(w http.ResponseWriter, r *http.Request) {
	const op = "api.options"
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", NewKind(op, ErrMethod))
		return
	}
	opts, err := h.deps.FilterOptions(r.Context())
	if err != nil {
		writeFailure(r.Context(), w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, opts)
}

// HandleReload handles POST /api/reload requests.
func (h *ViewHandler) HandleReload(w http.ResponseWriter, r *http.Request) {
	const op = "api.reload"
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", NewKind(op, ErrMethod))
		return
	}
	opts, err := h.deps.Reload(r.Context())
	if err != nil {
		writeFailure(r.Context(), w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, opts)
}
