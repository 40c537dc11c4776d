package api

import (
	"errors"
	"net/http"

	service "github.com/okian/eventtracker/internal/app"
	"github.com/okian/eventtracker/internal/domain/model"
	"github.com/okian/eventtracker/pkg/errkind"
	"github.com/okian/eventtracker/pkg/logger"
)

// EventsHandler serves the collection and its mutations.
type EventsHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps Dependencies, l logger.Logger) *EventsHandler {
	return &EventsHandler{deps: deps, logger: l}
}

// HandleView handles GET /events. Query parameters that are present override
// the tracker's current selection for this request only.
func (h *EventsHandler) HandleView(w http.ResponseWriter, r *http.Request) {
	const op = "api.view"
	sel, err := selectionFromQuery(h.deps.Selection(), r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", errkind.WrapKind(op, ErrBadRequest, err))
		return
	}
	writeJSON(w, http.StatusOK, h.deps.View(sel))
}

// HandleAll handles GET /events/all.
func (h *EventsHandler) HandleAll(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Events())
}

// HandleCategories handles GET /categories.
func (h *EventsHandler) HandleCategories(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Categories())
}

type statusRequest struct {
	Status string `json:"status"`
}

// HandleSetStatus handles PUT /events/{id}/status.
func (h *EventsHandler) HandleSetStatus(w http.ResponseWriter, r *http.Request) {
	const op = "api.set_status"
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", errkind.NewKind(op, ErrBadRequest))
		return
	}
	var req statusRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", errkind.WrapKind(op, ErrBadRequest, err))
		return
	}
	status, err := model.ParseStatus(req.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_status", err)
		return
	}

	updated, err := h.deps.SetStatus(r.Context(), model.ID(id), status)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, updated)
	case errors.Is(err, service.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, "invalid_status", err)
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "not_ready", err)
	default:
		h.logger.Error(r.Context(), "status change failed", requestIDField(r), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

// HandleReset handles POST /reset. It discards saved state and reloads the seed.
func (h *EventsHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	const op = "api.reset"
	events, err := h.deps.Reset(r.Context())
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, events)
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "not_ready", err)
	case errors.Is(err, service.ErrLoad):
		h.logger.Warn(r.Context(), "reset failed", requestIDField(r), logger.Error(err))
		writeError(w, http.StatusBadGateway, "seed_unavailable", errkind.WrapKind(op, ErrUpstream, err))
	default:
		h.logger.Error(r.Context(), "reset failed", requestIDField(r), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
