// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	service "github.com/okian/eventtracker/internal/app"
	"github.com/okian/eventtracker/internal/domain/model"
	"github.com/okian/eventtracker/internal/domain/types"
	"github.com/okian/eventtracker/pkg/logger"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the tracker implementation.
type Dependencies interface {
	Events() []model.Event
	Categories() []string
	Selection() service.Selection
	SetSelection(sel service.Selection)
	View(sel service.Selection) types.Buckets
	SetStatus(ctx context.Context, id model.ID, status model.Status) (model.Event, error)
	Reset(ctx context.Context) ([]model.Event, error)
}

// Server wires HTTP routes for the tracker API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	eventsHandler    *EventsHandler
	selectionHandler *SelectionHandler
	calendarHandler  *CalendarHandler
	logger           logger.Logger
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithLogger sets a custom logger for the handlers.
func WithLogger(l logger.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...ServerOption) *Server {
	s := &Server{logger: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	s.eventsHandler = NewEventsHandler(deps, s.logger)
	s.selectionHandler = NewSelectionHandler(deps)
	s.calendarHandler = NewCalendarHandler(deps)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("GET /events", MetricsMiddleware(s.eventsHandler.HandleView, "events"))
	mux.HandleFunc("GET /events/all", MetricsMiddleware(s.eventsHandler.HandleAll, "events_all"))
	mux.HandleFunc("PUT /events/{id}/status", MetricsMiddleware(s.eventsHandler.HandleSetStatus, "event_status"))
	mux.HandleFunc("GET /events.ics", MetricsMiddleware(s.calendarHandler.HandleExport, "events_ics"))
	mux.HandleFunc("GET /categories", MetricsMiddleware(s.eventsHandler.HandleCategories, "categories"))
	mux.HandleFunc("POST /reset", MetricsMiddleware(s.eventsHandler.HandleReset, "reset"))

	mux.HandleFunc("GET /selection", MetricsMiddleware(s.selectionHandler.HandleGet, "selection"))
	mux.HandleFunc("PUT /selection", MetricsMiddleware(s.selectionHandler.HandlePut, "selection"))
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

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return dec.Decode(v)
}
