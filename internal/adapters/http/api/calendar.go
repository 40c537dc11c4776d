package api

import (
	"net/http"

	"github.com/okian/eventtracker/internal/adapters/calendar"
	"github.com/okian/eventtracker/internal/domain/filter"
	"github.com/okian/eventtracker/pkg/errkind"
)

// CalendarHandler serves the collection as an iCalendar feed.
type CalendarHandler struct {
	deps Dependencies
}

// NewCalendarHandler creates a new calendar handler.
func NewCalendarHandler(deps Dependencies) *CalendarHandler {
	return &CalendarHandler{deps: deps}
}

// HandleExport handles GET /events.ics?status=Registered.
func (h *CalendarHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	const op = "api.export"
	m, err := filter.ParseStatusMatch(r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_status", errkind.WrapKind(op, ErrBadRequest, err))
		return
	}
	events := filter.ByStatus(h.deps.Events(), m)

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="events.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(calendar.Export(events)))
}
