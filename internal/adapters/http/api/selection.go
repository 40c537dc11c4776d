package api

import (
	"fmt"
	"net/http"

	service "github.com/okian/eventtracker/internal/app"
	"github.com/okian/eventtracker/internal/domain/filter"
	"github.com/okian/eventtracker/internal/domain/sorting"
	"github.com/okian/eventtracker/pkg/errkind"
)

// selectionBody spells the selection the way the filter controls do.
// Omitted fields keep their current value.
type selectionBody struct {
	SearchText     *string `json:"searchText,omitempty"`
	StatusFilter   *string `json:"statusFilter,omitempty"`
	CategoryFilter *string `json:"categoryFilter,omitempty"`
	Sort           *string `json:"sort,omitempty"`
}

func toBody(sel service.Selection) selectionBody {
	search := sel.Criteria.SearchText
	status := sel.Criteria.Status.String()
	category := sel.Criteria.Category.String()
	sort := sel.Sort.String()
	return selectionBody{SearchText: &search, StatusFilter: &status, CategoryFilter: &category, Sort: &sort}
}

func (b selectionBody) apply(base service.Selection) (service.Selection, error) {
	sel := base
	if b.SearchText != nil {
		sel.Criteria.SearchText = *b.SearchText
	}
	if b.StatusFilter != nil {
		m, err := filter.ParseStatusMatch(*b.StatusFilter)
		if err != nil {
			return base, err
		}
		sel.Criteria.Status = m
	}
	if b.CategoryFilter != nil {
		sel.Criteria.Category = filter.ParseCategoryMatch(*b.CategoryFilter)
	}
	if b.Sort != nil {
		sel.Sort = sorting.ParsePolicy(*b.Sort)
	}
	return sel, nil
}

func selectionFromQuery(base service.Selection, r *http.Request) (service.Selection, error) {
	q := r.URL.Query()
	var b selectionBody
	pick := func(key string) *string {
		if !q.Has(key) {
			return nil
		}
		v := q.Get(key)
		return &v
	}
	b.SearchText = pick("search")
	b.StatusFilter = pick("status")
	b.CategoryFilter = pick("category")
	b.Sort = pick("sort")
	sel, err := b.apply(base)
	if err != nil {
		return base, fmt.Errorf("status: %w", err)
	}
	return sel, nil
}

// SelectionHandler reads and replaces the tracker's current selection.
type SelectionHandler struct {
	deps Dependencies
}

// NewSelectionHandler creates a new selection handler.
func NewSelectionHandler(deps Dependencies) *SelectionHandler {
	return &SelectionHandler{deps: deps}
}

// HandleGet handles GET /selection.
func (h *SelectionHandler) HandleGet(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, toBody(h.deps.Selection()))
}

// HandlePut handles PUT /selection.
func (h *SelectionHandler) HandlePut(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_selection"
	var b selectionBody
	if err := decodeBody(w, r, &b); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", errkind.WrapKind(op, ErrBadRequest, err))
		return
	}
	sel, err := b.apply(h.deps.Selection())
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_status", err)
		return
	}
	h.deps.SetSelection(sel)
	writeJSON(w, http.StatusOK, toBody(sel))
}
