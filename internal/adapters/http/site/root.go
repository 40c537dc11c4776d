// Package site serves the seed document the tracker loads on first run.
package site

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"os"

	"github.com/okian/eventtracker/pkg/logger"
)

// Error bodies, kept identical to what browser clients already expect.
const (
	msgNotFound    = "Test data file not found"
	msgInvalidJSON = "Invalid JSON in test data file"
)

// SeedPath is the route of the seed document.
const SeedPath = "/test-data.json"

// Register attaches the seed route to mux.
func Register(_ context.Context, mux *http.ServeMux, h *SeedHandler) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("GET "+SeedPath, h.HandleSeed)
}

// SeedHandler serves a JSON file from disk, re-reading it on every request.
type SeedHandler struct {
	path   string
	logger logger.Logger
}

// NewSeedHandler creates a handler for the file at path.
func NewSeedHandler(path string, l logger.Logger) *SeedHandler {
	if l == nil {
		l = logger.Nop()
	}
	return &SeedHandler{path: path, logger: l}
}

// HandleSeed handles GET /test-data.json.
func (h *SeedHandler) HandleSeed(w http.ResponseWriter, r *http.Request) {
	data, err := os.ReadFile(h.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		writeError(w, http.StatusNotFound, msgNotFound)
		return
	case err != nil:
		h.logger.Error(r.Context(), "failed to read seed file", logger.String("path", h.path), logger.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !json.Valid(data) {
		writeError(w, http.StatusInternalServerError, msgInvalidJSON)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
