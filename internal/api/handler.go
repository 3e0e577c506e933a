// internal/api/handler.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/essaygrade/backend/internal/grader"
	"github.com/essaygrade/backend/internal/id"
	"github.com/essaygrade/backend/internal/service"
	"github.com/essaygrade/backend/internal/store"
)

// Engine is the grading engine as seen by the HTTP layer.
type Engine interface {
	Grade(ctx context.Context, req grader.Request) grader.Result
	TechnicalAvailable() bool
	LogicalAvailable() bool
}

// Handler holds all dependencies needed by HTTP handlers.
type Handler struct {
	records *service.RecordService
	grading *service.GradingService
	engine  Engine
	logger  *slog.Logger
}

// NewHandler creates a Handler with the given dependencies.
func NewHandler(records *service.RecordService, grading *service.GradingService, engine Engine, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		records: records,
		grading: grading,
		engine:  engine,
		logger:  logger,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorResponse{Error: msg})
}

// validator is implemented by request bodies that check their own fields.
type validator interface {
	Validate() error
}

// decodeAndValidate decodes the JSON body into v and validates it. It writes
// a 400 and returns false on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v validator) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid json")
		return false
	}
	if err := v.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// pathID reads a URL id parameter. It writes a 400 and returns false when
// the value is not a well-formed id.
func pathID(w http.ResponseWriter, r *http.Request, param string) (string, bool) {
	v := chi.URLParam(r, param)
	if !id.Valid(v) {
		respondError(w, http.StatusBadRequest, "invalid "+param)
		return "", false
	}
	return v, true
}

// handleServiceError checks for common service errors and writes the
// appropriate HTTP response. Returns true if an error was handled (caller
// should return).
func (h *Handler) handleServiceError(w http.ResponseWriter, err error, entity string) bool {
	if err == nil {
		return false
	}
	switch {
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, entity+" not found")
	case errors.Is(err, service.ErrInvalid):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("service error", "error", err, "entity", entity)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
	return true
}
