package api

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/essaygrade/backend/internal/grader"
	"github.com/essaygrade/backend/internal/id"
)

const healthPingTimeout = 2 * time.Second

// ── Request / Response types ────────────────────────────────────────────────

type HealthResponse struct {
	Status    string `json:"status"`
	Database  bool   `json:"database"`
	Technical bool   `json:"technical_backend"`
	Logical   bool   `json:"logical_backend"`
}

type GradeRequest struct {
	grader.Request
}

func (r *GradeRequest) Validate() error {
	if strings.TrimSpace(r.QuestionText) == "" {
		return errors.New("question_text is required")
	}
	if err := validatePoints(r.MaxPoints); err != nil {
		return err
	}
	return nil
}

// validatePoints rejects point values the engine cannot score against.
func validatePoints(p float64) error {
	switch {
	case math.IsNaN(p) || math.IsInf(p, 0):
		return errors.New("max_points must be a finite number")
	case p < 0:
		return errors.New("max_points cannot be negative")
	case p > grader.MaxPointsLimit:
		return fmt.Errorf("max_points cannot exceed %g", grader.MaxPointsLimit)
	}
	return nil
}

type SubmissionRef struct {
	SubmissionID string `json:"submission_id"`
}

func (r *SubmissionRef) Validate() error {
	if r.SubmissionID == "" {
		return errors.New("submission_id is required")
	}
	if !id.Valid(r.SubmissionID) {
		return errors.New("submission_id is not a valid id")
	}
	return nil
}

// ── Handlers ────────────────────────────────────────────────────────────────

// GET /health
// Answers 503 when the database is unreachable.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
	defer cancel()

	resp := HealthResponse{
		Status:    "ok",
		Database:  true,
		Technical: h.engine.TechnicalAvailable(),
		Logical:   h.engine.LogicalAvailable(),
	}
	status := http.StatusOK
	if err := h.records.Ping(ctx); err != nil {
		h.logger.Warn("database ping failed", "error", err)
		resp.Status = "degraded"
		resp.Database = false
		status = http.StatusServiceUnavailable
	}
	respondJSON(w, status, resp)
}

// POST /grade
// AI failures still answer 200; callers check method == "error".
func (h *Handler) gradeRaw(w http.ResponseWriter, r *http.Request) {
	var req GradeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	respondJSON(w, http.StatusOK, h.engine.Grade(r.Context(), req.Request))
}

// POST /grading/preview
func (h *Handler) previewSubmission(w http.ResponseWriter, r *http.Request) {
	var req SubmissionRef
	if !decodeAndValidate(w, r, &req) {
		return
	}
	out, err := h.grading.Preview(r.Context(), req.SubmissionID)
	if h.handleServiceError(w, err, "submission") {
		return
	}
	respondJSON(w, http.StatusOK, out)
}

// POST /grading/save
func (h *Handler) saveSubmission(w http.ResponseWriter, r *http.Request) {
	var req SubmissionRef
	if !decodeAndValidate(w, r, &req) {
		return
	}
	out, err := h.grading.Grade(r.Context(), req.SubmissionID)
	if h.handleServiceError(w, err, "submission") {
		return
	}
	respondJSON(w, http.StatusOK, out)
}

// POST /grading/preview/assignments/{assignmentID}/students/{studentID}
func (h *Handler) previewAssignment(w http.ResponseWriter, r *http.Request) {
	out, err := h.grading.PreviewAssignment(r.Context(), chi.URLParam(r, "assignmentID"), chi.URLParam(r, "studentID"))
	if h.handleServiceError(w, err, "submissions") {
		return
	}
	respondJSON(w, http.StatusOK, out)
}

// POST /grading/save/assignments/{assignmentID}/students/{studentID}
func (h *Handler) saveAssignment(w http.ResponseWriter, r *http.Request) {
	out, err := h.grading.GradeAssignment(r.Context(), chi.URLParam(r, "assignmentID"), chi.URLParam(r, "studentID"))
	if h.handleServiceError(w, err, "submissions") {
		return
	}
	respondJSON(w, http.StatusOK, out)
}

// GET /students/{studentID}/stats
func (h *Handler) studentStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.grading.StudentStats(r.Context(), chi.URLParam(r, "studentID"))
	if h.handleServiceError(w, err, "student") {
		return
	}
	respondJSON(w, http.StatusOK, st)
}
