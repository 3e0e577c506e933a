package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/essaygrade/backend/internal/domain/grading"
	"github.com/essaygrade/backend/internal/domain/question"
	"github.com/essaygrade/backend/internal/id"
	"github.com/essaygrade/backend/internal/service"
	"github.com/essaygrade/backend/internal/store"
)

// ── Request / Response types ────────────────────────────────────────────────

type CreateQuestionRequest struct {
	service.CreateQuestionInput
}

func (r *CreateQuestionRequest) Validate() error {
	if r.AssignmentID == "" {
		return errors.New("assignment_id is required")
	}
	if r.Text == "" {
		return errors.New("text is required")
	}
	return validatePoints(r.MaxPoints)
}

type QuestionResponse struct {
	ID              string    `json:"id"`
	AssignmentID    string    `json:"assignment_id"`
	Number          int       `json:"number"`
	Text            string    `json:"text"`
	ReferenceAnswer string    `json:"reference_answer"`
	MaxPoints       float64   `json:"max_points"`
	CreatedAt       time.Time `json:"created_at"`
}

func toQuestionResponse(q *question.Question) QuestionResponse {
	return QuestionResponse{
		ID:              q.ID,
		AssignmentID:    q.AssignmentID,
		Number:          q.Number,
		Text:            q.Text,
		ReferenceAnswer: q.ReferenceAnswer,
		MaxPoints:       q.MaxPoints,
		CreatedAt:       q.CreatedAt,
	}
}

type CreateSubmissionRequest struct {
	service.CreateSubmissionInput
}

func (r *CreateSubmissionRequest) Validate() error {
	if r.QuestionID == "" {
		return errors.New("question_id is required")
	}
	if !id.Valid(r.QuestionID) {
		return errors.New("question_id is not a valid id")
	}
	if r.StudentID == "" {
		return errors.New("student_id is required")
	}
	return nil
}

type GradingResponse struct {
	AIScore          *float64  `json:"ai_score,omitempty"`
	TechnicalScore   *float64  `json:"technical_score,omitempty"`
	LogicalScore     *float64  `json:"logical_score,omitempty"`
	AIFeedback       string    `json:"ai_feedback,omitempty"`
	Method           string    `json:"method,omitempty"`
	LecturerScore    *float64  `json:"lecturer_score,omitempty"`
	LecturerFeedback string    `json:"lecturer_feedback,omitempty"`
	FinalScore       *float64  `json:"final_score,omitempty"`
	GradedAt         time.Time `json:"graded_at"`
}

func toGradingResponse(g *grading.Grading) *GradingResponse {
	if g == nil {
		return nil
	}
	return &GradingResponse{
		AIScore:          g.AIScore,
		TechnicalScore:   g.TechnicalScore,
		LogicalScore:     g.LogicalScore,
		AIFeedback:       g.AIFeedback,
		Method:           g.Method,
		LecturerScore:    g.LecturerScore,
		LecturerFeedback: g.LecturerFeedback,
		FinalScore:       g.Final(),
		GradedAt:         g.GradedAt,
	}
}

type SubmissionResponse struct {
	ID           string            `json:"id"`
	AssignmentID string            `json:"assignment_id"`
	QuestionID   string            `json:"question_id"`
	StudentID    string            `json:"student_id"`
	Answer       string            `json:"answer"`
	SubmittedAt  time.Time         `json:"submitted_at"`
	Question     *QuestionResponse `json:"question,omitempty"`
	Grading      *GradingResponse  `json:"grading,omitempty"`
}

func toSubmissionResponse(a *store.Answer) SubmissionResponse {
	q := toQuestionResponse(&a.Question)
	return SubmissionResponse{
		ID:           a.Submission.ID,
		AssignmentID: a.Submission.AssignmentID,
		QuestionID:   a.Submission.QuestionID,
		StudentID:    a.Submission.StudentID,
		Answer:       a.Submission.Answer,
		SubmittedAt:  a.Submission.SubmittedAt,
		Question:     &q,
		Grading:      toGradingResponse(a.Grading),
	}
}

type LecturerGradeRequest struct {
	Score    *float64 `json:"score"`
	Feedback string   `json:"feedback"`
}

func (r *LecturerGradeRequest) Validate() error {
	if r.Score == nil {
		return errors.New("score is required")
	}
	return nil
}

// ── Handlers ────────────────────────────────────────────────────────────────

// POST /questions
func (h *Handler) createQuestion(w http.ResponseWriter, r *http.Request) {
	var req CreateQuestionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	q, err := h.records.CreateQuestion(r.Context(), req.CreateQuestionInput)
	if h.handleServiceError(w, err, "question") {
		return
	}
	respondJSON(w, http.StatusCreated, toQuestionResponse(q))
}

// GET /questions/{questionID}
func (h *Handler) getQuestion(w http.ResponseWriter, r *http.Request) {
	questionID, ok := pathID(w, r, "questionID")
	if !ok {
		return
	}
	q, err := h.records.GetQuestion(r.Context(), questionID)
	if h.handleServiceError(w, err, "question") {
		return
	}
	respondJSON(w, http.StatusOK, toQuestionResponse(q))
}

// POST /submissions
func (h *Handler) createSubmission(w http.ResponseWriter, r *http.Request) {
	var req CreateSubmissionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	sub, err := h.records.CreateSubmission(r.Context(), req.CreateSubmissionInput)
	if h.handleServiceError(w, err, "question") {
		return
	}
	respondJSON(w, http.StatusCreated, SubmissionResponse{
		ID:           sub.ID,
		AssignmentID: sub.AssignmentID,
		QuestionID:   sub.QuestionID,
		StudentID:    sub.StudentID,
		Answer:       sub.Answer,
		SubmittedAt:  sub.SubmittedAt,
	})
}

// GET /submissions/{submissionID}
func (h *Handler) getSubmission(w http.ResponseWriter, r *http.Request) {
	submissionID, ok := pathID(w, r, "submissionID")
	if !ok {
		return
	}
	a, err := h.records.GetAnswer(r.Context(), submissionID)
	if h.handleServiceError(w, err, "submission") {
		return
	}
	respondJSON(w, http.StatusOK, toSubmissionResponse(a))
}

// PUT /submissions/{submissionID}/grade
func (h *Handler) recordLecturerGrade(w http.ResponseWriter, r *http.Request) {
	submissionID, ok := pathID(w, r, "submissionID")
	if !ok {
		return
	}
	var req LecturerGradeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	g, err := h.grading.RecordLecturerGrade(r.Context(), submissionID, *req.Score, req.Feedback)
	if h.handleServiceError(w, err, "submission") {
		return
	}
	respondJSON(w, http.StatusOK, toGradingResponse(g))
}
