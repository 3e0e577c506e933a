package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires every route. requestTimeout bounds each request; bulk
// grading of a whole assignment needs it well above the LLM timeout.
func NewRouter(h *Handler, requestTimeout time.Duration) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, Logging(h.logger), middleware.Recoverer)
	if requestTimeout > 0 {
		r.Use(middleware.Timeout(requestTimeout))
	}

	r.Get("/health", h.health)
	r.Post("/grade", h.gradeRaw)

	r.Route("/questions", func(r chi.Router) {
		r.Post("/", h.createQuestion)
		r.Get("/{questionID}", h.getQuestion)
	})

	r.Route("/submissions", func(r chi.Router) {
		r.Post("/", h.createSubmission)
		r.Get("/{submissionID}", h.getSubmission)
		r.Put("/{submissionID}/grade", h.recordLecturerGrade)
	})

	r.Route("/grading", func(r chi.Router) {
		r.Post("/preview", h.previewSubmission)
		r.Post("/save", h.saveSubmission)
		r.Post("/preview/assignments/{assignmentID}/students/{studentID}", h.previewAssignment)
		r.Post("/save/assignments/{assignmentID}/students/{studentID}", h.saveAssignment)
	})

	r.Get("/students/{studentID}/stats", h.studentStats)

	return r
}
