// internal/service/grading.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/essaygrade/backend/internal/domain/grading"
	"github.com/essaygrade/backend/internal/grader"
	"github.com/essaygrade/backend/internal/store"
	"github.com/essaygrade/backend/internal/worker"
)

// GradedAnswer is the grading outcome of one submission.
type GradedAnswer struct {
	SubmissionID   string        `json:"submission_id"`
	QuestionID     string        `json:"question_id"`
	QuestionNumber int           `json:"question_number"`
	StudentID      string        `json:"student_id"`
	Result         grader.Result `json:"result"`
	Saved          bool          `json:"saved"`
	SaveError      string        `json:"save_error,omitempty"`
}

// GradingService grades stored submissions through the hybrid engine and
// persists the outcome.
type GradingService struct {
	store   Store
	grader  Grader
	logger  *slog.Logger
	workers int
	now     func() time.Time
}

// NewGradingService creates a GradingService. workers bounds bulk grading
// concurrency.
func NewGradingService(s Store, g Grader, logger *slog.Logger, workers int) *GradingService {
	if logger == nil {
		logger = slog.Default()
	}
	if workers < 1 {
		workers = 1
	}
	return &GradingService{
		store:   s,
		grader:  g,
		logger:  logger,
		workers: workers,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Preview grades one submission without saving.
func (gs *GradingService) Preview(ctx context.Context, submissionID string) (*GradedAnswer, error) {
	a, err := gs.store.GetAnswer(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	out := gs.gradeAnswer(ctx, a)
	return &out, nil
}

// Grade grades one submission and saves the AI grade.
func (gs *GradingService) Grade(ctx context.Context, submissionID string) (*GradedAnswer, error) {
	a, err := gs.store.GetAnswer(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	out := gs.gradeAnswer(ctx, a)
	gs.save(ctx, &out)
	return &out, nil
}

// PreviewAssignment grades every submission of a student for an assignment
// without saving. Results are ordered by question number.
func (gs *GradingService) PreviewAssignment(ctx context.Context, assignmentID, studentID string) ([]GradedAnswer, error) {
	return gs.gradeAll(ctx, assignmentID, studentID, false)
}

// GradeAssignment grades and saves every submission of a student for an
// assignment.
func (gs *GradingService) GradeAssignment(ctx context.Context, assignmentID, studentID string) ([]GradedAnswer, error) {
	return gs.gradeAll(ctx, assignmentID, studentID, true)
}

func (gs *GradingService) gradeAll(ctx context.Context, assignmentID, studentID string, persist bool) ([]GradedAnswer, error) {
	answers, err := gs.store.ListAnswers(ctx, assignmentID, studentID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	if len(answers) == 0 {
		return nil, store.ErrNotFound
	}

	jobs := make([]worker.Job[GradedAnswer], len(answers))
	for i, a := range answers {
		jobs[i] = func() GradedAnswer {
			out := gs.gradeAnswer(ctx, a)
			if persist {
				gs.save(ctx, &out)
			}
			return out
		}
	}

	start := time.Now()
	results := worker.Run(gs.workers, jobs)
	gs.logger.Info("bulk grading finished",
		"assignment_id", assignmentID,
		"student_id", studentID,
		"count", len(results),
		"saved", persist,
		"elapsed", time.Since(start),
	)
	return results, nil
}

func (gs *GradingService) gradeAnswer(ctx context.Context, a *store.Answer) GradedAnswer {
	res := gs.grader.Grade(ctx, grader.Request{
		QuestionText:    a.Question.Text,
		ReferenceAnswer: a.Question.ReferenceAnswer,
		StudentAnswer:   a.Submission.Answer,
		MaxPoints:       a.Question.MaxPoints,
	})
	if res.Failed() {
		gs.logger.Warn("grading degraded to error",
			"submission_id", a.Submission.ID,
			"error_kind", res.ErrorKind,
		)
	}
	return GradedAnswer{
		SubmissionID:   a.Submission.ID,
		QuestionID:     a.Question.ID,
		QuestionNumber: a.Question.Number,
		StudentID:      a.Submission.StudentID,
		Result:         res,
	}
}

// save persists an AI grade. Backend failures are not saved so that a
// transient outage never overwrites an earlier grade; rejected input is
// saved as a zero with its explanation.
func (gs *GradingService) save(ctx context.Context, out *GradedAnswer) {
	r := out.Result
	if r.Failed() && r.ErrorKind != grader.ErrorInput {
		out.SaveError = "not saved: " + r.Feedback
		return
	}

	err := gs.store.SaveAIGrade(ctx, out.SubmissionID, grading.AIGrade{
		Score:          r.FinalScore,
		TechnicalScore: r.TechnicalScore,
		LogicalScore:   r.LogicalScore,
		Feedback:       r.Feedback,
		Method:         string(r.Method),
	}, gs.now())
	if err != nil {
		gs.logger.Error("failed to save grade",
			"submission_id", out.SubmissionID,
			"error", err,
		)
		out.SaveError = "failed to save grade"
		return
	}
	out.Saved = true
}

// RecordLecturerGrade stores a manual grade, which must lie within
// [0, max points] of the question.
func (gs *GradingService) RecordLecturerGrade(ctx context.Context, submissionID string, score float64, feedback string) (*grading.Grading, error) {
	a, err := gs.store.GetAnswer(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	g := a.Grading
	if g == nil {
		g = &grading.Grading{SubmissionID: submissionID}
	}
	at := gs.now()
	if err := g.SetLecturer(score, a.Question.MaxPoints, feedback, at); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := gs.store.SaveLecturerGrade(ctx, submissionID, score, feedback, at); err != nil {
		return nil, fmt.Errorf("save lecturer grade: %w", err)
	}
	return g, nil
}

// StudentStats summarises a student's submissions.
func (gs *GradingService) StudentStats(ctx context.Context, studentID string) (grading.StudentStats, error) {
	if studentID == "" {
		return grading.StudentStats{}, fmt.Errorf("%w: student id is required", ErrInvalid)
	}
	return gs.store.StudentStats(ctx, studentID)
}

// IsNotFound reports whether err means a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
