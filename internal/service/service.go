package service

import (
	"context"
	"errors"
	"time"

	"github.com/essaygrade/backend/internal/domain/grading"
	"github.com/essaygrade/backend/internal/domain/question"
	"github.com/essaygrade/backend/internal/domain/submission"
	"github.com/essaygrade/backend/internal/grader"
	"github.com/essaygrade/backend/internal/store"
)

// ErrInvalid marks errors caused by bad caller input.
var ErrInvalid = errors.New("invalid input")

// Store is the persistence the services need.
type Store interface {
	SaveQuestion(ctx context.Context, q *question.Question) error
	GetQuestion(ctx context.Context, id string) (*question.Question, error)
	SaveSubmission(ctx context.Context, s *submission.Submission) error
	GetAnswer(ctx context.Context, submissionID string) (*store.Answer, error)
	ListAnswers(ctx context.Context, assignmentID, studentID string) ([]*store.Answer, error)
	SaveAIGrade(ctx context.Context, submissionID string, g grading.AIGrade, at time.Time) error
	SaveLecturerGrade(ctx context.Context, submissionID string, score float64, feedback string, at time.Time) error
	StudentStats(ctx context.Context, studentID string) (grading.StudentStats, error)
	Ping(ctx context.Context) error
}

// Grader grades one answer. *grader.Engine satisfies it.
type Grader interface {
	Grade(ctx context.Context, req grader.Request) grader.Result
}

var (
	_ Store  = (*store.SQLStore)(nil)
	_ Grader = (*grader.Engine)(nil)
)
