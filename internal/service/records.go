package service

import (
	"context"
	"fmt"

	"github.com/essaygrade/backend/internal/domain/question"
	"github.com/essaygrade/backend/internal/domain/submission"
	"github.com/essaygrade/backend/internal/store"
)

// RecordService creates and fetches questions and submissions.
type RecordService struct {
	store Store
}

func NewRecordService(s Store) *RecordService {
	return &RecordService{store: s}
}

type CreateQuestionInput struct {
	AssignmentID    string  `json:"assignment_id"`
	Number          int     `json:"number"`
	Text            string  `json:"text"`
	ReferenceAnswer string  `json:"reference_answer"`
	MaxPoints       float64 `json:"max_points"`
}

func (rs *RecordService) CreateQuestion(ctx context.Context, in CreateQuestionInput) (*question.Question, error) {
	q, err := question.New(in.AssignmentID, in.Number, in.Text, in.ReferenceAnswer, in.MaxPoints)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := rs.store.SaveQuestion(ctx, q); err != nil {
		return nil, fmt.Errorf("save question: %w", err)
	}
	return q, nil
}

func (rs *RecordService) GetQuestion(ctx context.Context, id string) (*question.Question, error) {
	return rs.store.GetQuestion(ctx, id)
}

type CreateSubmissionInput struct {
	QuestionID string `json:"question_id"`
	StudentID  string `json:"student_id"`
	Answer     string `json:"answer"`
}

// CreateSubmission stores an answer to an existing question. The assignment
// is taken from the question.
func (rs *RecordService) CreateSubmission(ctx context.Context, in CreateSubmissionInput) (*submission.Submission, error) {
	sub, err := submission.New("", in.QuestionID, in.StudentID, in.Answer)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	q, err := rs.store.GetQuestion(ctx, in.QuestionID)
	if err != nil {
		return nil, err
	}
	sub.AssignmentID = q.AssignmentID

	if err := rs.store.SaveSubmission(ctx, sub); err != nil {
		return nil, fmt.Errorf("save submission: %w", err)
	}
	return sub, nil
}

// Ping reports whether the store is reachable.
func (rs *RecordService) Ping(ctx context.Context) error {
	return rs.store.Ping(ctx)
}

// GetAnswer returns a submission with its question and grading.
func (rs *RecordService) GetAnswer(ctx context.Context, submissionID string) (*store.Answer, error) {
	return rs.store.GetAnswer(ctx, submissionID)
}
