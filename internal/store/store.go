package store

import (
	"errors"

	"github.com/essaygrade/backend/internal/domain/grading"
	"github.com/essaygrade/backend/internal/domain/question"
	"github.com/essaygrade/backend/internal/domain/submission"
)

var (
	ErrNotFound = errors.New("not found")
)

// Answer is a submission together with the question it answers and its
// grading, if any.
type Answer struct {
	Submission submission.Submission
	Question   question.Question
	Grading    *grading.Grading
}
