package submission

import (
	"errors"
	"strings"
	"time"

	"github.com/essaygrade/backend/internal/id"
)

var (
	ErrNoQuestion = errors.New("submission must reference a question")
	ErrNoStudent  = errors.New("submission must reference a student")
)

// Submission is one student's answer to one question. The answer is stored
// as given; short or empty answers are rejected at grading time, not here.
type Submission struct {
	ID           string
	AssignmentID string
	QuestionID   string
	StudentID    string
	Answer       string
	SubmittedAt  time.Time
}

func New(assignmentID, questionID, studentID, answer string) (*Submission, error) {
	if strings.TrimSpace(questionID) == "" {
		return nil, ErrNoQuestion
	}
	if strings.TrimSpace(studentID) == "" {
		return nil, ErrNoStudent
	}
	return &Submission{
		ID:           id.New(),
		AssignmentID: assignmentID,
		QuestionID:   questionID,
		StudentID:    studentID,
		Answer:       answer,
		SubmittedAt:  time.Now().UTC(),
	}, nil
}
