package question

import (
	"errors"
	"strings"
	"time"

	"github.com/essaygrade/backend/internal/id"
)

// DefaultMaxPoints is used when a question is created without a point value.
const DefaultMaxPoints = 100

var (
	ErrEmptyText     = errors.New("question text cannot be empty")
	ErrNoAssignment  = errors.New("question must belong to an assignment")
	ErrInvalidNumber = errors.New("question number must be positive")
	ErrInvalidPoints = errors.New("max points cannot be negative")
)

type Question struct {
	ID              string
	AssignmentID    string
	Number          int
	Text            string
	ReferenceAnswer string // may be empty
	MaxPoints       float64
	CreatedAt       time.Time
}

func New(assignmentID string, number int, text, referenceAnswer string, maxPoints float64) (*Question, error) {
	if strings.TrimSpace(assignmentID) == "" {
		return nil, ErrNoAssignment
	}
	if number < 1 {
		return nil, ErrInvalidNumber
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	if maxPoints < 0 {
		return nil, ErrInvalidPoints
	}
	if maxPoints == 0 {
		maxPoints = DefaultMaxPoints
	}

	return &Question{
		ID:              id.New(),
		AssignmentID:    assignmentID,
		Number:          number,
		Text:            strings.TrimSpace(text),
		ReferenceAnswer: strings.TrimSpace(referenceAnswer),
		MaxPoints:       maxPoints,
		CreatedAt:       time.Now().UTC(),
	}, nil
}
