package grading

import "errors"

var ErrScoreOutOfRange = errors.New("score out of range")

// StudentStats summarises one student's submissions.
type StudentStats struct {
	StudentID      string   `json:"student_id"`
	Submitted      int      `json:"submitted"`
	Graded         int      `json:"graded"`
	Pending        int      `json:"pending"`
	AverageAIScore *float64 `json:"average_ai_score,omitempty"`
}
