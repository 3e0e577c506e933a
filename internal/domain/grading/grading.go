package grading

import (
	"fmt"
	"time"
)

// Grading holds the AI and lecturer grades of one submission. Either side
// may be missing.
type Grading struct {
	SubmissionID string

	AIScore        *float64 // in question points
	TechnicalScore *float64 // 0-100
	LogicalScore   *float64 // 0-100
	AIFeedback     string
	Method         string

	LecturerScore    *float64
	LecturerFeedback string

	GradedAt time.Time
}

// AIGrade is what the grading engine contributes.
type AIGrade struct {
	Score          float64
	TechnicalScore *float64
	LogicalScore   *float64
	Feedback       string
	Method         string
}

// ApplyAI overwrites the AI columns, keeping any lecturer grade.
func (g *Grading) ApplyAI(a AIGrade, at time.Time) {
	score := a.Score
	g.AIScore = &score
	g.TechnicalScore = a.TechnicalScore
	g.LogicalScore = a.LogicalScore
	g.AIFeedback = a.Feedback
	g.Method = a.Method
	g.GradedAt = at
}

// SetLecturer records a manual grade, which must lie within [0, maxPoints].
func (g *Grading) SetLecturer(score, maxPoints float64, feedback string, at time.Time) error {
	if score < 0 || score > maxPoints {
		return fmt.Errorf("%w: %v is outside [0, %v]", ErrScoreOutOfRange, score, maxPoints)
	}
	g.LecturerScore = &score
	g.LecturerFeedback = feedback
	g.GradedAt = at
	return nil
}

// Final returns the lecturer score when present, otherwise the AI score.
func (g *Grading) Final() *float64 {
	if g.LecturerScore != nil {
		return g.LecturerScore
	}
	return g.AIScore
}
