// Package grader is the hybrid grading engine. It blends a technical score
// from a local model with a logical score from a hosted LLM and rescales
// the blend to the question's point value.
//
// Grading never fails with an error: every backend problem is folded into
// the Result, and callers branch on Result.Method == MethodError.
package grader

import (
	"context"

	"github.com/essaygrade/backend/internal/grader/llm"
	"github.com/essaygrade/backend/internal/grader/technical"
)

// TechnicalScorer produces a 0-100 score from local computation.
type TechnicalScorer interface {
	Available() bool
	ScoreTechnical(ctx context.Context, studentAnswer, referenceAnswer string) (technical.Score, error)
}

// LogicalScorer produces a 0-100 score and feedback from a remote model.
// It reports failures inside the Verdict rather than as an error.
type LogicalScorer interface {
	Available() bool
	ScoreLogical(ctx context.Context, question, referenceAnswer, studentAnswer string) llm.Verdict
}

// Compile-time checks: the concrete backends satisfy the engine's interfaces.
var (
	_ TechnicalScorer = (*technical.EmbeddingScorer)(nil)
	_ TechnicalScorer = (*technical.HeuristicScorer)(nil)
	_ LogicalScorer   = (*llm.Client)(nil)
)

// Request is one answer to grade.
type Request struct {
	QuestionText    string  `json:"question_text"`
	ReferenceAnswer string  `json:"reference_answer"`
	StudentAnswer   string  `json:"student_answer"`
	MaxPoints       float64 `json:"max_points"` // <= 0 means 100
}

// Method records which signals contributed to a Result.
type Method string

const (
	MethodHybrid        Method = "hybrid"
	MethodLLMOnly       Method = "llm-only"
	MethodTechnicalOnly Method = "technical-only"
	MethodError         Method = "error"
)

// ErrorKind classifies why a Result is degraded or failed.
type ErrorKind string

const (
	ErrorInput              ErrorKind = "input"
	ErrorBackendUnavailable ErrorKind = "backend_unavailable"
	ErrorRemoteCall         ErrorKind = "remote_call"
	ErrorResponseParse      ErrorKind = "response_parse"
	// ErrorModelPrediction only appears in Notes; the result still succeeds.
	ErrorModelPrediction ErrorKind = "model_prediction"
)

// Result is the outcome of one grading call.
type Result struct {
	FinalScore     float64   `json:"final_score"`
	MaxPoints      float64   `json:"max_points"`
	Normalized     float64   `json:"normalized"`
	TechnicalScore *float64  `json:"technical_score,omitempty"`
	LogicalScore   *float64  `json:"logical_score,omitempty"`
	Feedback       string    `json:"feedback"`
	Method         Method    `json:"method"`
	Level          string    `json:"level"`
	ErrorKind      ErrorKind `json:"error_kind,omitempty"`
	Notes          []string  `json:"notes,omitempty"`
}

// Failed reports whether no usable grade was produced.
func (r Result) Failed() bool {
	return r.Method == MethodError
}

// Feedback levels by normalized score.
const (
	LevelExcellent        = "Excellent"
	LevelGood             = "Good"
	LevelFair             = "Fair"
	LevelNeedsImprovement = "Needs Improvement"
)

// LevelFor maps a 0-100 score to a feedback level.
func LevelFor(normalized float64) string {
	switch {
	case normalized >= 85:
		return LevelExcellent
	case normalized >= 70:
		return LevelGood
	case normalized >= 50:
		return LevelFair
	default:
		return LevelNeedsImprovement
	}
}
