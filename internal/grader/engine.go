package grader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/essaygrade/backend/internal/grader/llm"
	"github.com/essaygrade/backend/internal/grader/technical"
)

const (
	DefaultMaxPoints       = 100.0
	DefaultBlendWeight     = 0.5
	DefaultMinAnswerLength = 5
)

// MaxPointsLimit is the largest point value accepted from callers.
const MaxPointsLimit = 1e6

// Engine grades answers. It holds no per-call state and is safe for
// concurrent use.
type Engine struct {
	tech   TechnicalScorer
	logic  LogicalScorer
	weight float64
	minLen int
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithBlendWeight sets the share of the technical score in a hybrid grade.
// Values outside [0, 1] are ignored.
func WithBlendWeight(w float64) Option {
	return func(e *Engine) {
		if w >= 0 && w <= 1 {
			e.weight = w
		}
	}
}

// WithMinAnswerLength sets the minimum trimmed answer length in characters.
func WithMinAnswerLength(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.minLen = n
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New builds an engine. Either backend may be nil.
func New(tech TechnicalScorer, logic LogicalScorer, opts ...Option) *Engine {
	e := &Engine{
		tech:   tech,
		logic:  logic,
		weight: DefaultBlendWeight,
		minLen: DefaultMinAnswerLength,
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// TechnicalAvailable reports whether a technical backend is usable.
func (e *Engine) TechnicalAvailable() bool {
	return e.tech != nil && e.tech.Available()
}

// LogicalAvailable reports whether a credentialed LLM backend is configured.
func (e *Engine) LogicalAvailable() bool {
	return e.logic != nil && e.logic.Available()
}

// Grade scores req. It always returns a well-formed Result.
func (e *Engine) Grade(ctx context.Context, req Request) Result {
	maxPoints := req.MaxPoints
	if maxPoints <= 0 || math.IsNaN(maxPoints) || math.IsInf(maxPoints, 0) {
		maxPoints = DefaultMaxPoints
	}

	answer := strings.TrimSpace(req.StudentAnswer)
	if answer == "" {
		return failed(maxPoints, ErrorInput, "The answer is empty, so there is nothing to grade.", nil)
	}
	if n := utf8.RuneCountInString(answer); n < e.minLen {
		return failed(maxPoints, ErrorInput,
			fmt.Sprintf("The answer is too short to grade (%d characters, minimum %d).", n, e.minLen), nil)
	}

	var notes []string
	ts, haveTech := e.scoreTechnical(ctx, req, &notes)
	techScore := ts.Value

	if !e.LogicalAvailable() {
		notes = append(notes, "logical: no LLM credential configured")
		if !haveTech {
			return failed(maxPoints, ErrorBackendUnavailable,
				"No grading backend is available, so the answer could not be graded automatically.", notes)
		}
		level := LevelFor(techScore)
		r := finish(maxPoints, techScore, MethodTechnicalOnly, notes)
		r.TechnicalScore = ptr(techScore)
		r.Feedback = technicalOnlyFeedback(ts, level)
		return r
	}

	v := e.logic.ScoreLogical(ctx, req.QuestionText, req.ReferenceAnswer, req.StudentAnswer)
	if !v.OK() {
		e.logger.Warn("logical grading failed", "kind", v.Failure.Kind, "error", v.Failure.Err)
		notes = append(notes, fmt.Sprintf("logical: %s", v.Failure.Kind))
		r := failed(maxPoints, kindOf(v.Failure), v.Failure.Message, notes)
		if haveTech {
			r.TechnicalScore = ptr(techScore)
		}
		return r
	}
	logical := clamp(v.Score, 0, 100)

	if !haveTech {
		r := finish(maxPoints, logical, MethodLLMOnly, notes)
		r.LogicalScore = ptr(logical)
		r.Feedback = feedbackOrDefault(v.Feedback)
		return r
	}

	normalized := e.weight*techScore + (1-e.weight)*logical
	r := finish(maxPoints, normalized, MethodHybrid, notes)
	r.TechnicalScore = ptr(techScore)
	r.LogicalScore = ptr(logical)
	r.Feedback = feedbackOrDefault(v.Feedback)
	return r
}

// scoreTechnical returns the technical score, with Value clamped, and
// whether one was produced. Failures become notes.
func (e *Engine) scoreTechnical(ctx context.Context, req Request, notes *[]string) (technical.Score, bool) {
	if !e.TechnicalAvailable() {
		return technical.Score{}, false
	}

	s, err := e.tech.ScoreTechnical(ctx, req.StudentAnswer, req.ReferenceAnswer)
	switch {
	case errors.Is(err, technical.ErrNoReference):
		*notes = append(*notes, "technical: no reference answer to compare against")
		return technical.Score{}, false
	case err != nil:
		e.logger.Warn("technical scoring failed", "error", err)
		*notes = append(*notes, "technical: scoring failed")
		return technical.Score{}, false
	}

	if s.PredictionErr != nil {
		e.logger.Warn("regressor failed, using similarity", "error", s.PredictionErr)
		*notes = append(*notes, fmt.Sprintf("%s: fell back to similarity scoring", ErrorModelPrediction))
	}
	s.Value = clamp(s.Value, 0, 100)
	return s, true
}

func technicalOnlyFeedback(s technical.Score, level string) string {
	if s.Source == technical.SourceHeuristic && s.Detail != "" {
		return fmt.Sprintf("Scored on the essay rubric only: %.1f/100 (%s). No written review is available.\n\n%s",
			s.Value, level, s.Detail)
	}
	return fmt.Sprintf("Scored on similarity to the reference answer only: %.1f/100 (%s). No written review is available.",
		s.Value, level)
}

func kindOf(f *llm.Failure) ErrorKind {
	switch f.Kind {
	case llm.FailureNoCredential:
		return ErrorBackendUnavailable
	case llm.FailureParse:
		return ErrorResponseParse
	default:
		return ErrorRemoteCall
	}
}

func finish(maxPoints, normalized float64, method Method, notes []string) Result {
	normalized = clamp(normalized, 0, 100)
	return Result{
		FinalScore: rescale(normalized, maxPoints),
		MaxPoints:  maxPoints,
		Normalized: round2(normalized),
		Method:     method,
		Level:      LevelFor(normalized),
		Notes:      notes,
	}
}

func failed(maxPoints float64, kind ErrorKind, feedback string, notes []string) Result {
	return Result{
		FinalScore: 0,
		MaxPoints:  maxPoints,
		Feedback:   feedback,
		Method:     MethodError,
		Level:      LevelFor(0),
		ErrorKind:  kind,
		Notes:      notes,
	}
}

func feedbackOrDefault(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return llm.DefaultFeedback
	}
	return s
}

// rescale maps a 0-100 score onto [0, maxPoints], rounded to cents. The
// clamp comes last so rounding can never step past maxPoints.
func rescale(normalized, maxPoints float64) float64 {
	return clamp(round2(normalized/100*maxPoints), 0, maxPoints)
}

// round2 rounds to two decimals. Values too large to scale are returned
// unchanged.
func round2(v float64) float64 {
	r := math.Round(v*100) / 100
	if math.IsInf(r, 0) || math.IsNaN(r) {
		return v
	}
	return r
}

func clamp(v, lo, hi float64) float64 {
	switch {
	case math.IsNaN(v), v < lo:
		return lo
	case v > hi:
		return hi
	}
	return v
}

func ptr(v float64) *float64 { return &v }
