// Package technical produces the machine-derived half of a hybrid grade: a
// 0-100 score computed locally from the student answer and the reference.
package technical

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/essaygrade/backend/internal/embedder"
)

var (
	// ErrUnavailable is returned when no embedding model is loaded.
	ErrUnavailable = errors.New("technical: embedding model not loaded")
	// ErrNoReference is returned when there is nothing to compare against.
	ErrNoReference = errors.New("technical: reference answer is empty")
)

// Score is one technical measurement on the 0-100 scale.
type Score struct {
	Value float64
	// Source is "regression", "similarity" or "heuristic".
	Source string
	// PredictionErr is set when the regressor failed and Value fell back to
	// similarity.
	PredictionErr error
	// Detail is a readable breakdown of the score, when the backend has one.
	Detail string
}

const (
	SourceRegression = "regression"
	SourceSimilarity = "similarity"
	SourceHeuristic  = "heuristic"
)

// EmbeddingScorer scores answers by embedding similarity, or by a regressor
// over the student embedding when one is loaded.
type EmbeddingScorer struct {
	emb       embedder.Embedder
	regressor Regressor
}

// NewEmbeddingScorer wraps emb. Either argument may be nil; a nil emb makes
// the scorer unavailable.
func NewEmbeddingScorer(emb embedder.Embedder, reg Regressor) *EmbeddingScorer {
	return &EmbeddingScorer{emb: emb, regressor: reg}
}

func (s *EmbeddingScorer) Available() bool {
	return s != nil && s.emb != nil
}

// HasRegressor reports whether predictions come from a trained model.
func (s *EmbeddingScorer) HasRegressor() bool {
	return s != nil && s.regressor != nil
}

// ScoreTechnical embeds the answers and scores them.
func (s *EmbeddingScorer) ScoreTechnical(ctx context.Context, student, reference string) (Score, error) {
	if !s.Available() {
		return Score{}, ErrUnavailable
	}
	if err := ctx.Err(); err != nil {
		return Score{}, err
	}
	hasRef := strings.TrimSpace(reference) != ""
	if !hasRef && s.regressor == nil {
		return Score{}, ErrNoReference
	}

	studentVec, err := s.emb.Embed(student)
	if err != nil {
		return Score{}, fmt.Errorf("embed student answer: %w", err)
	}

	var sim Score
	if hasRef {
		refVec, err := s.emb.Embed(reference)
		if err != nil {
			return Score{}, fmt.Errorf("embed reference answer: %w", err)
		}
		sim = Score{Value: clamp100(CosineSimilarity(studentVec, refVec) * 100), Source: SourceSimilarity}
	}

	if s.regressor == nil {
		return sim, nil
	}

	v, err := s.regressor.Predict(studentVec)
	if err != nil {
		if !hasRef {
			return Score{}, fmt.Errorf("regressor: %w", err)
		}
		sim.PredictionErr = err
		return sim, nil
	}
	return Score{Value: clamp100(v), Source: SourceRegression}, nil
}

// CosineSimilarity returns the cosine of the angle between a and b, or 0 when
// either is zero or their lengths differ.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func clamp100(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}
