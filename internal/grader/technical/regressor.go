package technical

import (
	"fmt"
	"strconv"

	"github.com/essaygrade/backend/internal/safetensors"
)

// Regressor maps an answer embedding to a 0-100 score.
type Regressor interface {
	Predict(embedding []float32) (float64, error)
}

// LinearModel is y = w·x + b.
type LinearModel struct {
	Weight   []float32
	Bias     float32
	MaxScore float64
}

func (m *LinearModel) Predict(x []float32) (float64, error) {
	if len(x) != len(m.Weight) {
		return 0, fmt.Errorf("embedding has %d dims, model expects %d", len(x), len(m.Weight))
	}
	raw := float64(m.Bias) + dot(m.Weight, x)
	return raw / m.MaxScore * 100, nil
}

// MLPModel is fc2(relu(fc1(x))) with a single output.
type MLPModel struct {
	W1       []float32 // hidden x in, row-major
	B1       []float32
	W2       []float32 // hidden
	B2       float32
	In       int
	Hidden   int
	MaxScore float64
}

func (m *MLPModel) Predict(x []float32) (float64, error) {
	if len(x) != m.In {
		return 0, fmt.Errorf("embedding has %d dims, model expects %d", len(x), m.In)
	}
	raw := float64(m.B2)
	for h := 0; h < m.Hidden; h++ {
		a := float64(m.B1[h]) + dot(m.W1[h*m.In:(h+1)*m.In], x)
		if a > 0 {
			raw += a * float64(m.W2[h])
		}
	}
	return raw / m.MaxScore * 100, nil
}

func dot(w, x []float32) float64 {
	var s float64
	for i := range w {
		s += float64(w[i]) * float64(x[i])
	}
	return s
}

// LoadRegressor reads a linear or MLP head from a safetensors file.
// defaultMax is used when the file carries no max_score metadata.
func LoadRegressor(path string, defaultMax float64) (Regressor, error) {
	f, err := safetensors.Open(path)
	if err != nil {
		return nil, err
	}

	maxScore := defaultMax
	if v, ok := f.Metadata["max_score"]; ok {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("regressor %s: invalid max_score %q", path, v)
		}
		maxScore = parsed
	}
	if maxScore <= 0 {
		return nil, fmt.Errorf("regressor %s: max_score must be positive, got %v", path, maxScore)
	}

	switch {
	case f.Has("linear.weight"):
		return loadLinear(f, maxScore)
	case f.Has("fc1.weight"):
		return loadMLP(f, maxScore)
	}
	return nil, fmt.Errorf("regressor %s: no linear.weight or fc1.weight tensor", path)
}

func loadLinear(f *safetensors.File, maxScore float64) (*LinearModel, error) {
	w, shape, err := f.Float32("linear.weight")
	if err != nil {
		return nil, err
	}
	if len(shape) == 2 && shape[0] != 1 {
		return nil, fmt.Errorf("linear.weight: expected one output, got shape %v", shape)
	}
	m := &LinearModel{Weight: w, MaxScore: maxScore}
	if f.Has("linear.bias") {
		b, _, err := f.Float32("linear.bias")
		if err != nil {
			return nil, err
		}
		if len(b) != 1 {
			return nil, fmt.Errorf("linear.bias: expected 1 value, got %d", len(b))
		}
		m.Bias = b[0]
	}
	return m, nil
}

func loadMLP(f *safetensors.File, maxScore float64) (*MLPModel, error) {
	w1, s1, err := f.Float32("fc1.weight")
	if err != nil {
		return nil, err
	}
	if len(s1) != 2 {
		return nil, fmt.Errorf("fc1.weight: expected 2-d tensor, got shape %v", s1)
	}
	hidden, in := s1[0], s1[1]

	b1, _, err := f.Float32("fc1.bias")
	if err != nil {
		return nil, err
	}
	w2, _, err := f.Float32("fc2.weight")
	if err != nil {
		return nil, err
	}
	b2, _, err := f.Float32("fc2.bias")
	if err != nil {
		return nil, err
	}
	if len(b1) != hidden || len(w2) != hidden || len(b2) != 1 {
		return nil, fmt.Errorf("mlp: inconsistent layer sizes (hidden=%d, fc1.bias=%d, fc2.weight=%d, fc2.bias=%d)",
			hidden, len(b1), len(w2), len(b2))
	}

	return &MLPModel{W1: w1, B1: b1, W2: w2, B2: b2[0], In: in, Hidden: hidden, MaxScore: maxScore}, nil
}
