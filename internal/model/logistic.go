package model

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// LogisticRegression is a binary logistic classifier trained by batch gradient
// descent. Features are expected to be scaled upstream.
type LogisticRegression struct {
	Lr          float64
	Epochs      int
	RandomState int64

	w []float64
	b float64
}

// NewLogisticRegression returns a trainer with defaults that converge on
// standardized features.
func NewLogisticRegression(seed int64) *LogisticRegression {
	return &LogisticRegression{Lr: 0.1, Epochs: 500, RandomState: seed}
}

func sigmoid(z float64) float64 {
	// Clamp to keep exp finite on extreme margins.
	if z < -35 {
		return 0
	}
	if z > 35 {
		return 1
	}
	return 1 / (1 + math.Exp(-z))
}

// Fit trains weights and bias on X, y.
func (m *LogisticRegression) Fit(X [][]float64, y []int) error {
	if err := checkTrainingData(X, y); err != nil {
		return err
	}
	nFeatures := len(X[0])
	rng := rand.New(rand.NewSource(m.RandomState))
	m.w = make([]float64, nFeatures)
	for i := range m.w {
		// Small random init to break symmetry.
		m.w[i] = rng.NormFloat64() * 0.01
	}
	m.b = 0

	n := float64(len(X))
	gradW := make([]float64, nFeatures)
	for epoch := 0; epoch < m.Epochs; epoch++ {
		for i := range gradW {
			gradW[i] = 0
		}
		gradB := 0.0
		for i, row := range X {
			p := sigmoid(floats.Dot(m.w, row) + m.b)
			diff := p - float64(y[i])
			for j, x := range row {
				gradW[j] += diff * x
			}
			gradB += diff
		}
		floats.AddScaled(m.w, -m.Lr/n, gradW)
		m.b -= m.Lr / n * gradB
	}
	return nil
}

// PredictProba returns class-1 probabilities.
func (m *LogisticRegression) PredictProba(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, row := range X {
		out[i] = sigmoid(floats.Dot(m.w, row) + m.b)
	}
	return out
}

// Predict thresholds probabilities at 0.5.
func (m *LogisticRegression) Predict(X [][]float64) []int {
	proba := m.PredictProba(X)
	out := make([]int, len(proba))
	for i, p := range proba {
		if p >= 0.5 {
			out[i] = 1
		}
	}
	return out
}
