package model

import (
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// LinearSVC is a linear support-vector classifier trained with Pegasos-style
// stochastic subgradient descent on the hinge loss.
type LinearSVC struct {
	Lambda      float64
	Epochs      int
	RandomState int64

	w []float64
	b float64
}

// NewLinearSVC returns a trainer with defaults suited to standardized features.
func NewLinearSVC(seed int64) *LinearSVC {
	return &LinearSVC{Lambda: 0.01, Epochs: 200, RandomState: seed}
}

// Fit trains on X, y with labels mapped to {-1, +1} internally.
func (m *LinearSVC) Fit(X [][]float64, y []int) error {
	if err := checkTrainingData(X, y); err != nil {
		return err
	}
	n := len(X)
	m.w = make([]float64, len(X[0]))
	m.b = 0
	rng := rand.New(rand.NewSource(m.RandomState))

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	step := 0
	for epoch := 0; epoch < m.Epochs; epoch++ {
		rng.Shuffle(n, func(a, b int) { order[a], order[b] = order[b], order[a] })
		for _, i := range order {
			step++
			eta := 1 / (m.Lambda * float64(step))
			label := float64(y[i])*2 - 1
			margin := label * (floats.Dot(m.w, X[i]) + m.b)
			floats.Scale(1-eta*m.Lambda, m.w)
			if margin < 1 {
				floats.AddScaled(m.w, eta*label, X[i])
				m.b += eta * label
			}
		}
	}
	return nil
}

func (m *LinearSVC) decision(row []float64) float64 {
	return floats.Dot(m.w, row) + m.b
}

// PredictProba squashes the signed margin through a sigmoid. This is a
// monotone score, not a calibrated probability; it keeps ranking metrics like
// ROC AUC meaningful.
func (m *LinearSVC) PredictProba(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, row := range X {
		out[i] = sigmoid(m.decision(row))
	}
	return out
}

// Predict classifies by the sign of the decision function.
func (m *LinearSVC) Predict(X [][]float64) []int {
	out := make([]int, len(X))
	for i, row := range X {
		if m.decision(row) >= 0 {
			out[i] = 1
		}
	}
	return out
}
