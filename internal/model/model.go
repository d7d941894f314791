// Package model implements the binary classifiers trained by the modeling
// stage, plus train/test splitting, cross-validation, and evaluation metrics.
//
// Every trainer accepts an explicit random state so two runs over the same
// input produce identical metrics.
package model

import "errors"

// Classifier is a binary classifier over dense float features.
type Classifier interface {
	// Fit trains on row-major features X and labels y in {0, 1}.
	Fit(X [][]float64, y []int) error
	// Predict returns the predicted class per row.
	Predict(X [][]float64) []int
	// PredictProba returns the probability (or a monotone score in [0, 1])
	// of class 1 per row.
	PredictProba(X [][]float64) []float64
}

// Factory constructs a fresh, untrained classifier. Cross-validation uses it
// to train one model per fold without reusing fitted state.
type Factory func() Classifier

var (
	// ErrNoData indicates Fit was called with an empty matrix.
	ErrNoData = errors.New("model: no training data")
	// ErrDimensionMismatch indicates X and y disagree on row count.
	ErrDimensionMismatch = errors.New("model: feature and label counts differ")
	// ErrSingleClass indicates training labels contain only one class.
	ErrSingleClass = errors.New("model: training labels contain a single class")
)

func checkTrainingData(X [][]float64, y []int) error {
	if len(X) == 0 {
		return ErrNoData
	}
	if len(X) != len(y) {
		return ErrDimensionMismatch
	}
	first := y[0]
	for _, v := range y[1:] {
		if v != first {
			return nil
		}
	}
	return ErrSingleClass
}
