package model

import "fmt"

// CrossValScore runs stratified k-fold cross-validation, training a fresh
// classifier from factory per fold, and returns the per-fold accuracies.
func CrossValScore(factory Factory, X [][]float64, y []int, k int, seed int64) ([]float64, error) {
	if len(X) != len(y) {
		return nil, ErrDimensionMismatch
	}
	if k < 2 {
		return nil, fmt.Errorf("model: cv folds must be >= 2, got %d", k)
	}
	if k > len(X) {
		return nil, fmt.Errorf("model: cv folds %d exceed %d samples", k, len(X))
	}
	folds := stratifiedFolds(y, k, seed)

	scores := make([]float64, 0, k)
	for fold := 0; fold < k; fold++ {
		var XTrain, XTest [][]float64
		var yTrain, yTest []int
		for i := range X {
			if folds[i] == fold {
				XTest = append(XTest, X[i])
				yTest = append(yTest, y[i])
			} else {
				XTrain = append(XTrain, X[i])
				yTrain = append(yTrain, y[i])
			}
		}
		if len(XTest) == 0 {
			continue
		}
		clf := factory()
		if err := clf.Fit(XTrain, yTrain); err != nil {
			return nil, fmt.Errorf("fold %d: %w", fold, err)
		}
		scores = append(scores, Accuracy(yTest, clf.Predict(XTest)))
	}
	return scores, nil
}
