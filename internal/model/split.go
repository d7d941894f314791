package model

import (
	"fmt"
	"math/rand"
)

// TrainTestSplit splits rows into train and test sets, stratified by class so
// both sides keep the class proportions of the input. testSize is the test
// fraction in (0, 1); seed pins the shuffle.
func TrainTestSplit(X [][]float64, y []int, testSize float64, seed int64) (XTrain, XTest [][]float64, yTrain, yTest []int, err error) {
	if len(X) != len(y) {
		return nil, nil, nil, nil, ErrDimensionMismatch
	}
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, nil, nil, fmt.Errorf("model: test size must be in (0, 1), got %v", testSize)
	}
	rng := rand.New(rand.NewSource(seed))

	byClass := map[int][]int{}
	for i, c := range y {
		byClass[c] = append(byClass[c], i)
	}
	for _, indices := range byClass {
		rng.Shuffle(len(indices), func(a, b int) {
			indices[a], indices[b] = indices[b], indices[a]
		})
	}
	// Deterministic class order.
	classes := make([]int, 0, len(byClass))
	for c := range byClass {
		classes = append(classes, c)
	}
	for i := 0; i < len(classes); i++ {
		for j := i + 1; j < len(classes); j++ {
			if classes[j] < classes[i] {
				classes[i], classes[j] = classes[j], classes[i]
			}
		}
	}

	for _, c := range classes {
		indices := byClass[c]
		nTest := int(float64(len(indices)) * testSize)
		if nTest == 0 && len(indices) > 1 {
			nTest = 1
		}
		for k, i := range indices {
			if k < nTest {
				XTest = append(XTest, X[i])
				yTest = append(yTest, y[i])
			} else {
				XTrain = append(XTrain, X[i])
				yTrain = append(yTrain, y[i])
			}
		}
	}
	if len(XTrain) == 0 || len(XTest) == 0 {
		return nil, nil, nil, nil, fmt.Errorf("model: split produced an empty side (%d train, %d test)", len(XTrain), len(XTest))
	}
	return XTrain, XTest, yTrain, yTest, nil
}

// stratifiedFolds assigns each row to one of k folds, keeping class balance.
func stratifiedFolds(y []int, k int, seed int64) []int {
	rng := rand.New(rand.NewSource(seed))
	folds := make([]int, len(y))
	byClass := map[int][]int{}
	for i, c := range y {
		byClass[c] = append(byClass[c], i)
	}
	classes := make([]int, 0, len(byClass))
	for c := range byClass {
		classes = append(classes, c)
	}
	for i := 0; i < len(classes); i++ {
		for j := i + 1; j < len(classes); j++ {
			if classes[j] < classes[i] {
				classes[i], classes[j] = classes[j], classes[i]
			}
		}
	}
	for _, c := range classes {
		indices := byClass[c]
		rng.Shuffle(len(indices), func(a, b int) {
			indices[a], indices[b] = indices[b], indices[a]
		})
		for n, i := range indices {
			folds[i] = n % k
		}
	}
	return folds
}
