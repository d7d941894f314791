package model

import (
	"math"
	"math/rand"
	"sync"
)

// RandomForest is a bagging ensemble of decision trees with per-tree feature
// subsampling. Trees get derived seeds so a fixed RandomState yields an
// identical forest regardless of scheduling.
type RandomForest struct {
	NEstimators     int
	MaxDepth        int
	MinSamplesSplit int
	MaxFeatures     int // 0 means sqrt(nFeatures)
	Bootstrap       bool
	RandomState     int64

	trees     []*DecisionTree
	nFeatures int
}

// RandomForestOption is a functional config for RandomForest.
type RandomForestOption func(*RandomForest)

// WithNEstimators sets the tree count.
func WithNEstimators(n int) RandomForestOption {
	return func(rf *RandomForest) { rf.NEstimators = n }
}

// WithMaxDepth limits tree depth; 0 means unlimited.
func WithMaxDepth(d int) RandomForestOption {
	return func(rf *RandomForest) { rf.MaxDepth = d }
}

// NewRandomForest initializes the forest with sensible defaults.
func NewRandomForest(seed int64, opts ...RandomForestOption) *RandomForest {
	rf := &RandomForest{
		NEstimators:     100,
		MinSamplesSplit: 2,
		Bootstrap:       true,
		RandomState:     seed,
	}
	for _, o := range opts {
		o(rf)
	}
	return rf
}

// Fit trains every tree on a bootstrap resample.
func (rf *RandomForest) Fit(X [][]float64, y []int) error {
	if err := checkTrainingData(X, y); err != nil {
		return err
	}
	rf.nFeatures = len(X[0])
	maxFeatures := rf.MaxFeatures
	if maxFeatures <= 0 {
		maxFeatures = int(math.Sqrt(float64(rf.nFeatures)))
		if maxFeatures < 1 {
			maxFeatures = 1
		}
	}

	rf.trees = make([]*DecisionTree, rf.NEstimators)
	errs := make([]error, rf.NEstimators)
	var wg sync.WaitGroup
	for t := 0; t < rf.NEstimators; t++ {
		wg.Add(1)
		go func(t int) {
			defer wg.Done()
			seed := rf.RandomState + int64(t)*7919
			rng := rand.New(rand.NewSource(seed))

			bx, by := X, y
			if rf.Bootstrap {
				bx = make([][]float64, len(X))
				by = make([]int, len(y))
				for i := range bx {
					j := rng.Intn(len(X))
					bx[i] = X[j]
					by[i] = y[j]
				}
			}
			tree := NewDecisionTree(seed)
			tree.MaxDepth = rf.MaxDepth
			tree.MinSamplesSplit = rf.MinSamplesSplit
			tree.MaxFeatures = maxFeatures
			errs[t] = tree.Fit(bx, by)
			rf.trees[t] = tree
		}(t)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// PredictProba averages tree votes.
func (rf *RandomForest) PredictProba(X [][]float64) []float64 {
	out := make([]float64, len(X))
	if len(rf.trees) == 0 {
		return out
	}
	for i, row := range X {
		sum := 0.0
		for _, tree := range rf.trees {
			sum += tree.probaOne(row)
		}
		out[i] = sum / float64(len(rf.trees))
	}
	return out
}

// Predict takes the majority vote.
func (rf *RandomForest) Predict(X [][]float64) []int {
	proba := rf.PredictProba(X)
	out := make([]int, len(proba))
	for i, p := range proba {
		if p >= 0.5 {
			out[i] = 1
		}
	}
	return out
}

// Importances averages normalized per-tree Gini importances.
func (rf *RandomForest) Importances() []float64 {
	out := make([]float64, rf.nFeatures)
	if len(rf.trees) == 0 {
		return out
	}
	for _, tree := range rf.trees {
		for i, v := range tree.Importances() {
			out[i] += v
		}
	}
	total := 0.0
	for i := range out {
		out[i] /= float64(len(rf.trees))
		total += out[i]
	}
	if total > 0 {
		for i := range out {
			out[i] /= total
		}
	}
	return out
}
