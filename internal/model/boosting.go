package model

import (
	"math"
	"sort"
)

// GradientBoosting is an additive ensemble of shallow regression trees fit to
// the gradient of the logistic loss, in the style of sklearn's
// GradientBoostingClassifier defaults (100 stages, depth 3, learning rate 0.1).
type GradientBoosting struct {
	NEstimators  int
	LearningRate float64
	MaxDepth     int
	RandomState  int64

	f0    float64
	trees []*regTree
}

// NewGradientBoosting returns a booster with sklearn-like defaults.
func NewGradientBoosting(seed int64) *GradientBoosting {
	return &GradientBoosting{NEstimators: 100, LearningRate: 0.1, MaxDepth: 3, RandomState: seed}
}

// Fit trains the stage-wise additive model.
func (g *GradientBoosting) Fit(X [][]float64, y []int) error {
	if err := checkTrainingData(X, y); err != nil {
		return err
	}
	pos := 0
	for _, v := range y {
		if v == 1 {
			pos++
		}
	}
	p0 := float64(pos) / float64(len(y))
	g.f0 = math.Log(p0 / (1 - p0))

	f := make([]float64, len(y))
	for i := range f {
		f[i] = g.f0
	}
	residual := make([]float64, len(y))
	hessian := make([]float64, len(y))
	g.trees = make([]*regTree, 0, g.NEstimators)

	for stage := 0; stage < g.NEstimators; stage++ {
		for i := range y {
			p := sigmoid(f[i])
			residual[i] = float64(y[i]) - p
			hessian[i] = p * (1 - p)
		}
		tree := growRegTree(X, residual, hessian, g.MaxDepth)
		g.trees = append(g.trees, tree)
		for i, row := range X {
			f[i] += g.LearningRate * tree.predict(row)
		}
	}
	return nil
}

func (g *GradientBoosting) rawScore(row []float64) float64 {
	f := g.f0
	for _, tree := range g.trees {
		f += g.LearningRate * tree.predict(row)
	}
	return f
}

// PredictProba returns sigmoid-squashed additive scores.
func (g *GradientBoosting) PredictProba(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, row := range X {
		out[i] = sigmoid(g.rawScore(row))
	}
	return out
}

// Predict thresholds probabilities at 0.5.
func (g *GradientBoosting) Predict(X [][]float64) []int {
	out := make([]int, len(X))
	for i, row := range X {
		if g.rawScore(row) >= 0 {
			out[i] = 1
		}
	}
	return out
}

// regTree is a least-squares regression tree over gradient residuals. Leaf
// values use the Newton step sum(residual)/sum(hessian).
type regTree struct {
	feature   int
	threshold float64
	left      *regTree
	right     *regTree
	leaf      bool
	value     float64
}

func growRegTree(X [][]float64, residual, hessian []float64, maxDepth int) *regTree {
	idx := make([]int, len(X))
	for i := range idx {
		idx[i] = i
	}
	return growRegTreeAt(X, residual, hessian, idx, maxDepth)
}

func leafValue(residual, hessian []float64, idx []int) float64 {
	var num, den float64
	for _, i := range idx {
		num += residual[i]
		den += hessian[i]
	}
	if den < 1e-12 {
		return 0
	}
	return num / den
}

func growRegTreeAt(X [][]float64, residual, hessian []float64, idx []int, depth int) *regTree {
	node := &regTree{leaf: true, value: leafValue(residual, hessian, idx)}
	if depth <= 0 || len(idx) < 2 {
		return node
	}

	n := len(idx)
	var mean, sse float64
	for _, i := range idx {
		mean += residual[i]
	}
	mean /= float64(n)
	for _, i := range idx {
		d := residual[i] - mean
		sse += d * d
	}

	bestFeature, bestThreshold, bestGain := -1, 0.0, 1e-12
	sorted := make([]int, n)
	nFeatures := len(X[0])
	for f := 0; f < nFeatures; f++ {
		copy(sorted, idx)
		sort.Slice(sorted, func(a, b int) bool { return X[sorted[a]][f] < X[sorted[b]][f] })

		var leftSum, leftSq float64
		totalSum, totalSq := 0.0, 0.0
		for _, i := range idx {
			totalSum += residual[i]
			totalSq += residual[i] * residual[i]
		}
		for k := 0; k < n-1; k++ {
			r := residual[sorted[k]]
			leftSum += r
			leftSq += r * r
			if X[sorted[k]][f] == X[sorted[k+1]][f] {
				continue
			}
			nl := float64(k + 1)
			nr := float64(n - k - 1)
			rightSum := totalSum - leftSum
			rightSq := totalSq - leftSq
			sseSplit := (leftSq - leftSum*leftSum/nl) + (rightSq - rightSum*rightSum/nr)
			gain := sse - sseSplit
			if gain > bestGain {
				bestGain = gain
				bestFeature = f
				bestThreshold = (X[sorted[k]][f] + X[sorted[k+1]][f]) / 2
			}
		}
	}
	if bestFeature == -1 {
		return node
	}

	var leftIdx, rightIdx []int
	for _, i := range idx {
		if X[i][bestFeature] <= bestThreshold {
			leftIdx = append(leftIdx, i)
		} else {
			rightIdx = append(rightIdx, i)
		}
	}
	if len(leftIdx) == 0 || len(rightIdx) == 0 {
		return node
	}

	node.leaf = false
	node.feature = bestFeature
	node.threshold = bestThreshold
	node.left = growRegTreeAt(X, residual, hessian, leftIdx, depth-1)
	node.right = growRegTreeAt(X, residual, hessian, rightIdx, depth-1)
	return node
}

func (t *regTree) predict(row []float64) float64 {
	node := t
	for !node.leaf {
		if row[node.feature] <= node.threshold {
			node = node.left
		} else {
			node = node.right
		}
	}
	return node.value
}
