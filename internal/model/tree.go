package model

import (
	"math/rand"
	"sort"
)

// DecisionTree is a CART binary classifier splitting on Gini impurity.
type DecisionTree struct {
	MaxDepth        int // 0 means unlimited
	MinSamplesSplit int
	MaxFeatures     int // 0 means all features
	RandomState     int64

	root        *treeNode
	nFeatures   int
	importances []float64
}

type treeNode struct {
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
	// leaf state
	leaf     bool
	classOne float64 // fraction of class-1 samples at the leaf
}

// NewDecisionTree returns a tree with sklearn-like defaults: unlimited depth,
// split down to two samples, all features considered.
func NewDecisionTree(seed int64) *DecisionTree {
	return &DecisionTree{MinSamplesSplit: 2, RandomState: seed}
}

// Fit grows the tree.
func (t *DecisionTree) Fit(X [][]float64, y []int) error {
	if err := checkTrainingData(X, y); err != nil && err != ErrSingleClass {
		return err
	}
	t.nFeatures = len(X[0])
	t.importances = make([]float64, t.nFeatures)
	rng := rand.New(rand.NewSource(t.RandomState))
	idx := make([]int, len(X))
	for i := range idx {
		idx[i] = i
	}
	t.root = t.grow(X, y, idx, 0, rng)
	return nil
}

// Importances returns the normalized total impurity decrease per feature.
func (t *DecisionTree) Importances() []float64 {
	out := make([]float64, len(t.importances))
	copy(out, t.importances)
	total := 0.0
	for _, v := range out {
		total += v
	}
	if total > 0 {
		for i := range out {
			out[i] /= total
		}
	}
	return out
}

func gini(ones, n int) float64 {
	if n == 0 {
		return 0
	}
	p := float64(ones) / float64(n)
	return 2 * p * (1 - p)
}

func countOnes(y []int, idx []int) int {
	ones := 0
	for _, i := range idx {
		if y[i] == 1 {
			ones++
		}
	}
	return ones
}

func (t *DecisionTree) grow(X [][]float64, y []int, idx []int, depth int, rng *rand.Rand) *treeNode {
	ones := countOnes(y, idx)
	n := len(idx)
	node := &treeNode{leaf: true, classOne: float64(ones) / float64(n)}
	if ones == 0 || ones == n || n < t.MinSamplesSplit {
		return node
	}
	if t.MaxDepth > 0 && depth >= t.MaxDepth {
		return node
	}

	features := t.candidateFeatures(rng)
	bestFeature, bestThreshold, bestGain := -1, 0.0, 0.0
	parentImpurity := gini(ones, n)

	sorted := make([]int, n)
	for _, f := range features {
		copy(sorted, idx)
		sort.Slice(sorted, func(a, b int) bool { return X[sorted[a]][f] < X[sorted[b]][f] })

		leftOnes := 0
		for k := 0; k < n-1; k++ {
			if y[sorted[k]] == 1 {
				leftOnes++
			}
			if X[sorted[k]][f] == X[sorted[k+1]][f] {
				continue
			}
			nl, nr := k+1, n-k-1
			imp := float64(nl)/float64(n)*gini(leftOnes, nl) + float64(nr)/float64(n)*gini(ones-leftOnes, nr)
			gain := parentImpurity - imp
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

	t.importances[bestFeature] += float64(n) * bestGain

	node.leaf = false
	node.feature = bestFeature
	node.threshold = bestThreshold
	node.left = t.grow(X, y, leftIdx, depth+1, rng)
	node.right = t.grow(X, y, rightIdx, depth+1, rng)
	return node
}

func (t *DecisionTree) candidateFeatures(rng *rand.Rand) []int {
	all := make([]int, t.nFeatures)
	for i := range all {
		all[i] = i
	}
	if t.MaxFeatures <= 0 || t.MaxFeatures >= t.nFeatures {
		return all
	}
	rng.Shuffle(len(all), func(a, b int) { all[a], all[b] = all[b], all[a] })
	return all[:t.MaxFeatures]
}

func (t *DecisionTree) probaOne(row []float64) float64 {
	node := t.root
	for node != nil && !node.leaf {
		if row[node.feature] <= node.threshold {
			node = node.left
		} else {
			node = node.right
		}
	}
	if node == nil {
		return 0
	}
	return node.classOne
}

// PredictProba returns the class-1 leaf fraction per row.
func (t *DecisionTree) PredictProba(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, row := range X {
		out[i] = t.probaOne(row)
	}
	return out
}

// Predict thresholds leaf fractions at 0.5.
func (t *DecisionTree) Predict(X [][]float64) []int {
	out := make([]int, len(X))
	for i, row := range X {
		if t.probaOne(row) >= 0.5 {
			out[i] = 1
		}
	}
	return out
}
