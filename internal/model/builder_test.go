package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrainTestSplitStratified(t *testing.T) {
	X, y := separableData(50, 1) // 50 per class
	XTrain, XTest, yTrain, yTest, err := TrainTestSplit(X, y, 0.2, 42)
	require.NoError(t, err)
	assert.Len(t, XTest, 20)
	assert.Len(t, XTrain, 80)

	count := func(ys []int, c int) int {
		n := 0
		for _, v := range ys {
			if v == c {
				n++
			}
		}
		return n
	}
	assert.Equal(t, 10, count(yTest, 0))
	assert.Equal(t, 10, count(yTest, 1))
	assert.Equal(t, 40, count(yTrain, 0))
	assert.Equal(t, 40, count(yTrain, 1))
}

func TestTrainTestSplitDeterministic(t *testing.T) {
	X, y := separableData(30, 2)
	_, xa, _, ya, err := TrainTestSplit(X, y, 0.25, 7)
	require.NoError(t, err)
	_, xb, _, yb, err := TrainTestSplit(X, y, 0.25, 7)
	require.NoError(t, err)
	assert.Equal(t, xa, xb)
	assert.Equal(t, ya, yb)
}

func TestCrossValScoreFoldCountAndDeterminism(t *testing.T) {
	X, y := separableData(25, 3)
	factory := func() Classifier { return NewLogisticRegression(42) }
	a, err := CrossValScore(factory, X, y, 5, 42)
	require.NoError(t, err)
	assert.Len(t, a, 5)
	b, err := CrossValScore(factory, X, y, 5, 42)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestBuilderProducesAllModelResults(t *testing.T) {
	X, y := separableData(40, 4)
	b := NewBuilder(X, y, 0.2, 42).
		PrepareData().
		TrainModels().
		EvaluateModels().
		CrossValidation(5)
	require.NoError(t, b.Err())

	res := b.Results()
	for _, name := range b.Models() {
		metrics, ok := res[name].(map[string]any)
		require.True(t, ok, name)
		for _, key := range []string{"accuracy", "precision", "recall", "f1_score", "roc_auc", "confusion_matrix"} {
			assert.Contains(t, metrics, key, name)
		}
		assert.GreaterOrEqual(t, metrics["accuracy"].(float64), 0.9, name)
	}

	cv, ok := res[CrossValidationKey].(map[string]any)
	require.True(t, ok)
	for _, name := range b.Models() {
		entry := cv[name].(map[string]any)
		assert.Contains(t, entry, "mean_score")
		assert.Contains(t, entry, "std_score")
		assert.Len(t, entry["all_scores"].([]float64), 5)
	}
}

func TestBuilderIsReproducible(t *testing.T) {
	X, y := separableData(40, 5)
	run := func() map[string]any {
		b := NewBuilder(X, y, 0.2, 42).PrepareData().TrainModels().EvaluateModels()
		require.NoError(t, b.Err())
		return b.Results()
	}
	a, b := run(), run()
	for _, name := range modelOrder {
		ma := a[name].(map[string]any)
		mb := b[name].(map[string]any)
		for _, key := range []string{"accuracy", "precision", "recall", "f1_score"} {
			assert.Equal(t, ma[key], mb[key], "%s.%s", name, key)
		}
	}
}

func TestBuilderLatchesFirstError(t *testing.T) {
	b := NewBuilder(nil, nil, 0.2, 42).PrepareData().TrainModels().EvaluateModels()
	require.Error(t, b.Err())
	assert.Empty(t, b.Results())
}
