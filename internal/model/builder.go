package model

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// CrossValidationKey is the reserved sub-key of the modeling results that
// holds fold scores instead of a model's metrics.
const CrossValidationKey = "cross_validation"

// modelOrder fixes the training order for reproducible logs and reports.
var modelOrder = []string{
	"logistic_regression",
	"decision_tree",
	"random_forest",
	"gradient_boosting",
	"svm",
}

// Builder composes the modeling stage as an ordered sequence of sub-steps:
// PrepareData, TrainModels, EvaluateModels, CrossValidation. Methods return
// the receiver and latch the first error; check Err before reading Results.
type Builder struct {
	X        [][]float64
	y        []int
	testSize float64
	seed     int64

	xTrain, xTest [][]float64
	yTrain, yTest []int

	factories map[string]Factory
	trained   map[string]Classifier
	results   map[string]any
	err       error
}

// NewBuilder returns a Builder over the prepared feature matrix.
func NewBuilder(X [][]float64, y []int, testSize float64, seed int64) *Builder {
	return &Builder{
		X: X, y: y,
		testSize: testSize,
		seed:     seed,
		factories: map[string]Factory{
			"logistic_regression": func() Classifier { return NewLogisticRegression(seed) },
			"decision_tree":       func() Classifier { return NewDecisionTree(seed) },
			"random_forest":       func() Classifier { return NewRandomForest(seed) },
			"gradient_boosting":   func() Classifier { return NewGradientBoosting(seed) },
			"svm":                 func() Classifier { return NewLinearSVC(seed) },
		},
		trained: make(map[string]Classifier),
		results: make(map[string]any),
	}
}

// Err returns the first error hit by any sub-step.
func (b *Builder) Err() error { return b.err }

// Results returns the accumulated modeling results: one metrics map per model
// name plus the cross_validation sub-key.
func (b *Builder) Results() map[string]any { return b.results }

// Models returns the model names in training order.
func (b *Builder) Models() []string {
	out := make([]string, len(modelOrder))
	copy(out, modelOrder)
	return out
}

// PrepareData performs the stratified train/test split.
func (b *Builder) PrepareData() *Builder {
	if b.err != nil {
		return b
	}
	b.xTrain, b.xTest, b.yTrain, b.yTest, b.err = TrainTestSplit(b.X, b.y, b.testSize, b.seed)
	return b
}

// TrainModels fits every configured classifier on the training split.
func (b *Builder) TrainModels() *Builder {
	if b.err != nil {
		return b
	}
	for _, name := range modelOrder {
		clf := b.factories[name]()
		if err := clf.Fit(b.xTrain, b.yTrain); err != nil {
			b.err = fmt.Errorf("train %s: %w", name, err)
			return b
		}
		b.trained[name] = clf
	}
	return b
}

// EvaluateModels scores every trained model on the test split.
func (b *Builder) EvaluateModels() *Builder {
	if b.err != nil {
		return b
	}
	for _, name := range modelOrder {
		clf, ok := b.trained[name]
		if !ok {
			b.err = fmt.Errorf("evaluate %s: model not trained", name)
			return b
		}
		pred := clf.Predict(b.xTest)
		proba := clf.PredictProba(b.xTest)
		precision, recall, f1 := PrecisionRecallF1Weighted(b.yTest, pred)
		b.results[name] = map[string]any{
			"accuracy":         Accuracy(b.yTest, pred),
			"precision":        precision,
			"recall":           recall,
			"f1_score":         f1,
			"roc_auc":          ROCAUC(b.yTest, proba),
			"confusion_matrix": ConfusionMatrix(b.yTest, pred),
		}
	}
	return b
}

// CrossValidation runs stratified k-fold CV per model on the training split
// and records mean, std, and the per-fold scores.
func (b *Builder) CrossValidation(k int) *Builder {
	if b.err != nil {
		return b
	}
	cv := make(map[string]any, len(modelOrder))
	for _, name := range modelOrder {
		scores, err := CrossValScore(b.factories[name], b.xTrain, b.yTrain, k, b.seed)
		if err != nil {
			b.err = fmt.Errorf("cross-validate %s: %w", name, err)
			return b
		}
		cv[name] = map[string]any{
			"mean_score": stat.Mean(scores, nil),
			"std_score":  stat.PopStdDev(scores, nil),
			"all_scores": scores,
		}
	}
	b.results[CrossValidationKey] = cv
	return b
}

// Trained exposes a fitted model by name, or nil.
func (b *Builder) Trained(name string) Classifier { return b.trained[name] }
