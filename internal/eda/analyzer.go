// Package eda implements the exploratory stage: descriptive statistics,
// correlation analysis against the target, and distribution analysis with a
// normality test.
package eda

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/KaramelBytes/oncoreport-cli/internal/dataset"
)

// distributionCap bounds how many feature distributions are analyzed.
const distributionCap = 10

// topCorrelationCap bounds the reported target correlations.
const topCorrelationCap = 10

// Analyzer accumulates EDA results over a frame. The frame is read, never
// mutated. Methods return the receiver for chaining; the three sub-steps are
// independently fallible, so the pipeline guards them separately.
type Analyzer struct {
	frame   *dataset.Frame
	results map[string]any
}

// New returns an Analyzer over the frame.
func New(f *dataset.Frame) *Analyzer {
	return &Analyzer{frame: f, results: make(map[string]any)}
}

// Results returns the accumulated EDA results.
func (a *Analyzer) Results() map[string]any { return a.results }

// BasicStatistics records shape, per-column descriptive stats, target
// distribution with percentages, missing counts, and unique counts under the
// basic_statistics sub-key.
func (a *Analyzer) BasicStatistics() *Analyzer {
	f := a.frame
	descriptive := map[string]any{}
	missing := map[string]any{}
	unique := map[string]any{}
	for _, name := range f.Names {
		col := f.Column(name)
		present := f.NonMissing(name)
		missing[name] = len(col) - len(present)

		seen := map[float64]bool{}
		for _, v := range present {
			seen[v] = true
		}
		unique[name] = len(seen)

		if len(present) == 0 {
			continue
		}
		sorted := append([]float64(nil), present...)
		sort.Float64s(sorted)
		q1 := stat.Quantile(0.25, stat.Empirical, sorted, nil)
		q3 := stat.Quantile(0.75, stat.Empirical, sorted, nil)
		desc := map[string]any{
			"count": len(present),
			"mean":  stat.Mean(present, nil),
			"min":   sorted[0],
			"25%":   q1,
			"50%":   stat.Quantile(0.5, stat.Empirical, sorted, nil),
			"75%":   q3,
			"max":   sorted[len(sorted)-1],
			"iqr":   q3 - q1,
		}
		if len(present) > 1 {
			desc["std"] = stat.StdDev(present, nil)
			desc["skew"] = stat.Skew(present, nil)
			desc["kurtosis"] = stat.ExKurtosis(present, nil)
		}
		descriptive[name] = desc
	}

	targetCounts := map[string]any{}
	targetPct := map[string]any{}
	target := f.Column(f.Target)
	total := f.Rows()
	var benign, malignant int
	for _, v := range target {
		switch {
		case math.IsNaN(v):
		case v == 0:
			benign++
		default:
			malignant++
		}
	}
	if total > 0 {
		targetCounts["0"] = benign
		targetCounts["1"] = malignant
		targetPct["0"] = float64(benign) / float64(total) * 100
		targetPct["1"] = float64(malignant) / float64(total) * 100
	}

	a.results["basic_statistics"] = map[string]any{
		"shape":               fmt.Sprintf("(%d, %d)", f.Rows(), len(f.Names)),
		"descriptive_stats":   descriptive,
		"target_distribution": targetCounts,
		"target_percentage":   targetPct,
		"missing_values":      missing,
		"unique_values":       unique,
	}
	return a
}

// pairCorrelation computes Pearson correlation over rows where both columns
// are present.
func pairCorrelation(x, y []float64) float64 {
	var xs, ys []float64
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	if len(xs) < 2 {
		return math.NaN()
	}
	return stat.Correlation(xs, ys, nil)
}

// CorrelationAnalysis records the full correlation matrix and the features
// most correlated with the target (by absolute value, capped at ten) under
// the correlation sub-key.
func (a *Analyzer) CorrelationAnalysis() *Analyzer {
	f := a.frame
	matrix := map[string]any{}
	for _, xn := range f.Names {
		row := map[string]any{}
		for _, yn := range f.Names {
			if xn == yn {
				row[yn] = 1.0
				continue
			}
			row[yn] = pairCorrelation(f.Column(xn), f.Column(yn))
		}
		matrix[xn] = row
	}

	type pair struct {
		feature string
		r       float64
	}
	var pairs []pair
	target := f.Column(f.Target)
	for _, name := range f.FeatureNames() {
		r := pairCorrelation(f.Column(name), target)
		if math.IsNaN(r) {
			continue
		}
		pairs = append(pairs, pair{feature: name, r: math.Abs(r)})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].r == pairs[j].r {
			return pairs[i].feature < pairs[j].feature
		}
		return pairs[i].r > pairs[j].r
	})
	if len(pairs) > topCorrelationCap {
		pairs = pairs[:topCorrelationCap]
	}

	top := make([]any, 0, len(pairs))
	for _, p := range pairs {
		top = append(top, map[string]any{
			"feature1":    f.Target,
			"feature2":    p.feature,
			"correlation": p.r,
		})
	}

	a.results["correlation"] = map[string]any{
		"matrix":                   matrix,
		"top_features_with_target": top,
	}
	return a
}

// DistributionAnalysis records moments and a Kolmogorov-Smirnov normality
// test for the first ten feature columns under the distributions sub-key.
// Columns with fewer than three present values are skipped.
func (a *Analyzer) DistributionAnalysis() *Analyzer {
	f := a.frame
	distributions := map[string]any{}
	features := f.FeatureNames()
	if len(features) > distributionCap {
		features = features[:distributionCap]
	}
	for _, name := range features {
		present := f.NonMissing(name)
		if len(present) < 3 {
			continue
		}
		sorted := append([]float64(nil), present...)
		sort.Float64s(sorted)
		mean := stat.Mean(present, nil)
		std := stat.StdDev(present, nil)

		entry := map[string]any{
			"mean":     mean,
			"std":      std,
			"skewness": stat.Skew(present, nil),
			"kurtosis": stat.ExKurtosis(present, nil),
			"median":   stat.Quantile(0.5, stat.Empirical, sorted, nil),
			"min":      sorted[0],
			"max":      sorted[len(sorted)-1],
		}
		statistic, p := ksNormalTest(sorted, mean, std)
		if math.IsNaN(statistic) {
			entry["normality_test"] = map[string]any{"statistic": nil, "p_value": nil}
		} else {
			entry["normality_test"] = map[string]any{"statistic": statistic, "p_value": p}
		}
		distributions[name] = entry
	}
	a.results["distributions"] = distributions
	return a
}

// ksNormalTest runs a one-sample Kolmogorov-Smirnov test of sorted values
// against Normal(mean, std). The p-value uses the asymptotic Kolmogorov
// distribution.
func ksNormalTest(sorted []float64, mean, std float64) (statistic, pValue float64) {
	n := len(sorted)
	if n < 3 || std <= 0 || math.IsNaN(std) {
		return math.NaN(), math.NaN()
	}
	norm := distuv.Normal{Mu: mean, Sigma: std}
	d := 0.0
	for i, v := range sorted {
		cdf := norm.CDF(v)
		upper := float64(i+1)/float64(n) - cdf
		lower := cdf - float64(i)/float64(n)
		if upper > d {
			d = upper
		}
		if lower > d {
			d = lower
		}
	}
	return d, ksPValue(d, n)
}

// ksPValue evaluates the asymptotic Kolmogorov survival function at the
// effective statistic, per Stephens' small-sample correction.
func ksPValue(d float64, n int) float64 {
	sqrtN := math.Sqrt(float64(n))
	lambda := (sqrtN + 0.12 + 0.11/sqrtN) * d
	if lambda < 1e-9 {
		return 1
	}
	sum := 0.0
	sign := 1.0
	for k := 1; k <= 100; k++ {
		term := sign * math.Exp(-2*lambda*lambda*float64(k)*float64(k))
		sum += term
		sign = -sign
		if math.Abs(term) < 1e-12 {
			break
		}
	}
	p := 2 * sum
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
