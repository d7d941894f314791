// Package features implements the feature-engineering stage: scaling, ANOVA
// feature selection, and random-forest importance ranking.
package features

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/KaramelBytes/oncoreport-cli/internal/dataset"
	"github.com/KaramelBytes/oncoreport-cli/internal/model"
)

// Engineer scales the frame in place and accumulates feature-importance
// results. Methods return the receiver for chaining and latch the first error.
type Engineer struct {
	frame       *dataset.Frame
	seed        int64
	importance  map[string]any
	rankedNames []string
	err         error
}

// New returns an Engineer over the frame.
func New(f *dataset.Frame, seed int64) *Engineer {
	return &Engineer{frame: f, seed: seed, importance: make(map[string]any)}
}

// Err returns the first error hit by any sub-step.
func (e *Engineer) Err() error { return e.err }

// Importance returns the accumulated feature-importance results: the anova
// and random_forest sub-keys.
func (e *Engineer) Importance() map[string]any { return e.importance }

// TopFeatures returns the random-forest ranking, best first. Empty until
// SelectRandomForest runs.
func (e *Engineer) TopFeatures() []string {
	out := make([]string, len(e.rankedNames))
	copy(out, e.rankedNames)
	return out
}

// Scale standardizes every feature column in place. method is "standard"
// (zero mean, unit variance) or "minmax" (to [0, 1]). The target column is
// untouched. Constant columns are left as-is.
func (e *Engineer) Scale(method string) *Engineer {
	if e.err != nil {
		return e
	}
	switch method {
	case "standard", "minmax":
	default:
		e.err = fmt.Errorf("features: unknown scaling method %q", method)
		return e
	}
	for _, name := range e.frame.FeatureNames() {
		col := e.frame.Column(name)
		present := e.frame.NonMissing(name)
		if len(present) < 2 {
			continue
		}
		switch method {
		case "standard":
			mean := stat.Mean(present, nil)
			std := stat.StdDev(present, nil)
			if std == 0 {
				continue
			}
			for i, v := range col {
				if !math.IsNaN(v) {
					col[i] = (v - mean) / std
				}
			}
		case "minmax":
			lo, hi := present[0], present[0]
			for _, v := range present {
				if v < lo {
					lo = v
				}
				if v > hi {
					hi = v
				}
			}
			if hi == lo {
				continue
			}
			for i, v := range col {
				if !math.IsNaN(v) {
					col[i] = (v - lo) / (hi - lo)
				}
			}
		}
	}
	return e
}

// SelectANOVA scores every feature with a one-way ANOVA F-test between the
// two classes and marks the k best as selected, recording score, p_value, and
// selected per feature under the anova sub-key.
func (e *Engineer) SelectANOVA(k int) *Engineer {
	if e.err != nil {
		return e
	}
	target := e.frame.Column(e.frame.Target)
	type scored struct {
		name string
		f    float64
		p    float64
	}
	var all []scored
	for _, name := range e.frame.FeatureNames() {
		col := e.frame.Column(name)
		var groups [2][]float64
		for i, v := range col {
			if math.IsNaN(v) || math.IsNaN(target[i]) {
				continue
			}
			c := int(target[i])
			if c == 0 || c == 1 {
				groups[c] = append(groups[c], v)
			}
		}
		f, p := anovaF(groups[0], groups[1])
		all = append(all, scored{name: name, f: f, p: p})
	}

	ranked := append([]scored(nil), all...)
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].f == ranked[j].f {
			return ranked[i].name < ranked[j].name
		}
		return ranked[i].f > ranked[j].f
	})
	if k > len(ranked) {
		k = len(ranked)
	}
	selected := map[string]bool{}
	for _, s := range ranked[:k] {
		if !math.IsNaN(s.f) {
			selected[s.name] = true
		}
	}

	scores := map[string]any{}
	for _, s := range all {
		f, p := s.f, s.p
		if math.IsNaN(f) {
			f, p = 0, 1
		}
		scores[s.name] = map[string]any{
			"score":    f,
			"p_value":  p,
			"selected": selected[s.name],
		}
	}
	e.importance["anova"] = scores
	return e
}

// anovaF computes the one-way F statistic and p-value for two groups.
func anovaF(a, b []float64) (f, p float64) {
	na, nb := len(a), len(b)
	if na < 2 || nb < 2 {
		return math.NaN(), math.NaN()
	}
	meanA := stat.Mean(a, nil)
	meanB := stat.Mean(b, nil)
	n := float64(na + nb)
	grand := (float64(na)*meanA + float64(nb)*meanB) / n

	ssb := float64(na)*(meanA-grand)*(meanA-grand) + float64(nb)*(meanB-grand)*(meanB-grand)
	ssw := 0.0
	for _, v := range a {
		ssw += (v - meanA) * (v - meanA)
	}
	for _, v := range b {
		ssw += (v - meanB) * (v - meanB)
	}
	dfb, dfw := 1.0, n-2
	if ssw == 0 {
		return math.Inf(1), 0
	}
	f = (ssb / dfb) / (ssw / dfw)
	dist := distuv.F{D1: dfb, D2: dfw}
	p = 1 - dist.CDF(f)
	return f, p
}

// SelectRandomForest trains a seeded random forest on the complete rows and
// records the top-ranked importances under the random_forest sub-key, keeping
// topN entries with importance and rank each.
func (e *Engineer) SelectRandomForest(topN int) *Engineer {
	if e.err != nil {
		return e
	}
	X, y := e.frame.FeatureMatrix()
	rf := model.NewRandomForest(e.seed)
	if err := rf.Fit(X, y); err != nil {
		e.err = fmt.Errorf("features: random forest: %w", err)
		return e
	}
	names := e.frame.FeatureNames()
	importances := rf.Importances()

	type ranked struct {
		name       string
		importance float64
	}
	all := make([]ranked, len(names))
	for i, name := range names {
		all[i] = ranked{name: name, importance: importances[i]}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].importance == all[j].importance {
			return all[i].name < all[j].name
		}
		return all[i].importance > all[j].importance
	})
	if topN > 0 && topN < len(all) {
		all = all[:topN]
	}

	e.rankedNames = e.rankedNames[:0]
	out := map[string]any{}
	for rank, r := range all {
		e.rankedNames = append(e.rankedNames, r.name)
		out[r.name] = map[string]any{
			"importance": r.importance,
			"rank":       rank + 1,
		}
	}
	e.importance["random_forest"] = out
	return e
}
