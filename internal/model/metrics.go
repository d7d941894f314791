package model

import "sort"

// Accuracy returns the fraction of correct predictions.
func Accuracy(yTrue, yPred []int) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	correct := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(yTrue))
}

// ConfusionMatrix returns the 2x2 matrix m[actual][predicted].
func ConfusionMatrix(yTrue, yPred []int) [][]int {
	m := [][]int{{0, 0}, {0, 0}}
	for i := range yTrue {
		a, p := yTrue[i], yPred[i]
		if a < 0 || a > 1 || p < 0 || p > 1 {
			continue
		}
		m[a][p]++
	}
	return m
}

// PrecisionRecallF1Weighted returns support-weighted precision, recall, and F1
// across both classes, matching a weighted average over per-class scores. A
// class with no predicted positives contributes zero precision.
func PrecisionRecallF1Weighted(yTrue, yPred []int) (precision, recall, f1 float64) {
	if len(yTrue) == 0 {
		return 0, 0, 0
	}
	for class := 0; class <= 1; class++ {
		var tp, fp, fn, support int
		for i := range yTrue {
			actual := yTrue[i] == class
			predicted := yPred[i] == class
			if actual {
				support++
			}
			switch {
			case actual && predicted:
				tp++
			case !actual && predicted:
				fp++
			case actual && !predicted:
				fn++
			}
		}
		var p, r, f float64
		if tp+fp > 0 {
			p = float64(tp) / float64(tp+fp)
		}
		if tp+fn > 0 {
			r = float64(tp) / float64(tp+fn)
		}
		if p+r > 0 {
			f = 2 * p * r / (p + r)
		}
		w := float64(support) / float64(len(yTrue))
		precision += w * p
		recall += w * r
		f1 += w * f
	}
	return precision, recall, f1
}

// ROCAUC computes the area under the ROC curve from class-1 scores using the
// rank (Mann-Whitney) identity, with average ranks for tied scores. Returns
// 0.5 when either class is empty.
func ROCAUC(yTrue []int, scores []float64) float64 {
	n := len(yTrue)
	if n == 0 || n != len(scores) {
		return 0.5
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return scores[idx[a]] < scores[idx[b]] })

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j < n && scores[idx[j]] == scores[idx[i]] {
			j++
		}
		// average rank for the tie group, 1-based
		avg := float64(i+j+1) / 2.0
		for k := i; k < j; k++ {
			ranks[idx[k]] = avg
		}
		i = j
	}

	var pos, neg int
	var rankSum float64
	for i, y := range yTrue {
		if y == 1 {
			pos++
			rankSum += ranks[i]
		} else {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		return 0.5
	}
	u := rankSum - float64(pos)*float64(pos+1)/2.0
	return u / (float64(pos) * float64(neg))
}
