package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccuracy(t *testing.T) {
	assert.Equal(t, 0.75, Accuracy([]int{1, 0, 1, 1}, []int{1, 0, 0, 1}))
	assert.Equal(t, 0.0, Accuracy(nil, nil))
}

func TestConfusionMatrix(t *testing.T) {
	m := ConfusionMatrix([]int{0, 0, 1, 1, 1}, []int{0, 1, 1, 1, 0})
	assert.Equal(t, [][]int{{1, 1}, {1, 2}}, m)
}

func TestPrecisionRecallF1WeightedPerfect(t *testing.T) {
	p, r, f := PrecisionRecallF1Weighted([]int{0, 1, 0, 1}, []int{0, 1, 0, 1})
	assert.Equal(t, 1.0, p)
	assert.Equal(t, 1.0, r)
	assert.Equal(t, 1.0, f)
}

func TestPrecisionRecallF1WeightedKnown(t *testing.T) {
	// actual: 0,0,1,1  predicted: 0,1,1,1
	// class 0: tp=1 fp=0 fn=1 -> p=1, r=0.5, f=2/3, support 2
	// class 1: tp=2 fp=1 fn=0 -> p=2/3, r=1, f=0.8, support 2
	p, r, f := PrecisionRecallF1Weighted([]int{0, 0, 1, 1}, []int{0, 1, 1, 1})
	assert.InDelta(t, 0.5*1+0.5*(2.0/3.0), p, 1e-12)
	assert.InDelta(t, 0.5*0.5+0.5*1, r, 1e-12)
	assert.InDelta(t, 0.5*(2.0/3.0)+0.5*0.8, f, 1e-12)
}

func TestROCAUCPerfectSeparation(t *testing.T) {
	y := []int{0, 0, 1, 1}
	scores := []float64{0.1, 0.2, 0.8, 0.9}
	assert.Equal(t, 1.0, ROCAUC(y, scores))
}

func TestROCAUCReversedIsZero(t *testing.T) {
	y := []int{0, 0, 1, 1}
	scores := []float64{0.9, 0.8, 0.2, 0.1}
	assert.Equal(t, 0.0, ROCAUC(y, scores))
}

func TestROCAUCAllTiedIsHalf(t *testing.T) {
	y := []int{0, 1, 0, 1}
	scores := []float64{0.5, 0.5, 0.5, 0.5}
	assert.Equal(t, 0.5, ROCAUC(y, scores))
}

func TestROCAUCSingleClassIsHalf(t *testing.T) {
	assert.Equal(t, 0.5, ROCAUC([]int{1, 1}, []float64{0.2, 0.9}))
}
