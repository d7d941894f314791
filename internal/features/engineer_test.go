package features

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/oncoreport-cli/internal/dataset"
)

func testFrame(t *testing.T) *dataset.Frame {
	t.Helper()
	// "signal" separates the classes cleanly, "noise" does not.
	names := []string{"signal", "noise", "target"}
	n := 40
	cols := make([][]float64, 3)
	for i := range cols {
		cols[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		cls := i % 2
		cols[2][i] = float64(cls)
		if cls == 1 {
			cols[0][i] = 10 + float64(i%5)
		} else {
			cols[0][i] = float64(i % 5)
		}
		cols[1][i] = float64(i % 7)
	}
	f, err := dataset.NewFrame(names, cols, "target")
	require.NoError(t, err)
	return f
}

func TestScaleStandard(t *testing.T) {
	f := testFrame(t)
	e := New(f, 42).Scale("standard")
	require.NoError(t, e.Err())

	for _, name := range f.FeatureNames() {
		col := f.NonMissing(name)
		mean, std := 0.0, 0.0
		for _, v := range col {
			mean += v
		}
		mean /= float64(len(col))
		for _, v := range col {
			std += (v - mean) * (v - mean)
		}
		std = math.Sqrt(std / float64(len(col)-1))
		assert.InDelta(t, 0, mean, 1e-9, "column %s mean", name)
		assert.InDelta(t, 1, std, 1e-9, "column %s std", name)
	}
}

func TestScaleMinMax(t *testing.T) {
	f := testFrame(t)
	e := New(f, 42).Scale("minmax")
	require.NoError(t, e.Err())

	for _, name := range f.FeatureNames() {
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, v := range f.NonMissing(name) {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		assert.InDelta(t, 0, lo, 1e-9)
		assert.InDelta(t, 1, hi, 1e-9)
	}
}

func TestScaleLeavesTargetAlone(t *testing.T) {
	f := testFrame(t)
	before := append([]float64(nil), f.Column("target")...)
	require.NoError(t, New(f, 42).Scale("standard").Err())
	assert.Equal(t, before, f.Column("target"))
}

func TestScaleUnknownMethod(t *testing.T) {
	e := New(testFrame(t), 42).Scale("robust")
	assert.Error(t, e.Err())
}

func TestScaleSkipsMissingValues(t *testing.T) {
	names := []string{"a", "target"}
	cols := [][]float64{
		{1, 2, math.NaN(), 3, 4},
		{0, 1, 0, 1, 0},
	}
	f, err := dataset.NewFrame(names, cols, "target")
	require.NoError(t, err)
	require.NoError(t, New(f, 42).Scale("standard").Err())
	assert.True(t, math.IsNaN(f.Column("a")[2]))
}

func TestSelectANOVA(t *testing.T) {
	f := testFrame(t)
	e := New(f, 42).SelectANOVA(1)
	require.NoError(t, e.Err())

	anova, ok := e.Importance()["anova"].(map[string]any)
	require.True(t, ok)
	require.Len(t, anova, 2)

	signal := anova["signal"].(map[string]any)
	noise := anova["noise"].(map[string]any)

	assert.True(t, signal["selected"].(bool))
	assert.False(t, noise["selected"].(bool))
	assert.Greater(t, signal["score"].(float64), noise["score"].(float64))
	assert.Less(t, signal["p_value"].(float64), 0.001)
	assert.Greater(t, noise["p_value"].(float64), 0.05)
}

func TestSelectANOVAKLargerThanFeatures(t *testing.T) {
	e := New(testFrame(t), 42).SelectANOVA(50)
	require.NoError(t, e.Err())
	anova := e.Importance()["anova"].(map[string]any)
	for name, v := range anova {
		assert.True(t, v.(map[string]any)["selected"].(bool), name)
	}
}

func TestSelectRandomForest(t *testing.T) {
	f := testFrame(t)
	e := New(f, 42).SelectRandomForest(15)
	require.NoError(t, e.Err())

	rf, ok := e.Importance()["random_forest"].(map[string]any)
	require.True(t, ok)
	require.Len(t, rf, 2)

	signal := rf["signal"].(map[string]any)
	noise := rf["noise"].(map[string]any)
	assert.Equal(t, 1, signal["rank"].(int))
	assert.Equal(t, 2, noise["rank"].(int))
	assert.Greater(t, signal["importance"].(float64), noise["importance"].(float64))

	assert.Equal(t, []string{"signal", "noise"}, e.TopFeatures())
}

func TestSelectRandomForestCapsTopN(t *testing.T) {
	names := make([]string, 6)
	cols := make([][]float64, 6)
	n := 30
	for i := 0; i < 5; i++ {
		names[i] = string(rune('a' + i))
		cols[i] = make([]float64, n)
	}
	names[5] = "target"
	cols[5] = make([]float64, n)
	for r := 0; r < n; r++ {
		cls := r % 2
		cols[5][r] = float64(cls)
		for i := 0; i < 5; i++ {
			cols[i][r] = float64((r*(i+1))%9) + float64(cls*10*(i%2))
		}
	}
	f, err := dataset.NewFrame(names, cols, "target")
	require.NoError(t, err)

	e := New(f, 7).SelectRandomForest(3)
	require.NoError(t, e.Err())
	assert.Len(t, e.Importance()["random_forest"].(map[string]any), 3)
	assert.Len(t, e.TopFeatures(), 3)
}

func TestChainStickyError(t *testing.T) {
	e := New(testFrame(t), 42).Scale("bogus").SelectANOVA(10).SelectRandomForest(15)
	assert.Error(t, e.Err())
	assert.Empty(t, e.Importance())
}
