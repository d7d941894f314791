package cleaning

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/oncoreport-cli/internal/dataset"
)

func frameWith(t *testing.T, names []string, cols [][]float64) *dataset.Frame {
	t.Helper()
	f, err := dataset.NewFrame(names, cols, "target")
	require.NoError(t, err)
	return f
}

func TestDetectMissingCountsAndPercentages(t *testing.T) {
	f := frameWith(t,
		[]string{"a", "b", "target"},
		[][]float64{
			{1, math.NaN(), 3, math.NaN()},
			{1, 2, 3, 4},
			{0, 1, 0, 1},
		})
	rep := New(f).DetectMissing().Report()
	mv := rep["missing_values"].(map[string]any)
	counts := mv["counts"].(map[string]any)
	percentages := mv["percentages"].(map[string]any)

	assert.Equal(t, 2, counts["a"])
	assert.InDelta(t, 50.0, percentages["a"].(float64), 1e-9)
	assert.NotContains(t, counts, "b")
}

func TestDetectMissingEmptyWhenClean(t *testing.T) {
	f := frameWith(t,
		[]string{"a", "target"},
		[][]float64{{1, 2}, {0, 1}})
	rep := New(f).DetectMissing().Report()
	counts := rep["missing_values"].(map[string]any)["counts"].(map[string]any)
	assert.Empty(t, counts)
}

func TestImputeMedianFillsMissing(t *testing.T) {
	f := frameWith(t,
		[]string{"a", "target"},
		[][]float64{
			{1, 2, math.NaN(), 10},
			{0, 1, 0, 1},
		})
	c := New(f).Impute("median")
	require.NoError(t, c.Err())

	col := f.Column("a")
	assert.Equal(t, 2.0, col[2]) // median of {1, 2, 10}
	treatment := c.Report()["missing_treatment"].(map[string]any)
	assert.Equal(t, "median", treatment["strategy"])
	assert.Equal(t, []any{"a"}, treatment["columns_affected"])
}

func TestImputeMeanFillsMissing(t *testing.T) {
	f := frameWith(t,
		[]string{"a", "target"},
		[][]float64{
			{1, 3, math.NaN()},
			{0, 1, 0},
		})
	c := New(f).Impute("mean")
	require.NoError(t, c.Err())
	assert.Equal(t, 2.0, f.Column("a")[2])
}

func TestImputeNeverTouchesTarget(t *testing.T) {
	f := frameWith(t,
		[]string{"a", "target"},
		[][]float64{
			{1, 2, 3},
			{0, math.NaN(), 1},
		})
	c := New(f).Impute("median")
	require.NoError(t, c.Err())
	assert.True(t, math.IsNaN(f.Column("target")[1]))
}

func TestImputeUnknownStrategyLatchesError(t *testing.T) {
	f := frameWith(t,
		[]string{"a", "target"},
		[][]float64{{1, math.NaN()}, {0, 1}})
	c := New(f).Impute("mode").DetectOutliersIQR()
	require.Error(t, c.Err())
	assert.NotContains(t, c.Report(), "outliers")
}

func TestDetectOutliersIQRFlagsExtreme(t *testing.T) {
	vals := []float64{10, 10.5, 9.8, 10.2, 9.9, 10.1, 10.3, 9.7, 100}
	target := make([]float64, len(vals))
	f := frameWith(t, []string{"a", "target"}, [][]float64{vals, target})
	rep := New(f).DetectOutliersIQR().Report()
	outliers := rep["outliers"].(map[string]any)
	require.Contains(t, outliers, "a")
	entry := outliers["a"].(map[string]any)
	assert.Equal(t, 1, entry["count"])
	assert.Equal(t, []any{8}, entry["indices"])
}

func TestDetectOutliersIQREmptyOnUniformData(t *testing.T) {
	vals := []float64{1, 2, 3, 4, 5, 6}
	f := frameWith(t, []string{"a", "target"}, [][]float64{vals, make([]float64, 6)})
	rep := New(f).DetectOutliersIQR().Report()
	assert.Empty(t, rep["outliers"].(map[string]any))
}

func TestChainedFullCleaning(t *testing.T) {
	f := frameWith(t,
		[]string{"a", "b", "target"},
		[][]float64{
			{1, math.NaN(), 3, 4, 5, 6},
			{2, 2, 2, 2, 2, 50},
			{0, 1, 0, 1, 0, 1},
		})
	c := New(f).DetectMissing().Impute("median").DetectOutliersIQR()
	require.NoError(t, c.Err())
	rep := c.Report()
	assert.Contains(t, rep, "missing_values")
	assert.Contains(t, rep, "missing_treatment")
	assert.Contains(t, rep, "outliers")
	assert.False(t, math.IsNaN(f.Column("a")[1]))
}
