package dataset

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultOpts() LoadOptions {
	return LoadOptions{
		LabelColumn:  "diagnosis",
		LabelMapping: map[string]int{"B": 0, "M": 1},
		DropColumns:  []string{"id", "Unnamed: 32"},
	}
}

const balancedCSV = `id,diagnosis,radius_mean,texture_mean
1,M,17.99,10.38
2,M,20.57,17.77
3,B,11.42,20.38
4,B,13.54,14.36
`

func TestLoadMapsLabelsAndDropsColumns(t *testing.T) {
	frame, info, err := Read(strings.NewReader(balancedCSV), defaultOpts())
	require.NoError(t, err)

	assert.Equal(t, []string{"radius_mean", "texture_mean", "target"}, frame.Names)
	assert.Nil(t, frame.Column("id"))
	assert.Nil(t, frame.Column("diagnosis"))
	assert.Equal(t, []float64{1, 1, 0, 0}, frame.Column("target"))

	assert.Equal(t, 4, info.SampleCount)
	assert.Equal(t, 2, info.FeatureCount)
	assert.Equal(t, 2, info.BenignCount)
	assert.Equal(t, 2, info.MalignantCount)
	assert.InDelta(t, 50.0, info.BenignPercentage, 1e-9)
	assert.InDelta(t, 50.0, info.MalignantPercentage, 1e-9)
}

func TestLoadTargetIsBinaryAndCountsSum(t *testing.T) {
	frame, info, err := Read(strings.NewReader(balancedCSV), defaultOpts())
	require.NoError(t, err)
	for _, v := range frame.Column("target") {
		assert.Contains(t, []float64{0, 1}, v)
	}
	assert.Equal(t, frame.Rows(), info.BenignCount+info.MalignantCount)
}

func TestLoadMissingLabelColumnIsSchemaError(t *testing.T) {
	csv := "id,radius_mean\n1,17.99\n"
	_, _, err := Read(strings.NewReader(csv), defaultOpts())
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "diagnosis", schemaErr.Column)
}

func TestLoadUnmappableLabelFails(t *testing.T) {
	csv := "diagnosis,radius_mean\nB,11.4\nX,12.0\n"
	_, _, err := Read(strings.NewReader(csv), defaultOpts())
	var mapErr *UnmappableValueError
	require.ErrorAs(t, err, &mapErr)
	assert.Equal(t, "X", mapErr.Value)
}

func TestLoadNullLabelPassesThroughAsMissingTarget(t *testing.T) {
	csv := "diagnosis,radius_mean\nB,11.4\n,12.0\nM,13.1\n"
	frame, info, err := Read(strings.NewReader(csv), defaultOpts())
	require.NoError(t, err)

	target := frame.Column("target")
	assert.True(t, math.IsNaN(target[1]))
	assert.Equal(t, 3, info.SampleCount)
	assert.Equal(t, 1, info.BenignCount)
	assert.Equal(t, 1, info.MalignantCount)

	X, y := frame.FeatureMatrix()
	assert.Len(t, X, 2)
	assert.Equal(t, []int{0, 1}, y)
}

func TestLoadNonNumericFeatureCellBecomesMissing(t *testing.T) {
	csv := "diagnosis,radius_mean\nB,oops\nM,13.1\n"
	frame, _, err := Read(strings.NewReader(csv), defaultOpts())
	require.NoError(t, err)
	col := frame.Column("radius_mean")
	assert.True(t, math.IsNaN(col[0]))
	assert.Equal(t, 13.1, col[1])
}

func TestInfoMapShape(t *testing.T) {
	_, info, err := Read(strings.NewReader(balancedCSV), defaultOpts())
	require.NoError(t, err)
	m := info.Map()
	assert.Equal(t, 4, m["sample_count"])
	assert.Equal(t, 50.0, m["benign_percentage"])
	assert.Equal(t, "(4, 3)", m["shape"])
	assert.Equal(t, "target", m["target_column"])
}

func TestFrameCloneIsIndependent(t *testing.T) {
	frame, _, err := Read(strings.NewReader(balancedCSV), defaultOpts())
	require.NoError(t, err)
	clone := frame.Clone()
	clone.Column("radius_mean")[0] = -1
	assert.Equal(t, 17.99, frame.Column("radius_mean")[0])
}
