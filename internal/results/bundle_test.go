package results

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetResolvesNestedPaths(t *testing.T) {
	b := New()
	b.Set("modeling", map[string]any{
		"random_forest": map[string]any{
			"accuracy": 0.95,
		},
	})

	assert.Equal(t, 0.95, b.Get("modeling.random_forest.accuracy", nil))
	assert.Equal(t, "fallback", b.Get("modeling.random_forest.missing", "fallback"))
	assert.Equal(t, "fallback", b.Get("nope.at.all", "fallback"))
	// Intermediate value is a scalar, not a map: default, no panic.
	assert.Equal(t, "fallback", b.Get("modeling.random_forest.accuracy.deeper", "fallback"))
}

func TestTypedGetters(t *testing.T) {
	b := New()
	b.Set("data_info", map[string]any{
		"sample_count": 569,
		"ratio":        0.37,
		"name":         "breast_cancer",
		"features":     []any{"radius_mean", "texture_mean"},
	})

	assert.Equal(t, 569.0, b.GetFloat("data_info.sample_count", 0))
	assert.Equal(t, 0.37, b.GetFloat("data_info.ratio", 0))
	assert.Equal(t, 0.0, b.GetFloat("data_info.name", 0))
	assert.Equal(t, "breast_cancer", b.GetString("data_info.name", ""))
	assert.Len(t, b.GetList("data_info.features", nil), 2)
	assert.Nil(t, b.GetMap("data_info.features", nil))
}

func TestRunStageRecordsErrorAndContinues(t *testing.T) {
	b := New()
	require.NoError(t, b.RunStage("cleaning", func() (any, error) {
		return map[string]any{"missing_values": map[string]any{}}, nil
	}))
	require.Error(t, b.RunStage("feature_importance", func() (any, error) {
		return nil, errors.New("singular matrix")
	}))
	require.NoError(t, b.RunStage("modeling", func() (any, error) {
		return map[string]any{"logistic_regression": map[string]any{"accuracy": 0.9}}, nil
	}))

	assert.True(t, b.Failed("feature_importance"))
	assert.Equal(t, "singular matrix", b.GetString("feature_importance.error", ""))
	assert.False(t, b.Failed("cleaning"))
	assert.Equal(t, 0.9, b.GetFloat("modeling.logistic_regression.accuracy", 0))
	assert.Equal(t, []string{"cleaning", "feature_importance", "modeling"}, b.Keys())
}

func TestRunStageRecoversPanic(t *testing.T) {
	b := New()
	err := b.RunStage("eda", func() (any, error) {
		panic("index out of range")
	})
	require.Error(t, err)
	assert.True(t, b.Failed("eda"))
	assert.Contains(t, b.GetString("eda.error", ""), "index out of range")
}

func TestSetOverwritesButNeverRemoves(t *testing.T) {
	b := New()
	b.Set("eda", map[string]any{"partial": true})
	b.Set("eda", ErrorMarker(errors.New("boom")))
	assert.True(t, b.Failed("eda"))
	assert.Equal(t, []string{"eda"}, b.Keys())
}

func TestSanitizedIsJSONSafe(t *testing.T) {
	b := New()
	b.Set("eda", map[string]any{
		"nan":      math.NaN(),
		"inf":      math.Inf(1),
		"scores":   []float64{1.5, math.NaN()},
		"counts":   map[string]int{"radius_mean": 3},
		"shape":    []int{569, 31},
		"verbatim": "ok",
	})

	s := b.Sanitized()
	raw, err := json.Marshal(s)
	require.NoError(t, err)

	var back map[string]any
	require.NoError(t, json.Unmarshal(raw, &back))
	eda := back["eda"].(map[string]any)
	assert.Nil(t, eda["nan"])
	assert.Nil(t, eda["inf"])
	assert.Equal(t, []any{1.5, nil}, eda["scores"])
	assert.Equal(t, 3.0, eda["counts"].(map[string]any)["radius_mean"])
	assert.Equal(t, []any{569.0, 31.0}, eda["shape"])
	assert.Equal(t, "ok", eda["verbatim"])
}

func TestSanitizedRoundTripPreservesNumbers(t *testing.T) {
	b := New()
	b.Set("modeling", map[string]any{
		"svm": map[string]any{"accuracy": 0.9736842105263158},
	})
	raw, err := json.Marshal(b.Sanitized())
	require.NoError(t, err)
	var back map[string]any
	require.NoError(t, json.Unmarshal(raw, &back))
	got := back["modeling"].(map[string]any)["svm"].(map[string]any)["accuracy"].(float64)
	assert.Equal(t, 0.9736842105263158, got)
}
