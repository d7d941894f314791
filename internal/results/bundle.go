package results

import (
	"fmt"
	"math"
	"reflect"
	"strings"
)

// Bundle accumulates stage results for a single analysis run. Keys are stage
// names (data_info, cleaning, eda, feature_importance, modeling, insights,
// recommendations); values are JSON-shaped data: nil, bool, string, int,
// float64, []any, or map[string]any, nested arbitrarily.
//
// A Bundle is owned by one pipeline run and is not safe for concurrent use.
type Bundle struct {
	stages map[string]any
	order  []string
}

// New returns an empty Bundle.
func New() *Bundle {
	return &Bundle{stages: make(map[string]any)}
}

// Set stores a value under a stage key, overwriting any prior value. Once a
// key is set it is never removed; a failed stage overwrites it with an error
// marker rather than deleting it.
func (b *Bundle) Set(key string, v any) {
	if _, ok := b.stages[key]; !ok {
		b.order = append(b.order, key)
	}
	b.stages[key] = v
}

// Get resolves a dotted path ("modeling.cross_validation.random_forest")
// through nested maps. It returns def the moment any segment is absent or the
// current value is not a map. It never fails for a missing path.
func (b *Bundle) Get(path string, def any) any {
	var cur any = b.stages
	for _, seg := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return def
		}
		cur, ok = m[seg]
		if !ok {
			return def
		}
	}
	return cur
}

// GetMap is Get constrained to map values; any other shape yields def.
func (b *Bundle) GetMap(path string, def map[string]any) map[string]any {
	if m, ok := b.Get(path, nil).(map[string]any); ok {
		return m
	}
	return def
}

// GetList is Get constrained to list values; any other shape yields def.
func (b *Bundle) GetList(path string, def []any) []any {
	if l, ok := b.Get(path, nil).([]any); ok {
		return l
	}
	return def
}

// GetFloat is Get constrained to numeric values; any other shape yields def.
func (b *Bundle) GetFloat(path string, def float64) float64 {
	switch v := b.Get(path, nil).(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return def
}

// GetString is Get constrained to string values; any other shape yields def.
func (b *Bundle) GetString(path string, def string) string {
	if s, ok := b.Get(path, nil).(string); ok {
		return s
	}
	return def
}

// Keys returns the stage keys in insertion order.
func (b *Bundle) Keys() []string {
	out := make([]string, len(b.order))
	copy(out, b.order)
	return out
}

// ErrorMarker is the uniform shape recorded for a failed stage.
func ErrorMarker(err error) map[string]any {
	return map[string]any{"error": err.Error()}
}

// Failed reports whether the stage recorded an error marker.
func (b *Bundle) Failed(key string) bool {
	_, ok := b.Get(key+".error", nil).(string)
	return ok
}

// RunStage invokes fn and stores its payload under key. Any error (or panic)
// is converted to an error marker under the same key instead of propagating,
// so every stage key is present after the run and later stages still execute.
// Atomicity is the adapter's concern: fn may have recorded partial sub-keys
// through earlier RunStage calls before failing.
func (b *Bundle) RunStage(key string, fn func() (any, error)) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("stage %s panicked: %v", key, r)
			b.Set(key, ErrorMarker(err))
		}
	}()
	payload, err := fn()
	if err != nil {
		b.Set(key, ErrorMarker(err))
		return err
	}
	b.Set(key, payload)
	return nil
}

// Sanitized returns a deep copy of the bundle contents with every value
// reduced to JSON-safe primitives: NaN and infinities become nil, integer
// kinds become int, other numeric kinds become float64, and typed slices and
// maps become []any and map[string]any.
func (b *Bundle) Sanitized() map[string]any {
	out := make(map[string]any, len(b.stages))
	for k, v := range b.stages {
		out[k] = sanitize(v)
	}
	return out
}

func sanitize(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case bool, string, int:
		return t
	case int64:
		return int(t)
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return nil
		}
		return t
	case float32:
		return sanitize(float64(t))
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = sanitize(e)
		}
		return m
	case []any:
		l := make([]any, len(t))
		for i, e := range t {
			l[i] = sanitize(e)
		}
		return l
	}
	// Typed slices and maps produced by adapters ([]float64, map[string]int, ...).
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		l := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			l[i] = sanitize(rv.Index(i).Interface())
		}
		return l
	case reflect.Map:
		m := make(map[string]any, rv.Len())
		for _, k := range rv.MapKeys() {
			m[fmt.Sprint(k.Interface())] = sanitize(rv.MapIndex(k).Interface())
		}
		return m
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return sanitize(rv.Float())
	}
	return fmt.Sprint(v)
}
