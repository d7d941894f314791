package dataset

import (
	"fmt"
	"math"
)

// Frame is a column-major table of float64 values. Missing cells are NaN.
// Exactly one column is the binary target; every other column is a feature.
//
// Stages hand the Frame along by pointer and may mutate it in place (imputation
// and scaling do); the pipeline owns the single Frame for a run.
type Frame struct {
	Names  []string
	Cols   [][]float64
	Target string
}

// NewFrame builds a Frame from parallel name/column slices.
func NewFrame(names []string, cols [][]float64, target string) (*Frame, error) {
	if len(names) != len(cols) {
		return nil, fmt.Errorf("frame: %d names but %d columns", len(names), len(cols))
	}
	n := -1
	for i, c := range cols {
		if n == -1 {
			n = len(c)
		} else if len(c) != n {
			return nil, fmt.Errorf("frame: column %s has %d rows, expected %d", names[i], len(c), n)
		}
	}
	return &Frame{Names: names, Cols: cols, Target: target}, nil
}

// Rows returns the row count.
func (f *Frame) Rows() int {
	if len(f.Cols) == 0 {
		return 0
	}
	return len(f.Cols[0])
}

// FeatureNames returns all column names except the target, in column order.
func (f *Frame) FeatureNames() []string {
	out := make([]string, 0, len(f.Names))
	for _, n := range f.Names {
		if n != f.Target {
			out = append(out, n)
		}
	}
	return out
}

// Column returns the column values for name, or nil if absent. The returned
// slice aliases frame storage.
func (f *Frame) Column(name string) []float64 {
	for i, n := range f.Names {
		if n == name {
			return f.Cols[i]
		}
	}
	return nil
}

// SetColumn replaces the values of an existing column.
func (f *Frame) SetColumn(name string, vals []float64) error {
	for i, n := range f.Names {
		if n == name {
			if len(vals) != f.Rows() {
				return fmt.Errorf("frame: column %s: %d values for %d rows", name, len(vals), f.Rows())
			}
			f.Cols[i] = vals
			return nil
		}
	}
	return fmt.Errorf("frame: no column %s", name)
}

// FeatureMatrix returns a row-major copy of the feature columns, plus the
// integer target for each row. Rows whose target is missing are dropped.
func (f *Frame) FeatureMatrix() (X [][]float64, y []int) {
	features := f.FeatureNames()
	cols := make([][]float64, len(features))
	for i, name := range features {
		cols[i] = f.Column(name)
	}
	target := f.Column(f.Target)
	for r := 0; r < f.Rows(); r++ {
		if target == nil || math.IsNaN(target[r]) {
			continue
		}
		row := make([]float64, len(cols))
		for c := range cols {
			row[c] = cols[c][r]
		}
		X = append(X, row)
		y = append(y, int(target[r]))
	}
	return X, y
}

// Clone deep-copies the frame.
func (f *Frame) Clone() *Frame {
	names := make([]string, len(f.Names))
	copy(names, f.Names)
	cols := make([][]float64, len(f.Cols))
	for i, c := range f.Cols {
		cols[i] = make([]float64, len(c))
		copy(cols[i], c)
	}
	return &Frame{Names: names, Cols: cols, Target: f.Target}
}

// dropNaN returns the non-missing values of a column.
func dropNaN(vals []float64) []float64 {
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// NonMissing returns the non-missing values of the named column.
func (f *Frame) NonMissing(name string) []float64 {
	c := f.Column(name)
	if c == nil {
		return nil
	}
	return dropNaN(c)
}
