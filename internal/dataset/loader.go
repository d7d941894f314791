package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// SchemaError indicates a required column is absent from the input. It aborts
// the run before any stage executes.
type SchemaError struct {
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("dataset: required column %q not found", e.Column)
}

// UnmappableValueError indicates a non-null label value has no entry in the
// label mapping. Fatal at load time; no partial frame is exposed.
type UnmappableValueError struct {
	Column string
	Value  string
}

func (e *UnmappableValueError) Error() string {
	return fmt.Sprintf("dataset: label value %q in column %q has no mapping", e.Value, e.Column)
}

// LoadOptions controls CSV loading and label mapping.
type LoadOptions struct {
	// LabelColumn is the categorical diagnosis column; required.
	LabelColumn string
	// LabelMapping maps label values to the binary target codomain.
	LabelMapping map[string]int
	// DropColumns are removed after loading (identifier columns, trailing
	// artifacts like "Unnamed: 32").
	DropColumns []string
	// TargetColumn names the derived numeric column; defaults to "target".
	TargetColumn string
}

// Info summarizes the loaded dataset; derived once after loading and immutable
// afterward.
type Info struct {
	SampleCount         int
	FeatureCount        int
	BenignCount         int
	MalignantCount      int
	BenignPercentage    float64
	MalignantPercentage float64
	FeatureNames        []string
	TargetColumn        string
}

// Map returns the bundle representation of the info.
func (i Info) Map() map[string]any {
	features := make([]any, len(i.FeatureNames))
	for j, n := range i.FeatureNames {
		features[j] = n
	}
	return map[string]any{
		"shape":                fmt.Sprintf("(%d, %d)", i.SampleCount, i.FeatureCount+1),
		"sample_count":         i.SampleCount,
		"feature_count":        i.FeatureCount,
		"benign_count":         i.BenignCount,
		"malignant_count":      i.MalignantCount,
		"benign_percentage":    i.BenignPercentage,
		"malignant_percentage": i.MalignantPercentage,
		"feature_names":        features,
		"target_column":        i.TargetColumn,
	}
}

// Load reads a CSV with a header row, validates the label column, maps labels
// to the binary target, and drops the label and excluded columns.
//
// Null (empty) label cells are passed through as a missing target rather than
// failing the load; downstream modeling drops those rows before the split.
// Whether unlabeled rows should instead abort the load is an open product
// question; this follows the observed behavior.
func Load(path string, opt LoadOptions) (*Frame, Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Info{}, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	frame, info, err := Read(f, opt)
	if err != nil {
		return nil, Info{}, err
	}
	return frame, info, nil
}

// Read is Load over an arbitrary reader.
func Read(src io.Reader, opt LoadOptions) (*Frame, Info, error) {
	if opt.TargetColumn == "" {
		opt.TargetColumn = "target"
	}
	r := csv.NewReader(src)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, Info{}, &SchemaError{Column: opt.LabelColumn}
		}
		return nil, Info{}, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	labelIdx := -1
	for i, h := range header {
		if h == opt.LabelColumn {
			labelIdx = i
		}
	}
	if labelIdx == -1 {
		return nil, Info{}, &SchemaError{Column: opt.LabelColumn}
	}

	drop := make(map[int]bool)
	for _, name := range opt.DropColumns {
		for i, h := range header {
			if h == name {
				drop[i] = true
			}
		}
	}
	drop[labelIdx] = true

	var names []string
	var srcIdx []int
	for i, h := range header {
		if !drop[i] {
			names = append(names, h)
			srcIdx = append(srcIdx, i)
		}
	}

	cols := make([][]float64, len(names))
	var target []float64
	row := 0
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, Info{}, fmt.Errorf("read row %d: %w", row+2, err)
		}
		row++
		cell := func(i int) string {
			if i < len(rec) {
				return strings.TrimSpace(rec[i])
			}
			return ""
		}

		label := cell(labelIdx)
		if label == "" {
			target = append(target, math.NaN())
		} else {
			code, ok := opt.LabelMapping[label]
			if !ok {
				return nil, Info{}, &UnmappableValueError{Column: opt.LabelColumn, Value: label}
			}
			target = append(target, float64(code))
		}

		for c, i := range srcIdx {
			v := cell(i)
			if v == "" {
				cols[c] = append(cols[c], math.NaN())
				continue
			}
			x, err := strconv.ParseFloat(v, 64)
			if err != nil {
				cols[c] = append(cols[c], math.NaN())
				continue
			}
			cols[c] = append(cols[c], x)
		}
	}
	if row == 0 {
		for c := range cols {
			cols[c] = []float64{}
		}
	}

	names = append(names, opt.TargetColumn)
	cols = append(cols, target)
	frame, err := NewFrame(names, cols, opt.TargetColumn)
	if err != nil {
		return nil, Info{}, err
	}
	return frame, describe(frame), nil
}

// describe derives per-class counts and percentages from the final target
// column. Missing targets count toward the total but neither class.
func describe(f *Frame) Info {
	target := f.Column(f.Target)
	total := f.Rows()
	var benign, malignant int
	for _, v := range target {
		switch {
		case math.IsNaN(v):
		case v == 0:
			benign++
		case v == 1:
			malignant++
		}
	}
	info := Info{
		SampleCount:  total,
		FeatureCount: len(f.Names) - 1,
		BenignCount:  benign, MalignantCount: malignant,
		FeatureNames: f.FeatureNames(),
		TargetColumn: f.Target,
	}
	if total > 0 {
		info.BenignPercentage = float64(benign) / float64(total) * 100
		info.MalignantPercentage = float64(malignant) / float64(total) * 100
	}
	return info
}
