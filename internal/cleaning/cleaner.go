// Package cleaning implements the data-quality stage: missing-value detection
// and imputation, and IQR outlier detection.
package cleaning

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/oncoreport-cli/internal/dataset"
)

// Cleaner mutates the frame in place and accumulates a cleaning report.
// Methods return the receiver for chaining and latch the first error.
type Cleaner struct {
	frame  *dataset.Frame
	report map[string]any
	err    error
}

// New returns a Cleaner over the frame.
func New(f *dataset.Frame) *Cleaner {
	return &Cleaner{frame: f, report: make(map[string]any)}
}

// Err returns the first error hit by any sub-step.
func (c *Cleaner) Err() error { return c.err }

// Report returns the accumulated cleaning report.
func (c *Cleaner) Report() map[string]any { return c.report }

// DetectMissing records per-column missing counts and percentages for columns
// that have any. An empty map means no missing values.
func (c *Cleaner) DetectMissing() *Cleaner {
	if c.err != nil {
		return c
	}
	counts := map[string]any{}
	percentages := map[string]any{}
	total := c.frame.Rows()
	for _, name := range c.frame.Names {
		missing := 0
		for _, v := range c.frame.Column(name) {
			if math.IsNaN(v) {
				missing++
			}
		}
		if missing > 0 {
			counts[name] = missing
			percentages[name] = float64(missing) / float64(total) * 100
		}
	}
	c.report["missing_values"] = map[string]any{
		"counts":      counts,
		"percentages": percentages,
	}
	return c
}

// Impute fills missing feature cells with the column median or mean. The
// target column is never imputed. strategy is "median" or "mean".
func (c *Cleaner) Impute(strategy string) *Cleaner {
	if c.err != nil {
		return c
	}
	var affected []any
	for _, name := range c.frame.FeatureNames() {
		col := c.frame.Column(name)
		present := c.frame.NonMissing(name)
		if len(present) == len(col) || len(present) == 0 {
			continue
		}
		var fill float64
		switch strategy {
		case "median":
			sorted := append([]float64(nil), present...)
			sort.Float64s(sorted)
			fill = stat.Quantile(0.5, stat.Empirical, sorted, nil)
		case "mean":
			fill = stat.Mean(present, nil)
		default:
			c.err = fmt.Errorf("cleaning: unknown imputation strategy %q", strategy)
			return c
		}
		for i, v := range col {
			if math.IsNaN(v) {
				col[i] = fill
			}
		}
		affected = append(affected, name)
	}
	c.report["missing_treatment"] = map[string]any{
		"strategy":         strategy,
		"columns_affected": affected,
	}
	return c
}

// DetectOutliersIQR flags values outside [Q1 - 1.5*IQR, Q3 + 1.5*IQR] per
// feature column and records count, percentage, and row indices for columns
// that have any.
func (c *Cleaner) DetectOutliersIQR() *Cleaner {
	if c.err != nil {
		return c
	}
	outliers := map[string]any{}
	total := c.frame.Rows()
	for _, name := range c.frame.FeatureNames() {
		present := c.frame.NonMissing(name)
		if len(present) < 4 {
			continue
		}
		sorted := append([]float64(nil), present...)
		sort.Float64s(sorted)
		q1 := stat.Quantile(0.25, stat.Empirical, sorted, nil)
		q3 := stat.Quantile(0.75, stat.Empirical, sorted, nil)
		iqr := q3 - q1
		lo, hi := q1-1.5*iqr, q3+1.5*iqr

		var indices []any
		for i, v := range c.frame.Column(name) {
			if math.IsNaN(v) {
				continue
			}
			if v < lo || v > hi {
				indices = append(indices, i)
			}
		}
		if len(indices) > 0 {
			outliers[name] = map[string]any{
				"count":      len(indices),
				"percentage": float64(len(indices)) / float64(total) * 100,
				"indices":    indices,
			}
		}
	}
	c.report["outliers"] = outliers
	return c
}
