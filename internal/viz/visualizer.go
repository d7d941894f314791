// Package viz renders the analysis charts to in-memory PNGs.
package viz

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/KaramelBytes/oncoreport-cli/internal/dataset"
)

// Visualizer accumulates named charts, each a base64-encoded PNG. Methods
// return the receiver for chaining and latch the first error.
type Visualizer struct {
	frame  *dataset.Frame
	charts map[string]string
	order  []string
	err    error
}

// New returns a Visualizer over the frame.
func New(f *dataset.Frame) *Visualizer {
	return &Visualizer{frame: f, charts: make(map[string]string)}
}

// Err returns the first error hit by any chart.
func (v *Visualizer) Err() error { return v.err }

// Charts returns the accumulated charts keyed by name.
func (v *Visualizer) Charts() map[string]string { return v.charts }

// Names returns chart names in insertion order.
func (v *Visualizer) Names() []string {
	out := make([]string, len(v.order))
	copy(out, v.order)
	return out
}

func (v *Visualizer) add(name string, p *plot.Plot, w, h vg.Length) {
	enc, err := encodePNG(p, w, h)
	if err != nil {
		v.err = fmt.Errorf("viz: render %s: %w", name, err)
		return
	}
	if _, ok := v.charts[name]; !ok {
		v.order = append(v.order, name)
	}
	v.charts[name] = enc
}

func encodePNG(p *plot.Plot, w, h vg.Length) (string, error) {
	wt, err := p.WriterTo(w, h, "png")
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// corrGrid adapts a square correlation matrix for the heat map plotter.
type corrGrid struct {
	n int
	z [][]float64
}

func (g corrGrid) Dims() (c, r int)   { return g.n, g.n }
func (g corrGrid) Z(c, r int) float64 { return g.z[r][c] }
func (g corrGrid) X(c int) float64    { return float64(c) }
func (g corrGrid) Y(r int) float64    { return float64(r) }

// CorrelationHeatmap draws the full correlation matrix as a heat map and
// stores it under "correlation_heatmap". names gives row/column order; matrix
// is keyed by column name both ways. Missing entries render as zero.
func (v *Visualizer) CorrelationHeatmap(names []string, matrix map[string]map[string]float64) *Visualizer {
	if v.err != nil {
		return v
	}
	if len(names) == 0 {
		v.err = fmt.Errorf("viz: correlation heatmap: no columns")
		return v
	}
	z := make([][]float64, len(names))
	for i, a := range names {
		z[i] = make([]float64, len(names))
		for j, b := range names {
			r := matrix[a][b]
			if math.IsNaN(r) {
				r = 0
			}
			z[i][j] = r
		}
	}

	p := plot.New()
	p.Title.Text = "Feature Correlation Matrix"
	hm := plotter.NewHeatMap(corrGrid{n: len(names), z: z}, moreland.SmoothBlueRed().Palette(255))
	hm.Min, hm.Max = -1, 1
	p.Add(hm)

	ticks := make([]plot.Tick, len(names))
	for i, name := range names {
		ticks[i] = plot.Tick{Value: float64(i), Label: name}
	}
	p.X.Tick.Marker = plot.ConstantTicks(ticks)
	p.X.Tick.Label.Rotation = math.Pi / 2
	p.X.Tick.Label.XAlign = -0.5
	p.X.Tick.Label.YAlign = -0.5
	p.Y.Tick.Marker = plot.ConstantTicks(ticks)
	p.X.Tick.Label.Font.Size = vg.Points(6)
	p.Y.Tick.Label.Font.Size = vg.Points(6)

	v.add("correlation_heatmap", p, 7*vg.Inch, 6*vg.Inch)
	return v
}

// Distributions draws a per-class histogram for each of the given features,
// stored under "distribution_<feature>". Unknown feature names are skipped.
func (v *Visualizer) Distributions(features []string) *Visualizer {
	if v.err != nil {
		return v
	}
	target := v.frame.Column(v.frame.Target)
	for _, name := range features {
		col := v.frame.Column(name)
		if col == nil {
			continue
		}
		var byClass [2]plotter.Values
		for i, val := range col {
			if math.IsNaN(val) || math.IsNaN(target[i]) {
				continue
			}
			c := int(target[i])
			if c == 0 || c == 1 {
				byClass[c] = append(byClass[c], val)
			}
		}
		if len(byClass[0])+len(byClass[1]) < 2 {
			continue
		}

		p := plot.New()
		p.Title.Text = fmt.Sprintf("Distribution of %s", name)
		p.X.Label.Text = name
		p.Y.Label.Text = "Count"

		labels := [2]string{"Benign", "Malignant"}
		fills := [2]color.NRGBA{
			{R: 0x35, G: 0x78, B: 0xc8, A: 0x90},
			{R: 0xd6, G: 0x45, B: 0x41, A: 0x90},
		}
		for c, vals := range byClass {
			if len(vals) == 0 {
				continue
			}
			h, err := plotter.NewHist(vals, 16)
			if err != nil {
				v.err = fmt.Errorf("viz: histogram %s: %w", name, err)
				return v
			}
			h.FillColor = fills[c]
			h.LineStyle.Color = color.NRGBA{A: 0xff}
			p.Add(h)
			p.Legend.Add(labels[c], h)
		}
		p.Legend.Top = true

		v.add("distribution_"+name, p, 6*vg.Inch, 4*vg.Inch)
		if v.err != nil {
			return v
		}
	}
	return v
}

// metricBars is the per-model metric order shown on the comparison chart.
var metricBars = []string{"accuracy", "precision", "recall", "f1_score"}

// ModelComparison draws a grouped bar chart of the core metrics across the
// given models and stores it under "model_comparison". metrics maps model
// name to its metric map; a missing or non-numeric metric plots as zero.
func (v *Visualizer) ModelComparison(modelNames []string, metrics map[string]map[string]any) *Visualizer {
	if v.err != nil {
		return v
	}
	if len(modelNames) == 0 {
		v.err = fmt.Errorf("viz: model comparison: no models")
		return v
	}

	p := plot.New()
	p.Title.Text = "Model Performance Comparison"
	p.Y.Label.Text = "Score"
	p.Y.Min, p.Y.Max = 0, 1.05

	w := vg.Points(12)
	for mi, metric := range metricBars {
		vals := make(plotter.Values, len(modelNames))
		for i, name := range modelNames {
			if f, ok := metrics[name][metric].(float64); ok && !math.IsNaN(f) {
				vals[i] = f
			}
		}
		bars, err := plotter.NewBarChart(vals, w)
		if err != nil {
			v.err = fmt.Errorf("viz: model comparison: %w", err)
			return v
		}
		bars.LineStyle.Width = 0
		bars.Color = plotutil.Color(mi)
		bars.Offset = vg.Length(float64(mi)-float64(len(metricBars)-1)/2) * w
		p.Add(bars)
		p.Legend.Add(metric, bars)
	}
	p.Legend.Top = true
	p.NominalX(modelNames...)
	p.X.Tick.Label.Rotation = math.Pi / 6
	p.X.Tick.Label.XAlign = -0.5

	v.add("model_comparison", p, 7*vg.Inch, 4*vg.Inch)
	return v
}
