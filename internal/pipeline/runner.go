// Package pipeline orchestrates the full analysis: load, clean, explore,
// engineer, model, and report. Stages after loading are isolated: a failed
// stage records an error marker in the bundle and the run continues.
package pipeline

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/KaramelBytes/oncoreport-cli/internal/cleaning"
	"github.com/KaramelBytes/oncoreport-cli/internal/config"
	"github.com/KaramelBytes/oncoreport-cli/internal/dataset"
	"github.com/KaramelBytes/oncoreport-cli/internal/eda"
	"github.com/KaramelBytes/oncoreport-cli/internal/features"
	"github.com/KaramelBytes/oncoreport-cli/internal/model"
	"github.com/KaramelBytes/oncoreport-cli/internal/report"
	"github.com/KaramelBytes/oncoreport-cli/internal/results"
	"github.com/KaramelBytes/oncoreport-cli/internal/utils"
	"github.com/KaramelBytes/oncoreport-cli/internal/viz"
)

// Artifacts describes one finished run and where its files landed.
type Artifacts struct {
	Timestamp    string   `json:"timestamp"`
	MarkdownPath string   `json:"markdown_path"`
	HTMLPath     string   `json:"html_path"`
	JSONPath     string   `json:"json_path"`
	ChartPaths   []string `json:"chart_paths"`
	Charts       []string `json:"charts"`

	Markdown string `json:"-"`
	HTML     string `json:"-"`
}

// Runner executes the analysis pipeline for one dataset.
type Runner struct {
	cfg    *config.Global
	log    *slog.Logger
	bundle *results.Bundle
	frame  *dataset.Frame

	topFeatures []string
	charts      map[string]string
	chartOrder  []string
}

// NewRunner returns a Runner for the given configuration.
func NewRunner(cfg *config.Global, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.Default()
	}
	return &Runner{
		cfg:    cfg,
		log:    log,
		bundle: results.New(),
		charts: make(map[string]string),
	}
}

// Bundle exposes the accumulated results, populated as Run progresses.
func (r *Runner) Bundle() *results.Bundle { return r.bundle }

// Run executes every stage and writes the report artifacts. Only dataset
// loading and report writing are fatal; everything in between degrades to an
// error marker in the bundle.
func (r *Runner) Run() (*Artifacts, error) {
	if err := r.loadData(); err != nil {
		return nil, err
	}
	r.cleanData()
	r.explore()
	r.engineerFeatures()
	r.visualize()
	r.buildModels()
	r.generateInsights()
	return r.writeReports()
}

func (r *Runner) loadData() error {
	frame, info, err := dataset.Load(r.cfg.DataPath, dataset.LoadOptions{
		LabelColumn:  r.cfg.LabelColumn,
		LabelMapping: r.cfg.LabelMapping,
		DropColumns:  r.cfg.DropColumns,
	})
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}
	r.frame = frame
	r.bundle.Set("data_info", info.Map())
	r.log.Info("dataset loaded",
		"path", r.cfg.DataPath,
		"samples", info.SampleCount,
		"features", info.FeatureCount)
	return nil
}

func (r *Runner) cleanData() {
	err := r.bundle.RunStage("cleaning", func() (any, error) {
		c := cleaning.New(r.frame).
			DetectMissing().
			Impute("median").
			DetectOutliersIQR()
		if err := c.Err(); err != nil {
			return nil, err
		}
		return c.Report(), nil
	})
	if err != nil {
		r.log.Warn("cleaning stage failed", "error", err)
		return
	}
	if counts := r.bundle.GetMap("cleaning.missing_values.counts", nil); len(counts) > 0 {
		r.log.Info("missing values found", "columns", len(counts))
	}
}

// explore guards each EDA step separately so that a correlation failure still
// leaves the basic statistics in place.
func (r *Runner) explore() {
	a := eda.New(r.frame)
	step := func(name string, fn func()) {
		defer func() {
			if rec := recover(); rec != nil {
				r.log.Warn("eda step failed, continuing", "step", name, "panic", rec)
			}
		}()
		fn()
	}
	step("basic_statistics", func() { a.BasicStatistics() })
	step("correlation", func() { a.CorrelationAnalysis() })
	step("distributions", func() { a.DistributionAnalysis() })

	res := a.Results()
	if _, ok := res["basic_statistics"]; !ok {
		res["basic_statistics"] = map[string]any{}
	}
	if _, ok := res["correlation"]; !ok {
		res["correlation"] = map[string]any{
			"matrix":                   map[string]any{},
			"top_features_with_target": []any{},
		}
	}
	if _, ok := res["distributions"]; !ok {
		res["distributions"] = map[string]any{}
	}
	r.bundle.Set("eda", res)

	if top := r.bundle.GetList("eda.correlation.top_features_with_target", nil); len(top) > 0 {
		if m, ok := top[0].(map[string]any); ok {
			r.log.Info("strongest diagnostic correlation",
				"feature", m["feature2"], "correlation", m["correlation"])
		}
	}
}

func (r *Runner) engineerFeatures() {
	err := r.bundle.RunStage("feature_importance", func() (any, error) {
		e := features.New(r.frame, r.cfg.RandomState).
			Scale(r.cfg.ScalingMethod).
			SelectANOVA(r.cfg.FeatureSelectionK).
			SelectRandomForest(r.cfg.TopFeaturesCount)
		if err := e.Err(); err != nil {
			return nil, err
		}
		r.topFeatures = e.TopFeatures()
		return e.Importance(), nil
	})
	if err != nil {
		r.log.Warn("feature engineering failed", "error", err)
		return
	}
	n := len(r.topFeatures)
	if n > 5 {
		n = 5
	}
	r.log.Info("feature engineering complete", "top_features", r.topFeatures[:n])
}

func (r *Runner) takeCharts(v *viz.Visualizer) {
	for _, name := range v.Names() {
		if _, ok := r.charts[name]; !ok {
			r.chartOrder = append(r.chartOrder, name)
		}
		r.charts[name] = v.Charts()[name]
	}
}

func (r *Runner) visualize() {
	v := viz.New(r.frame)

	matrix := map[string]map[string]float64{}
	for col, rowAny := range r.bundle.GetMap("eda.correlation.matrix", nil) {
		row, ok := rowAny.(map[string]any)
		if !ok {
			continue
		}
		matrix[col] = make(map[string]float64, len(row))
		for other, val := range row {
			if f, ok := val.(float64); ok {
				matrix[col][other] = f
			} else {
				matrix[col][other] = math.NaN()
			}
		}
	}
	if len(matrix) > 0 {
		v.CorrelationHeatmap(r.frame.Names, matrix)
	}

	top := r.topFeatures
	if len(top) > 3 {
		top = top[:3]
	}
	if len(top) > 0 {
		v.Distributions(top)
	}

	if err := v.Err(); err != nil {
		r.log.Warn("chart generation failed", "error", err)
	}
	r.takeCharts(v)
	r.log.Info("charts generated", "count", len(r.charts))
}

func (r *Runner) buildModels() {
	err := r.bundle.RunStage("modeling", func() (any, error) {
		X, y := r.frame.FeatureMatrix()
		b := model.NewBuilder(X, y, r.cfg.TestSize, r.cfg.RandomState).
			PrepareData().
			TrainModels().
			EvaluateModels().
			CrossValidation(r.cfg.CVFolds)
		if err := b.Err(); err != nil {
			return nil, err
		}
		return b.Results(), nil
	})
	if err != nil {
		r.log.Warn("modeling stage failed", "error", err)
		return
	}

	name, acc := r.bestModel()
	if name != "" {
		r.log.Info("modeling complete", "best_model", name, "accuracy", acc)
	}

	modeling := r.bundle.GetMap("modeling", nil)
	var names []string
	metrics := map[string]map[string]any{}
	for key, val := range modeling {
		if key == model.CrossValidationKey {
			continue
		}
		if m, ok := val.(map[string]any); ok {
			names = append(names, key)
			metrics[key] = m
		}
	}
	if len(names) > 0 {
		sortModelNames(names)
		v := viz.New(r.frame).ModelComparison(names, metrics)
		if err := v.Err(); err != nil {
			r.log.Warn("model comparison chart failed", "error", err)
		}
		r.takeCharts(v)
	}
}

func (r *Runner) bestModel() (string, float64) {
	best, bestAcc := "", 0.0
	for key, val := range r.bundle.GetMap("modeling", nil) {
		if key == model.CrossValidationKey {
			continue
		}
		m, ok := val.(map[string]any)
		if !ok {
			continue
		}
		if acc, ok := m["accuracy"].(float64); ok && acc > bestAcc {
			best, bestAcc = key, acc
		}
	}
	return best, bestAcc
}

func (r *Runner) generateInsights() {
	var insights []any

	if info := r.bundle.GetMap("data_info", nil); len(info) > 0 {
		insights = append(insights, fmt.Sprintf(
			"The dataset contains %s samples: %s benign (%.1f%%) and %s malignant (%.1f%%)",
			countString(info["sample_count"]),
			countString(info["benign_count"]),
			r.bundle.GetFloat("data_info.benign_percentage", 0),
			countString(info["malignant_count"]),
			r.bundle.GetFloat("data_info.malignant_percentage", 0)))
	}

	if len(r.topFeatures) > 0 {
		n := len(r.topFeatures)
		if n > 3 {
			n = 3
		}
		insights = append(insights, fmt.Sprintf(
			"Most important predictive features: %s", strings.Join(r.topFeatures[:n], ", ")))
	}

	if top := r.bundle.GetList("eda.correlation.top_features_with_target", nil); len(top) > 0 {
		if m, ok := top[0].(map[string]any); ok {
			name, _ := m["feature2"].(string)
			corr, _ := m["correlation"].(float64)
			insights = append(insights, fmt.Sprintf(
				"Feature most correlated with the diagnosis: %s (correlation: %.3f)", name, corr))
		}
	}

	if name, acc := r.bestModel(); name != "" {
		insights = append(insights, fmt.Sprintf(
			"Best performing model: %s (accuracy: %.3f)", name, acc))
	}

	if !r.bundle.Failed("cleaning") {
		if counts := r.bundle.GetMap("cleaning.missing_values.counts", nil); len(counts) > 0 {
			insights = append(insights, fmt.Sprintf(
				"The data contains missing values across %d features", len(counts)))
		} else {
			insights = append(insights, "Data quality is good: no missing values")
		}
	}

	r.bundle.Set("insights", insights)
	r.bundle.Set("recommendations", []any{
		"Focus on radius, perimeter, and area features first: they carry the most diagnostic signal for breast cancer",
		"Random forest and gradient boosting models usually perform well here and make good first choices",
		"Consider collecting additional clinical features such as patient age and family history to improve the models",
		"Re-validate model performance regularly, especially before applying the models to a new dataset",
		"Neural network models are worth exploring, but they need substantially more data",
	})
}

func (r *Runner) writeReports() (*Artifacts, error) {
	ts := time.Now().Format("20060102_150405")
	if err := utils.EnsureDir(r.cfg.ReportDir); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}

	rend := report.New(r.bundle)
	md := rend.Markdown()
	html, err := rend.HTML(md)
	if err != nil {
		return nil, fmt.Errorf("render html report: %w", err)
	}

	art := &Artifacts{
		Timestamp:    ts,
		Markdown:     md,
		HTML:         html,
		MarkdownPath: filepath.Join(r.cfg.ReportDir, fmt.Sprintf("%s_%s.md", r.cfg.ReportPrefix, ts)),
		HTMLPath:     filepath.Join(r.cfg.ReportDir, fmt.Sprintf("%s_%s.html", r.cfg.ReportPrefix, ts)),
		JSONPath:     filepath.Join(r.cfg.ReportDir, fmt.Sprintf("analysis_results_%s.json", ts)),
		Charts:       append([]string(nil), r.chartOrder...),
	}

	if err := utils.SafeWriteFile(art.MarkdownPath, []byte(md)); err != nil {
		return nil, fmt.Errorf("write markdown report: %w", err)
	}
	if err := utils.SafeWriteFile(art.HTMLPath, []byte(html)); err != nil {
		return nil, fmt.Errorf("write html report: %w", err)
	}

	for _, name := range r.chartOrder {
		raw, err := base64.StdEncoding.DecodeString(r.charts[name])
		if err != nil {
			r.log.Warn("skipping undecodable chart", "chart", name, "error", err)
			continue
		}
		path := filepath.Join(r.cfg.ReportDir, fmt.Sprintf("%s_%s.png", name, ts))
		if err := utils.SafeWriteFile(path, raw); err != nil {
			return nil, fmt.Errorf("write chart %s: %w", name, err)
		}
		art.ChartPaths = append(art.ChartPaths, path)
	}

	data, err := utils.PrettyJSON(r.bundle.Sanitized())
	if err != nil {
		return nil, fmt.Errorf("serialize results: %w", err)
	}
	if err := utils.SafeWriteFile(art.JSONPath, data); err != nil {
		return nil, fmt.Errorf("write results json: %w", err)
	}

	r.log.Info("reports written",
		"dir", r.cfg.ReportDir,
		"markdown", art.MarkdownPath,
		"html", art.HTMLPath,
		"charts", len(art.ChartPaths),
		"json", art.JSONPath)
	return art, nil
}

func countString(v any) string {
	switch n := v.(type) {
	case int:
		return fmt.Sprintf("%d", n)
	case float64:
		return fmt.Sprintf("%.0f", n)
	}
	return fmt.Sprintf("%v", v)
}

// sortModelNames gives the comparison chart a stable model order.
func sortModelNames(names []string) {
	order := map[string]int{
		"logistic_regression": 0,
		"decision_tree":       1,
		"random_forest":       2,
		"gradient_boosting":   3,
		"svm":                 4,
	}
	pos := func(name string) int {
		if p, ok := order[name]; ok {
			return p
		}
		return len(order)
	}
	sort.Slice(names, func(i, j int) bool {
		if pos(names[i]) != pos(names[j]) {
			return pos(names[i]) < pos(names[j])
		}
		return names[i] < names[j]
	})
}
