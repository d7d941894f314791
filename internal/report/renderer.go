// Package report turns an analysis bundle into Markdown and HTML reports.
//
// Every section tolerates missing or misshapen data and falls back to a
// placeholder, so a partially failed analysis still produces a complete
// document.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/KaramelBytes/oncoreport-cli/internal/results"
)

const (
	topCorrelations = 5
	topImportances  = 10
)

// modelOrder fixes the row order of the performance table. Models not listed
// here are appended alphabetically.
var modelOrder = []string{
	"logistic_regression",
	"decision_tree",
	"random_forest",
	"gradient_boosting",
	"svm",
}

// Renderer builds reports from an analysis bundle.
type Renderer struct {
	bundle *results.Bundle
	date   string
}

// New returns a Renderer stamped with the current time.
func New(b *results.Bundle) *Renderer {
	return &Renderer{bundle: b, date: time.Now().Format("2006-01-02 15:04:05")}
}

// Markdown renders the full Markdown report. It never fails: sections with
// missing data render placeholders instead.
func (r *Renderer) Markdown() string {
	var sb strings.Builder

	sb.WriteString("# Breast Cancer Data Analysis Report\n\n")
	fmt.Fprintf(&sb, "**Report generated**: %s\n\n", r.date)

	if eda := r.bundle.GetMap("eda", nil); len(eda) > 0 {
		keys := make([]string, 0, len(eda))
		for k := range eda {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintf(&sb, "<!-- debug: eda keys: %s -->\n\n", strings.Join(keys, ", "))
	}

	r.writeDataOverview(&sb)
	r.writeDataQuality(&sb)
	r.writeEDA(&sb)
	r.writeFeatureImportance(&sb)
	r.writeModelPerformance(&sb)
	r.writeInsights(&sb)
	r.writeRecommendations(&sb)
	r.writeTechnicalDetails(&sb)

	sb.WriteString("---\n\n")
	sb.WriteString("**Disclaimer**: This report is generated by machine learning algorithms. ")
	sb.WriteString("The results are for reference only and cannot replace professional medical diagnosis. ")
	sb.WriteString("Actual medical decisions should combine clinical judgment with further examination.\n\n")
	sb.WriteString("**Generated by**: oncoreport\n")
	fmt.Fprintf(&sb, "**Generated at**: %s\n", r.date)

	return sb.String()
}

func (r *Renderer) writeDataOverview(sb *strings.Builder) {
	sb.WriteString("## 1. Dataset Overview\n\n")
	sb.WriteString("### 1.1 Basic Information\n")
	fmt.Fprintf(sb, "- **Shape**: %s\n", r.bundle.GetString("data_info.shape", "not available"))
	fmt.Fprintf(sb, "- **Features**: %s\n", intOr(r.bundle, "data_info.feature_count", "not available"))
	fmt.Fprintf(sb, "- **Samples**: %s\n", intOr(r.bundle, "data_info.sample_count", "not available"))
	sb.WriteString("- **Target distribution**:\n")
	fmt.Fprintf(sb, "  - **Benign (B)**: %.0f samples (%.1f%%)\n",
		r.bundle.GetFloat("data_info.benign_count", 0),
		r.bundle.GetFloat("data_info.benign_percentage", 0))
	fmt.Fprintf(sb, "  - **Malignant (M)**: %.0f samples (%.1f%%)\n\n",
		r.bundle.GetFloat("data_info.malignant_count", 0),
		r.bundle.GetFloat("data_info.malignant_percentage", 0))
}

func (r *Renderer) writeDataQuality(sb *strings.Builder) {
	sb.WriteString("## 2. Data Quality Checks\n\n")

	sb.WriteString("### 2.1 Missing Values\n")
	counts := r.bundle.GetMap("cleaning.missing_values.counts", nil)
	percentages := r.bundle.GetMap("cleaning.missing_values.percentages", nil)
	if len(counts) > 0 {
		sb.WriteString("Features with missing values:\n")
		for _, col := range sortedKeys(counts) {
			pct, _ := percentages[col].(float64)
			fmt.Fprintf(sb, "- **%s**: %s missing (%.2f%%)\n", col, numString(counts[col]), pct)
		}
	} else {
		sb.WriteString("No missing values detected.\n")
	}
	sb.WriteString("\n")

	sb.WriteString("### 2.2 Outliers\n")
	outliers := r.bundle.GetMap("cleaning.outliers", nil)
	if len(outliers) > 0 {
		sb.WriteString("Features with outliers (IQR method):\n")
		for _, col := range sortedKeys(outliers) {
			info, _ := outliers[col].(map[string]any)
			count := numString(info["count"])
			pct, _ := info["percentage"].(float64)
			fmt.Fprintf(sb, "- **%s**: %s outliers (%.2f%%)\n", col, count, pct)
		}
	} else {
		sb.WriteString("No significant outliers detected.\n")
	}
	sb.WriteString("\n")
}

func (r *Renderer) writeEDA(sb *strings.Builder) {
	sb.WriteString("## 3. Exploratory Data Analysis\n\n")

	sb.WriteString("### 3.1 Basic Statistics\n")
	if stats := r.bundle.GetMap("eda.basic_statistics", nil); len(stats) > 0 {
		if shape, ok := stats["shape"].(string); ok {
			fmt.Fprintf(sb, "- Dataset shape: %s\n", shape)
		}
		if dist, ok := stats["target_distribution"].(map[string]any); ok {
			sb.WriteString("- Target distribution:\n")
			if c, ok := dist["0"]; ok {
				fmt.Fprintf(sb, "  - Benign: %s samples\n", numString(c))
			}
			if c, ok := dist["1"]; ok {
				fmt.Fprintf(sb, "  - Malignant: %s samples\n", numString(c))
			}
		}
	} else {
		sb.WriteString("- Basic statistics not available\n")
	}
	sb.WriteString("\n")

	sb.WriteString("### 3.2 Features Most Correlated with Diagnosis\n")
	top := r.bundle.GetList("eda.correlation.top_features_with_target", nil)
	if len(top) > 0 {
		n := 0
		for _, entry := range top {
			if n >= topCorrelations {
				break
			}
			m, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			name, _ := m["feature2"].(string)
			if f1, _ := m["feature1"].(string); f1 != "target" {
				name = f1
			}
			corr, _ := m["correlation"].(float64)
			n++
			fmt.Fprintf(sb, "%d. **%s**: correlation = %.3f\n", n, name, corr)
		}
		if n == 0 {
			sb.WriteString("- Correlation analysis not available\n")
		}
	} else {
		sb.WriteString("- Correlation analysis not available\n")
	}
	sb.WriteString("\n")
}

func (r *Renderer) writeFeatureImportance(sb *strings.Builder) {
	sb.WriteString("## 4. Feature Importance\n\n")
	sb.WriteString("### 4.1 Random Forest Importance Ranking\n")

	rf := r.bundle.GetMap("feature_importance.random_forest", nil)
	if len(rf) == 0 {
		sb.WriteString("- Feature importance not available\n\n")
		return
	}

	type ranked struct {
		name       string
		importance float64
		rank       int
	}
	var rows []ranked
	for name, v := range rf {
		switch info := v.(type) {
		case map[string]any:
			imp, _ := info["importance"].(float64)
			rk := len(rf) + 1
			switch n := info["rank"].(type) {
			case int:
				rk = n
			case float64:
				rk = int(n)
			}
			rows = append(rows, ranked{name: name, importance: imp, rank: rk})
		case float64:
			rows = append(rows, ranked{name: name, importance: info, rank: len(rf) + 1})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].rank != rows[j].rank {
			return rows[i].rank < rows[j].rank
		}
		return rows[i].importance > rows[j].importance
	})
	if len(rows) > topImportances {
		rows = rows[:topImportances]
	}
	for i, row := range rows {
		fmt.Fprintf(sb, "%d. **%s**: %.4f\n", i+1, row.name, row.importance)
	}
	sb.WriteString("\n")
}

// metricFallback resolves a metric through its weighted, macro, and plain
// variants in that order, logging once when every variant is missing.
func metricFallback(metrics map[string]any, base string) float64 {
	for _, key := range []string{base + "_weighted", base + "_macro", base} {
		if v, ok := metrics[key].(float64); ok {
			return v
		}
	}
	slog.Warn("metric missing from model results, reporting zero", "metric", base)
	return 0
}

func (r *Renderer) writeModelPerformance(sb *strings.Builder) {
	sb.WriteString("## 5. Model Performance\n\n")
	sb.WriteString("### 5.1 Model Comparison\n")

	modeling := r.bundle.GetMap("modeling", nil)
	var names []string
	for name, v := range modeling {
		if name == "cross_validation" {
			continue
		}
		if _, ok := v.(map[string]any); ok {
			names = append(names, name)
		}
	}
	sortModels(names)

	if len(names) > 0 {
		sb.WriteString("| Model | Accuracy | Precision | Recall | F1 Score | AUC |\n")
		sb.WriteString("|-------|----------|-----------|--------|----------|-----|\n")
		for _, name := range names {
			metrics := modeling[name].(map[string]any)
			acc, _ := metrics["accuracy"].(float64)
			auc, _ := metrics["roc_auc"].(float64)
			fmt.Fprintf(sb, "| %s | %.3f | %.3f | %.3f | %.3f | %.3f |\n",
				displayName(name),
				acc,
				metricFallback(metrics, "precision"),
				metricFallback(metrics, "recall"),
				metricFallback(metrics, "f1_score"),
				auc)
		}
	} else {
		sb.WriteString("- Model performance data not available\n")
	}
	sb.WriteString("\n")

	if cv, ok := modeling["cross_validation"].(map[string]any); ok && len(cv) > 0 {
		sb.WriteString("### 5.2 Cross-Validation Results\n")
		cvNames := sortedKeys(cv)
		sortModels(cvNames)
		for _, name := range cvNames {
			m, ok := cv[name].(map[string]any)
			if !ok {
				continue
			}
			mean, _ := m["mean_score"].(float64)
			std, _ := m["std_score"].(float64)
			fmt.Fprintf(sb, "- **%s**: mean accuracy = %.3f (±%.3f)\n", displayName(name), mean, std)
		}
		sb.WriteString("\n")
	}
}

func (r *Renderer) writeInsights(sb *strings.Builder) {
	sb.WriteString("## 6. Key Insights\n\n")
	sb.WriteString("### 6.1 Main Findings\n")
	insights := r.bundle.GetList("insights", nil)
	if len(insights) > 0 {
		for i, v := range insights {
			fmt.Fprintf(sb, "%d. %v\n", i+1, v)
		}
	} else {
		fmt.Fprintf(sb, "1. The dataset contains %s samples\n", intOr(r.bundle, "data_info.sample_count", "an unknown number of"))
		sb.WriteString("2. Data quality analysis completed\n")
		sb.WriteString("3. Machine learning model training completed\n")
	}
	sb.WriteString("\n")

	sb.WriteString("### 6.2 Dataset Characteristics\n")
	benign := r.bundle.GetFloat("data_info.benign_count", 0)
	malignant := r.bundle.GetFloat("data_info.malignant_count", 0)
	switch {
	case benign > malignant:
		sb.WriteString("1. The classes are imbalanced: benign samples outnumber malignant ones\n")
		sb.WriteString("2. This may affect the models' ability to identify malignant samples\n")
	case malignant > benign:
		sb.WriteString("1. The classes are imbalanced: malignant samples outnumber benign ones\n")
		sb.WriteString("2. This may affect the models' ability to identify benign samples\n")
	default:
		sb.WriteString("1. The class distribution is balanced\n")
	}
	sb.WriteString("3. Feature importance analysis points to morphological features as the strongest diagnostic signals\n")
	sb.WriteString("4. Non-linear models generally outperform linear ones on this data\n\n")
}

func (r *Renderer) writeRecommendations(sb *strings.Builder) {
	sb.WriteString("## 7. Recommendations and Next Steps\n\n")
	recs := r.bundle.GetList("recommendations", nil)
	if len(recs) > 0 {
		for i, v := range recs {
			fmt.Fprintf(sb, "%d. %v\n", i+1, v)
		}
	} else {
		sb.WriteString("1. **Model tuning**: adjust hyperparameters to squeeze out further performance\n")
		sb.WriteString("2. **Feature engineering**: create interaction or polynomial features\n")
		sb.WriteString("3. **Ensembling**: combine models with voting or stacking\n")
		sb.WriteString("4. **Deep learning**: try neural network models\n")
		sb.WriteString("5. **Monitoring**: track model performance after deployment\n")
	}
	sb.WriteString("\n")
}

func (r *Renderer) writeTechnicalDetails(sb *strings.Builder) {
	sb.WriteString("## 8. Technical Details\n\n")
	sb.WriteString("### 8.1 Analysis Pipeline\n")
	sb.WriteString("1. **Loading**: read the CSV file and map the diagnosis labels to numeric values\n")
	sb.WriteString("2. **Cleaning**: impute missing values and flag outliers\n")
	sb.WriteString("3. **Exploration**: descriptive statistics, correlation and distribution analysis\n")
	sb.WriteString("4. **Feature engineering**: scaling and feature selection\n")
	sb.WriteString("5. **Training**: fit several machine learning models\n")
	sb.WriteString("6. **Evaluation**: hold-out test set plus cross-validation\n")
	sb.WriteString("7. **Reporting**: assemble this document\n\n")

	sb.WriteString("### 8.2 Metric Glossary\n")
	sb.WriteString("- **Accuracy**: fraction of correct predictions\n")
	sb.WriteString("- **Precision**: fraction of predicted positives that are truly positive\n")
	sb.WriteString("- **Recall**: fraction of true positives that were found\n")
	sb.WriteString("- **F1 Score**: harmonic mean of precision and recall\n")
	sb.WriteString("- **AUC**: area under the ROC curve\n\n")

	sb.WriteString("### 8.3 Generated Charts\n")
	sb.WriteString("- Feature correlation heat map\n")
	sb.WriteString("- Distribution plots for the most important features\n")
	sb.WriteString("- Model performance comparison chart\n\n")
}

var htmlShell = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Breast Cancer Data Analysis Report</title>
<style>
* { margin: 0; padding: 0; box-sizing: border-box; }
body { font-family: 'Segoe UI', sans-serif; line-height: 1.6; color: #333; background-color: #f8f9fa; padding: 20px; }
.container { max-width: 1200px; margin: 0 auto; background-color: white; padding: 40px; border-radius: 10px; box-shadow: 0 0 30px rgba(0,0,0,0.1); }
.header { text-align: center; margin-bottom: 40px; padding-bottom: 20px; border-bottom: 3px solid #3498db; }
h1 { color: #2c3e50; font-size: 2.5em; margin-bottom: 10px; }
.report-date { color: #95a5a6; font-size: 0.9em; }
h2 { color: #2c3e50; font-size: 1.8em; margin-top: 40px; margin-bottom: 20px; padding-bottom: 10px; border-bottom: 2px solid #ecf0f1; }
h3 { color: #3498db; font-size: 1.4em; margin-top: 30px; margin-bottom: 15px; }
p { margin-bottom: 15px; }
ul, ol { margin-bottom: 20px; padding-left: 30px; }
li { margin-bottom: 8px; }
table { width: 100%; border-collapse: collapse; margin: 20px 0; box-shadow: 0 2px 10px rgba(0,0,0,0.05); font-size: 0.95em; }
th { background-color: #3498db; color: white; font-weight: 600; text-align: left; padding: 12px 15px; }
td { padding: 10px 15px; border-bottom: 1px solid #ecf0f1; }
tr:nth-child(even) { background-color: #f8f9fa; }
img { max-width: 90%; height: auto; border: 1px solid #ddd; border-radius: 5px; }
.footer { margin-top: 50px; padding-top: 20px; border-top: 1px solid #ecf0f1; text-align: center; color: #95a5a6; font-size: 0.9em; }
</style>
</head>
<body>
<div class="container">
<div class="header">
<h1>Breast Cancer Data Analysis Report</h1>
<div class="report-date">Generated: {{.Date}}</div>
</div>
{{.Body}}
<div class="footer">
<p>Generated by oncoreport</p>
</div>
</div>
</body>
</html>
`))

// HTML converts the Markdown report into a standalone HTML page. Debug
// comments are stripped before conversion.
func (r *Renderer) HTML(md string) (string, error) {
	var clean []string
	for _, line := range strings.Split(md, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "<!-- debug:") {
			continue
		}
		clean = append(clean, line)
	}

	gm := goldmark.New(goldmark.WithExtensions(extension.GFM))
	var body bytes.Buffer
	if err := gm.Convert([]byte(strings.Join(clean, "\n")), &body); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}

	var out bytes.Buffer
	err := htmlShell.Execute(&out, struct {
		Date string
		Body template.HTML
	}{Date: r.date, Body: template.HTML(body.String())})
	if err != nil {
		return "", fmt.Errorf("render html shell: %w", err)
	}
	return out.String(), nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// sortModels orders model names by the fixed table order, unknown names last
// alphabetically.
func sortModels(names []string) {
	pos := func(name string) int {
		for i, n := range modelOrder {
			if n == name {
				return i
			}
		}
		return len(modelOrder)
	}
	sort.Slice(names, func(i, j int) bool {
		pi, pj := pos(names[i]), pos(names[j])
		if pi != pj {
			return pi < pj
		}
		return names[i] < names[j]
	})
}

// displayName turns snake_case model keys into title case, with AUC-style
// initialisms kept upper.
func displayName(key string) string {
	if key == "svm" {
		return "SVM"
	}
	words := strings.Split(key, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// numString formats ints and floats without a trailing fraction, anything
// else through %v.
func numString(v any) string {
	switch n := v.(type) {
	case int:
		return fmt.Sprintf("%d", n)
	case int64:
		return fmt.Sprintf("%d", n)
	case float64:
		return fmt.Sprintf("%.0f", n)
	case nil:
		return "0"
	}
	return fmt.Sprintf("%v", v)
}

// intOr renders a numeric bundle value as an integer string, or def when the
// path is missing or non-numeric.
func intOr(b *results.Bundle, path, def string) string {
	switch v := b.Get(path, nil).(type) {
	case int:
		return fmt.Sprintf("%d", v)
	case int64:
		return fmt.Sprintf("%d", v)
	case float64:
		return fmt.Sprintf("%.0f", v)
	}
	return def
}
