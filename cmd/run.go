package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/oncoreport-cli/internal/pipeline"
)

var (
	runLabelColumn string
	runDropColumns []string
	runTestSize    float64
	runSeed        int64
	runCVFolds     int
	runScaling     string
	runSelectK     int
	runTopFeatures int
	runReportDir   string
	runPrefix      string
)

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Run the full analysis pipeline over a breast cancer CSV",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := effectiveConfig()
		if err != nil {
			return err
		}
		rc := *c
		if len(args) == 1 {
			rc.DataPath = args[0]
		}
		f := cmd.Flags()
		if f.Changed("label-column") {
			rc.LabelColumn = runLabelColumn
		}
		if f.Changed("drop") {
			rc.DropColumns = runDropColumns
		}
		if f.Changed("test-size") {
			rc.TestSize = runTestSize
		}
		if f.Changed("seed") {
			rc.RandomState = runSeed
		}
		if f.Changed("cv-folds") {
			rc.CVFolds = runCVFolds
		}
		if f.Changed("scaling") {
			rc.ScalingMethod = runScaling
		}
		if f.Changed("select-k") {
			rc.FeatureSelectionK = runSelectK
		}
		if f.Changed("top-features") {
			rc.TopFeaturesCount = runTopFeatures
		}
		if f.Changed("report-dir") {
			rc.ReportDir = runReportDir
		}
		if f.Changed("prefix") {
			rc.ReportPrefix = runPrefix
		}
		if err := rc.Validate(); err != nil {
			return err
		}

		runner := pipeline.NewRunner(&rc, slog.Default())
		art, err := runner.Run()
		if err != nil {
			return err
		}

		fmt.Printf("✓ Analysis complete (timestamp %s)\n", art.Timestamp)
		fmt.Printf("  Markdown: %s\n", art.MarkdownPath)
		fmt.Printf("  HTML:     %s\n", art.HTMLPath)
		fmt.Printf("  JSON:     %s\n", art.JSONPath)
		for _, p := range art.ChartPaths {
			fmt.Printf("  Chart:    %s\n", p)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&runLabelColumn, "label-column", "diagnosis", "categorical diagnosis column")
	runCmd.Flags().StringSliceVar(&runDropColumns, "drop", nil, "columns to drop before analysis (repeatable)")
	runCmd.Flags().Float64Var(&runTestSize, "test-size", 0.2, "hold-out fraction for the test split")
	runCmd.Flags().Int64Var(&runSeed, "seed", 42, "random seed for splits and model training")
	runCmd.Flags().IntVar(&runCVFolds, "cv-folds", 5, "number of cross-validation folds")
	runCmd.Flags().StringVar(&runScaling, "scaling", "standard", "feature scaling: 'standard' | 'minmax'")
	runCmd.Flags().IntVar(&runSelectK, "select-k", 10, "number of features kept by ANOVA selection")
	runCmd.Flags().IntVar(&runTopFeatures, "top-features", 15, "number of features in the importance ranking")
	runCmd.Flags().StringVar(&runReportDir, "report-dir", "reports", "output directory for report artifacts")
	runCmd.Flags().StringVar(&runPrefix, "prefix", "breast_cancer_report", "report filename prefix")
}
