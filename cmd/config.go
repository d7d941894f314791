package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/oncoreport-cli/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set oncoreport configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := effectiveConfig()
		if err != nil {
			return err
		}
		fmt.Printf("data_path: %s\n", c.DataPath)
		fmt.Printf("label_column: %s\n", c.LabelColumn)
		fmt.Printf("label_mapping: %v\n", c.LabelMapping)
		fmt.Printf("drop_columns: %s\n", strings.Join(c.DropColumns, ", "))
		fmt.Printf("test_size: %.3f\n", c.TestSize)
		fmt.Printf("random_state: %d\n", c.RandomState)
		fmt.Printf("cv_folds: %d\n", c.CVFolds)
		fmt.Printf("scaling_method: %s\n", c.ScalingMethod)
		fmt.Printf("feature_selection_k: %d\n", c.FeatureSelectionK)
		fmt.Printf("top_features_count: %d\n", c.TopFeaturesCount)
		fmt.Printf("report_dir: %s\n", c.ReportDir)
		fmt.Printf("report_prefix: %s\n", c.ReportPrefix)
		fmt.Printf("listen_addr: %s\n", c.ListenAddr)
		fmt.Printf("max_upload_size_mb: %d\n", c.MaxUploadSizeMB)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		c, err := effectiveConfig()
		if err != nil {
			return err
		}
		switch key {
		case "data_path":
			c.DataPath = val
		case "label_column":
			c.LabelColumn = val
		case "drop_columns":
			c.DropColumns = strings.Split(val, ",")
		case "test_size":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return fmt.Errorf("invalid float for test_size: %w", err)
			}
			c.TestSize = f
		case "random_state":
			i, err := strconv.ParseInt(val, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid int for random_state: %w", err)
			}
			c.RandomState = i
		case "cv_folds":
			i, err := strconv.Atoi(val)
			if err != nil {
				return fmt.Errorf("invalid int for cv_folds: %w", err)
			}
			c.CVFolds = i
		case "scaling_method":
			switch val {
			case "standard", "minmax":
				c.ScalingMethod = val
			default:
				return fmt.Errorf("invalid scaling_method: %s (use standard or minmax)", val)
			}
		case "feature_selection_k":
			i, err := strconv.Atoi(val)
			if err != nil {
				return fmt.Errorf("invalid int for feature_selection_k: %w", err)
			}
			c.FeatureSelectionK = i
		case "top_features_count":
			i, err := strconv.Atoi(val)
			if err != nil {
				return fmt.Errorf("invalid int for top_features_count: %w", err)
			}
			c.TopFeaturesCount = i
		case "report_dir":
			c.ReportDir = val
		case "report_prefix":
			c.ReportPrefix = val
		case "listen_addr":
			c.ListenAddr = val
		case "max_upload_size_mb":
			i, err := strconv.Atoi(val)
			if err != nil || i <= 0 {
				return fmt.Errorf("invalid int for max_upload_size_mb: %v", val)
			}
			c.MaxUploadSizeMB = i
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err := c.Validate(); err != nil {
			return err
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		cfg = c
		fmt.Println("Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
