package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// Dataset
	DataPath     string         `mapstructure:"data_path" yaml:"data_path"`
	LabelColumn  string         `mapstructure:"label_column" yaml:"label_column"`
	LabelMapping map[string]int `mapstructure:"label_mapping" yaml:"label_mapping"`
	DropColumns  []string       `mapstructure:"drop_columns" yaml:"drop_columns"`

	// Analysis
	TestSize          float64 `mapstructure:"test_size" yaml:"test_size"`
	RandomState       int64   `mapstructure:"random_state" yaml:"random_state"`
	CVFolds           int     `mapstructure:"cv_folds" yaml:"cv_folds"`
	ScalingMethod     string  `mapstructure:"scaling_method" yaml:"scaling_method"`
	FeatureSelectionK int     `mapstructure:"feature_selection_k" yaml:"feature_selection_k"`
	TopFeaturesCount  int     `mapstructure:"top_features_count" yaml:"top_features_count"`

	// Report output
	ReportDir    string `mapstructure:"report_dir" yaml:"report_dir"`
	ReportPrefix string `mapstructure:"report_prefix" yaml:"report_prefix"`

	// Serve mode
	ListenAddr      string `mapstructure:"listen_addr" yaml:"listen_addr"`
	MaxUploadSizeMB int    `mapstructure:"max_upload_size_mb" yaml:"max_upload_size_mb"`
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.oncoreport/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, ".oncoreport")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("ONCOREPORT")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("data_path", "data/breast_cancer.csv")
	v.SetDefault("label_column", "diagnosis")
	v.SetDefault("label_mapping", map[string]int{"B": 0, "M": 1})
	v.SetDefault("drop_columns", []string{"id", "Unnamed: 32"})
	v.SetDefault("test_size", 0.2)
	v.SetDefault("random_state", 42)
	v.SetDefault("cv_folds", 5)
	v.SetDefault("scaling_method", "standard")
	v.SetDefault("feature_selection_k", 10)
	v.SetDefault("top_features_count", 15)
	v.SetDefault("report_dir", "reports")
	v.SetDefault("report_prefix", "breast_cancer_report")
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("max_upload_size_mb", 64)

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, ".oncoreport")
		_ = os.MkdirAll(dir, 0o755)
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks ranges that would otherwise surface deep inside a stage.
func (c *Global) Validate() error {
	if c.TestSize <= 0 || c.TestSize >= 1 {
		return fmt.Errorf("test_size must be in (0, 1), got %v", c.TestSize)
	}
	if c.CVFolds < 2 {
		return fmt.Errorf("cv_folds must be >= 2, got %d", c.CVFolds)
	}
	switch c.ScalingMethod {
	case "standard", "minmax":
	default:
		return fmt.Errorf("scaling_method must be 'standard' or 'minmax', got %q", c.ScalingMethod)
	}
	if c.LabelColumn == "" {
		return fmt.Errorf("label_column must not be empty")
	}
	if len(c.LabelMapping) == 0 {
		return fmt.Errorf("label_mapping must not be empty")
	}
	return nil
}
