package config

import (
	"strings"

	"github.com/spf13/viper"

	"cyberguard/internal/errors"
)

const envPrefix = "CYBERGUARD"

// Default dataset file names inside the data directory
const (
	DefaultGlobalThreatsFile = "Global_Cybersecurity_Threats_2015-2024.csv"
	DefaultIntrusionFile     = "cybersecurity_intrusion_data.csv"
)

// Config represents the complete application configuration
type Config struct {
	Data       DataConfig       `validate:"required"`
	Imputation ImputationConfig `validate:"required"`
	Analysis   AnalysisConfig
	Report     ReportConfig
	LogLevel   string
}

// DataConfig holds dataset source settings. A non-empty Driver selects the
// SQL loader; otherwise files are read from Dir.
type DataConfig struct {
	Dir               string
	GlobalThreatsFile string
	IntrusionFile     string
	Driver            string
	DSN               string
}

// UsesSQL reports whether datasets come from a database
func (d DataConfig) UsesSQL() bool { return d.Driver != "" }

// ImputationConfig holds chained-imputation settings
type ImputationConfig struct {
	MaxIterations          int
	Tolerance              float64
	HoldoutFraction        float64
	LowConfidenceThreshold float64
	Seed                   int64
}

// AnalysisConfig holds hypothesis test settings
type AnalysisConfig struct {
	Alpha float64
}

// ReportConfig holds narrative output settings
type ReportConfig struct {
	Format string
}

// Load reads configuration from environment variables and validates it.
// Each key is read from CYBERGUARD_<NAME> first and then from the bare name.
func Load() (*Config, error) {
	return LoadWith(viper.New())
}

// LoadWith reads configuration through a caller-supplied viper instance so
// hosts can layer flags or config files on top of the environment.
func LoadWith(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	if err := bindEnv(v); err != nil {
		return nil, errors.Wrap(err, "failed to bind environment")
	}

	config := &Config{
		Data:       *loadDataConfig(v),
		Imputation: *loadImputationConfig(v),
		Analysis:   AnalysisConfig{Alpha: v.GetFloat64("analysis.alpha")},
		Report:     ReportConfig{Format: strings.ToLower(v.GetString("report.format"))},
		LogLevel:   strings.ToUpper(v.GetString("log_level")),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

var envNames = map[string]string{
	"data.dir":                        "DATA_DIR",
	"data.global_threats_file":        "GLOBAL_THREATS_FILE",
	"data.intrusion_file":             "INTRUSION_FILE",
	"data.driver":                     "DATASET_DRIVER",
	"data.dsn":                        "DATASET_DSN",
	"imputation.max_iterations":       "IMPUTATION_MAX_ITERATIONS",
	"imputation.tolerance":            "IMPUTATION_TOLERANCE",
	"imputation.holdout_fraction":     "IMPUTATION_HOLDOUT_FRACTION",
	"imputation.low_confidence_ratio": "IMPUTATION_LOW_CONFIDENCE_THRESHOLD",
	"imputation.seed":                 "IMPUTATION_SEED",
	"analysis.alpha":                  "ANALYSIS_ALPHA",
	"report.format":                   "REPORT_FORMAT",
	"log_level":                       "LOG_LEVEL",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data.dir", "./data")
	v.SetDefault("data.global_threats_file", DefaultGlobalThreatsFile)
	v.SetDefault("data.intrusion_file", DefaultIntrusionFile)
	v.SetDefault("data.driver", "")
	v.SetDefault("data.dsn", "")
	v.SetDefault("imputation.max_iterations", 10)
	v.SetDefault("imputation.tolerance", 1e-3)
	v.SetDefault("imputation.holdout_fraction", 0.2)
	v.SetDefault("imputation.low_confidence_ratio", 0.5)
	v.SetDefault("imputation.seed", 42)
	v.SetDefault("analysis.alpha", 0.05)
	v.SetDefault("report.format", "md")
	v.SetDefault("log_level", "INFO")
}

func bindEnv(v *viper.Viper) error {
	for key, name := range envNames {
		if err := v.BindEnv(key, envPrefix+"_"+name, name); err != nil {
			return err
		}
	}
	return nil
}

func loadDataConfig(v *viper.Viper) *DataConfig {
	return &DataConfig{
		Dir:               v.GetString("data.dir"),
		GlobalThreatsFile: v.GetString("data.global_threats_file"),
		IntrusionFile:     v.GetString("data.intrusion_file"),
		Driver:            strings.ToLower(v.GetString("data.driver")),
		DSN:               v.GetString("data.dsn"),
	}
}

func loadImputationConfig(v *viper.Viper) *ImputationConfig {
	return &ImputationConfig{
		MaxIterations:          v.GetInt("imputation.max_iterations"),
		Tolerance:              v.GetFloat64("imputation.tolerance"),
		HoldoutFraction:        v.GetFloat64("imputation.holdout_fraction"),
		LowConfidenceThreshold: v.GetFloat64("imputation.low_confidence_ratio"),
		Seed:                   v.GetInt64("imputation.seed"),
	}
}

func validateConfig(config *Config) error {
	switch config.Data.Driver {
	case "":
		if config.Data.Dir == "" {
			return errors.ConfigInvalid("DATA_DIR is required when no DATASET_DRIVER is set")
		}
	case "postgres", "sqlite3":
		if config.Data.DSN == "" {
			return errors.ConfigInvalid("DATASET_DSN is required for DATASET_DRIVER " + config.Data.Driver)
		}
	default:
		return errors.ConfigInvalid("DATASET_DRIVER must be postgres or sqlite3")
	}
	if config.Imputation.MaxIterations < 1 {
		return errors.ConfigInvalid("imputation max iterations must be at least 1")
	}
	if config.Imputation.Tolerance <= 0 {
		return errors.ConfigInvalid("imputation tolerance must be positive")
	}
	if config.Imputation.HoldoutFraction <= 0 || config.Imputation.HoldoutFraction >= 1 {
		return errors.ConfigInvalid("imputation holdout fraction must be in (0, 1)")
	}
	if config.Imputation.LowConfidenceThreshold <= 0 || config.Imputation.LowConfidenceThreshold > 1 {
		return errors.ConfigInvalid("imputation low-confidence threshold must be in (0, 1]")
	}
	if config.Analysis.Alpha <= 0 || config.Analysis.Alpha >= 1 {
		return errors.ConfigInvalid("analysis alpha must be in (0, 1)")
	}
	switch config.Report.Format {
	case "md", "html":
	default:
		return errors.ConfigInvalid("report format must be md or html")
	}
	return nil
}
