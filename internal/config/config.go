package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/KaramelBytes/dataloom-cli/internal/utils"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	envPrefix = "DATALOOM"
	dirName   = ".dataloom"
)

// Global configuration structure.
type Global struct {
	// Cleaning
	Neighbors         int      `mapstructure:"neighbors" yaml:"neighbors" validate:"gte=1"`
	ZScoreThreshold   float64  `mapstructure:"zscore_threshold" yaml:"zscore_threshold" validate:"gt=0"`
	IQRFactor         float64  `mapstructure:"iqr_factor" yaml:"iqr_factor" validate:"gt=0"`
	OutlierColumns    []string `mapstructure:"outlier_columns" yaml:"outlier_columns"`
	KNNMaxRows        int      `mapstructure:"knn_max_rows" yaml:"knn_max_rows" validate:"gte=0"`
	KNNWeighting      string   `mapstructure:"knn_weighting" yaml:"knn_weighting" validate:"oneof=uniform distance"`
	DedupeBeforeClean bool     `mapstructure:"dedupe_before_clean" yaml:"dedupe_before_clean"`

	// Logging
	LogLevel  string `mapstructure:"log_level" yaml:"log_level" validate:"oneof=debug info warn warning error"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format" validate:"oneof=text json"`

	// Locations
	RunsDir         string `mapstructure:"runs_dir" yaml:"runs_dir"`
	OutputDir       string `mapstructure:"output_dir" yaml:"output_dir"`
	MetricsTextfile string `mapstructure:"metrics_textfile" yaml:"metrics_textfile"`

	// Input
	CSVDelimiter string `mapstructure:"csv_delimiter" yaml:"csv_delimiter" validate:"delimiter"`
}

// Dir returns ~/.dataloom.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, dirName), nil
}

// DefaultPath returns ~/.dataloom/config.yaml.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.dataloom/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
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

func setDefaults(v *viper.Viper) {
	v.SetDefault("neighbors", 5)
	v.SetDefault("zscore_threshold", 3.0)
	v.SetDefault("iqr_factor", 1.5)
	v.SetDefault("outlier_columns", []string{})
	v.SetDefault("knn_max_rows", 10000)
	v.SetDefault("knn_weighting", "uniform")
	v.SetDefault("dedupe_before_clean", true)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("runs_dir", "")
	v.SetDefault("output_dir", "")
	v.SetDefault("metrics_textfile", "")
	v.SetDefault("csv_delimiter", "")
}

// Defaults returns the configuration with no file or environment applied.
func Defaults() *Global {
	v := viper.New()
	setDefaults(v)
	var c Global
	_ = v.Unmarshal(&c)
	return &c
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var nf viper.ConfigFileNotFoundError
			if !errors.As(err, &nf) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.resolveDirs(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// resolveDirs fills empty locations with ~/.dataloom defaults and expands "~".
func (c *Global) resolveDirs() error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	if c.RunsDir == "" {
		c.RunsDir = filepath.Join(dir, "runs")
	}
	c.RunsDir = utils.ExpandHome(c.RunsDir)
	c.OutputDir = utils.ExpandHome(c.OutputDir)
	c.MetricsTextfile = utils.ExpandHome(c.MetricsTextfile)
	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("delimiter", isDelimiter)
	// Use yaml key names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func isDelimiter(fl validator.FieldLevel) bool {
	_, err := ParseDelimiter(fl.Field().String())
	return err == nil
}

// ParseDelimiter maps a config or flag value to a CSV separator. Empty means
// "pick by file extension" and yields 0.
func ParseDelimiter(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "":
		return 0, nil
	case ",", "comma":
		return ',', nil
	case ";", "semicolon":
		return ';', nil
	case "\t", "tab":
		return '\t', nil
	case "|", "pipe":
		return '|', nil
	default:
		return 0, fmt.Errorf("unsupported delimiter: %q (use ',' | ';' | 'tab' | '|')", s)
	}
}

// ValidationError lists every invalid key.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid config: " + strings.Join(e.Problems, "; ")
}

// Validate checks value ranges and enumerations.
func (c *Global) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}
	ve := &ValidationError{}
	for _, fe := range verrs {
		ve.Problems = append(ve.Problems, formatFieldError(fe))
	}
	return ve
}

func formatFieldError(fe validator.FieldError) string {
	field, param := fe.Field(), fe.Param()
	switch fe.Tag() {
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, param)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	case "delimiter":
		return fmt.Sprintf("%s must be one of: ',', ';', 'tab', '|'", field)
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

// Keys lists the settable configuration keys in display order.
func Keys() []string {
	return []string{
		"neighbors", "zscore_threshold", "iqr_factor", "outlier_columns",
		"knn_max_rows", "knn_weighting", "dedupe_before_clean",
		"log_level", "log_format", "runs_dir", "output_dir", "metrics_textfile", "csv_delimiter",
	}
}

// Get renders the value of key for display.
func (c *Global) Get(key string) (string, error) {
	switch key {
	case "neighbors":
		return strconv.Itoa(c.Neighbors), nil
	case "zscore_threshold":
		return strconv.FormatFloat(c.ZScoreThreshold, 'g', -1, 64), nil
	case "iqr_factor":
		return strconv.FormatFloat(c.IQRFactor, 'g', -1, 64), nil
	case "outlier_columns":
		return strings.Join(c.OutlierColumns, ","), nil
	case "knn_max_rows":
		return strconv.Itoa(c.KNNMaxRows), nil
	case "knn_weighting":
		return c.KNNWeighting, nil
	case "dedupe_before_clean":
		return strconv.FormatBool(c.DedupeBeforeClean), nil
	case "log_level":
		return c.LogLevel, nil
	case "log_format":
		return c.LogFormat, nil
	case "runs_dir":
		return c.RunsDir, nil
	case "output_dir":
		return c.OutputDir, nil
	case "metrics_textfile":
		return c.MetricsTextfile, nil
	case "csv_delimiter":
		return c.CSVDelimiter, nil
	default:
		return "", fmt.Errorf("unknown key: %s", key)
	}
}

// Set parses val into key and re-validates the configuration.
func (c *Global) Set(key, val string) error {
	next := *c
	switch key {
	case "neighbors", "knn_max_rows":
		i, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid int for %s: %v", key, val)
		}
		if key == "neighbors" {
			next.Neighbors = i
		} else {
			next.KNNMaxRows = i
		}
	case "zscore_threshold", "iqr_factor":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("invalid float for %s: %v", key, val)
		}
		if key == "zscore_threshold" {
			next.ZScoreThreshold = f
		} else {
			next.IQRFactor = f
		}
	case "outlier_columns":
		next.OutlierColumns = nil
		for _, part := range strings.Split(val, ",") {
			if p := strings.TrimSpace(part); p != "" {
				next.OutlierColumns = append(next.OutlierColumns, p)
			}
		}
	case "dedupe_before_clean":
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid bool for %s: %v", key, val)
		}
		next.DedupeBeforeClean = b
	case "knn_weighting":
		next.KNNWeighting = strings.ToLower(val)
	case "log_level":
		next.LogLevel = strings.ToLower(val)
	case "log_format":
		next.LogFormat = strings.ToLower(val)
	case "runs_dir":
		next.RunsDir = val
	case "output_dir":
		next.OutputDir = val
	case "metrics_textfile":
		next.MetricsTextfile = val
	case "csv_delimiter":
		next.CSVDelimiter = val
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}
