package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/KaramelBytes/dataloom-cli/internal/clean"
	cfgpkg "github.com/KaramelBytes/dataloom-cli/internal/config"
	"github.com/KaramelBytes/dataloom-cli/internal/dataset"
	"github.com/KaramelBytes/dataloom-cli/internal/loader"
	"github.com/KaramelBytes/dataloom-cli/internal/logging"
	"github.com/KaramelBytes/dataloom-cli/internal/outlier"
	"github.com/KaramelBytes/dataloom-cli/internal/validate"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	debug   bool
	// Input flags (override config if set)
	flagDelimiter  string
	flagSheetName  string
	flagSheetIndex int
	flagParseDates bool
	flagDecimal    string
	flagThousands  string

	// Loaded configuration
	cfg    *cfgpkg.Global
	cfgErr error
	logger = logging.Discard()
)

var rootCmd = &cobra.Command{
	Use:   "dataloom",
	Short: "DataLoom CLI: validate, profile and clean tabular datasets",
	Long: `DataLoom is a CLI tool that checks tabular data (CSV, TSV, XLSX, JSON) for missing values,
duplicate rows and numeric outliers, then imputes, encodes and normalizes it into a model-ready file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)

	// Persistent global flags available to all subcommands
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.dataloom/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagDelimiter, "delimiter", "", "CSV delimiter: ',', ';', 'tab' or '|' (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagSheetName, "sheet-name", "", "XLSX: sheet name to read (overrides --sheet-index)")
	rootCmd.PersistentFlags().IntVar(&flagSheetIndex, "sheet-index", 0, "XLSX: 1-based sheet index (default first sheet)")
	rootCmd.PersistentFlags().BoolVar(&flagParseDates, "parse-dates", false, "parse date-like strings into timestamps")
	rootCmd.PersistentFlags().StringVar(&flagDecimal, "decimal", "auto", "decimal separator: '.', ',' or 'auto'")
	rootCmd.PersistentFlags().StringVar(&flagThousands, "thousands", "auto", "thousands separator: ',', '.', 'space' or 'auto'")
}

func loadConfig() {
	cfg, cfgErr = nil, nil
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// reported by settings()
		cfgErr = err
		logger = logging.Discard()
		return
	}
	cfg = c

	level := cfg.LogLevel
	if debug {
		level = "debug"
	}
	l, err := logging.New(level, cfg.LogFormat, os.Stderr)
	if err != nil {
		cfgErr = err
		return
	}
	logger = l
}

// settings returns the loaded configuration or the error that prevented it.
func settings() (*cfgpkg.Global, error) {
	if cfgErr != nil {
		return nil, cfgErr
	}
	if cfg == nil {
		return nil, fmt.Errorf("no config loaded")
	}
	return cfg, nil
}

func loaderOptions(c *cfgpkg.Global) (loader.Options, error) {
	opt := loader.Options{
		SheetName:  strings.TrimSpace(flagSheetName),
		SheetIndex: flagSheetIndex,
		ParseDates: flagParseDates,
	}
	if flagSheetIndex < 0 {
		return opt, fmt.Errorf("--sheet-index must be >= 1")
	}
	delim := c.CSVDelimiter
	if rootCmd.PersistentFlags().Changed("delimiter") {
		delim = flagDelimiter
	}
	d, err := cfgpkg.ParseDelimiter(delim)
	if err != nil {
		return opt, err
	}
	opt.Delimiter = d
	// Locale separators
	switch strings.ToLower(strings.TrimSpace(flagDecimal)) {
	case ",", "comma":
		opt.DecimalSeparator = ','
	case ".", "dot":
		opt.DecimalSeparator = '.'
	case "", "auto":
	default:
		return opt, fmt.Errorf("unsupported --decimal: %s", flagDecimal)
	}
	switch strings.ToLower(strings.TrimSpace(flagThousands)) {
	case ",", "comma":
		opt.ThousandsSeparator = ','
	case ".", "dot":
		opt.ThousandsSeparator = '.'
	case " ", "space":
		opt.ThousandsSeparator = ' '
	case "", "auto":
	default:
		return opt, fmt.Errorf("unsupported --thousands: %s", flagThousands)
	}
	return opt, nil
}

// readDataset loads path with the global input options.
func readDataset(c *cfgpkg.Global, path string) (*dataset.Dataset, error) {
	opt, err := loaderOptions(c)
	if err != nil {
		return nil, err
	}
	ds, err := loader.Load(path, opt)
	if err != nil {
		return nil, err
	}
	logger.WithFields(logrus.Fields{"file": path, "rows": ds.Len(), "columns": ds.Width()}).Debug("dataset loaded")
	return ds, nil
}

func newDetector(c *cfgpkg.Global) *outlier.Detector {
	d := outlier.NewDetector(logger)
	d.IQRFactor = c.IQRFactor
	return d
}

func newValidator(c *cfgpkg.Global) *validate.Validator {
	return validate.New(newDetector(c), c.ZScoreThreshold, logger)
}

func cleanConfig(c *cfgpkg.Global) clean.Config {
	return clean.Config{
		Neighbors: c.Neighbors,
		MaxRows:   c.KNNMaxRows,
		Weighting: clean.ParseWeighting(c.KNNWeighting),
	}
}
