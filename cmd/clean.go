package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/KaramelBytes/dataloom-cli/internal/clean"
	cfgpkg "github.com/KaramelBytes/dataloom-cli/internal/config"
	"github.com/KaramelBytes/dataloom-cli/internal/export"
	"github.com/KaramelBytes/dataloom-cli/internal/metrics"
	"github.com/KaramelBytes/dataloom-cli/internal/runlog"
	"github.com/KaramelBytes/dataloom-cli/internal/utils"
	"github.com/KaramelBytes/dataloom-cli/internal/validate"
	"github.com/spf13/cobra"
)

var (
	clOutputDir      string
	clFormat         string
	clReport         bool
	clKeepDuplicates bool
	clNeighbors      int
	clWeighting      string
	clQuiet          bool
)

var cleanCmd = &cobra.Command{
	Use:   "clean <files...>",
	Short: "Validate and clean one or more datasets (globs allowed)",
	Long: `Clean runs validation (duplicate removal, missing value and outlier counts) and then the
cleaning pipeline: median/mode imputation with nearest-neighbor refinement, one-hot encoding of
categorical columns and min-max normalization of numeric columns. Every run is recorded under runs_dir.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := settings()
		if err != nil {
			return err
		}
		files := utils.ExpandInputs(args)
		if len(files) == 0 {
			return fmt.Errorf("no input files matched")
		}
		ext, err := outputExt(clFormat)
		if err != nil {
			return err
		}
		ccfg := cleanConfig(c)
		if cmd.Flags().Changed("neighbors") {
			if clNeighbors < 1 {
				return fmt.Errorf("--neighbors must be >= 1")
			}
			ccfg.Neighbors = clNeighbors
		}
		if cmd.Flags().Changed("weighting") {
			w := strings.ToLower(strings.TrimSpace(clWeighting))
			if w != string(clean.WeightUniform) && w != string(clean.WeightDistance) {
				return fmt.Errorf("unsupported --weighting: %s (use uniform or distance)", clWeighting)
			}
			ccfg.Weighting = clean.Weighting(w)
		}
		dedupe := c.DedupeBeforeClean && !clKeepDuplicates

		rec := metrics.New()
		val := newValidator(c)
		pipe := clean.NewPipeline(ccfg, logger)
		pipe.Observer = rec

		out := cmd.OutOrStdout()
		total := len(files)
		var firstErr error
		failed := 0
		for i, path := range files {
			if !clQuiet {
				fmt.Fprintf(out, "[%d/%d] Processing %s...\n", i+1, total, filepath.Base(path))
			}
			run, err := cleanFile(out, c, path, ext, dedupe, val, pipe, rec)
			if err != nil {
				rec.RunFailed()
				if run != nil {
					run.Fail(err)
					if serr := run.Save(c.RunsDir); serr != nil {
						logger.WithError(serr).Warn("could not record failed run")
					}
				}
				fmt.Fprintf(os.Stderr, "✗ %s: %v\n", filepath.Base(path), err)
				failed++
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			if !clQuiet {
				for _, w := range run.Warnings {
					fmt.Fprintf(out, "⚠ %s\n", w)
				}
				fmt.Fprintf(out, "✓ Cleaned %s -> %s (%d rows, %d columns) [run %s]\n",
					filepath.Base(path), run.Output, run.RowsOut, len(run.ColumnsOut), shortID(run.ID))
				if run.ReportPath != "" {
					fmt.Fprintf(out, "✓ Report written: %s\n", run.ReportPath)
				}
			}
		}

		if c.MetricsTextfile != "" {
			if err := rec.WriteTextfile(c.MetricsTextfile); err != nil {
				return err
			}
			logger.WithField("path", c.MetricsTextfile).Debug("metrics written")
		}
		if firstErr != nil {
			return fmt.Errorf("%d of %d file(s) failed, first error: %w", failed, total, firstErr)
		}
		return nil
	},
}

// cleanFile runs validation and the pipeline over one input and records the
// run. The returned run is nil when the record itself could not be saved.
func cleanFile(out io.Writer, c *cfgpkg.Global, path, ext string, dedupe bool, val *validate.Validator, pipe *clean.Pipeline, rec *metrics.Recorder) (*runlog.Run, error) {
	run := runlog.NewRun(path)
	ds, err := readDataset(c, path)
	if err != nil {
		return run, err
	}
	deduped, rep := val.Validate(ds)
	rec.ObserveValidation(rep)
	input := deduped
	if !dedupe {
		input = ds
	}
	oc := pipe.Run(input)

	outPath, err := outputPath(out, c, path, ext)
	if err != nil {
		return run, err
	}
	if err := export.Write(outPath, oc.Dataset); err != nil {
		return run, err
	}
	run.Output = outPath

	if clReport {
		reportPath := strings.TrimSuffix(outPath, filepath.Ext(outPath)) + ".report.md"
		body := rep.Markdown() + "\n" + cleaningMarkdown(oc)
		if err := utils.SafeWriteFile(reportPath, []byte(body), 0o644); err != nil {
			return run, fmt.Errorf("write report: %w", err)
		}
		run.ReportPath = reportPath
	}

	run.Finish(rep, oc)
	if err := run.Save(c.RunsDir); err != nil {
		return nil, fmt.Errorf("record run: %w", err)
	}
	rec.RunSucceeded(oc.Dataset.Len())
	return run, nil
}

// outputPath picks <dir>/<base>.cleaned<ext>, adding a __N suffix instead of
// overwriting an existing file. The rename notice goes to out.
func outputPath(out io.Writer, c *cfgpkg.Global, input, ext string) (string, error) {
	dir := clOutputDir
	if dir == "" {
		dir = c.OutputDir
	}
	if dir == "" {
		dir = filepath.Dir(input)
	}
	dir = utils.ExpandHome(dir)
	if err := utils.EnsureDir(dir); err != nil {
		return "", err
	}
	if ext == "" {
		ext = strings.ToLower(filepath.Ext(input))
		if ext != ".csv" && ext != ".tsv" && ext != ".xlsx" {
			ext = ".csv"
		}
	}
	name := utils.OutputName(input, "cleaned", ext)
	candidate := filepath.Join(dir, name)
	if _, err := os.Stat(candidate); os.IsNotExist(err) {
		return candidate, nil
	}
	stem := strings.TrimSuffix(name, ext)
	for idx := 2; ; idx++ {
		cand := filepath.Join(dir, fmt.Sprintf("%s__%d%s", stem, idx, ext))
		if _, err := os.Stat(cand); os.IsNotExist(err) {
			if !clQuiet {
				fmt.Fprintf(out, "⚠ Detected existing output, writing to %s to avoid overwrite.\n", filepath.Base(cand))
			}
			return cand, nil
		}
	}
}

func outputExt(format string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "auto":
		return "", nil
	case "csv":
		return ".csv", nil
	case "tsv":
		return ".tsv", nil
	case "xlsx":
		return ".xlsx", nil
	default:
		return "", fmt.Errorf("unsupported --format: %s (use csv, tsv or xlsx)", format)
	}
}

// cleaningMarkdown renders the per-stage outcome in the report style.
func cleaningMarkdown(oc clean.Outcome) string {
	var b strings.Builder
	b.WriteString("[CLEANING]\n")
	for _, st := range oc.Stages {
		b.WriteString(fmt.Sprintf("- %s: %s (%d warnings, %s)\n", st.Name, st.Status, st.Warnings, st.Duration.Round(time.Microsecond)))
	}
	if oc.Dataset != nil {
		b.WriteString(fmt.Sprintf("Output: %d rows x %d columns\n", oc.Dataset.Len(), oc.Dataset.Width()))
	}
	if len(oc.Warnings) > 0 {
		b.WriteString("\n[WARNINGS]\n")
		for _, w := range oc.Warnings {
			b.WriteString("- " + w.Message() + "\n")
		}
	}
	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().StringVarP(&clOutputDir, "output-dir", "o", "", "directory for cleaned files (default: output_dir from config, else next to the input)")
	cleanCmd.Flags().StringVar(&clFormat, "format", "auto", "output format: csv, tsv, xlsx or auto (same as input; JSON input writes CSV)")
	cleanCmd.Flags().BoolVar(&clReport, "report", false, "write a <name>.cleaned.report.md next to each output")
	cleanCmd.Flags().BoolVar(&clKeepDuplicates, "keep-duplicates", false, "clean the input as loaded, without removing duplicate rows")
	cleanCmd.Flags().IntVar(&clNeighbors, "neighbors", 0, "neighbors used to refine numeric imputation (overrides config)")
	cleanCmd.Flags().StringVar(&clWeighting, "weighting", "", "neighbor weighting: uniform or distance (overrides config)")
	cleanCmd.Flags().BoolVar(&clQuiet, "quiet", false, "suppress progress and non-essential output")
}
