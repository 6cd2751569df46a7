package cmd

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/dataloom-cli/internal/outlier"
	"github.com/KaramelBytes/dataloom-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	outMethod    string
	outColumns   []string
	outThreshold float64
	outFormat    string
)

var outliersCmd = &cobra.Command{
	Use:   "outliers <file>",
	Short: "List outlier cells in numeric columns (rows are 0-based)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := settings()
		if err != nil {
			return err
		}
		method := strings.ToLower(strings.TrimSpace(outMethod))
		if method != "iqr" && method != "zscore" && method != "both" {
			return fmt.Errorf("unsupported --method: %s (use iqr, zscore or both)", outMethod)
		}
		format := strings.ToLower(strings.TrimSpace(outFormat))
		if format != "md" && format != "json" {
			return fmt.Errorf("unsupported --format: %s (use md or json)", outFormat)
		}
		ds, err := readDataset(c, args[0])
		if err != nil {
			return err
		}
		cols := outColumns
		if !cmd.Flags().Changed("columns") {
			cols = c.OutlierColumns
		}
		thr := c.ZScoreThreshold
		if cmd.Flags().Changed("threshold") {
			thr = outThreshold
		}

		det := newDetector(c)
		var sets []outlier.Set
		if method == "iqr" || method == "both" {
			s, err := det.IQR(ds, cols...)
			if err != nil {
				return err
			}
			sets = append(sets, s)
		}
		if method == "zscore" || method == "both" {
			s, err := det.ZScore(ds, thr, cols...)
			if err != nil {
				return err
			}
			sets = append(sets, s)
		}

		if format == "json" {
			b, err := utils.PrettyJSON(sets)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		}
		fmt.Fprint(cmd.OutOrStdout(), outlierMarkdown(sets))
		return nil
	},
}

func outlierMarkdown(sets []outlier.Set) string {
	var b strings.Builder
	for i, s := range sets {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(fmt.Sprintf("[OUTLIERS: %s]\n", strings.ToUpper(string(s.Method))))
		cols := s.Columns()
		if len(cols) == 0 {
			b.WriteString("(no numeric columns)\n")
			continue
		}
		for _, name := range cols {
			recs := s.Records[name]
			b.WriteString(fmt.Sprintf("- %s: %d\n", name, len(recs)))
			for _, r := range recs {
				if r.HasZScore {
					b.WriteString(fmt.Sprintf("  row %d = %g (z=%.2f)\n", r.Row, r.Value, r.ZScore))
				} else {
					b.WriteString(fmt.Sprintf("  row %d = %g\n", r.Row, r.Value))
				}
			}
		}
		for _, name := range s.Degenerate {
			b.WriteString(fmt.Sprintf("! %s: zero standard deviation, skipped\n", name))
		}
	}
	return b.String()
}

func init() {
	rootCmd.AddCommand(outliersCmd)
	outliersCmd.Flags().StringVar(&outMethod, "method", "both", "detection method: iqr, zscore or both")
	outliersCmd.Flags().StringSliceVar(&outColumns, "columns", nil, "numeric columns to scan (default: outlier_columns from config, else all)")
	outliersCmd.Flags().Float64Var(&outThreshold, "threshold", 0, "z-score threshold (default from config)")
	outliersCmd.Flags().StringVar(&outFormat, "format", "md", "output format: md or json")
}
