package cmd

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/dataloom-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	valFormat     string
	valOutputPath string
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Report missing values, duplicate rows and outliers in a dataset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := settings()
		if err != nil {
			return err
		}
		format := strings.ToLower(strings.TrimSpace(valFormat))
		if format != "md" && format != "json" {
			return fmt.Errorf("unsupported --format: %s (use md or json)", valFormat)
		}
		ds, err := readDataset(c, args[0])
		if err != nil {
			return err
		}
		_, rep := newValidator(c).Validate(ds)

		var body []byte
		if format == "json" {
			if body, err = rep.JSON(); err != nil {
				return err
			}
		} else {
			body = []byte(rep.Markdown())
		}
		if valOutputPath == "" {
			fmt.Fprint(cmd.OutOrStdout(), string(body))
			if len(body) > 0 && body[len(body)-1] != '\n' {
				fmt.Fprintln(cmd.OutOrStdout())
			}
			return nil
		}
		if err := utils.SafeWriteFile(valOutputPath, body, 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Report written: %s\n", valOutputPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringVar(&valFormat, "format", "md", "report format: md or json")
	validateCmd.Flags().StringVarP(&valOutputPath, "output", "o", "", "write the report to a file instead of stdout")
}
