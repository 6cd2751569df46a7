package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/KaramelBytes/dataloom-cli/internal/profile"
	"github.com/KaramelBytes/dataloom-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	prOutputPath string
	prTopValues  int
	prCorr       bool
	prRobustThr  float64
)

var profileCmd = &cobra.Command{
	Use:   "profile <file>",
	Short: "Summarize a dataset: schema, column statistics and correlations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := settings()
		if err != nil {
			return err
		}
		path := args[0]
		opt := profile.DefaultOptions()
		if prTopValues > 0 {
			opt.TopValues = prTopValues
		}
		if prRobustThr > 0 {
			opt.RobustThreshold = prRobustThr
		}
		opt.Correlations = prCorr

		ds, err := readDataset(c, path)
		if err != nil {
			return err
		}
		p := profile.Describe(ds, opt)
		p.Name = filepath.Base(path)
		md := p.Markdown()

		if prOutputPath != "" {
			if err := utils.SafeWriteFile(prOutputPath, []byte(md), 0o644); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote profile to %s\n", prOutputPath)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), md)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.Flags().StringVarP(&prOutputPath, "output", "o", "", "optional path to write the profile (Markdown)")
	profileCmd.Flags().IntVar(&prTopValues, "top-values", 8, "most frequent values listed per categorical column")
	profileCmd.Flags().BoolVar(&prCorr, "correlations", true, "compute Pearson correlations among numeric columns")
	profileCmd.Flags().Float64Var(&prRobustThr, "outlier-threshold", 3.5, "robust |z| threshold for outliers (MAD-based)")
}
