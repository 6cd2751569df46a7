package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/KaramelBytes/dataloom-cli/internal/runlog"
	"github.com/KaramelBytes/dataloom-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	runsLimit int
	runsJSON  bool
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect recorded clean runs",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := settings()
		if err != nil {
			return err
		}
		runs, err := runlog.List(c.RunsDir)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(runs) == 0 {
			fmt.Fprintln(out, "(no runs)")
			return nil
		}
		if runsLimit > 0 && len(runs) > runsLimit {
			runs = runs[:runsLimit]
		}
		for _, r := range runs {
			status := "ok"
			if r.Error != "" {
				status = "failed"
			} else if len(r.Warnings) > 0 {
				status = fmt.Sprintf("%d warnings", len(r.Warnings))
			}
			fmt.Fprintf(out, "- %s  %s  %s  %d -> %d rows  (%s)\n",
				shortID(r.ID), r.StartedAt.Local().Format(time.DateTime), r.Source, r.RowsIn, r.RowsOut, status)
		}
		return nil
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one run by id or unique id prefix",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := settings()
		if err != nil {
			return err
		}
		r, err := runlog.Load(c.RunsDir, args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if runsJSON {
			b, err := utils.PrettyJSON(r)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
			return nil
		}
		fmt.Fprint(out, runMarkdown(r))
		return nil
	},
}

func runMarkdown(r *runlog.Run) string {
	var b strings.Builder
	b.WriteString("[RUN]\n")
	b.WriteString(fmt.Sprintf("ID: %s\n", r.ID))
	b.WriteString(fmt.Sprintf("Source: %s\n", r.Source))
	if r.Output != "" {
		b.WriteString(fmt.Sprintf("Output: %s\n", r.Output))
	}
	if r.ReportPath != "" {
		b.WriteString(fmt.Sprintf("Report: %s\n", r.ReportPath))
	}
	b.WriteString(fmt.Sprintf("Started: %s\n", r.StartedAt.Local().Format(time.RFC3339)))
	b.WriteString(fmt.Sprintf("Duration: %s\n", r.Duration().Round(time.Millisecond)))
	if r.Error != "" {
		b.WriteString(fmt.Sprintf("Error: %s\n", r.Error))
		return b.String()
	}
	b.WriteString(fmt.Sprintf("Rows: %d -> %d\n", r.RowsIn, r.RowsOut))
	b.WriteString(fmt.Sprintf("Columns: %s\n", strings.Join(r.ColumnsOut, ", ")))
	b.WriteString("\n")
	b.WriteString(r.Report.Markdown())
	if len(r.Stages) > 0 {
		b.WriteString("\n[STAGES]\n")
		for _, st := range r.Stages {
			b.WriteString(fmt.Sprintf("- %s: %s (%d warnings)\n", st.Name, st.Status, st.Warnings))
		}
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n[WARNINGS]\n")
		for _, w := range r.Warnings {
			b.WriteString("- " + w + "\n")
		}
	}
	return b.String()
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsListCmd.Flags().IntVar(&runsLimit, "limit", 20, "show at most this many runs (0 = all)")
	runsShowCmd.Flags().BoolVar(&runsJSON, "json", false, "print the raw run record")
}
