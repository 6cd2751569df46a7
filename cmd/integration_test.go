package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const sampleCSV = "score,city\n1,a\n,b\n3,a\n5,c\n1,a\n"

// resetFlags restores every flag to its default so state does not leak
// between invocations of the shared root command.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// execute runs the root command with args and returns its stdout.
func execute(args ...string) (string, error) {
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// runCmd is a helper to execute the root command with args.
func runCmd(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execute(args...)
	if err != nil {
		t.Fatalf("command %v failed: %v\n%s", args, err, out)
	}
	return out
}

func setHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	oldHome := os.Getenv("HOME")
	t.Cleanup(func() { os.Setenv("HOME", oldHome) })
	os.Setenv("HOME", home)
	return home
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestCLI_CleanWritesOutputReportAndRun(t *testing.T) {
	home := setHome(t)
	in := filepath.Join(home, "data", "sample.csv")
	writeFile(t, in, sampleCSV)

	out := runCmd(t, "clean", in, "--report")
	if !strings.Contains(out, "[1/1] Processing sample.csv...") {
		t.Fatalf("missing progress line in:\n%s", out)
	}

	cleaned := filepath.Join(home, "data", "sample.cleaned.csv")
	body, err := os.ReadFile(cleaned)
	if err != nil {
		t.Fatalf("read cleaned output: %v", err)
	}
	want := "score,city_b,city_c\n0,false,false\n0.5,true,false\n0.5,false,false\n1,false,true\n"
	if string(body) != want {
		t.Fatalf("cleaned output mismatch:\n got: %q\nwant: %q", string(body), want)
	}

	report, err := os.ReadFile(filepath.Join(home, "data", "sample.cleaned.report.md"))
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	for _, section := range []string{"[VALIDATION SUMMARY]", "Duplicate rows: 1", "Missing values: 1", "[CLEANING]", "- impute: ok"} {
		if !strings.Contains(string(report), section) {
			t.Fatalf("report missing %q:\n%s", section, report)
		}
	}

	runs, err := os.ReadDir(filepath.Join(home, ".dataloom", "runs"))
	if err != nil {
		t.Fatalf("read runs dir: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run record, got %d", len(runs))
	}
	listed := runCmd(t, "runs", "list")
	if !strings.Contains(listed, in) || !strings.Contains(listed, "5 -> 4 rows") {
		t.Fatalf("runs list missing run:\n%s", listed)
	}
	id := strings.TrimSuffix(runs[0].Name(), ".json")
	shown := runCmd(t, "runs", "show", id[:8])
	if !strings.Contains(shown, "ID: "+id) || !strings.Contains(shown, "Columns: score, city_b, city_c") {
		t.Fatalf("runs show output unexpected:\n%s", shown)
	}
}

func TestCLI_CleanKeepDuplicates(t *testing.T) {
	home := setHome(t)
	in := filepath.Join(home, "sample.csv")
	writeFile(t, in, sampleCSV)

	runCmd(t, "clean", in, "--keep-duplicates", "--quiet", "-o", filepath.Join(home, "out"))
	body, err := os.ReadFile(filepath.Join(home, "out", "sample.cleaned.csv"))
	if err != nil {
		t.Fatalf("read cleaned output: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	if len(lines) != 6 {
		t.Fatalf("expected header plus 5 rows, got %d lines:\n%s", len(lines), body)
	}
}

func TestCLI_CleanBatchAvoidsOverwrite(t *testing.T) {
	home := setHome(t)
	writeFile(t, filepath.Join(home, "d1", "metrics.csv"), sampleCSV)
	writeFile(t, filepath.Join(home, "d2", "metrics.csv"), sampleCSV)
	outDir := filepath.Join(home, "out")

	out := runCmd(t, "clean", filepath.Join(home, "d*", "metrics.csv"), "-o", outDir, "--format", "tsv")
	if !strings.Contains(out, "[2/2] Processing metrics.csv...") {
		t.Fatalf("missing progress for second file:\n%s", out)
	}
	if !strings.Contains(out, "Detected existing output, writing to metrics.cleaned__2.tsv") {
		t.Fatalf("rename notice not written to command output:\n%s", out)
	}
	for _, name := range []string{"metrics.cleaned.tsv", "metrics.cleaned__2.tsv"} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Fatalf("missing %s: %v", name, err)
		}
	}
}

func TestCLI_CleanWritesMetricsTextfile(t *testing.T) {
	home := setHome(t)
	in := filepath.Join(home, "sample.csv")
	writeFile(t, in, sampleCSV)
	prom := filepath.Join(home, "metrics", "dataloom.prom")

	runCmd(t, "config", "set", "metrics_textfile", prom)
	runCmd(t, "clean", in, "--quiet")

	body, err := os.ReadFile(prom)
	if err != nil {
		t.Fatalf("read metrics textfile: %v", err)
	}
	for _, want := range []string{
		`dataloom_runs_total{result="success"} 1`,
		"dataloom_duplicate_rows_total 1",
		`dataloom_stage_results_total{stage="encode",status="ok"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("metrics missing %q:\n%s", want, body)
		}
	}
}

func TestCLI_CleanMissingInput(t *testing.T) {
	home := setHome(t)
	if _, err := execute("clean", filepath.Join(home, "nope", "*.csv")); err == nil {
		t.Fatalf("expected error for unmatched input")
	}
}

func TestCLI_ValidateJSON(t *testing.T) {
	home := setHome(t)
	in := filepath.Join(home, "sample.csv")
	writeFile(t, in, sampleCSV)

	out := runCmd(t, "validate", in, "--format", "json")
	var rep struct {
		Missing     int               `json:"missing_value_count"`
		Duplicates  int               `json:"duplicate_row_count"`
		Outliers    int               `json:"outlier_count"`
		ColumnTypes map[string]string `json:"column_types"`
	}
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("decode report: %v\n%s", err, out)
	}
	if rep.Missing != 1 || rep.Duplicates != 1 || rep.Outliers != 0 {
		t.Fatalf("unexpected counts: %+v", rep)
	}
	if rep.ColumnTypes["score"] != "numeric" || rep.ColumnTypes["city"] != "categorical" {
		t.Fatalf("unexpected column types: %v", rep.ColumnTypes)
	}

	if _, err := execute("validate", in, "--format", "xml"); err == nil {
		t.Fatalf("expected error for unsupported format")
	}
}

func TestCLI_ValidateWritesFile(t *testing.T) {
	home := setHome(t)
	in := filepath.Join(home, "sample.csv")
	writeFile(t, in, sampleCSV)
	dest := filepath.Join(home, "reports", "sample.md")

	runCmd(t, "validate", in, "-o", dest)
	body, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !strings.Contains(string(body), "- city: categorical (missing 0)") {
		t.Fatalf("unexpected report:\n%s", body)
	}
}

func TestCLI_Outliers(t *testing.T) {
	home := setHome(t)
	in := filepath.Join(home, "values.csv")
	writeFile(t, in, "v,label\n1,a\n2,a\n3,b\n4,b\n100,c\n")

	out := runCmd(t, "outliers", in, "--method", "iqr")
	if !strings.Contains(out, "[OUTLIERS: IQR]") || !strings.Contains(out, "row 4 = 100") {
		t.Fatalf("unexpected outliers output:\n%s", out)
	}
	if strings.Contains(out, "[OUTLIERS: ZSCORE]") {
		t.Fatalf("zscore section not requested:\n%s", out)
	}

	if _, err := execute("outliers", in, "--columns", "missing"); err == nil {
		t.Fatalf("expected error for unknown column")
	}
	if _, err := execute("outliers", in, "--columns", "label"); err == nil {
		t.Fatalf("expected error for non-numeric column")
	}
}

func TestCLI_Profile(t *testing.T) {
	home := setHome(t)
	in := filepath.Join(home, "sample.csv")
	writeFile(t, in, sampleCSV)

	out := runCmd(t, "profile", in)
	for _, want := range []string{"[DATASET SUMMARY]", "File: sample.csv", "Rows: 5", "[SCHEMA]"} {
		if !strings.Contains(out, want) {
			t.Fatalf("profile missing %q:\n%s", want, out)
		}
	}
}

func TestCLI_ConfigSetShowAndReject(t *testing.T) {
	setHome(t)

	runCmd(t, "init")
	runCmd(t, "config", "set", "neighbors", "3")
	out := runCmd(t, "config", "show")
	if !strings.Contains(out, "neighbors: 3") {
		t.Fatalf("config show missing update:\n%s", out)
	}
	if _, err := execute("config", "set", "neighbors", "0"); err == nil {
		t.Fatalf("expected validation error for neighbors=0")
	}
	if _, err := execute("config", "set", "knn_weighting", "cubic"); err == nil {
		t.Fatalf("expected validation error for knn_weighting")
	}
	out = runCmd(t, "config", "show")
	if !strings.Contains(out, "neighbors: 3") || !strings.Contains(out, "knn_weighting: uniform") {
		t.Fatalf("rejected values leaked into config:\n%s", out)
	}
}

func TestCLI_InitIsIdempotent(t *testing.T) {
	home := setHome(t)

	out := runCmd(t, "init")
	if !strings.Contains(out, "✓ Config written") {
		t.Fatalf("unexpected init output:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(home, ".dataloom", "runs")); err != nil {
		t.Fatalf("runs dir not created: %v", err)
	}
	out = runCmd(t, "init")
	if !strings.Contains(out, "Config already exists") {
		t.Fatalf("second init should keep config:\n%s", out)
	}
}
