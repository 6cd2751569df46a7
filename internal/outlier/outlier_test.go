package outlier

import (
	"errors"
	"reflect"
	"testing"

	"github.com/KaramelBytes/dataloom-cli/internal/dataset"
)

func numbers(vals ...float64) []dataset.Value {
	out := make([]dataset.Value, len(vals))
	for i, v := range vals {
		out[i] = dataset.Number(v)
	}
	return out
}

func TestIQRFlagsFarValue(t *testing.T) {
	ds := dataset.MustNew(dataset.NewColumn("x", numbers(1, 2, 3, 4, 100)...))
	set, err := DetectByIQR(ds)
	if err != nil {
		t.Fatalf("iqr: %v", err)
	}
	if len(set.Records["x"]) != 1 {
		t.Fatalf("expected 1 record, got %v", set.Records["x"])
	}
	rec := set.Records["x"][0]
	if rec.Row != 4 || rec.Value != 100 || rec.HasZScore {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if set.Method != MethodIQR {
		t.Fatalf("method: got %s", set.Method)
	}
}

func TestZScoreFlagsSpike(t *testing.T) {
	vals := make([]float64, 0, 51)
	for i := 0; i < 50; i++ {
		vals = append(vals, float64(i%5+1))
	}
	vals = append(vals, 10000)
	ds := dataset.MustNew(dataset.NewColumn("x", numbers(vals...)...))

	set, err := DetectByZScore(ds, 3)
	if err != nil {
		t.Fatalf("zscore: %v", err)
	}
	if set.Count() != 1 {
		t.Fatalf("expected 1 outlier, got %d", set.Count())
	}
	rec := set.Records["x"][0]
	if rec.Row != 50 || !rec.HasZScore || rec.ZScore <= 3 {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestConstantColumnHasNoOutliers(t *testing.T) {
	ds := dataset.MustNew(dataset.NewColumn("c", numbers(7, 7, 7, 7)...))

	iqr, err := DetectByIQR(ds)
	if err != nil || iqr.Count() != 0 {
		t.Fatalf("iqr: count %d err %v", iqr.Count(), err)
	}
	z, err := DetectByZScore(ds, 3)
	if err != nil || z.Count() != 0 {
		t.Fatalf("zscore: count %d err %v", z.Count(), err)
	}
	if !reflect.DeepEqual(z.Degenerate, []string{"c"}) {
		t.Fatalf("degenerate: %v", z.Degenerate)
	}
	if _, ok := z.Records["c"]; !ok {
		t.Fatalf("scanned column must have an entry")
	}
}

func TestMissingValuesAreSkipped(t *testing.T) {
	vals := numbers(1, 2, 3, 4, 100)
	vals = append(vals[:2], append([]dataset.Value{dataset.Missing()}, vals[2:]...)...)
	ds := dataset.MustNew(dataset.NewColumn("x", vals...))
	set, err := DetectByIQR(ds)
	if err != nil {
		t.Fatalf("iqr: %v", err)
	}
	if len(set.Records["x"]) != 1 || set.Records["x"][0].Row != 5 {
		t.Fatalf("expected row 5 flagged, got %v", set.Records["x"])
	}
}

func TestDefaultTargetsAreNumericColumns(t *testing.T) {
	ds := dataset.MustNew(
		dataset.NewColumn("a", numbers(1, 2, 3, 4, 100)...),
		dataset.NewColumn("b", numbers(1, 1, 1, 1, 1)...),
		dataset.NewColumn("name", dataset.String("p"), dataset.String("q"), dataset.String("r"), dataset.String("s"), dataset.String("t")),
	)
	set, err := NewDetector(nil).IQR(ds)
	if err != nil {
		t.Fatalf("iqr: %v", err)
	}
	if !reflect.DeepEqual(set.Columns(), []string{"a", "b"}) {
		t.Fatalf("scanned columns: %v", set.Columns())
	}
	if set.CountFor("a") != 1 || set.CountFor("b") != 0 {
		t.Fatalf("counts: a=%d b=%d", set.CountFor("a"), set.CountFor("b"))
	}
}

func TestTargetErrors(t *testing.T) {
	ds := dataset.MustNew(
		dataset.NewColumn("a", numbers(1, 2)...),
		dataset.NewColumn("name", dataset.String("p"), dataset.String("q")),
	)

	_, err := DetectByIQR(ds, "missing")
	var nf *dataset.ColumnNotFoundError
	if !errors.As(err, &nf) || nf.Column != "missing" {
		t.Fatalf("expected ColumnNotFoundError for missing, got %v", err)
	}

	_, err = DetectByZScore(ds, 3, "name")
	var nn *dataset.NotNumericError
	if !errors.As(err, &nn) || nn.Type != dataset.Categorical {
		t.Fatalf("expected NotNumericError for categorical column, got %v", err)
	}
}

func TestEmptyColumnYieldsEmptyEntry(t *testing.T) {
	ds := dataset.MustNew(&dataset.Column{
		Name: "x", Type: dataset.Numeric,
		Values: []dataset.Value{dataset.Missing(), dataset.Missing()},
	})
	set, err := DetectByZScore(ds, 0)
	if err != nil {
		t.Fatalf("zscore: %v", err)
	}
	if len(set.Records["x"]) != 0 || len(set.Degenerate) != 0 {
		t.Fatalf("expected empty entry, got %v degenerate %v", set.Records["x"], set.Degenerate)
	}
}

func TestParallelismBound(t *testing.T) {
	cols := make([]*dataset.Column, 0, 8)
	for _, n := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		cols = append(cols, dataset.NewColumn(n, numbers(1, 2, 3, 4, 100)...))
	}
	ds := dataset.MustNew(cols...)
	d := &Detector{Parallelism: 2}
	set, err := d.IQR(ds)
	if err != nil {
		t.Fatalf("iqr: %v", err)
	}
	if set.Count() != 8 {
		t.Fatalf("expected 8 outliers, got %d", set.Count())
	}
}
