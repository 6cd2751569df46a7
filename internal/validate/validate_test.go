package validate

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/KaramelBytes/dataloom-cli/internal/dataset"
)

func sample() *dataset.Dataset {
	return dataset.MustNew(
		dataset.NewColumn("col1", dataset.Number(1), dataset.Number(2), dataset.Missing(), dataset.Number(4)),
		dataset.NewColumn("col2", dataset.String("a"), dataset.String("b"), dataset.String("a"), dataset.String("d")),
	)
}

func TestValidateCountsMissing(t *testing.T) {
	out, rep := New(nil, 3, nil).Validate(sample())
	if rep.MissingValueCount != 1 || rep.DuplicateRowCount != 0 || rep.OutlierCount != 0 {
		t.Fatalf("unexpected counts: missing=%d duplicates=%d outliers=%d", rep.MissingValueCount, rep.DuplicateRowCount, rep.OutlierCount)
	}
	if rep.ColumnTypes["col1"] != dataset.Numeric || rep.ColumnTypes["col2"] != dataset.Categorical {
		t.Fatalf("unexpected column types: %v", rep.ColumnTypes)
	}
	if out.Len() != 4 || rep.RowsIn != 4 || rep.RowsOut != 4 {
		t.Fatalf("row counts: out=%d in=%d reported out=%d", out.Len(), rep.RowsIn, rep.RowsOut)
	}
}

func TestValidateRemovesDuplicatesKeepingFirst(t *testing.T) {
	ds := dataset.MustNew(
		dataset.NewColumn("n", dataset.Number(1), dataset.Number(1), dataset.Number(2), dataset.Number(2), dataset.Number(3)),
		dataset.NewColumn("s", dataset.String("a"), dataset.String("a"), dataset.Missing(), dataset.Missing(), dataset.String("b")),
	)
	out, rep := New(nil, 3, nil).Validate(ds)
	if rep.DuplicateRowCount != 2 {
		t.Fatalf("expected 2 duplicates, got %d", rep.DuplicateRowCount)
	}
	if out.Len() != 3 || rep.RowsOut != 3 {
		t.Fatalf("expected 3 rows after removal, got %d (reported %d)", out.Len(), rep.RowsOut)
	}
	n, _ := out.Column("n")
	got := []string{}
	for _, v := range n.Values {
		got = append(got, v.String())
	}
	if !reflect.DeepEqual(got, []string{"1", "2", "3"}) {
		t.Fatalf("kept rows: %v", got)
	}
	// missing counted after removal
	if rep.MissingValueCount != 1 {
		t.Fatalf("expected 1 missing after removal, got %d", rep.MissingValueCount)
	}

	if _, again := New(nil, 3, nil).Validate(out); again.DuplicateRowCount != 0 {
		t.Fatalf("second pass found %d duplicates", again.DuplicateRowCount)
	}
}

func TestValidateSumsBothOutlierMethods(t *testing.T) {
	vals := make([]dataset.Value, 0, 51)
	for i := 0; i < 50; i++ {
		vals = append(vals, dataset.Number(float64(i%5+1)))
	}
	vals = append(vals, dataset.Number(10000))
	ds := dataset.MustNew(dataset.NewColumn("x", vals...))

	_, rep := New(nil, 3, nil).Validate(ds)
	if len(rep.Columns) != 1 {
		t.Fatalf("expected 1 column report, got %d", len(rep.Columns))
	}
	col := rep.Columns[0]
	if col.ZOutliers != 1 || col.IQROutliers < 1 {
		t.Fatalf("outliers: z=%d iqr=%d", col.ZOutliers, col.IQROutliers)
	}
	if rep.OutlierCount != col.IQROutliers+col.ZOutliers {
		t.Fatalf("outlier count %d is not the sum of both methods", rep.OutlierCount)
	}
}

func TestValidateEmptyDataset(t *testing.T) {
	ds := dataset.Empty()
	out, rep := New(nil, 3, nil).Validate(ds)
	if out != ds {
		t.Fatalf("empty dataset should be returned as is")
	}
	if rep.MissingValueCount != 0 || rep.DuplicateRowCount != 0 || rep.OutlierCount != 0 {
		t.Fatalf("empty dataset has non-zero counts: %+v", rep)
	}
	if _, rep = New(nil, 3, nil).Validate(nil); rep.RowsIn != 0 {
		t.Fatalf("nil dataset rows in: %d", rep.RowsIn)
	}
}

func TestValidateFlagsConstantColumn(t *testing.T) {
	ds := dataset.MustNew(
		dataset.NewColumn("c", dataset.Number(5), dataset.Number(5), dataset.Number(5), dataset.Number(5), dataset.Number(5)),
		dataset.NewColumn("id", dataset.Number(1), dataset.Number(2), dataset.Number(3), dataset.Number(4), dataset.Number(5)),
	)
	_, rep := New(nil, 3, nil).Validate(ds)
	if rep.OutlierCount != 0 {
		t.Fatalf("expected no outliers, got %d", rep.OutlierCount)
	}
	if !rep.Columns[0].ZeroStd || rep.Columns[1].ZeroStd {
		t.Fatalf("zero std flags: c=%v id=%v", rep.Columns[0].ZeroStd, rep.Columns[1].ZeroStd)
	}
}

func TestReportRendering(t *testing.T) {
	_, rep := New(nil, 3, nil).Validate(sample())

	md := rep.Markdown()
	for _, want := range []string{"[VALIDATION SUMMARY]", "Missing values: 1", "[COLUMNS]", "- col2: categorical (missing 0)"} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}

	b, err := rep.JSON()
	if err != nil {
		t.Fatalf("json: %v", err)
	}
	var back Report
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if back.MissingValueCount != rep.MissingValueCount || back.ColumnTypes["col1"] != dataset.Numeric {
		t.Fatalf("decoded report differs: %+v", back)
	}
	if !strings.Contains(string(b), `"col1": "numeric"`) {
		t.Fatalf("column types not rendered by name:\n%s", b)
	}
}
