package dataset

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestNewRejectsBadShapes(t *testing.T) {
	_, err := New(
		NewColumn("a", Number(1), Number(2)),
		NewColumn("b", Number(1)),
	)
	var lm *LengthMismatchError
	if !errors.As(err, &lm) {
		t.Fatalf("expected LengthMismatchError, got %v", err)
	}
	if lm.Column != "b" || lm.Expected != 2 {
		t.Fatalf("unexpected mismatch detail: %+v", lm)
	}

	_, err = New(NewColumn("a", Number(1)), NewColumn("a", Number(2)))
	var dc *DuplicateColumnError
	if !errors.As(err, &dc) {
		t.Fatalf("expected DuplicateColumnError, got %v", err)
	}
}

func TestInfer(t *testing.T) {
	ts := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		values []Value
		want   SemanticType
	}{
		{"numbers", []Value{Number(1), Missing(), Number(3)}, Numeric},
		{"strings", []Value{String("a"), Missing()}, Categorical},
		{"strings and numbers", []Value{String("a"), Number(2)}, Categorical},
		{"bools", []Value{Bool(true), Bool(false)}, Other},
		{"times", []Value{Time(ts)}, Other},
		{"all missing", []Value{Missing(), Missing()}, Other},
		{"empty", nil, Other},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Infer(NewColumn("c", tt.values...)); got != tt.want {
				t.Fatalf("got %s want %s", got, tt.want)
			}
		})
	}
}

func TestClassifyKeepsExistingTags(t *testing.T) {
	tagged := &Column{Name: "x", Type: Categorical, Values: []Value{Number(1), Number(2)}}
	ds := MustNew(tagged, NewColumn("y", Number(1), Number(2)))

	out := Classify(ds)
	x, _ := out.Column("x")
	y, _ := out.Column("y")
	if x.Type != Categorical || y.Type != Numeric {
		t.Fatalf("types: x=%s y=%s", x.Type, y.Type)
	}

	// input untouched
	if yIn, _ := ds.Column("y"); yIn.Type != Unclassified {
		t.Fatalf("input column retyped to %s", yIn.Type)
	}

	// nothing left to classify returns the same dataset
	if Classify(out) != out {
		t.Fatalf("classified dataset should be returned as is")
	}
}

func TestRowKeyTreatsMissingAsEqual(t *testing.T) {
	ds := MustNew(
		NewColumn("a", Number(1), Number(1), Number(1)),
		NewColumn("b", Missing(), Missing(), String("1")),
	)
	if ds.RowKey(0) != ds.RowKey(1) {
		t.Fatalf("rows with missing cells in the same place should match")
	}
	if ds.RowKey(0) == ds.RowKey(2) {
		t.Fatalf("missing and a string should not match")
	}
}

func TestValueKeyDistinguishesKinds(t *testing.T) {
	if Number(1).Key() == String("1").Key() {
		t.Fatalf("number and string keys collide")
	}
	if Bool(true).Key() == String("true").Key() {
		t.Fatalf("bool and string keys collide")
	}
	if !Missing().Equal(Value{}) {
		t.Fatalf("zero value should be missing")
	}
}

func TestSelectRowsAndReplace(t *testing.T) {
	ds := MustNew(
		NewColumn("a", Number(1), Number(2), Number(3)),
		NewColumn("b", String("x"), String("y"), String("z")),
		NewColumn("c", Bool(true), Bool(false), Bool(true)),
	)

	sub := ds.SelectRows([]int{2, 0})
	if sub.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", sub.Len())
	}
	if a, _ := sub.Column("a"); !reflect.DeepEqual(a.Values, []Value{Number(3), Number(1)}) {
		t.Fatalf("selected values: %v", a.Values)
	}
	if ds.Len() != 3 {
		t.Fatalf("source modified: %d rows", ds.Len())
	}

	rep := ds.Replace(1, NewColumn("b_1", Bool(true), Bool(false), Bool(false)), NewColumn("b_2", Bool(false), Bool(true), Bool(false)))
	if got := rep.Names(); !reflect.DeepEqual(got, []string{"a", "b_1", "b_2", "c"}) {
		t.Fatalf("columns after replace: %v", got)
	}
	if _, ok := rep.Column("b"); ok {
		t.Fatalf("replaced column still present")
	}
	if c, ok := rep.Column("c"); !ok || c.Name != "c" {
		t.Fatalf("lookup after replace failed")
	}

	dropped := ds.Replace(0)
	if got := dropped.Names(); !reflect.DeepEqual(got, []string{"b", "c"}) || dropped.Len() != 3 {
		t.Fatalf("after drop: %v with %d rows", got, dropped.Len())
	}
}

func TestCloneIsDeep(t *testing.T) {
	ds := MustNew(NewColumn("a", Number(1)))
	cp := ds.Clone()
	cp.Columns()[0].Values[0] = Number(9)
	if a, _ := ds.Column("a"); a.Values[0] != Number(1) {
		t.Fatalf("clone shares values with source")
	}
}

func TestMissingCount(t *testing.T) {
	ds := MustNew(
		NewColumn("a", Number(1), Missing()),
		NewColumn("b", Missing(), Missing()),
	)
	if ds.MissingCount() != 3 {
		t.Fatalf("expected 3 missing, got %d", ds.MissingCount())
	}
	if !Empty().IsEmpty() {
		t.Fatalf("Empty() is not empty")
	}
}

func TestSemanticTypeText(t *testing.T) {
	for _, st := range []SemanticType{Unclassified, Numeric, Categorical, Other} {
		b, err := st.MarshalText()
		if err != nil {
			t.Fatalf("marshal %d: %v", st, err)
		}
		var back SemanticType
		if err := back.UnmarshalText(b); err != nil || back != st {
			t.Fatalf("%q decoded to %s (%v)", b, back, err)
		}
	}
	var st SemanticType
	if err := st.UnmarshalText([]byte("ordinal")); err == nil {
		t.Fatalf("expected error for unknown type")
	}
}

func TestRebuildKeepsRowCount(t *testing.T) {
	ds := MustNew(NewColumn("a", Number(1), Number(2)))
	empty, err := ds.Rebuild()
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if empty.Len() != 2 || empty.Width() != 0 || !empty.IsEmpty() {
		t.Fatalf("rebuild without columns: %d rows, %d columns", empty.Len(), empty.Width())
	}

	_, err = ds.Rebuild(NewColumn("x", Number(1)))
	var lm *LengthMismatchError
	if !errors.As(err, &lm) {
		t.Fatalf("expected LengthMismatchError, got %v", err)
	}
}
