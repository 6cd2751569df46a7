package dataset

import (
	"fmt"
	"strings"
)

// SemanticType is the cleaning-relevant classification of a column.
type SemanticType uint8

const (
	// Unclassified marks a column whose type has not been inferred yet.
	Unclassified SemanticType = iota
	Numeric
	Categorical
	Other
)

func (t SemanticType) String() string {
	switch t {
	case Numeric:
		return "numeric"
	case Categorical:
		return "categorical"
	case Other:
		return "other"
	default:
		return "unclassified"
	}
}

// MarshalText lets reports serialize types by name.
func (t SemanticType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText parses a name produced by MarshalText.
func (t *SemanticType) UnmarshalText(b []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(b))) {
	case "numeric":
		*t = Numeric
	case "categorical":
		*t = Categorical
	case "other":
		*t = Other
	case "unclassified", "":
		*t = Unclassified
	default:
		return fmt.Errorf("unknown semantic type: %q", string(b))
	}
	return nil
}

// Column is a named, typed sequence of values.
type Column struct {
	Name   string
	Type   SemanticType
	Values []Value
}

// NewColumn builds an unclassified column.
func NewColumn(name string, values ...Value) *Column {
	return &Column{Name: name, Values: values}
}

// Len returns the number of values.
func (c *Column) Len() int { return len(c.Values) }

// Clone returns a deep copy of the column.
func (c *Column) Clone() *Column {
	vals := make([]Value, len(c.Values))
	copy(vals, c.Values)
	return &Column{Name: c.Name, Type: c.Type, Values: vals}
}

// MissingCount counts missing markers in the column.
func (c *Column) MissingCount() int {
	n := 0
	for _, v := range c.Values {
		if v.IsMissing() {
			n++
		}
	}
	return n
}

// Floats returns the non-missing numeric values and their row indexes.
func (c *Column) Floats() (vals []float64, rows []int) {
	for i, v := range c.Values {
		if f, ok := v.Float(); ok {
			vals = append(vals, f)
			rows = append(rows, i)
		}
	}
	return vals, rows
}

// Dataset is an ordered collection of equal-length named columns.
// Stages treat a Dataset as immutable and return new ones.
type Dataset struct {
	cols  []*Column
	index map[string]int
	rows  int
}

// New assembles a dataset. Columns must share a length and have unique names.
func New(cols ...*Column) (*Dataset, error) {
	ds := &Dataset{index: make(map[string]int, len(cols))}
	for i, c := range cols {
		if i == 0 {
			ds.rows = c.Len()
		} else if c.Len() != ds.rows {
			return nil, &LengthMismatchError{Column: c.Name, Len: c.Len(), Expected: ds.rows}
		}
		if _, dup := ds.index[c.Name]; dup {
			return nil, &DuplicateColumnError{Column: c.Name}
		}
		ds.index[c.Name] = i
		ds.cols = append(ds.cols, c)
	}
	return ds, nil
}

// MustNew is New for literals in tests and examples; it panics on error.
func MustNew(cols ...*Column) *Dataset {
	ds, err := New(cols...)
	if err != nil {
		panic(err)
	}
	return ds
}

// Empty returns a dataset with no columns and no rows.
func Empty() *Dataset { return &Dataset{index: map[string]int{}} }

// Len returns the row count.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return d.rows
}

// Width returns the column count.
func (d *Dataset) Width() int {
	if d == nil {
		return 0
	}
	return len(d.cols)
}

// IsEmpty reports whether the dataset has no rows or no columns.
func (d *Dataset) IsEmpty() bool { return d.Len() == 0 || d.Width() == 0 }

// Columns returns the columns in order. Callers must not mutate them.
func (d *Dataset) Columns() []*Column {
	if d == nil {
		return nil
	}
	return d.cols
}

// Names returns the column names in order.
func (d *Dataset) Names() []string {
	out := make([]string, 0, d.Width())
	for _, c := range d.Columns() {
		out = append(out, c.Name)
	}
	return out
}

// Column looks up a column by name.
func (d *Dataset) Column(name string) (*Column, bool) {
	if d == nil {
		return nil, false
	}
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return d.cols[i], true
}

// ColumnsOfType returns the columns carrying the given tag, in order.
func (d *Dataset) ColumnsOfType(t SemanticType) []*Column {
	var out []*Column
	for _, c := range d.Columns() {
		if c.Type == t {
			out = append(out, c)
		}
	}
	return out
}

// Types maps column names to their semantic types.
func (d *Dataset) Types() map[string]SemanticType {
	out := make(map[string]SemanticType, d.Width())
	for _, c := range d.Columns() {
		out[c.Name] = c.Type
	}
	return out
}

// Clone returns a deep copy.
func (d *Dataset) Clone() *Dataset {
	if d == nil {
		return Empty()
	}
	cols := make([]*Column, len(d.cols))
	for i, c := range d.cols {
		cols[i] = c.Clone()
	}
	return &Dataset{cols: cols, index: copyIndex(d.index), rows: d.rows}
}

// Row returns the values of row i across all columns.
func (d *Dataset) Row(i int) []Value {
	out := make([]Value, len(d.cols))
	for j, c := range d.cols {
		out[j] = c.Values[i]
	}
	return out
}

// RowKey is a canonical identity of row i used for duplicate detection.
func (d *Dataset) RowKey(i int) string {
	var b strings.Builder
	for j, c := range d.cols {
		if j > 0 {
			b.WriteByte('\x1f')
		}
		b.WriteString(c.Values[i].Key())
	}
	return b.String()
}

// SelectRows returns a new dataset holding only the given rows, in the given order.
func (d *Dataset) SelectRows(rows []int) *Dataset {
	cols := make([]*Column, len(d.cols))
	for j, c := range d.cols {
		vals := make([]Value, len(rows))
		for k, r := range rows {
			vals[k] = c.Values[r]
		}
		cols[j] = &Column{Name: c.Name, Type: c.Type, Values: vals}
	}
	return &Dataset{cols: cols, index: copyIndex(d.index), rows: len(rows)}
}

// Replace returns a dataset where the column at position i is replaced by
// zero or more columns. The caller guarantees lengths and unique names.
func (d *Dataset) Replace(i int, with ...*Column) *Dataset {
	cols := make([]*Column, 0, len(d.cols)-1+len(with))
	cols = append(cols, d.cols[:i]...)
	cols = append(cols, with...)
	cols = append(cols, d.cols[i+1:]...)
	index := make(map[string]int, len(cols))
	for j, c := range cols {
		index[c.Name] = j
	}
	return &Dataset{cols: cols, index: index, rows: d.rows}
}

// Rebuild returns a dataset made of cols with the same row count as d, even
// when cols is empty. Lengths and names are checked as in New.
func (d *Dataset) Rebuild(cols ...*Column) (*Dataset, error) {
	out := &Dataset{index: make(map[string]int, len(cols)), rows: d.Len()}
	for i, c := range cols {
		if c.Len() != out.rows {
			return nil, &LengthMismatchError{Column: c.Name, Len: c.Len(), Expected: out.rows}
		}
		if _, dup := out.index[c.Name]; dup {
			return nil, &DuplicateColumnError{Column: c.Name}
		}
		out.index[c.Name] = i
		out.cols = append(out.cols, c)
	}
	return out, nil
}

// WithColumn returns a dataset where the column at position i is swapped for c.
func (d *Dataset) WithColumn(i int, c *Column) *Dataset {
	cols := make([]*Column, len(d.cols))
	copy(cols, d.cols)
	cols[i] = c
	return &Dataset{cols: cols, index: copyIndex(d.index), rows: d.rows}
}

// MissingCount sums missing markers over every cell.
func (d *Dataset) MissingCount() int {
	n := 0
	for _, c := range d.Columns() {
		n += c.MissingCount()
	}
	return n
}

func copyIndex(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
