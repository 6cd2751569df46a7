package dataset

// Infer decides a column's semantic type from its observed value kinds:
// only numbers -> Numeric; strings mixed with nothing but numbers -> Categorical;
// booleans, times, other mixes or no observed values -> Other.
func Infer(c *Column) SemanticType {
	var nums, strs, others int
	for _, v := range c.Values {
		switch v.Kind() {
		case KindMissing:
		case KindNumber:
			nums++
		case KindString:
			strs++
		default:
			others++
		}
	}
	switch {
	case others > 0:
		return Other
	case strs > 0:
		return Categorical
	case nums > 0:
		return Numeric
	default:
		return Other
	}
}

// Classify returns a dataset where every unclassified column carries an
// inferred type. Columns that already carry a type keep it. The input is
// returned unchanged when nothing needs tagging.
func Classify(d *Dataset) *Dataset {
	if d == nil {
		return Empty()
	}
	pending := false
	for _, c := range d.cols {
		if c.Type == Unclassified {
			pending = true
			break
		}
	}
	if !pending {
		return d
	}
	cols := make([]*Column, len(d.cols))
	for i, c := range d.cols {
		if c.Type != Unclassified {
			cols[i] = c
			continue
		}
		// values are shared; only the tag differs
		cols[i] = &Column{Name: c.Name, Type: Infer(c), Values: c.Values}
	}
	return &Dataset{cols: cols, index: copyIndex(d.index), rows: d.rows}
}
