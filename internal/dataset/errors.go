package dataset

import "fmt"

// ColumnNotFoundError indicates a named target column is absent from the dataset.
type ColumnNotFoundError struct {
	Op     string
	Column string
}

func (e *ColumnNotFoundError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: column %q not found", e.Op, e.Column)
	}
	return fmt.Sprintf("column %q not found", e.Column)
}

// NotNumericError indicates a numeric-only operation was pointed at a non-numeric column.
type NotNumericError struct {
	Op     string
	Column string
	Type   SemanticType
}

func (e *NotNumericError) Error() string {
	return fmt.Sprintf("%s: column %q is %s, not numeric", e.Op, e.Column, e.Type)
}

// LengthMismatchError indicates columns of unequal length were combined.
type LengthMismatchError struct {
	Column   string
	Len      int
	Expected int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("column %q has %d values, expected %d", e.Column, e.Len, e.Expected)
}

// DuplicateColumnError indicates two columns share a name.
type DuplicateColumnError struct{ Column string }

func (e *DuplicateColumnError) Error() string {
	return fmt.Sprintf("duplicate column name %q", e.Column)
}
