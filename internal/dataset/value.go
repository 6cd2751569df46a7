package dataset

import (
	"strconv"
	"time"
)

// Kind identifies the concrete type held by a Value.
type Kind uint8

const (
	KindMissing Kind = iota
	KindNumber
	KindString
	KindBool
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindMissing:
		return "missing"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	default:
		return "unknown"
	}
}

// Value is a single cell: either a typed value or the missing marker.
// The zero Value is missing.
type Value struct {
	kind Kind
	num  float64
	str  string
	b    bool
	t    time.Time
}

func Missing() Value { return Value{} }
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }
func String(s string) Value { return Value{kind: KindString, str: s} }
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }
func Time(t time.Time) Value { return Value{kind: KindTime, t: t} }
func (v Value) Kind() Kind { return v.kind }
func (v Value) IsMissing() bool { return v.kind == KindMissing }

// Float returns the numeric payload and whether the value is a number.
func (v Value) Float() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// Str returns the string payload and whether the value is a string.
func (v Value) Str() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

// Boolean returns the bool payload and whether the value is a bool.
func (v Value) Boolean() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// Timestamp returns the time payload and whether the value is a time.
func (v Value) Timestamp() (time.Time, bool) {
	if v.kind != KindTime {
		return time.Time{}, false
	}
	return v.t, true
}

// String renders the value for display and export. Missing renders empty.
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindString:
		return v.str
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindTime:
		return v.t.Format(time.RFC3339)
	default:
		return ""
	}
}

// Key is a canonical identity for distinct-value and duplicate-row checks.
// Two missing values share a key; values of different kinds never do.
func (v Value) Key() string {
	switch v.kind {
	case KindMissing:
		return "\x00"
	case KindNumber:
		return "n:" + strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindString:
		return "s:" + v.str
	case KindBool:
		return "b:" + strconv.FormatBool(v.b)
	case KindTime:
		return "t:" + v.t.UTC().Format(time.RFC3339Nano)
	default:
		return "?"
	}
}

// Equal reports whether two values share the same key.
func (v Value) Equal(o Value) bool { return v.Key() == o.Key() }
