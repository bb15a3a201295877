package inference

import (
	"math"
	"strconv"
	"time"
)

// Kind discriminates the closed set of value variants a cell can hold once
// it has been normalized by the row source. Every cell entering the loader
// is one of these; nothing stays opaque.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindDate
	KindTimestamp
	KindText
)

// Value is a tagged cell value. The zero value is null.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	t    time.Time
	s    string
}

func Null() Value              { return Value{} }
func Bool(b bool) Value        { return Value{kind: KindBool, b: b} }
func Int(i int64) Value        { return Value{kind: KindInt, i: i} }
func Float(f float64) Value    { return Value{kind: KindFloat, f: f} }
func Text(s string) Value      { return Value{kind: KindText, s: s} }
func Date(t time.Time) Value   { return Value{kind: KindDate, t: t} }
func Timestamp(t time.Time) Value {
	return Value{kind: KindTimestamp, t: t}
}

// Temporal builds a Date when t has no time-of-day component, otherwise a
// Timestamp. A zero time is the not-a-time sentinel and maps to null, so
// empty temporal cells never reach the database as literal strings.
func Temporal(t time.Time) Value {
	if t.IsZero() {
		return Null()
	}
	if h, m, s := t.Clock(); h == 0 && m == 0 && s == 0 && t.Nanosecond() == 0 {
		return Date(t)
	}
	return Timestamp(t)
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

// SQL returns the value in the form the database driver expects:
// nil, bool, int64, float64, time.Time, or string.
func (v Value) SQL() interface{} {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindDate, KindTimestamp:
		return v.t
	default:
		return v.s
	}
}

// String renders the value as text. Used when a column has widened to TEXT
// and every value must be stored as a string.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		if v.f == math.Trunc(v.f) && math.Abs(v.f) < 1e15 {
			return strconv.FormatInt(int64(v.f), 10)
		}
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindDate:
		return v.t.Format("2006-01-02")
	case KindTimestamp:
		return v.t.Format("2006-01-02 15:04:05")
	default:
		return v.s
	}
}
