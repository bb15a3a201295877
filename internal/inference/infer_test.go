package inference

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInferColumn(t *testing.T) {
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	stamp := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name   string
		values []Value
		want   SQLType
	}{
		{"all null", []Value{Null(), Null()}, TypeText},
		{"empty column", nil, TypeText},
		{"booleans", []Value{Bool(true), Null(), Bool(false)}, TypeBoolean},
		{"small integers", []Value{Int(1), Int(-5), Null()}, TypeInteger},
		{"integer at 32-bit boundary", []Value{Int(1 << 31)}, TypeBigint},
		{"large negative integer", []Value{Int(-(1 << 40))}, TypeBigint},
		{"mixed ints and floats", []Value{Int(1), Float(2.5)}, TypeDouble},
		{"pure dates", []Value{Date(date), Null(), Date(date)}, TypeDate},
		{"timestamps", []Value{Timestamp(stamp)}, TypeTimestamp},
		{"dates mixed with timestamps", []Value{Date(date), Timestamp(stamp)}, TypeTimestamp},
		{"ints mixed with text", []Value{Int(1), Text("abc")}, TypeText},
		{"bools mixed with ints", []Value{Bool(true), Int(1)}, TypeText},
		{"dates mixed with numbers", []Value{Date(date), Float(1.5)}, TypeText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InferColumn(tt.values))
		})
	}
}

func TestWiden(t *testing.T) {
	tests := []struct {
		a, b, want SQLType
	}{
		{TypeInteger, TypeInteger, TypeInteger},
		{TypeInteger, TypeBigint, TypeBigint},
		{TypeBigint, TypeInteger, TypeBigint},
		{TypeInteger, TypeDouble, TypeDouble},
		{TypeBigint, TypeDouble, TypeDouble},
		{TypeDate, TypeTimestamp, TypeTimestamp},
		{TypeTimestamp, TypeDate, TypeTimestamp},
		{TypeBoolean, TypeText, TypeText},
		{TypeInteger, TypeDate, TypeText},
		{TypeDouble, TypeBoolean, TypeText},
		{TypeText, TypeInteger, TypeText},
	}

	for _, tt := range tests {
		got := Widen(tt.a, tt.b)
		assert.Equal(t, tt.want, got, "Widen(%s, %s)", tt.a, tt.b)
		// The join is symmetric.
		assert.Equal(t, got, Widen(tt.b, tt.a), "Widen(%s, %s) not symmetric", tt.b, tt.a)
		// The join never narrows either side.
		assert.True(t, CanWiden(tt.a, got))
		assert.True(t, CanWiden(tt.b, got))
	}
}

func TestWidenMonotone(t *testing.T) {
	ladder := []SQLType{TypeInteger, TypeBigint, TypeDouble, TypeDate, TypeTimestamp, TypeBoolean, TypeText}

	// Repeated joins can only move up the ladder: joining the result with
	// any earlier input is a no-op.
	for _, a := range ladder {
		for _, b := range ladder {
			j := Widen(a, b)
			assert.Equal(t, j, Widen(j, a))
			assert.Equal(t, j, Widen(j, b))
		}
	}
}

func TestParseCatalogType(t *testing.T) {
	assert.Equal(t, TypeInteger, ParseCatalogType("integer"))
	assert.Equal(t, TypeBigint, ParseCatalogType("bigint"))
	assert.Equal(t, TypeDouble, ParseCatalogType("double precision"))
	assert.Equal(t, TypeTimestamp, ParseCatalogType("timestamp without time zone"))
	assert.Equal(t, TypeDate, ParseCatalogType("date"))
	assert.Equal(t, TypeBoolean, ParseCatalogType("boolean"))
	assert.Equal(t, TypeText, ParseCatalogType("text"))
	assert.Equal(t, TypeText, ParseCatalogType("character varying"))
}

func TestTemporal(t *testing.T) {
	midnight := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, KindDate, Temporal(midnight).Kind())

	morning := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, KindTimestamp, Temporal(morning).Kind())

	// The not-a-time sentinel becomes null, never a literal string.
	assert.True(t, Temporal(time.Time{}).IsNull())
}

func TestValueSQL(t *testing.T) {
	assert.Nil(t, Null().SQL())
	assert.Equal(t, int64(7), Int(7).SQL())
	assert.Equal(t, 1.5, Float(1.5).SQL())
	assert.Equal(t, true, Bool(true).SQL())
	assert.Equal(t, "hi", Text("hi").SQL())
}

func TestValueString(t *testing.T) {
	assert.Equal(t, "42", Int(42).String())
	assert.Equal(t, "true", Bool(true).String())
	assert.Equal(t, "3", Float(3.0).String())
	assert.Equal(t, "2.5", Float(2.5).String())
	assert.Equal(t, "2024-03-01", Date(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)).String())
	assert.Equal(t, "2024-03-01 09:30:00", Timestamp(time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)).String())
}
