// Package inference maps observed cell values onto a fixed ladder of SQL
// types and computes safe widenings between rungs of that ladder.
package inference

import "math"

// InferColumn returns the narrowest SQL type that accepts every non-null
// value in the column. Nulls carry no type information; a column of only
// nulls is TEXT.
func InferColumn(values []Value) SQLType {
	var (
		nonNull    int
		allBool    = true
		allInt     = true
		allNumeric = true
		allDate    = true
		allTime    = true
		fitsInt32  = true
	)

	for _, v := range values {
		if v.IsNull() {
			continue
		}
		nonNull++

		switch v.Kind() {
		case KindBool:
			allInt, allNumeric, allDate, allTime = false, false, false, false
		case KindInt:
			allBool, allDate, allTime = false, false, false
			if v.i < math.MinInt32 || v.i > math.MaxInt32 {
				fitsInt32 = false
			}
		case KindFloat:
			allBool, allInt, allDate, allTime = false, false, false, false
		case KindDate:
			allBool, allInt, allNumeric = false, false, false
		case KindTimestamp:
			allBool, allInt, allNumeric, allDate = false, false, false, false
		default:
			return TypeText
		}
	}

	switch {
	case nonNull == 0:
		return TypeText
	case allBool:
		return TypeBoolean
	case allInt && fitsInt32:
		return TypeInteger
	case allInt:
		return TypeBigint
	case allNumeric:
		return TypeDouble
	case allDate:
		return TypeDate
	case allTime:
		return TypeTimestamp
	default:
		return TypeText
	}
}
