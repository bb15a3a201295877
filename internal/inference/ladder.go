package inference

import "strings"

// SQLType is one rung of the fixed type ladder used for target columns.
type SQLType string

const (
	TypeInteger   SQLType = "INTEGER"
	TypeBigint    SQLType = "BIGINT"
	TypeDouble    SQLType = "DOUBLE PRECISION"
	TypeDate      SQLType = "DATE"
	TypeTimestamp SQLType = "TIMESTAMP"
	TypeBoolean   SQLType = "BOOLEAN"
	TypeText      SQLType = "TEXT"
)

// widenings lists the permissible upward moves for each type. TEXT is the
// terminal rung: everything can widen to it, it widens to nothing.
var widenings = map[SQLType][]SQLType{
	TypeInteger:   {TypeBigint, TypeDouble, TypeText},
	TypeBigint:    {TypeDouble, TypeText},
	TypeDouble:    {TypeText},
	TypeDate:      {TypeTimestamp, TypeText},
	TypeTimestamp: {TypeText},
	TypeBoolean:   {TypeText},
	TypeText:      nil,
}

// CanWiden reports whether from may move to to along the ladder without
// loss. Equal types trivially qualify.
func CanWiden(from, to SQLType) bool {
	if from == to {
		return true
	}
	for _, t := range widenings[from] {
		if t == to {
			return true
		}
	}
	return false
}

// Widen returns the join of a and b in the widening partial order: the
// narrowest type that both can reach. Incompatible pairs join at TEXT.
// The result is never narrower than either input, so repeated joins are
// monotone and a column type can never regress.
func Widen(a, b SQLType) SQLType {
	if CanWiden(a, b) {
		return b
	}
	if CanWiden(b, a) {
		return a
	}
	// Walk a's widenings in order; the first rung b can also reach is the
	// join. Ordering in the widenings table guarantees narrowest-first.
	for _, t := range widenings[a] {
		if CanWiden(b, t) {
			return t
		}
	}
	return TypeText
}

// ParseCatalogType maps an information_schema data_type to a ladder rung.
// Unrecognized catalog types are treated as TEXT so the engine only ever
// widens them, never narrows.
func ParseCatalogType(dataType string) SQLType {
	switch strings.ToLower(strings.TrimSpace(dataType)) {
	case "integer", "int", "int4", "serial":
		return TypeInteger
	case "bigint", "int8", "bigserial":
		return TypeBigint
	case "double precision", "float8", "real", "numeric":
		return TypeDouble
	case "date":
		return TypeDate
	case "timestamp", "timestamp without time zone", "timestamp with time zone":
		return TypeTimestamp
	case "boolean", "bool":
		return TypeBoolean
	default:
		return TypeText
	}
}
