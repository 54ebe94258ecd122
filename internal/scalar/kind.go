package scalar

import "fmt"

// Kind identifies a leaf value type.
type Kind int

const (
	Invalid Kind = iota
	Int
	Float
	BigInt
	String
	ID
	Boolean
	DateTime
	Date
	LocalDateTime
	Time
	LocalTime
)

// All lists every valid kind in declaration order.
var All = []Kind{
	Int, Float, BigInt, String, ID, Boolean,
	DateTime, Date, LocalDateTime, Time, LocalTime,
}

var kindNames = map[Kind]string{
	Int:           "Int",
	Float:         "Float",
	BigInt:        "BigInt",
	String:        "String",
	ID:            "ID",
	Boolean:       "Boolean",
	DateTime:      "DateTime",
	Date:          "Date",
	LocalDateTime: "LocalDateTime",
	Time:          "Time",
	LocalTime:     "LocalTime",
}

// String returns the GraphQL type name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Parse resolves a GraphQL named type to a scalar kind.
// ok is false for anything that is not a known scalar.
func Parse(name string) (Kind, bool) {
	for _, k := range All {
		if kindNames[k] == name {
			return k, true
		}
	}
	return Invalid, false
}

// BuiltIn reports whether the kind is one of the five GraphQL built-in
// scalars. The others need a custom scalar declaration in generated SDL.
func (k Kind) BuiltIn() bool {
	switch k {
	case Int, Float, String, ID, Boolean:
		return true
	case BigInt, DateTime, Date, LocalDateTime, Time, LocalTime:
		return false
	default:
		panic(fmt.Sprintf("scalar: unhandled kind %v", k))
	}
}

// Numeric reports whether the kind supports arithmetic aggregates.
func (k Kind) Numeric() bool {
	switch k {
	case Int, Float, BigInt:
		return true
	case String, ID, Boolean, DateTime, Date, LocalDateTime, Time, LocalTime:
		return false
	default:
		panic(fmt.Sprintf("scalar: unhandled kind %v", k))
	}
}

// Temporal reports whether the kind is one of the date/time kinds.
func (k Kind) Temporal() bool {
	switch k {
	case DateTime, Date, LocalDateTime, Time, LocalTime:
		return true
	case Int, Float, BigInt, String, ID, Boolean:
		return false
	default:
		panic(fmt.Sprintf("scalar: unhandled kind %v", k))
	}
}

// Textual reports whether the kind supports substring operators.
func (k Kind) Textual() bool {
	switch k {
	case String, ID:
		return true
	case Int, Float, BigInt, Boolean, DateTime, Date, LocalDateTime, Time, LocalTime:
		return false
	default:
		panic(fmt.Sprintf("scalar: unhandled kind %v", k))
	}
}

// Ordered reports whether the kind has a total order and therefore exposes
// the relational operators.
func (k Kind) Ordered() bool {
	return k.Numeric() || k.Temporal()
}
