package scalar

import "fmt"

// Operator is a filter operator exposed on a scalar or list filter input.
type Operator string

const (
	OpEq         Operator = "eq"
	OpIn         Operator = "in"
	OpLt         Operator = "lt"
	OpLte        Operator = "lte"
	OpGt         Operator = "gt"
	OpGte        Operator = "gte"
	OpContains   Operator = "contains"
	OpStartsWith Operator = "startsWith"
	OpEndsWith   Operator = "endsWith"
	OpIncludes   Operator = "includes"
)

var operatorAliases = map[Operator]string{
	OpEq:         "EQ",
	OpIn:         "IN",
	OpLt:         "LT",
	OpLte:        "LTE",
	OpGt:         "GT",
	OpGte:        "GTE",
	OpContains:   "CONTAINS",
	OpStartsWith: "STARTS_WITH",
	OpEndsWith:   "ENDS_WITH",
	OpIncludes:   "INCLUDES",
}

// Alias returns the upper-snake suffix used by the deprecated flattened
// filter form, e.g. "STARTS_WITH" for field_STARTS_WITH.
func (o Operator) Alias() string {
	return operatorAliases[o]
}

// Relational reports whether the operator needs an ordered kind.
func (o Operator) Relational() bool {
	switch o {
	case OpLt, OpLte, OpGt, OpGte:
		return true
	}
	return false
}

// Operators returns the operators a scalar filter of kind k exposes, in the
// order they are emitted.
func Operators(k Kind) []Operator {
	switch k {
	case Int, Float, BigInt, DateTime, Date, LocalDateTime, Time, LocalTime:
		return []Operator{OpEq, OpIn, OpLt, OpLte, OpGt, OpGte}
	case String, ID:
		return []Operator{OpEq, OpIn, OpContains, OpStartsWith, OpEndsWith}
	case Boolean:
		return []Operator{OpEq}
	default:
		panic(fmt.Sprintf("scalar: unhandled kind %v", k))
	}
}

// ListOperators returns the operators a list filter exposes. They are the
// same for every element kind: whole-list equality and element membership.
func ListOperators(k Kind) []Operator {
	if _, ok := kindNames[k]; !ok {
		panic(fmt.Sprintf("scalar: unhandled kind %v", k))
	}
	return []Operator{OpEq, OpIncludes}
}

// Supports reports whether a scalar filter of kind k exposes o.
func Supports(k Kind, o Operator) bool {
	for _, op := range Operators(k) {
		if op == o {
			return true
		}
	}
	return false
}

// SupportsList reports whether a list filter of kind k exposes o.
func SupportsList(k Kind, o Operator) bool {
	for _, op := range ListOperators(k) {
		if op == o {
			return true
		}
	}
	return false
}

// ParseOperator resolves a generic operator key such as "startsWith".
func ParseOperator(s string) (Operator, bool) {
	o := Operator(s)
	if _, ok := operatorAliases[o]; ok {
		return o, true
	}
	return "", false
}

// ParseOperatorAlias resolves an alias suffix such as "STARTS_WITH".
func ParseOperatorAlias(s string) (Operator, bool) {
	for o, alias := range operatorAliases {
		if alias == s {
			return o, true
		}
	}
	return "", false
}
