package scalar

import (
	"fmt"
	"strings"
)

// Test applies a single-operand operator to an actual value. Both literals
// must already be coerced to the same kind. The in and includes operators
// take a set or a list and are handled by TestIn and TestIncludes.
func Test(op Operator, actual, operand Literal) (bool, error) {
	if actual.Kind != operand.Kind {
		return false, fmt.Errorf("operator %s: %s value against %s operand", op, actual.Kind, operand.Kind)
	}
	if !Supports(actual.Kind, op) {
		return false, fmt.Errorf("operator %s is not defined on %s", op, actual.Kind)
	}

	switch op {
	case OpEq:
		return Equal(actual, operand), nil
	case OpLt, OpLte, OpGt, OpGte:
		c, err := Compare(actual, operand)
		if err != nil {
			return false, err
		}
		switch op {
		case OpLt:
			return c < 0, nil
		case OpLte:
			return c <= 0, nil
		case OpGt:
			return c > 0, nil
		default:
			return c >= 0, nil
		}
	case OpContains:
		return strings.Contains(actual.s, operand.s), nil
	case OpStartsWith:
		return strings.HasPrefix(actual.s, operand.s), nil
	case OpEndsWith:
		return strings.HasSuffix(actual.s, operand.s), nil
	case OpIn, OpIncludes:
		return false, fmt.Errorf("operator %s takes a list operand", op)
	default:
		return false, fmt.Errorf("unknown operator %q", op)
	}
}

// TestIn reports whether actual equals any member of set.
func TestIn(actual Literal, set []Literal) bool {
	for _, candidate := range set {
		if Equal(actual, candidate) {
			return true
		}
	}
	return false
}

// TestIncludes reports whether list contains element.
func TestIncludes(list []Literal, element Literal) bool {
	return TestIn(element, list)
}

// TestListEq reports whether two lists hold equal elements in the same
// order.
func TestListEq(actual, operand []Literal) bool {
	if len(actual) != len(operand) {
		return false
	}
	for i := range actual {
		if !Equal(actual[i], operand[i]) {
			return false
		}
	}
	return true
}
