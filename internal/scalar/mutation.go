package scalar

import "fmt"

// MutationOp is an update operator on a scalar or list field.
type MutationOp struct {
	// Name is the generic key inside <Kind>ScalarMutations.
	Name string
	// Alias is the deprecated flattened suffix, e.g. INCREMENT for
	// field_INCREMENT.
	Alias string
	// Operand is the kind of the argument. List reports a list operand.
	Operand Kind
	List    bool
}

// ScalarMutations returns the update operators for a single-valued field of
// kind k.
func ScalarMutations(k Kind) []MutationOp {
	set := MutationOp{Name: "set", Alias: "SET", Operand: k}
	switch k {
	case Int, BigInt:
		return []MutationOp{
			set,
			{Name: "add", Alias: "INCREMENT", Operand: k},
			{Name: "subtract", Alias: "DECREMENT", Operand: k},
		}
	case Float:
		return []MutationOp{
			set,
			{Name: "add", Alias: "ADD", Operand: k},
			{Name: "subtract", Alias: "SUBTRACT", Operand: k},
			{Name: "multiply", Alias: "MULTIPLY", Operand: k},
			{Name: "divide", Alias: "DIVIDE", Operand: k},
		}
	case String, ID, Boolean, DateTime, Date, LocalDateTime, Time, LocalTime:
		return []MutationOp{set}
	default:
		panic(fmt.Sprintf("scalar: unhandled kind %v", k))
	}
}

// ListMutations returns the update operators for a list field whose
// elements have kind k.
func ListMutations(k Kind) []MutationOp {
	if _, ok := kindNames[k]; !ok {
		panic(fmt.Sprintf("scalar: unhandled kind %v", k))
	}
	return []MutationOp{
		{Name: "set", Alias: "SET", Operand: k, List: true},
		{Name: "push", Alias: "PUSH", Operand: k, List: true},
		{Name: "pop", Alias: "POP", Operand: Int},
	}
}
