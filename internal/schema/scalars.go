package schema

import (
	"github.com/roach88/schemaforge/internal/model"
	"github.com/roach88/schemaforge/internal/scalar"
)

// ScalarFilterName is the filter input name for a single-valued field of
// kind k.
func ScalarFilterName(k scalar.Kind) string { return k.String() + "ScalarFilters" }

// ListFilterName is the filter input name for a list field of kind k.
func ListFilterName(k scalar.Kind) string { return k.String() + "ListFilters" }

// scalarFilter generates <Kind>ScalarFilters with exactly the operators the
// kind table defines for k.
func (c *BuildContext) scalarFilter(k scalar.Kind) string {
	return c.ensure(ScalarFilterName(k), "scalarFilters:"+k.String(), KindInputObject, func(t *TypeDef) {
		for _, op := range scalar.Operators(k) {
			t.add(string(op), operandType(k, op))
		}
	})
}

// listFilter generates <Kind>ListFilters { eq: [K!] includes: K }.
func (c *BuildContext) listFilter(k scalar.Kind) string {
	return c.ensure(ListFilterName(k), "listFilters:"+k.String(), KindInputObject, func(t *TypeDef) {
		for _, op := range scalar.ListOperators(k) {
			t.add(string(op), listOperandType(k, op))
		}
	})
}

// operandType is the argument type of a scalar filter operator.
func operandType(k scalar.Kind, op scalar.Operator) model.TypeRef {
	if op == scalar.OpIn {
		return model.ListOf(k.String())
	}
	return model.Named(k.String())
}

// listOperandType is the argument type of a list filter operator.
func listOperandType(k scalar.Kind, op scalar.Operator) model.TypeRef {
	if op == scalar.OpEq {
		return model.ListOf(k.String())
	}
	return model.Named(k.String())
}

// scalarMutations generates <Kind>ScalarMutations.
func (c *BuildContext) scalarMutations(k scalar.Kind) string {
	return c.ensure(k.String()+"ScalarMutations", "scalarMutations:"+k.String(), KindInputObject, func(t *TypeDef) {
		for _, op := range scalar.ScalarMutations(k) {
			t.add(op.Name, mutationOperandType(op))
		}
	})
}

// listMutations generates List<Kind>Mutations.
func (c *BuildContext) listMutations(k scalar.Kind) string {
	return c.ensure("List"+k.String()+"Mutations", "listMutations:"+k.String(), KindInputObject, func(t *TypeDef) {
		for _, op := range scalar.ListMutations(k) {
			t.add(op.Name, mutationOperandType(op))
		}
	})
}

func mutationOperandType(op scalar.MutationOp) model.TypeRef {
	if op.List {
		return model.ListOf(op.Operand.String())
	}
	return model.Named(op.Operand.String())
}

// scalarAggregationFilters generates <Kind>ScalarAggregationFilters: one slot
// per aggregate, each typed with the scalar filter of the aggregate's result
// kind. Result kinds are always ordered.
func (c *BuildContext) scalarAggregationFilters(k scalar.Kind) string {
	return c.ensure(k.String()+"ScalarAggregationFilters", "scalarAggregationFilters:"+k.String(), KindInputObject, func(t *TypeDef) {
		for _, fn := range scalar.WhereAggregates(k) {
			t.add(string(fn), model.Named(c.scalarFilter(scalar.ResultKind(k, fn))))
		}
	})
}

// aggregateSelection generates <Kind>AggregateSelection for output.
func (c *BuildContext) aggregateSelection(k scalar.Kind) string {
	return c.ensure(k.String()+"AggregateSelection", "aggregateSelection:"+k.String(), KindObject, func(t *TypeDef) {
		for _, fn := range scalar.SelectionAggregates(k) {
			t.add(string(fn), model.Named(scalar.ResultKind(k, fn).String()))
		}
	})
}

var scalarDescriptions = map[scalar.Kind]string{
	scalar.BigInt:        "A 64-bit or wider integer. Accepts an integer or a decimal string as input and is always returned as a string.",
	scalar.DateTime:      "An RFC 3339 timestamp with a UTC offset.",
	scalar.Date:          "A calendar date in YYYY-MM-DD form.",
	scalar.LocalDateTime: "A date and time without a UTC offset.",
	scalar.Time:          "A time of day with a UTC offset.",
	scalar.LocalTime:     "A time of day without a UTC offset.",
}

// customScalar registers the declaration of a non-built-in scalar.
func (c *BuildContext) customScalar(k scalar.Kind) {
	c.ensure(k.String(), "scalar:"+k.String(), KindScalar, func(t *TypeDef) {
		t.Description = scalarDescriptions[k]
	})
}
