package schema

import (
	"fmt"

	"github.com/roach88/schemaforge/internal/model"
	"github.com/roach88/schemaforge/internal/naming"
	"github.com/roach88/schemaforge/internal/scalar"
	"github.com/roach88/schemaforge/internal/visibility"
)

func aggregateReason(field string, fn scalar.AggregateFunc, op scalar.Operator) string {
	return fmt.Sprintf("Please use the relevant generic filter %s: { %s: { %s: ... } }", field, fn, op)
}

// aggregateInput generates <P>AggregateInput, the relationship aggregate
// slot of a where input.
func (c *BuildContext) aggregateInput(p relName, f *model.Field) string {
	rel := f.Relation
	return c.ensureRel(p, "AggregateInput", KindInputObject, func(t *TypeDef) {
		c.logicalCombinators(t)
		t.add("count", model.Named(c.scalarFilter(scalar.Int)))
		if c.deprecated() {
			for _, cmp := range scalar.AggregateComparisons {
				t.add("count_"+cmp.Op.Alias(), model.Named(scalar.Int.String())).
					deprecate(filterReason("count", string(cmp.Op)))
			}
		}
		if node := c.aggregationWhere(p, "NodeAggregationWhereInput", c.model.TargetFields(rel)); node != "" {
			t.add("node", model.Named(node))
		}
		if props := c.model.Properties(rel.Properties); props != nil {
			if edge := c.aggregationWhere(p, "EdgeAggregationWhereInput", props.Fields); edge != "" {
				t.add("edge", model.Named(edge))
			}
		}
	})
}

// aggregationWhere generates a node or edge aggregation where input over
// fields. It returns "" when no field qualifies.
func (c *BuildContext) aggregationWhere(p relName, suffix string, fields []*model.Field) string {
	included := visibility.Filter(fields, visibility.AggregationWhere)
	if len(included) == 0 {
		return ""
	}
	return c.ensureRel(p, suffix, KindInputObject, func(t *TypeDef) {
		c.logicalCombinators(t)
		for _, f := range included {
			t.add(f.Name, model.Named(c.scalarAggregationFilters(f.Kind)))
			if !c.deprecated() {
				continue
			}
			for _, fn := range scalar.WhereAggregates(f.Kind) {
				result := scalar.ResultKind(f.Kind, fn)
				for _, cmp := range scalar.AggregateComparisons {
					t.add(f.Name+"_"+fn.Alias()+"_"+cmp.Alias, model.Named(result.String())).
						deprecate(aggregateReason(f.Name, fn, cmp.Op))
				}
			}
		}
	})
}

// addAggregateSelections adds one <Kind>AggregateSelection per aggregatable field.
func (c *BuildContext) addAggregateSelections(t *TypeDef, fields []*model.Field) {
	for _, f := range fields {
		if visibility.Include(f, visibility.AggregateSelection) {
			t.add(f.Name, model.NonNullOf(c.aggregateSelection(f.Kind)))
		}
	}
}

// entityAggregateSelection generates <E>AggregateSelection, the result of
// the root <plural>Aggregate query.
func (c *BuildContext) entityAggregateSelection(e *model.Entity) string {
	return c.ensure(e.Name+"AggregateSelection", "aggregateSelection:"+e.Name, KindObject, func(t *TypeDef) {
		t.add("count", model.NonNullOf(scalar.Int.String()))
		c.addAggregateSelections(t, e.Fields)
	})
}

// relationshipAggregationSelection generates
// <Owner><Target><Field>AggregationSelection { count node edge }.
func (c *BuildContext) relationshipAggregationSelection(owner string, f *model.Field) string {
	rel := f.Relation
	base := relName{prefix: owner + rel.Target + naming.UpperFirst(f.Name), key: owner + "." + f.Name}
	return c.ensureRel(base, "AggregationSelection", KindObject, func(t *TypeDef) {
		t.add("count", model.NonNullOf(scalar.Int.String()))
		if node := c.aggregateSelectionObject(base, "NodeAggregateSelection", c.model.TargetFields(rel)); node != "" {
			t.add("node", model.Named(node))
		}
		if props := c.model.Properties(rel.Properties); props != nil {
			if edge := c.aggregateSelectionObject(base, "EdgeAggregateSelection", props.Fields); edge != "" {
				t.add("edge", model.Named(edge))
			}
		}
	})
}

func (c *BuildContext) aggregateSelectionObject(base relName, suffix string, fields []*model.Field) string {
	if len(visibility.Filter(fields, visibility.AggregateSelection)) == 0 {
		return ""
	}
	return c.ensureRel(base, suffix, KindObject, func(t *TypeDef) {
		c.addAggregateSelections(t, fields)
	})
}
