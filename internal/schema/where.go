package schema

import (
	"fmt"
	"strings"

	"github.com/roach88/schemaforge/internal/model"
	"github.com/roach88/schemaforge/internal/naming"
	"github.com/roach88/schemaforge/internal/scalar"
	"github.com/roach88/schemaforge/internal/visibility"
)

// Quantifiers are the relationship filter keys, in emission order.
var Quantifiers = []string{"all", "none", "single", "some"}

// relName names the types generated for one relationship field. prefix
// starts every type name; key identifies the field itself, so two fields
// whose prefixes happen to concatenate to the same text still register
// different origins and the clash is reported.
type relName struct {
	prefix string
	key    string
}

func relationshipName(owner string, f *model.Field) relName {
	return relName{prefix: owner + naming.UpperFirst(f.Name), key: owner + "." + f.Name}
}

// concrete narrows n to one concrete target of an interface or union
// relationship.
func (n relName) concrete(target string) relName {
	return relName{prefix: n.prefix + target, key: n.key + "@" + target}
}

// ensureRel registers n.prefix+suffix with an origin built from the
// suffix and the field key.
func (c *BuildContext) ensureRel(n relName, suffix string, kind TypeKind, fill func(*TypeDef)) string {
	return c.ensure(n.prefix+suffix, suffix+":"+n.key, kind, fill)
}

func filterReason(field, op string) string {
	return fmt.Sprintf("Please use the relevant generic filter %s: { %s: ... }", field, op)
}

func (c *BuildContext) logicalCombinators(t *TypeDef) {
	t.add("AND", model.ListOf(t.Name))
	t.add("OR", model.ListOf(t.Name))
	t.add("NOT", model.Named(t.Name))
}

// scalarSlots adds one filter slot per scalar field included in artifact,
// followed by its deprecated flattened aliases.
func (c *BuildContext) scalarSlots(t *TypeDef, fields []*model.Field, artifact visibility.Artifact) {
	for _, f := range fields {
		if !f.IsScalar() || !visibility.Include(f, artifact) {
			continue
		}

		var slot *FieldDef
		if f.IsList() {
			slot = t.add(f.Name, model.Named(c.listFilter(f.Kind)))
		} else {
			slot = t.add(f.Name, model.Named(c.scalarFilter(f.Kind)))
		}
		if f.Deprecated {
			slot.deprecate(f.Deprecation)
		}

		if !c.deprecated() {
			continue
		}
		if f.IsList() {
			for _, op := range scalar.ListOperators(f.Kind) {
				t.add(f.Name+"_"+op.Alias(), listOperandType(f.Kind, op)).
					deprecate(filterReason(f.Name, string(op)))
			}
			continue
		}
		for _, op := range scalar.Operators(f.Kind) {
			t.add(f.Name+"_"+op.Alias(), operandType(f.Kind, op)).
				deprecate(filterReason(f.Name, string(op)))
		}
	}
}

// entityWhere generates <E>Where.
func (c *BuildContext) entityWhere(e *model.Entity) string {
	return c.ensure(e.Name+"Where", "where:"+e.Name, KindInputObject, func(t *TypeDef) {
		c.logicalCombinators(t)
		c.scalarSlots(t, e.Fields, visibility.Where)
		for _, f := range e.RelationshipFields() {
			if visibility.Include(f, visibility.Where) {
				c.relationshipSlots(t, e.Name, f)
			}
		}
	})
}

// interfaceWhere generates <I>Where: the interface's own scalar slots plus
// one key per implementation that narrows to that concrete type.
func (c *BuildContext) interfaceWhere(i *model.Interface) string {
	return c.ensure(i.Name+"Where", "where:"+i.Name, KindInputObject, func(t *TypeDef) {
		c.logicalCombinators(t)
		c.scalarSlots(t, i.Fields, visibility.Where)
		for _, impl := range c.model.Implementations(i.Name) {
			t.add(impl.Name, model.Named(c.entityWhere(impl)))
		}
	})
}

// unionWhere generates <U>Where, a map keyed by concrete member type.
func (c *BuildContext) unionWhere(u *model.Union) string {
	return c.ensure(u.Name+"Where", "where:"+u.Name, KindInputObject, func(t *TypeDef) {
		for _, member := range c.model.ConcreteTargets(&model.Relationship{Target: u.Name, TargetCategory: model.TargetUnion}) {
			t.add(member.Name, model.Named(c.entityWhere(member)))
		}
	})
}

// propertiesWhere generates <Props>Where for relationship properties.
func (c *BuildContext) propertiesWhere(p *model.Properties) string {
	return c.ensure(p.Name+"Where", "where:"+p.Name, KindInputObject, func(t *TypeDef) {
		c.logicalCombinators(t)
		c.scalarSlots(t, p.Fields, visibility.Where)
	})
}

// targetWhere returns the where input of a relationship target.
func (c *BuildContext) targetWhere(rel *model.Relationship) string {
	switch rel.TargetCategory {
	case model.TargetEntity:
		return c.entityWhere(c.model.Entity(rel.Target))
	case model.TargetInterface:
		return c.interfaceWhere(c.model.Interface(rel.Target))
	case model.TargetUnion:
		return c.unionWhere(c.model.Union(rel.Target))
	default:
		panic(fmt.Sprintf("schema: unhandled target category %v", rel.TargetCategory))
	}
}

// relationshipSlots adds the quantifier, connection and aggregate slots for
// one relationship field of owner.
func (c *BuildContext) relationshipSlots(t *TypeDef, owner string, f *model.Field) {
	rel := f.Relation
	target := c.targetWhere(rel)
	p := relationshipName(owner, f)

	slot := t.add(f.Name, model.Named(c.relationshipFilters(rel.Target, target)))
	if f.Deprecated {
		slot.deprecate(f.Deprecation)
	}
	if c.deprecated() {
		for _, q := range Quantifiers {
			t.add(f.Name+"_"+strings.ToUpper(q), model.Named(target)).
				deprecate(filterReason(f.Name, q))
		}
	}

	cw := c.connectionWhere(p, target, rel.Properties)
	t.add(f.Name+"Connection", model.Named(c.connectionFilters(p, cw)))
	if c.deprecated() {
		for _, q := range Quantifiers {
			t.add(f.Name+"Connection_"+strings.ToUpper(q), model.Named(cw)).
				deprecate(filterReason(f.Name+"Connection", q))
		}
	}

	if visibility.RelationshipAggregateFilterEnabled(f) {
		t.add(f.Name+"Aggregate", model.Named(c.aggregateInput(p, f)))
	}
}

// relationshipFilters generates <T>RelationshipFilters { all none single some }.
func (c *BuildContext) relationshipFilters(target, where string) string {
	return c.ensure(target+"RelationshipFilters", "relationshipFilters:"+target, KindInputObject, func(t *TypeDef) {
		for _, q := range Quantifiers {
			t.add(q, model.Named(where))
		}
	})
}

// connectionFilters generates <P>ConnectionFilters { all none single some }.
func (c *BuildContext) connectionFilters(p relName, connectionWhere string) string {
	return c.ensureRel(p, "ConnectionFilters", KindInputObject, func(t *TypeDef) {
		for _, q := range Quantifiers {
			t.add(q, model.Named(connectionWhere))
		}
	})
}

// connectionWhere generates <P>ConnectionWhere { AND OR NOT node edge }.
func (c *BuildContext) connectionWhere(p relName, nodeWhere, properties string) string {
	return c.ensureRel(p, "ConnectionWhere", KindInputObject, func(t *TypeDef) {
		c.logicalCombinators(t)
		t.add("node", model.Named(nodeWhere))
		if props := c.model.Properties(properties); props != nil {
			t.add("edge", model.Named(c.propertiesWhere(props)))
		}
	})
}
