package schema

import (
	"fmt"

	"github.com/roach88/schemaforge/internal/model"
	"github.com/roach88/schemaforge/internal/naming"
	"github.com/roach88/schemaforge/internal/scalar"
	"github.com/roach88/schemaforge/internal/visibility"
)

func mutationReason(field, op string) string {
	return fmt.Sprintf("Please use the generic mutation '%s: { %s: ... } }' instead.", field, op)
}

// cardinality wraps name as [name!] for list relationships.
func cardinality(f *model.Field, name string) model.TypeRef {
	if f.IsList() {
		return model.ListOf(name)
	}
	return model.Named(name)
}

// createInput generates <E>CreateInput. Scalar fields keep their declared
// type so required fields stay required.
func (c *BuildContext) createInput(e *model.Entity) string {
	return c.ensure(e.Name+"CreateInput", "createInput:"+e.Name, KindInputObject, func(t *TypeDef) {
		for _, f := range e.Fields {
			if !visibility.Include(f, visibility.Create) {
				continue
			}
			if f.IsScalar() {
				t.add(f.Name, f.Type)
				continue
			}
			t.add(f.Name, model.Named(c.relationshipCreateInput(e.Name, f)))
		}
	})
}

// relationshipCreateInput returns <P>FieldInput for entity targets and the
// per-concrete map <P>CreateInput for interface and union targets.
func (c *BuildContext) relationshipCreateInput(owner string, f *model.Field) string {
	rel := f.Relation
	p := relationshipName(owner, f)
	if rel.TargetCategory == model.TargetEntity {
		return c.fieldInput(p, f, c.model.Entity(rel.Target))
	}
	return c.ensureRel(p, "CreateInput", KindInputObject, func(t *TypeDef) {
		for _, concrete := range c.model.ConcreteTargets(rel) {
			t.add(concrete.Name, model.Named(c.fieldInput(p.concrete(concrete.Name), f, concrete)))
		}
	})
}

// fieldInput generates <p>FieldInput { create connect } for one concrete
// target.
func (c *BuildContext) fieldInput(p relName, f *model.Field, target *model.Entity) string {
	return c.ensureRel(p, "FieldInput", KindInputObject, func(t *TypeDef) {
		t.add("create", cardinality(f, c.createFieldInput(p, f, target)))
		t.add("connect", cardinality(f, c.connectFieldInput(p, f, target)))
	})
}

func (c *BuildContext) createFieldInput(p relName, f *model.Field, target *model.Entity) string {
	return c.ensureRel(p, "CreateFieldInput", KindInputObject, func(t *TypeDef) {
		t.add("node", model.NonNullOf(c.createInput(target)))
		if edge, required := c.edgeCreateInput(f.Relation); edge != "" {
			ref := model.Named(edge)
			ref.NonNull = required
			t.add("edge", ref)
		}
	})
}

func (c *BuildContext) connectFieldInput(p relName, f *model.Field, target *model.Entity) string {
	return c.ensureRel(p, "ConnectFieldInput", KindInputObject, func(t *TypeDef) {
		t.add("where", model.Named(c.connectWhere(target)))
		if edge, required := c.edgeCreateInput(f.Relation); edge != "" {
			ref := model.Named(edge)
			ref.NonNull = required
			t.add("edge", ref)
		}
	})
}

// edgeCreateInput returns the properties create input of a relationship and
// whether it is required (some property is non-null).
func (c *BuildContext) edgeCreateInput(rel *model.Relationship) (string, bool) {
	props := c.model.Properties(rel.Properties)
	if props == nil {
		return "", false
	}
	required := false
	for _, f := range props.Fields {
		if f.Type.NonNull && visibility.Include(f, visibility.Create) {
			required = true
		}
	}
	name := c.ensure(props.Name+"CreateInput", "createInput:"+props.Name, KindInputObject, func(t *TypeDef) {
		for _, f := range props.Fields {
			if visibility.Include(f, visibility.Create) {
				t.add(f.Name, f.Type)
			}
		}
	})
	return name, required
}

func (c *BuildContext) connectWhere(e *model.Entity) string {
	return c.ensure(e.Name+"ConnectWhere", "connectWhere:"+e.Name, KindInputObject, func(t *TypeDef) {
		t.add("node", model.NonNullOf(c.entityWhere(e)))
	})
}

// updateSlots adds <Kind>ScalarMutations / List<Kind>Mutations slots and
// their deprecated flattened aliases for every updatable scalar field.
func (c *BuildContext) updateSlots(t *TypeDef, fields []*model.Field) {
	for _, f := range fields {
		if !f.IsScalar() || !visibility.Include(f, visibility.Update) {
			continue
		}
		var ops []scalar.MutationOp
		if f.IsList() {
			t.add(f.Name, model.Named(c.listMutations(f.Kind)))
			ops = scalar.ListMutations(f.Kind)
		} else {
			t.add(f.Name, model.Named(c.scalarMutations(f.Kind)))
			ops = scalar.ScalarMutations(f.Kind)
		}
		if !c.deprecated() {
			continue
		}
		for _, op := range ops {
			t.add(f.Name+"_"+op.Alias, mutationOperandType(op)).deprecate(mutationReason(f.Name, op.Name))
		}
	}
}

// updateInput generates <E>UpdateInput.
func (c *BuildContext) updateInput(e *model.Entity) string {
	return c.ensure(e.Name+"UpdateInput", "updateInput:"+e.Name, KindInputObject, func(t *TypeDef) {
		c.updateSlots(t, e.Fields)
		for _, f := range e.RelationshipFields() {
			if visibility.Include(f, visibility.Update) {
				t.add(f.Name, c.relationshipUpdateInput(e.Name, f))
			}
		}
	})
}

func (c *BuildContext) relationshipUpdateInput(owner string, f *model.Field) model.TypeRef {
	rel := f.Relation
	p := relationshipName(owner, f)
	if rel.TargetCategory == model.TargetEntity {
		return cardinality(f, c.updateFieldInput(p, f, c.model.Entity(rel.Target), c.targetWhere(rel)))
	}
	return model.Named(c.ensureRel(p, "UpdateInput", KindInputObject, func(t *TypeDef) {
		for _, concrete := range c.model.ConcreteTargets(rel) {
			t.add(concrete.Name, cardinality(f, c.updateFieldInput(p.concrete(concrete.Name), f, concrete, c.entityWhere(concrete))))
		}
	}))
}

// updateFieldInput generates <p>UpdateFieldInput with its nested
// where/update/connect/disconnect/create/delete inputs.
func (c *BuildContext) updateFieldInput(p relName, f *model.Field, target *model.Entity, nodeWhere string) string {
	rel := f.Relation
	return c.ensureRel(p, "UpdateFieldInput", KindInputObject, func(t *TypeDef) {
		cw := c.connectionWhere(p, nodeWhere, rel.Properties)
		t.add("where", model.Named(cw))
		t.add("update", model.Named(c.updateConnectionInput(p, rel, target)))
		t.add("connect", model.ListOf(c.connectFieldInput(p, f, target)))
		t.add("disconnect", model.ListOf(c.whereOnlyInput(p, "DisconnectFieldInput", cw)))
		t.add("create", model.ListOf(c.createFieldInput(p, f, target)))
		t.add("delete", model.ListOf(c.whereOnlyInput(p, "DeleteFieldInput", cw)))
	})
}

func (c *BuildContext) updateConnectionInput(p relName, rel *model.Relationship, target *model.Entity) string {
	return c.ensureRel(p, "UpdateConnectionInput", KindInputObject, func(t *TypeDef) {
		t.add("node", model.Named(c.updateInput(target)))
		if props := c.model.Properties(rel.Properties); props != nil {
			t.add("edge", model.Named(c.ensure(props.Name+"UpdateInput", "updateInput:"+props.Name, KindInputObject, func(pt *TypeDef) {
				c.updateSlots(pt, props.Fields)
			})))
		}
	})
}

func (c *BuildContext) whereOnlyInput(p relName, suffix, connectionWhere string) string {
	return c.ensureRel(p, suffix, KindInputObject, func(t *TypeDef) {
		t.add("where", model.Named(connectionWhere))
	})
}

// deleteInput generates <E>DeleteInput with one cascade slot per
// relationship.
func (c *BuildContext) deleteInput(e *model.Entity) string {
	return c.ensure(e.Name+"DeleteInput", "deleteInput:"+e.Name, KindInputObject, func(t *TypeDef) {
		for _, f := range e.RelationshipFields() {
			rel := f.Relation
			p := relationshipName(e.Name, f)
			if rel.TargetCategory == model.TargetEntity {
				cw := c.connectionWhere(p, c.targetWhere(rel), rel.Properties)
				t.add(f.Name, model.ListOf(c.whereOnlyInput(p, "DeleteFieldInput", cw)))
				continue
			}
			t.add(f.Name, model.Named(c.ensureRel(p, "DeleteInput", KindInputObject, func(dt *TypeDef) {
				for _, concrete := range c.model.ConcreteTargets(rel) {
					pc := p.concrete(concrete.Name)
					cw := c.connectionWhere(pc, c.entityWhere(concrete), rel.Properties)
					dt.add(concrete.Name, model.ListOf(c.whereOnlyInput(pc, "DeleteFieldInput", cw)))
				}
			})))
		}
	})
}

func (c *BuildContext) infoTypes() {
	c.ensure("CreateInfo", "shared:CreateInfo", KindObject, func(t *TypeDef) {
		t.Description = "Information about the number of nodes and relationships created during a create mutation"
		t.add("nodesCreated", model.NonNullOf(scalar.Int.String()))
		t.add("relationshipsCreated", model.NonNullOf(scalar.Int.String()))
	})
	c.ensure("UpdateInfo", "shared:UpdateInfo", KindObject, func(t *TypeDef) {
		t.Description = "Information about the number of nodes and relationships created and deleted during an update mutation"
		t.add("nodesCreated", model.NonNullOf(scalar.Int.String()))
		t.add("nodesDeleted", model.NonNullOf(scalar.Int.String()))
		t.add("relationshipsCreated", model.NonNullOf(scalar.Int.String()))
		t.add("relationshipsDeleted", model.NonNullOf(scalar.Int.String()))
	})
	c.ensure("DeleteInfo", "shared:DeleteInfo", KindObject, func(t *TypeDef) {
		t.Description = "Information about the number of nodes and relationships deleted during a delete mutation"
		t.add("nodesDeleted", model.NonNullOf(scalar.Int.String()))
		t.add("relationshipsDeleted", model.NonNullOf(scalar.Int.String()))
	})
}

// mutationFields adds createEs / updateEs / deleteEs to the mutation root.
func (c *BuildContext) mutationFields(m *TypeDef, e *model.Entity) {
	c.infoTypes()
	upper := naming.UpperFirst(e.Plural)
	object := c.entityObject(e)

	createResp := c.ensure("Create"+upper+"MutationResponse", "createResponse:"+e.Name, KindObject, func(t *TypeDef) {
		t.add("info", model.NonNullOf("CreateInfo"))
		t.add(e.Plural, model.NonNullListOf(object))
	})
	updateResp := c.ensure("Update"+upper+"MutationResponse", "updateResponse:"+e.Name, KindObject, func(t *TypeDef) {
		t.add("info", model.NonNullOf("UpdateInfo"))
		t.add(e.Plural, model.NonNullListOf(object))
	})

	m.add("create"+upper, model.NonNullOf(createResp)).
		arg("input", model.NonNullListOf(c.createInput(e)))
	m.add("update"+upper, model.NonNullOf(updateResp)).
		arg("where", model.Named(c.entityWhere(e))).
		arg("update", model.Named(c.updateInput(e)))
	m.add("delete"+upper, model.NonNullOf("DeleteInfo")).
		arg("where", model.Named(c.entityWhere(e))).
		arg("delete", model.Named(c.deleteInput(e)))
}
