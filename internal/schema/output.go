package schema

import (
	"fmt"

	"github.com/roach88/schemaforge/internal/model"
	"github.com/roach88/schemaforge/internal/naming"
	"github.com/roach88/schemaforge/internal/scalar"
	"github.com/roach88/schemaforge/internal/visibility"
)

const (
	typePageInfo      = "PageInfo"
	typeSortDirection = "SortDirection"
)

func (c *BuildContext) pageInfo() string {
	return c.ensure(typePageInfo, "shared:PageInfo", KindObject, func(t *TypeDef) {
		t.Description = "Pagination information (Relay)"
		t.add("hasNextPage", model.NonNullOf(scalar.Boolean.String()))
		t.add("hasPreviousPage", model.NonNullOf(scalar.Boolean.String()))
		t.add("startCursor", model.Named(scalar.String.String()))
		t.add("endCursor", model.Named(scalar.String.String()))
	})
}

func (c *BuildContext) sortDirection() string {
	return c.ensure(typeSortDirection, "shared:SortDirection", KindEnum, func(t *TypeDef) {
		t.Values = []string{"ASC", "DESC"}
	})
}

func addScalarOutput(t *TypeDef, f *model.Field) {
	fd := t.add(f.Name, f.Type).describe(f.Description)
	if f.Deprecated {
		fd.deprecate(f.Deprecation)
	}
}

// entityObject generates the output type of an entity.
func (c *BuildContext) entityObject(e *model.Entity) string {
	return c.ensure(e.Name, "entity:"+e.Name, KindObject, func(t *TypeDef) {
		t.Description = e.Description
		t.Interfaces = append(t.Interfaces, e.Interfaces...)
		for _, f := range e.Fields {
			if f.IsScalar() {
				if visibility.Include(f, visibility.Output) {
					addScalarOutput(t, f)
				}
				continue
			}
			c.relationshipOutput(t, e.Name, f, true)
		}
	})
}

// interfaceObject generates an interface type. Relationship fields carry the
// same arguments as on the implementations; connections and aggregates are
// only exposed on the concrete types.
func (c *BuildContext) interfaceObject(i *model.Interface) string {
	return c.ensure(i.Name, "interface:"+i.Name, KindInterface, func(t *TypeDef) {
		t.Description = i.Description
		for _, f := range i.Fields {
			if f.IsScalar() {
				if visibility.Include(f, visibility.Output) {
					addScalarOutput(t, f)
				}
				continue
			}
			c.relationshipOutput(t, i.Name, f, false)
		}
		for _, impl := range c.model.Implementations(i.Name) {
			c.entityObject(impl)
		}
	})
}

func (c *BuildContext) unionObject(u *model.Union) string {
	return c.ensure(u.Name, "union:"+u.Name, KindUnion, func(t *TypeDef) {
		t.Description = u.Description
		for _, member := range u.Members {
			t.Members = append(t.Members, c.entityObject(c.model.Entity(member)))
		}
	})
}

func (c *BuildContext) propertiesObject(p *model.Properties) string {
	return c.ensure(p.Name, "properties:"+p.Name, KindObject, func(t *TypeDef) {
		t.Description = fmt.Sprintf("The edge properties for the following fields:\n* %s", p.Name)
		for _, f := range p.Fields {
			if visibility.Include(f, visibility.Output) {
				addScalarOutput(t, f)
			}
		}
	})
}

func (c *BuildContext) targetOutput(rel *model.Relationship) string {
	switch rel.TargetCategory {
	case model.TargetEntity:
		return c.entityObject(c.model.Entity(rel.Target))
	case model.TargetInterface:
		return c.interfaceObject(c.model.Interface(rel.Target))
	case model.TargetUnion:
		return c.unionObject(c.model.Union(rel.Target))
	default:
		panic(fmt.Sprintf("schema: unhandled target category %v", rel.TargetCategory))
	}
}

// targetSort returns the sort input of a relationship target, or "" when the
// target has nothing sortable.
func (c *BuildContext) targetSort(rel *model.Relationship) string {
	switch rel.TargetCategory {
	case model.TargetEntity:
		e := c.model.Entity(rel.Target)
		return c.sortInput(e.Name, e.Fields)
	case model.TargetInterface:
		i := c.model.Interface(rel.Target)
		return c.sortInput(i.Name, i.Fields)
	default:
		return ""
	}
}

// sortInput generates <T>Sort. It returns "" when no field is sortable.
func (c *BuildContext) sortInput(owner string, fields []*model.Field) string {
	sortable := visibility.Filter(fields, visibility.Sort)
	if len(sortable) == 0 {
		return ""
	}
	return c.ensure(owner+"Sort", "sort:"+owner, KindInputObject, func(t *TypeDef) {
		t.Description = fmt.Sprintf("Fields to sort %s by. The order in which sorts are applied is not guaranteed when specifying many fields in one %sSort object.", owner, owner)
		dir := c.sortDirection()
		for _, f := range sortable {
			t.add(f.Name, model.Named(dir))
		}
	})
}

// relationshipOutput adds the accessor, aggregate and connection fields of
// one relationship. Connections and aggregates are skipped on interfaces.
func (c *BuildContext) relationshipOutput(t *TypeDef, owner string, f *model.Field, concrete bool) {
	rel := f.Relation
	where := c.targetWhere(rel)

	if visibility.Include(f, visibility.Output) {
		c.targetOutput(rel)
		fd := t.add(f.Name, f.Type).describe(f.Description)
		if f.Deprecated {
			fd.deprecate(f.Deprecation)
		}
		fd.arg("where", model.Named(where))
		if sort := c.targetSort(rel); sort != "" {
			fd.arg("sort", model.ListOf(sort))
		}
		fd.arg("limit", model.Named(scalar.Int.String()))
		fd.arg("offset", model.Named(scalar.Int.String()))
	}

	if !concrete {
		return
	}

	if visibility.RelationshipAggregateEnabled(f) {
		t.add(f.Name+"Aggregate", model.Named(c.relationshipAggregationSelection(owner, f))).
			arg("where", model.Named(where))
	}

	if visibility.Include(f, visibility.Output) {
		p := relationshipName(owner, f)
		fd := t.add(f.Name+"Connection", model.NonNullOf(c.relationshipConnection(p, rel))).
			arg("where", model.Named(c.connectionWhere(p, where, rel.Properties))).
			arg("first", model.Named(scalar.Int.String())).
			arg("after", model.Named(scalar.String.String()))
		if sort := c.connectionSort(p, rel); sort != "" {
			fd.arg("sort", model.ListOf(sort))
		}
		if f.Deprecated {
			fd.deprecate(f.Deprecation)
		}
	}
}

// relationshipConnection generates <P>Connection and <P>Relationship.
func (c *BuildContext) relationshipConnection(p relName, rel *model.Relationship) string {
	edge := c.ensureRel(p, "Relationship", KindObject, func(t *TypeDef) {
		t.add("cursor", model.NonNullOf(scalar.String.String()))
		t.add("node", model.NonNullOf(c.targetOutput(rel)))
		if props := c.model.Properties(rel.Properties); props != nil {
			t.add("properties", model.NonNullOf(c.propertiesObject(props)))
		}
	})
	return c.ensureRel(p, "Connection", KindObject, func(t *TypeDef) {
		t.add("edges", model.NonNullListOf(edge))
		t.add("totalCount", model.NonNullOf(scalar.Int.String()))
		t.add("pageInfo", model.NonNullOf(c.pageInfo()))
	})
}

// connectionSort generates <P>ConnectionSort { node edge }, or "" when
// neither side is sortable.
func (c *BuildContext) connectionSort(p relName, rel *model.Relationship) string {
	node := c.targetSort(rel)
	edge := ""
	if props := c.model.Properties(rel.Properties); props != nil {
		edge = c.sortInput(props.Name, props.Fields)
	}
	if node == "" && edge == "" {
		return ""
	}
	return c.ensureRel(p, "ConnectionSort", KindInputObject, func(t *TypeDef) {
		if node != "" {
			t.add("node", model.Named(node))
		}
		if edge != "" {
			t.add("edge", model.Named(edge))
		}
	})
}

// entityConnection generates <Plural>Connection and <E>Edge for the root
// connection query.
func (c *BuildContext) entityConnection(e *model.Entity) string {
	edge := c.ensure(e.Name+"Edge", "edge:"+e.Name, KindObject, func(t *TypeDef) {
		t.add("cursor", model.NonNullOf(scalar.String.String()))
		t.add("node", model.NonNullOf(c.entityObject(e)))
	})
	name := naming.UpperFirst(e.Plural) + "Connection"
	return c.ensure(name, "rootConnection:"+e.Name, KindObject, func(t *TypeDef) {
		t.add("edges", model.NonNullListOf(edge))
		t.add("totalCount", model.NonNullOf(scalar.Int.String()))
		t.add("pageInfo", model.NonNullOf(c.pageInfo()))
	})
}

// queryFields adds the root query fields of an entity.
func (c *BuildContext) queryFields(q *TypeDef, e *model.Entity) {
	where := c.entityWhere(e)
	sort := c.sortInput(e.Name, e.Fields)

	list := q.add(e.Plural, model.NonNullListOf(c.entityObject(e))).arg("where", model.Named(where))
	if sort != "" {
		list.arg("sort", model.ListOf(sort))
	}
	list.arg("limit", model.Named(scalar.Int.String()))
	list.arg("offset", model.Named(scalar.Int.String()))

	conn := q.add(e.Plural+"Connection", model.NonNullOf(c.entityConnection(e))).arg("where", model.Named(where))
	if sort != "" {
		conn.arg("sort", model.ListOf(sort))
	}
	conn.arg("first", model.Named(scalar.Int.String()))
	conn.arg("after", model.Named(scalar.String.String()))

	q.add(e.Plural+"Aggregate", model.NonNullOf(c.entityAggregateSelection(e))).arg("where", model.Named(where))
}
