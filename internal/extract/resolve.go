package extract

import (
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/schemaforge/internal/model"
	"github.com/roach88/schemaforge/internal/naming"
	"github.com/roach88/schemaforge/internal/scalar"
)

// declSet is the unresolved output of a front end. Both the SDL and the CUE
// front end fill one and hand it to resolve.
type declSet struct {
	objects    []*objectDecl
	interfaces []*interfaceDecl
	unions     []*unionDecl
}

type objectDecl struct {
	name         string
	description  string
	node         bool
	properties   bool
	plural       string
	subscribable bool
	interfaces   []string
	fields       []*fieldDecl
	pos          Position
}

type interfaceDecl struct {
	name        string
	description string
	fields      []*fieldDecl
	pos         Position
}

type unionDecl struct {
	name        string
	description string
	members     []string
	pos         Position
}

type fieldDecl struct {
	name         string
	description  string
	typ          model.TypeRef
	deprecated   bool
	reason       string
	relationship *relationshipDecl
	declared     bool

	selectable model.Selectable
	filterable model.Filterable
	sortable   model.Sortable
	settable   model.Settable

	pos Position
}

type relationshipDecl struct {
	typ        string
	direction  string
	properties string
	aggregate  *bool
}

func newFieldDecl(name string, typ model.TypeRef, pos Position) *fieldDecl {
	sel, filt, sort, set := model.DefaultCapabilities()
	return &fieldDecl{
		name:       name,
		typ:        typ,
		selectable: sel,
		filterable: filt,
		sortable:   sort,
		settable:   set,
		pos:        pos,
	}
}

type typeCategory int

const (
	catNone typeCategory = iota
	catEntity
	catProperties
	catInterface
	catUnion
)

type resolver struct {
	set   *declSet
	names map[string]typeCategory
	errs  []error
}

func (r *resolver) fail(code, path string, pos Position, format string, args ...any) {
	r.errs = append(r.errs, &DeclarationError{
		Code:    code,
		Path:    path,
		Message: fmt.Sprintf(format, args...),
		Pos:     pos,
	})
}

// resolve validates a declaration set and builds the immutable model.
// All problems are collected and returned together.
func resolve(set *declSet) (*model.Model, error) {
	r := &resolver{set: set, names: make(map[string]typeCategory)}
	m := &model.Model{}

	r.register(set)

	for _, od := range set.objects {
		switch {
		case od.node && od.properties:
			r.fail(ErrConflictingMarkers, od.name, od.pos, "@node and @relationshipProperties are mutually exclusive")
		case od.properties:
			m.PropertyTypes = append(m.PropertyTypes, r.properties(od))
		case od.node:
			m.Entities = append(m.Entities, r.entity(od))
		default:
			r.fail(ErrMissingMarker, od.name, od.pos, "object type must be marked @node or @relationshipProperties")
		}
	}
	for _, id := range set.interfaces {
		m.Interfaces = append(m.Interfaces, r.iface(id))
	}
	for _, ud := range set.unions {
		m.Unions = append(m.Unions, r.union(ud, m))
	}
	r.checkImplementations(m)

	if len(r.errs) > 0 {
		return nil, errors.Join(r.errs...)
	}
	return m, nil
}

func (r *resolver) register(set *declSet) {
	add := func(name string, cat typeCategory, pos Position) {
		if _, ok := scalar.Parse(name); ok {
			r.fail(ErrDuplicateDeclaration, name, pos, "type name collides with built-in scalar %s", name)
			return
		}
		if _, ok := r.names[name]; ok {
			r.fail(ErrDuplicateDeclaration, name, pos, "type %s is declared more than once", name)
			return
		}
		r.names[name] = cat
	}
	for _, od := range set.objects {
		cat := catEntity
		if od.properties && !od.node {
			cat = catProperties
		}
		add(od.name, cat, od.pos)
	}
	for _, id := range set.interfaces {
		add(id.name, catInterface, id.pos)
	}
	for _, ud := range set.unions {
		add(ud.name, catUnion, ud.pos)
	}
}

func (r *resolver) entity(od *objectDecl) *model.Entity {
	e := &model.Entity{
		Name:         od.name,
		Plural:       od.plural,
		Description:  od.description,
		Interfaces:   slices.Clone(od.interfaces),
		Subscribable: od.subscribable,
	}
	if e.Plural == "" {
		e.Plural = naming.Plural(od.name)
	}
	for _, iface := range od.interfaces {
		if r.names[iface] != catInterface {
			r.fail(ErrUnknownInterface, od.name, od.pos, "implements unknown interface %s", iface)
		}
	}
	for _, fd := range od.fields {
		if f := r.field(od.name, fd, true); f != nil {
			e.Fields = append(e.Fields, f)
		}
	}
	return e
}

func (r *resolver) properties(od *objectDecl) *model.Properties {
	p := &model.Properties{Name: od.name}
	for _, fd := range od.fields {
		if f := r.field(od.name, fd, false); f != nil {
			p.Fields = append(p.Fields, f)
		}
	}
	return p
}

func (r *resolver) iface(id *interfaceDecl) *model.Interface {
	i := &model.Interface{Name: id.name, Description: id.description}
	for _, fd := range id.fields {
		path := id.name + "." + fd.name
		if _, ok := scalar.Parse(fd.typ.Name); !ok && !fd.declared && fd.relationship == nil {
			r.fail(ErrInvalidRelationship, path, fd.pos, "object-typed interface field requires @declareRelationship")
			continue
		}
		f := r.field(id.name, fd, true)
		if f == nil {
			continue
		}
		if fd.declared {
			if f.IsScalar() {
				r.fail(ErrInvalidRelationship, path, fd.pos, "@declareRelationship on scalar field")
				continue
			}
			i.Declared = append(i.Declared, f.Name)
		}
		i.Fields = append(i.Fields, f)
	}
	return i
}

func (r *resolver) union(ud *unionDecl, m *model.Model) *model.Union {
	u := &model.Union{Name: ud.name, Description: ud.description, Members: slices.Clone(ud.members)}
	for _, member := range ud.members {
		if r.names[member] != catEntity {
			r.fail(ErrUnknownUnionMember, ud.name, ud.pos, "member %s is not a @node type", member)
			continue
		}
		if e := m.Entity(member); e != nil {
			e.Unions = append(e.Unions, ud.name)
		}
	}
	return u
}

// field resolves one field declaration. Relationship fields are only
// accepted when allowRel is set.
// reservedFieldNames are generated next to declared fields: the logical
// combinators of every where input and the count of aggregate selections.
var reservedFieldNames = []string{"AND", "OR", "NOT", "count"}

func (r *resolver) field(owner string, fd *fieldDecl, allowRel bool) *model.Field {
	path := owner + "." + fd.name
	if slices.Contains(reservedFieldNames, fd.name) {
		r.fail(ErrReservedFieldName, path, fd.pos, "field name %s is reserved", fd.name)
		return nil
	}
	f := &model.Field{
		Name:        fd.name,
		Type:        fd.typ,
		Description: fd.description,
		Deprecated:  fd.deprecated,
		Deprecation: fd.reason,
		Selectable:  fd.selectable,
		Filterable:  fd.filterable,
		Sortable:    fd.sortable,
		Settable:    fd.settable,
	}

	if kind, ok := scalar.Parse(fd.typ.Name); ok {
		if fd.relationship != nil {
			r.fail(ErrInvalidRelationship, path, fd.pos, "@relationship on scalar field of type %s", fd.typ.Name)
			return nil
		}
		f.Kind = kind
		if fd.typ.NonNull && !fd.settable.OnCreate {
			r.fail(ErrNotSettable, path, fd.pos, "non-null field must be settable on create")
		}
		if fd.sortable.Explicit && fd.sortable.ByValue && fd.typ.List {
			r.fail(ErrSortableNotScalar, path, fd.pos, "list fields cannot be sortable")
		}
		return f
	}

	cat, known := r.names[fd.typ.Name]
	if !known {
		r.fail(ErrUnknownType, path, fd.pos, "unknown type %s", fd.typ.Name)
		return nil
	}
	if cat == catProperties {
		r.fail(ErrUnknownType, path, fd.pos, "%s is a relationship properties type and cannot be a field type", fd.typ.Name)
		return nil
	}
	if !allowRel {
		r.fail(ErrInvalidRelationship, path, fd.pos, "relationship properties cannot contain relationship fields")
		return nil
	}
	if fd.relationship == nil && !fd.declared {
		r.fail(ErrInvalidRelationship, path, fd.pos, "field of type %s requires @relationship", fd.typ.Name)
		return nil
	}

	rel := &model.Relationship{Target: fd.typ.Name}
	switch cat {
	case catEntity:
		rel.TargetCategory = model.TargetEntity
	case catInterface:
		rel.TargetCategory = model.TargetInterface
	case catUnion:
		rel.TargetCategory = model.TargetUnion
	}

	if rd := fd.relationship; rd != nil {
		rel.Type = rd.typ
		rel.Properties = rd.properties
		rel.Aggregate = rd.aggregate
		if rd.typ == "" {
			r.fail(ErrInvalidRelationship, path, fd.pos, "@relationship requires a type")
		}
		switch model.Direction(rd.direction) {
		case model.DirectionIn, model.DirectionOut:
			rel.Direction = model.Direction(rd.direction)
		default:
			r.fail(ErrInvalidRelationship, path, fd.pos, "direction must be IN or OUT, got %q", rd.direction)
		}
		if rd.properties != "" && r.names[rd.properties] != catProperties {
			r.fail(ErrUnknownProperties, path, fd.pos, "unknown relationship properties type %s", rd.properties)
		}
		if rd.aggregate != nil && *rd.aggregate && rel.TargetCategory == model.TargetUnion {
			r.fail(ErrUnionAggregate, path, fd.pos, "aggregate: true is not supported on union targets")
		}
	}
	if fd.sortable.Explicit && fd.sortable.ByValue {
		r.fail(ErrSortableNotScalar, path, fd.pos, "relationship fields cannot be sortable")
	}
	f.Relation = rel
	return f
}

func (r *resolver) checkImplementations(m *model.Model) {
	for _, e := range m.Entities {
		for _, name := range e.Interfaces {
			iface := m.Interface(name)
			if iface == nil {
				continue
			}
			for _, want := range iface.Fields {
				got := e.Field(want.Name)
				path := e.Name + "." + want.Name
				if got == nil {
					if slices.Contains(iface.Declared, want.Name) {
						r.fail(ErrUndeclaredRelationship, path, Position{}, "declared relationship %s.%s is not implemented", name, want.Name)
					} else {
						r.fail(ErrInterfaceMismatch, path, Position{}, "missing field required by interface %s", name)
					}
					continue
				}
				if got.Type.Name != want.Type.Name || got.Type.List != want.Type.List {
					r.fail(ErrInterfaceMismatch, path, Position{}, "type %s does not match %s on interface %s", got.Type, want.Type, name)
					continue
				}
				if slices.Contains(iface.Declared, want.Name) && (got.Relation == nil || got.Relation.Type == "") {
					r.fail(ErrUndeclaredRelationship, path, Position{}, "declared relationship %s.%s needs @relationship on the implementation", name, want.Name)
				}
			}
		}
	}

	// Interface relationship fields carry no type or direction of their own;
	// take them from the first implementation so filters on the interface can
	// be compiled.
	for _, iface := range m.Interfaces {
		for _, f := range iface.Fields {
			if f.Relation == nil || f.Relation.Type != "" {
				continue
			}
			for _, impl := range m.Implementations(iface.Name) {
				if implField := impl.Field(f.Name); implField != nil && implField.Relation != nil {
					f.Relation.Type = implField.Relation.Type
					f.Relation.Direction = implField.Relation.Direction
					f.Relation.Properties = implField.Relation.Properties
					break
				}
			}
		}
	}
}
