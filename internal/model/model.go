// Package model holds the immutable type model produced by the extractor:
// entities, interfaces, unions, relationship property types and their fields
// with capability flags.
//
// A Model is built once and never mutated afterwards. Generators and the
// predicate compiler only read from it.
package model

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/schemaforge/internal/scalar"
)

// Reserved record keys. A record reached through an interface or union
// relationship names its concrete type under TypenameKey; a related record
// carries its relationship properties under EdgeKey.
const (
	TypenameKey = "__typename"
	EdgeKey     = "__edge"
)

// TypeRef is a GraphQL type reference restricted to the shapes the model
// accepts: a named type, optionally wrapped in one list, with non-null on
// the list and/or its elements.
type TypeRef struct {
	Name        string `json:"name"`
	List        bool   `json:"list,omitempty"`
	NonNull     bool   `json:"non_null,omitempty"`
	ElemNonNull bool   `json:"elem_non_null,omitempty"`
}

// Named returns a nullable reference to a named type.
func Named(name string) TypeRef { return TypeRef{Name: name} }

// NonNullOf returns a non-null reference to a named type.
func NonNullOf(name string) TypeRef { return TypeRef{Name: name, NonNull: true} }

// ListOf returns [name!] (nullable list of non-null elements).
func ListOf(name string) TypeRef { return TypeRef{Name: name, List: true, ElemNonNull: true} }

// NonNullListOf returns [name!]!.
func NonNullListOf(name string) TypeRef {
	return TypeRef{Name: name, List: true, NonNull: true, ElemNonNull: true}
}

// Nullable returns a copy with the outer non-null dropped.
func (t TypeRef) Nullable() TypeRef {
	t.NonNull = false
	return t
}

// Required returns a copy with the outer non-null set.
func (t TypeRef) Required() TypeRef {
	t.NonNull = true
	return t
}

// String renders the reference in SDL form.
func (t TypeRef) String() string {
	var b strings.Builder
	if t.List {
		b.WriteByte('[')
		b.WriteString(t.Name)
		if t.ElemNonNull {
			b.WriteByte('!')
		}
		b.WriteByte(']')
	} else {
		b.WriteString(t.Name)
	}
	if t.NonNull {
		b.WriteByte('!')
	}
	return b.String()
}

// Direction is the traversal direction of a relationship.
type Direction string

const (
	DirectionIn  Direction = "IN"
	DirectionOut Direction = "OUT"
)

// TargetCategory is what a relationship field points at.
type TargetCategory int

const (
	TargetEntity TargetCategory = iota
	TargetInterface
	TargetUnion
)

func (c TargetCategory) String() string {
	switch c {
	case TargetEntity:
		return "entity"
	case TargetInterface:
		return "interface"
	case TargetUnion:
		return "union"
	default:
		return fmt.Sprintf("TargetCategory(%d)", int(c))
	}
}

// Relationship describes a relationship field.
type Relationship struct {
	Type           string
	Direction      Direction
	Target         string
	TargetCategory TargetCategory
	// Properties names the @relationshipProperties type carried on the
	// edge. Empty when the relationship has no edge properties.
	Properties string
	// Aggregate is the relationship's own aggregate flag. nil means unset.
	Aggregate *bool
}

// Selectable controls read and aggregate exposure.
type Selectable struct {
	OnRead      bool
	OnAggregate bool
}

// Filterable controls value and aggregate filtering.
type Filterable struct {
	ByValue     bool
	ByAggregate bool
}

// Sortable controls sort exposure. Explicit records whether the flag was
// written in the declaration rather than defaulted.
type Sortable struct {
	ByValue  bool
	Explicit bool
}

// Settable controls create and update exposure.
type Settable struct {
	OnCreate bool
	OnUpdate bool
}

// Field is one field of an entity, interface or properties type.
type Field struct {
	Name        string
	Type        TypeRef
	Kind        scalar.Kind // scalar.Invalid for relationship fields
	Relation    *Relationship
	Description string
	// Deprecation is the @deprecated reason, empty when not deprecated.
	Deprecation string
	Deprecated  bool

	Selectable Selectable
	Filterable Filterable
	Sortable   Sortable
	Settable   Settable
}

// DefaultCapabilities returns the capability flags of an unannotated field.
func DefaultCapabilities() (Selectable, Filterable, Sortable, Settable) {
	return Selectable{OnRead: true, OnAggregate: true},
		Filterable{ByValue: true, ByAggregate: true},
		Sortable{ByValue: true},
		Settable{OnCreate: true, OnUpdate: true}
}

// IsScalar reports whether the field holds a scalar or scalar list.
func (f *Field) IsScalar() bool { return f.Relation == nil }

// IsList reports whether the field is list-typed.
func (f *Field) IsList() bool { return f.Type.List }

// Entity is an @node type.
type Entity struct {
	Name         string
	Plural       string
	Description  string
	Fields       []*Field
	Interfaces   []string
	Unions       []string
	Subscribable bool
}

// Field returns the named field or nil.
func (e *Entity) Field(name string) *Field {
	return findField(e.Fields, name)
}

// ScalarFields returns the non-relationship fields in declaration order.
func (e *Entity) ScalarFields() []*Field {
	var out []*Field
	for _, f := range e.Fields {
		if f.IsScalar() {
			out = append(out, f)
		}
	}
	return out
}

// RelationshipFields returns the relationship fields in declaration order.
func (e *Entity) RelationshipFields() []*Field {
	var out []*Field
	for _, f := range e.Fields {
		if !f.IsScalar() {
			out = append(out, f)
		}
	}
	return out
}

// Interface is a GraphQL interface implemented by entities.
type Interface struct {
	Name        string
	Description string
	Fields      []*Field
	// Declared lists relationship fields marked @declareRelationship. Every
	// implementation must define them as relationships.
	Declared []string
}

// Field returns the named field or nil.
func (i *Interface) Field(name string) *Field {
	return findField(i.Fields, name)
}

// Union is a GraphQL union of entities.
type Union struct {
	Name        string
	Description string
	Members     []string
}

// Properties is an @relationshipProperties type.
type Properties struct {
	Name   string
	Fields []*Field
}

// Field returns the named field or nil.
func (p *Properties) Field(name string) *Field {
	return findField(p.Fields, name)
}

func findField(fields []*Field, name string) *Field {
	for _, f := range fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Model is the complete, resolved declaration set.
type Model struct {
	Entities      []*Entity
	Interfaces    []*Interface
	Unions        []*Union
	// PropertyTypes are the relationship properties declarations.
	PropertyTypes []*Properties
}

// Entity returns the named entity or nil.
func (m *Model) Entity(name string) *Entity {
	for _, e := range m.Entities {
		if e.Name == name {
			return e
		}
	}
	return nil
}

// Interface returns the named interface or nil.
func (m *Model) Interface(name string) *Interface {
	for _, i := range m.Interfaces {
		if i.Name == name {
			return i
		}
	}
	return nil
}

// Union returns the named union or nil.
func (m *Model) Union(name string) *Union {
	for _, u := range m.Unions {
		if u.Name == name {
			return u
		}
	}
	return nil
}

// Properties returns the named properties type or nil.
func (m *Model) Properties(name string) *Properties {
	for _, p := range m.PropertyTypes {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// Implementations returns the entities implementing iface, sorted by name.
func (m *Model) Implementations(iface string) []*Entity {
	var out []*Entity
	for _, e := range m.Entities {
		if slices.Contains(e.Interfaces, iface) {
			out = append(out, e)
		}
	}
	slices.SortFunc(out, func(a, b *Entity) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// ConcreteTargets returns the entities a relationship can reach, sorted by
// name. For an entity target it is that entity alone.
func (m *Model) ConcreteTargets(rel *Relationship) []*Entity {
	switch rel.TargetCategory {
	case TargetEntity:
		if e := m.Entity(rel.Target); e != nil {
			return []*Entity{e}
		}
		return nil
	case TargetInterface:
		return m.Implementations(rel.Target)
	case TargetUnion:
		u := m.Union(rel.Target)
		if u == nil {
			return nil
		}
		out := make([]*Entity, 0, len(u.Members))
		for _, name := range u.Members {
			if e := m.Entity(name); e != nil {
				out = append(out, e)
			}
		}
		slices.SortFunc(out, func(a, b *Entity) int { return strings.Compare(a.Name, b.Name) })
		return out
	default:
		return nil
	}
}

// TargetFields returns the fields visible through a relationship target:
// the entity's fields or the interface's fields. Union targets have none.
func (m *Model) TargetFields(rel *Relationship) []*Field {
	switch rel.TargetCategory {
	case TargetEntity:
		if e := m.Entity(rel.Target); e != nil {
			return e.Fields
		}
	case TargetInterface:
		if i := m.Interface(rel.Target); i != nil {
			return i.Fields
		}
	}
	return nil
}

// SubscribableEntities returns the entities marked for subscriptions.
func (m *Model) SubscribableEntities() []*Entity {
	var out []*Entity
	for _, e := range m.Entities {
		if e.Subscribable {
			out = append(out, e)
		}
	}
	return out
}
