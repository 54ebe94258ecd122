package extract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/graphql-go/graphql/gqlerrors"
	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/location"
	"github.com/graphql-go/graphql/language/parser"
	"github.com/graphql-go/graphql/language/source"

	"github.com/roach88/schemaforge/internal/model"
	"github.com/roach88/schemaforge/internal/naming"
)

// Directive names understood by the SDL front end. Unknown directives are
// ignored so declarations can carry annotations meant for other tools.
const (
	dirNode                   = "node"
	dirRelationship           = "relationship"
	dirRelationshipProperties = "relationshipProperties"
	dirSelectable             = "selectable"
	dirFilterable             = "filterable"
	dirSortable               = "sortable"
	dirSettable               = "settable"
	dirSubscription           = "subscription"
	dirDeprecated             = "deprecated"
	dirDeclareRelationship    = "declareRelationship"
)

// FromSDL extracts a model from GraphQL type definitions annotated with the
// declaration directives. name is used in error positions.
func FromSDL(src, name string) (*model.Model, error) {
	s := source.NewSource(&source.Source{Body: []byte(src), Name: name})
	doc, err := parser.Parse(parser.ParseParams{Source: s})
	if err != nil {
		return nil, sdlSyntaxError(err, name)
	}

	x := &sdlExtractor{src: s, file: name}
	set := x.document(doc)
	if len(x.errs) > 0 {
		return nil, errors.Join(x.errs...)
	}
	return resolve(set)
}

func sdlSyntaxError(err error, file string) error {
	de := &DeclarationError{Code: ErrSourceSyntax, Path: file, Message: err.Error()}
	var gqlErr *gqlerrors.Error
	if errors.As(err, &gqlErr) {
		de.Message = gqlErr.Message
		if len(gqlErr.Locations) > 0 {
			de.Pos = Position{File: file, Line: gqlErr.Locations[0].Line, Column: gqlErr.Locations[0].Column}
		}
	}
	return de
}

type sdlExtractor struct {
	src  *source.Source
	file string
	errs []error
}

func (x *sdlExtractor) pos(loc *ast.Location) Position {
	if loc == nil {
		return Position{}
	}
	l := location.GetLocation(x.src, loc.Start)
	return Position{File: x.file, Line: l.Line, Column: l.Column}
}

func (x *sdlExtractor) fail(code, path string, loc *ast.Location, format string, args ...any) {
	x.errs = append(x.errs, &DeclarationError{
		Code:    code,
		Path:    path,
		Message: fmt.Sprintf(format, args...),
		Pos:     x.pos(loc),
	})
}

func (x *sdlExtractor) document(doc *ast.Document) *declSet {
	set := &declSet{}
	for _, def := range doc.Definitions {
		switch d := def.(type) {
		case *ast.ObjectDefinition:
			set.objects = append(set.objects, x.object(d))
		case *ast.InterfaceDefinition:
			set.interfaces = append(set.interfaces, x.iface(d))
		case *ast.UnionDefinition:
			set.unions = append(set.unions, x.union(d))
		}
	}
	return set
}

func (x *sdlExtractor) object(d *ast.ObjectDefinition) *objectDecl {
	od := &objectDecl{
		name:        naming.Normalize(d.Name.Value),
		description: description(d.Description),
		pos:         x.pos(d.Loc),
	}
	for _, named := range d.Interfaces {
		od.interfaces = append(od.interfaces, named.Name.Value)
	}
	for _, dir := range d.Directives {
		switch dir.Name.Value {
		case dirNode:
			od.node = true
			if v, ok := x.stringArg(od.name, dir, "plural"); ok {
				od.plural = v
			}
		case dirRelationshipProperties:
			od.properties = true
		case dirSubscription:
			od.subscribable = true
		}
	}
	for _, fd := range d.Fields {
		if f := x.field(od.name, fd); f != nil {
			od.fields = append(od.fields, f)
		}
	}
	return od
}

func (x *sdlExtractor) iface(d *ast.InterfaceDefinition) *interfaceDecl {
	id := &interfaceDecl{
		name:        naming.Normalize(d.Name.Value),
		description: description(d.Description),
		pos:         x.pos(d.Loc),
	}
	for _, fd := range d.Fields {
		if f := x.field(id.name, fd); f != nil {
			id.fields = append(id.fields, f)
		}
	}
	return id
}

func (x *sdlExtractor) union(d *ast.UnionDefinition) *unionDecl {
	ud := &unionDecl{
		name:        naming.Normalize(d.Name.Value),
		description: description(d.Description),
		pos:         x.pos(d.Loc),
	}
	for _, named := range d.Types {
		ud.members = append(ud.members, named.Name.Value)
	}
	return ud
}

func (x *sdlExtractor) field(owner string, d *ast.FieldDefinition) *fieldDecl {
	path := owner + "." + d.Name.Value
	ref, err := typeRefFromAST(d.Type)
	if err != nil {
		x.fail(ErrInvalidTypeRef, path, d.Loc, "%v", err)
		return nil
	}

	fd := newFieldDecl(naming.Normalize(d.Name.Value), ref, x.pos(d.Loc))
	fd.description = description(d.Description)

	for _, dir := range d.Directives {
		switch dir.Name.Value {
		case dirRelationship:
			rd := &relationshipDecl{}
			rd.typ, _ = x.stringArg(path, dir, "type")
			rd.direction, _ = x.stringArg(path, dir, "direction")
			rd.properties, _ = x.stringArg(path, dir, "properties")
			if b, ok := x.boolArg(path, dir, "aggregate"); ok {
				rd.aggregate = &b
			}
			fd.relationship = rd
		case dirDeclareRelationship:
			fd.declared = true
		case dirSelectable:
			x.applyBool(path, dir, "onRead", &fd.selectable.OnRead)
			x.applyBool(path, dir, "onAggregate", &fd.selectable.OnAggregate)
		case dirFilterable:
			x.applyBool(path, dir, "byValue", &fd.filterable.ByValue)
			x.applyBool(path, dir, "byAggregate", &fd.filterable.ByAggregate)
		case dirSortable:
			if x.applyBool(path, dir, "byValue", &fd.sortable.ByValue) {
				fd.sortable.Explicit = true
			}
		case dirSettable:
			x.applyBool(path, dir, "onCreate", &fd.settable.OnCreate)
			x.applyBool(path, dir, "onUpdate", &fd.settable.OnUpdate)
		case dirDeprecated:
			fd.deprecated = true
			fd.reason, _ = x.stringArg(path, dir, "reason")
		}
	}
	return fd
}

func (x *sdlExtractor) arg(dir *ast.Directive, name string) ast.Value {
	for _, a := range dir.Arguments {
		if a.Name.Value == name {
			return a.Value
		}
	}
	return nil
}

// stringArg reads a string or enum argument.
func (x *sdlExtractor) stringArg(path string, dir *ast.Directive, name string) (string, bool) {
	switch v := x.arg(dir, name).(type) {
	case nil:
		return "", false
	case *ast.StringValue:
		return v.Value, true
	case *ast.EnumValue:
		return v.Value, true
	default:
		x.fail(ErrInvalidDirective, path, dir.Loc, "@%s(%s:) must be a string", dir.Name.Value, name)
		return "", false
	}
}

func (x *sdlExtractor) boolArg(path string, dir *ast.Directive, name string) (bool, bool) {
	switch v := x.arg(dir, name).(type) {
	case nil:
		return false, false
	case *ast.BooleanValue:
		return v.Value, true
	default:
		x.fail(ErrInvalidDirective, path, dir.Loc, "@%s(%s:) must be a boolean", dir.Name.Value, name)
		return false, false
	}
}

// applyBool overwrites *dst when the argument is present.
func (x *sdlExtractor) applyBool(path string, dir *ast.Directive, name string, dst *bool) bool {
	b, ok := x.boolArg(path, dir, name)
	if ok {
		*dst = b
	}
	return ok
}

func typeRefFromAST(t ast.Type) (model.TypeRef, error) {
	var ref model.TypeRef
	if nn, ok := t.(*ast.NonNull); ok {
		ref.NonNull = true
		t = nn.Type
	}
	if list, ok := t.(*ast.List); ok {
		ref.List = true
		t = list.Type
		if nn, ok := t.(*ast.NonNull); ok {
			ref.ElemNonNull = true
			t = nn.Type
		}
	}
	named, ok := t.(*ast.Named)
	if !ok {
		return model.TypeRef{}, fmt.Errorf("nested list types are not supported")
	}
	ref.Name = named.Name.Value
	return ref, nil
}

func description(sv *ast.StringValue) string {
	if sv == nil {
		return ""
	}
	return naming.Normalize(strings.TrimSpace(sv.Value))
}
