package extract

import (
	"errors"
	"fmt"

	"cuelang.org/go/cue"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/roach88/schemaforge/internal/model"
	"github.com/roach88/schemaforge/internal/naming"
)

// FromCUE extracts a model from a CUE value of the form
//
//	node: Movie: {
//		plural?:       string
//		description?:  string
//		subscription?: bool
//		implements?:   [...string]
//		fields: [Name=string]: string | {
//			type:          string
//			description?:  string
//			deprecated?:   string
//			relationship?: {type: string, direction: "IN" | "OUT", properties?: string, aggregate?: bool}
//			declareRelationship?: bool
//			selectable?:   {onRead?: bool, onAggregate?: bool}
//			filterable?:   {byValue?: bool, byAggregate?: bool}
//			sortable?:     {byValue?: bool}
//			settable?:     {onCreate?: bool, onUpdate?: bool}
//		}
//	}
//	relationshipProperties: ActedIn: fields: {...}
//	interface: Production: fields: {...}
//	union: SearchResult: ["Movie", "Series"]
//
// A field given as a plain string is shorthand for {type: <string>}.
func FromCUE(v cue.Value) (*model.Model, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	x := &cueExtractor{}
	set := &declSet{}

	x.eachField(v, "node", func(name string, nv cue.Value) {
		od := x.object(name, nv)
		od.node = true
		set.objects = append(set.objects, od)
	})
	x.eachField(v, "relationshipProperties", func(name string, pv cue.Value) {
		od := x.object(name, pv)
		od.properties = true
		set.objects = append(set.objects, od)
	})
	x.eachField(v, "interface", func(name string, iv cue.Value) {
		id := &interfaceDecl{name: name, pos: positionFromCUE(iv.Pos())}
		id.description, _ = x.optString(name, iv, "description")
		id.fields = x.fields(name, iv)
		set.interfaces = append(set.interfaces, id)
	})
	x.eachField(v, "union", func(name string, uv cue.Value) {
		ud := &unionDecl{name: name, pos: positionFromCUE(uv.Pos())}
		members := uv
		if mv := uv.LookupPath(cue.ParsePath("members")); mv.Exists() {
			members = mv
			ud.description, _ = x.optString(name, uv, "description")
		}
		ud.members = x.stringList(name, members)
		set.unions = append(set.unions, ud)
	})

	if len(x.errs) > 0 {
		return nil, errors.Join(x.errs...)
	}
	return resolve(set)
}

type cueExtractor struct {
	errs []error
}

func (x *cueExtractor) fail(code, path string, pos Position, format string, args ...any) {
	x.errs = append(x.errs, &DeclarationError{
		Code:    code,
		Path:    path,
		Message: fmt.Sprintf(format, args...),
		Pos:     pos,
	})
}

func (x *cueExtractor) cueErr(err error) {
	x.errs = append(x.errs, formatCUEError(err))
}

// eachField iterates the struct at v.section in declaration order.
func (x *cueExtractor) eachField(v cue.Value, section string, fn func(string, cue.Value)) {
	sv := v.LookupPath(cue.ParsePath(section))
	if !sv.Exists() {
		return
	}
	iter, err := sv.Fields()
	if err != nil {
		x.cueErr(err)
		return
	}
	for iter.Next() {
		fn(naming.Normalize(iter.Label()), iter.Value())
	}
}

func (x *cueExtractor) object(name string, v cue.Value) *objectDecl {
	od := &objectDecl{name: name, pos: positionFromCUE(v.Pos())}
	od.plural, _ = x.optString(name, v, "plural")
	od.description, _ = x.optString(name, v, "description")
	od.subscribable, _ = x.optBool(name, v, "subscription")
	if iv := v.LookupPath(cue.ParsePath("implements")); iv.Exists() {
		od.interfaces = x.stringList(name, iv)
	}
	od.fields = x.fields(name, v)
	return od
}

func (x *cueExtractor) fields(owner string, v cue.Value) []*fieldDecl {
	fv := v.LookupPath(cue.ParsePath("fields"))
	if !fv.Exists() {
		return nil
	}
	iter, err := fv.Fields()
	if err != nil {
		x.cueErr(err)
		return nil
	}
	var out []*fieldDecl
	for iter.Next() {
		name := naming.Normalize(iter.Label())
		if fd := x.field(owner+"."+name, name, iter.Value()); fd != nil {
			out = append(out, fd)
		}
	}
	return out
}

func (x *cueExtractor) field(path, name string, v cue.Value) *fieldDecl {
	pos := positionFromCUE(v.Pos())

	// Shorthand: title: "String!"
	if s, err := v.String(); err == nil {
		ref, err := ParseTypeRef(s)
		if err != nil {
			x.fail(ErrInvalidTypeRef, path, pos, "%v", err)
			return nil
		}
		return newFieldDecl(name, ref, pos)
	}

	typ, ok := x.optString(path, v, "type")
	if !ok {
		x.fail(ErrInvalidTypeRef, path, pos, "field requires a type")
		return nil
	}
	ref, err := ParseTypeRef(typ)
	if err != nil {
		x.fail(ErrInvalidTypeRef, path, pos, "%v", err)
		return nil
	}

	fd := newFieldDecl(name, ref, pos)
	fd.description, _ = x.optString(path, v, "description")
	if reason, ok := x.optString(path, v, "deprecated"); ok {
		fd.deprecated = true
		fd.reason = reason
	}
	fd.declared, _ = x.optBool(path, v, "declareRelationship")

	if rv := v.LookupPath(cue.ParsePath("relationship")); rv.Exists() {
		rd := &relationshipDecl{}
		rd.typ, _ = x.optString(path, rv, "type")
		rd.direction, _ = x.optString(path, rv, "direction")
		rd.properties, _ = x.optString(path, rv, "properties")
		if b, ok := x.optBool(path, rv, "aggregate"); ok {
			rd.aggregate = &b
		}
		fd.relationship = rd
	}

	x.applyBool(path, v, "selectable.onRead", &fd.selectable.OnRead)
	x.applyBool(path, v, "selectable.onAggregate", &fd.selectable.OnAggregate)
	x.applyBool(path, v, "filterable.byValue", &fd.filterable.ByValue)
	x.applyBool(path, v, "filterable.byAggregate", &fd.filterable.ByAggregate)
	if x.applyBool(path, v, "sortable.byValue", &fd.sortable.ByValue) {
		fd.sortable.Explicit = true
	}
	x.applyBool(path, v, "settable.onCreate", &fd.settable.OnCreate)
	x.applyBool(path, v, "settable.onUpdate", &fd.settable.OnUpdate)
	return fd
}

func (x *cueExtractor) optString(path string, v cue.Value, key string) (string, bool) {
	sv := v.LookupPath(cue.ParsePath(key))
	if !sv.Exists() {
		return "", false
	}
	s, err := sv.String()
	if err != nil {
		x.fail(ErrInvalidDirective, path, positionFromCUE(sv.Pos()), "%s must be a string", key)
		return "", false
	}
	return naming.Normalize(s), true
}

func (x *cueExtractor) optBool(path string, v cue.Value, key string) (bool, bool) {
	bv := v.LookupPath(cue.ParsePath(key))
	if !bv.Exists() {
		return false, false
	}
	b, err := bv.Bool()
	if err != nil {
		x.fail(ErrInvalidDirective, path, positionFromCUE(bv.Pos()), "%s must be a boolean", key)
		return false, false
	}
	return b, true
}

func (x *cueExtractor) applyBool(path string, v cue.Value, key string, dst *bool) bool {
	b, ok := x.optBool(path, v, key)
	if ok {
		*dst = b
	}
	return ok
}

func (x *cueExtractor) stringList(path string, v cue.Value) []string {
	iter, err := v.List()
	if err != nil {
		x.fail(ErrInvalidDirective, path, positionFromCUE(v.Pos()), "expected a list of type names")
		return nil
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			x.fail(ErrInvalidDirective, path, positionFromCUE(iter.Value().Pos()), "list entries must be strings")
			continue
		}
		out = append(out, s)
	}
	return out
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &DeclarationError{Code: ErrSourceSyntax, Path: "cue", Message: err.Error()}
	}
	first := errs[0]
	de := &DeclarationError{Code: ErrSourceSyntax, Path: "cue", Message: first.Error()}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		de.Pos = positionFromCUE(positions[0])
	}
	return de
}
