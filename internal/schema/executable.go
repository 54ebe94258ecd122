package schema

import (
	"fmt"
	"strings"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/gqlerrors"
	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"
	"github.com/graphql-go/graphql/language/source"

	"github.com/roach88/schemaforge/internal/model"
	"github.com/roach88/schemaforge/internal/scalar"
	"github.com/roach88/schemaforge/internal/value"
)

// executableBuilder mirrors the generated TypeDefs as graphql-go types.
// Field maps are thunks so cyclic references resolve after every named type
// exists.
type executableBuilder struct {
	c          *BuildContext
	objects    map[string]*graphql.Object
	interfaces map[string]*graphql.Interface
	unions     map[string]*graphql.Union
	inputs     map[string]*graphql.InputObject
	enums      map[string]*graphql.Enum
	scalars    map[string]*graphql.Scalar
}

func (c *BuildContext) executable() (graphql.Schema, error) {
	x := &executableBuilder{
		c:          c,
		objects:    make(map[string]*graphql.Object),
		interfaces: make(map[string]*graphql.Interface),
		unions:     make(map[string]*graphql.Union),
		inputs:     make(map[string]*graphql.InputObject),
		enums:      make(map[string]*graphql.Enum),
		scalars:    make(map[string]*graphql.Scalar),
	}

	names := c.sortedNames()
	// Leaf and abstract types first; unions need their member objects.
	for _, name := range names {
		t := c.types[name]
		switch t.Kind {
		case KindScalar:
			x.scalars[name] = x.scalar(t)
		case KindEnum:
			x.enums[name] = x.enum(t)
		case KindInterface:
			x.interfaces[name] = x.iface(t)
		case KindInputObject:
			x.inputs[name] = x.input(t)
		}
	}
	for _, name := range names {
		if t := c.types[name]; t.Kind == KindObject {
			x.objects[name] = x.object(t)
		}
	}
	for _, name := range names {
		if t := c.types[name]; t.Kind == KindUnion {
			x.unions[name] = x.union(t)
		}
	}

	var all []graphql.Type
	for _, name := range names {
		if t, ok := x.named(name); ok {
			all = append(all, t)
		}
	}

	cfg := graphql.SchemaConfig{
		Query:    x.objects[typeQuery],
		Mutation: x.objects[typeMutation],
		Types:    all,
	}
	if sub, ok := x.objects[typeSubscription]; ok {
		cfg.Subscription = sub
	}
	s, err := graphql.NewSchema(cfg)
	if err != nil {
		return graphql.Schema{}, &BuildError{Code: ErrExecutableSchema, Type: "Schema", Message: err.Error()}
	}
	return s, nil
}

func (x *executableBuilder) named(name string) (graphql.Type, bool) {
	switch name {
	case "Int":
		return graphql.Int, true
	case "Float":
		return graphql.Float, true
	case "String":
		return graphql.String, true
	case "ID":
		return graphql.ID, true
	case "Boolean":
		return graphql.Boolean, true
	}
	if t, ok := x.objects[name]; ok {
		return t, true
	}
	if t, ok := x.interfaces[name]; ok {
		return t, true
	}
	if t, ok := x.unions[name]; ok {
		return t, true
	}
	if t, ok := x.inputs[name]; ok {
		return t, true
	}
	if t, ok := x.enums[name]; ok {
		return t, true
	}
	if t, ok := x.scalars[name]; ok {
		return t, true
	}
	return nil, false
}

func (x *executableBuilder) ref(r model.TypeRef) graphql.Type {
	t, ok := x.named(r.Name)
	if !ok {
		// finalize rejects dangling names before this runs
		panic(fmt.Sprintf("schema: unresolved type %s", r.Name))
	}
	if r.List {
		if r.ElemNonNull {
			t = graphql.NewNonNull(t)
		}
		t = graphql.NewList(t)
	}
	if r.NonNull {
		t = graphql.NewNonNull(t)
	}
	return t
}

func (x *executableBuilder) fields(t *TypeDef) graphql.FieldsThunk {
	return func() graphql.Fields {
		out := make(graphql.Fields, len(t.Fields))
		for _, f := range t.Fields {
			gf := &graphql.Field{
				Name:        f.Name,
				Type:        x.ref(f.Type),
				Description: f.Description,
			}
			if f.Deprecated {
				gf.DeprecationReason = f.Reason
			}
			if len(f.Args) > 0 {
				gf.Args = make(graphql.FieldConfigArgument, len(f.Args))
				for _, a := range f.Args {
					gf.Args[a.Name] = &graphql.ArgumentConfig{Type: x.ref(a.Type)}
				}
			}
			out[f.Name] = gf
		}
		return out
	}
}

func (x *executableBuilder) object(t *TypeDef) *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name:        t.Name,
		Description: t.Description,
		Fields:      x.fields(t),
		Interfaces: graphql.InterfacesThunk(func() []*graphql.Interface {
			out := make([]*graphql.Interface, 0, len(t.Interfaces))
			for _, name := range t.Interfaces {
				out = append(out, x.interfaces[name])
			}
			return out
		}),
	})
}

func (x *executableBuilder) iface(t *TypeDef) *graphql.Interface {
	return graphql.NewInterface(graphql.InterfaceConfig{
		Name:        t.Name,
		Description: t.Description,
		Fields:      x.fields(t),
		ResolveType: x.resolveType,
	})
}

func (x *executableBuilder) union(t *TypeDef) *graphql.Union {
	members := make([]*graphql.Object, 0, len(t.Members))
	for _, name := range t.Members {
		members = append(members, x.objects[name])
	}
	return graphql.NewUnion(graphql.UnionConfig{
		Name:        t.Name,
		Description: t.Description,
		Types:       members,
		ResolveType: x.resolveType,
	})
}

// resolveType picks the concrete object named by the source's __typename.
func (x *executableBuilder) resolveType(p graphql.ResolveTypeParams) *graphql.Object {
	src, ok := p.Value.(map[string]any)
	if !ok {
		return nil
	}
	name, _ := src[model.TypenameKey].(string)
	return x.objects[name]
}

func (x *executableBuilder) input(t *TypeDef) *graphql.InputObject {
	return graphql.NewInputObject(graphql.InputObjectConfig{
		Name:        t.Name,
		Description: t.Description,
		Fields: graphql.InputObjectConfigFieldMapThunk(func() graphql.InputObjectConfigFieldMap {
			out := make(graphql.InputObjectConfigFieldMap, len(t.Fields))
			for _, f := range t.Fields {
				out[f.Name] = &graphql.InputObjectFieldConfig{
					Type:        x.ref(f.Type),
					Description: f.Description,
				}
			}
			return out
		}),
	})
}

func (x *executableBuilder) enum(t *TypeDef) *graphql.Enum {
	values := make(graphql.EnumValueConfigMap, len(t.Values))
	for _, v := range t.Values {
		values[v] = &graphql.EnumValueConfig{Value: v}
	}
	return graphql.NewEnum(graphql.EnumConfig{
		Name:        t.Name,
		Description: t.Description,
		Values:      values,
	})
}

// scalar declares a custom scalar. Runtime values go through the kind
// table's coercion rule. Document literals only have to be strings or
// integers: their content is coerced when the filter is compiled, so a
// malformed literal fails as a *predicate.LiteralError scoped to its field
// instead of invalidating the whole document.
func (x *executableBuilder) scalar(t *TypeDef) *graphql.Scalar {
	k, _ := scalar.Parse(t.Name)
	coerce := func(v value.Value) any {
		lit, err := scalar.Coerce(k, v)
		if err != nil {
			return nil
		}
		return value.ToGo(lit.Value())
	}
	return graphql.NewScalar(graphql.ScalarConfig{
		Name:        t.Name,
		Description: t.Description,
		Serialize: func(v any) any {
			gv, err := value.FromGo(v)
			if err != nil {
				return nil
			}
			return coerce(gv)
		},
		ParseValue: func(v any) any {
			gv, err := value.FromGo(v)
			if err != nil {
				return nil
			}
			return coerce(gv)
		},
		ParseLiteral: func(node ast.Value) any {
			switch n := node.(type) {
			case *ast.StringValue:
				return n.Value
			case *ast.IntValue:
				return n.Value
			default:
				return nil
			}
		},
	})
}

// ValidationError lists the problems found in a GraphQL document.
type ValidationError struct {
	Errors []gqlerrors.FormattedError
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		msgs[i] = fe.Message
	}
	return "invalid document: " + strings.Join(msgs, "; ")
}

// Validate parses doc and validates it against the executable schema.
func (s *Schema) Validate(doc string) (*ast.Document, error) {
	astDoc, err := parser.Parse(parser.ParseParams{
		Source: source.NewSource(&source.Source{Body: []byte(doc), Name: "GraphQL request"}),
	})
	if err != nil {
		return nil, &ValidationError{Errors: gqlerrors.FormatErrors(err)}
	}
	res := graphql.ValidateDocument(&s.Executable, astDoc, nil)
	if !res.IsValid {
		return nil, &ValidationError{Errors: res.Errors}
	}
	return astDoc, nil
}
