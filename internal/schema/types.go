package schema

import "github.com/roach88/schemaforge/internal/model"

// TypeKind is the GraphQL kind of a generated type.
type TypeKind int

const (
	KindObject TypeKind = iota
	KindInputObject
	KindInterface
	KindUnion
	KindEnum
	KindScalar
)

func (k TypeKind) keyword() string {
	switch k {
	case KindObject:
		return "type"
	case KindInputObject:
		return "input"
	case KindInterface:
		return "interface"
	case KindUnion:
		return "union"
	case KindEnum:
		return "enum"
	case KindScalar:
		return "scalar"
	default:
		return "unknown"
	}
}

// TypeDef is one named type of the generated schema.
type TypeDef struct {
	Name        string
	Kind        TypeKind
	Description string
	Fields      []*FieldDef
	Interfaces  []string // objects
	Members     []string // unions
	Values      []string // enums

	// origin identifies the artifact that produced the name. Two different
	// origins claiming one name is a build error.
	origin string
}

// Field returns the named field or nil.
func (t *TypeDef) Field(name string) *FieldDef {
	for _, f := range t.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// FieldNames returns field names in emission order.
func (t *TypeDef) FieldNames() []string {
	out := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		out[i] = f.Name
	}
	return out
}

// Origin returns the artifact that registered the type.
func (t *TypeDef) Origin() string { return t.origin }

func (t *TypeDef) add(name string, ref model.TypeRef) *FieldDef {
	f := &FieldDef{Name: name, Type: ref}
	t.Fields = append(t.Fields, f)
	return f
}

// FieldDef is a field of an object, interface or input object.
type FieldDef struct {
	Name        string
	Type        model.TypeRef
	Args        []*ArgDef
	Description string
	Deprecated  bool
	Reason      string
}

func (f *FieldDef) arg(name string, ref model.TypeRef) *FieldDef {
	f.Args = append(f.Args, &ArgDef{Name: name, Type: ref})
	return f
}

func (f *FieldDef) deprecate(reason string) *FieldDef {
	f.Deprecated = true
	f.Reason = reason
	return f
}

func (f *FieldDef) describe(desc string) *FieldDef {
	f.Description = desc
	return f
}

// Arg returns the named argument or nil.
func (f *FieldDef) Arg(name string) *ArgDef {
	for _, a := range f.Args {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// ArgDef is a field argument.
type ArgDef struct {
	Name string
	Type model.TypeRef
}
