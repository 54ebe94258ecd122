package schema

import (
	"slices"
	"strings"

	"github.com/roach88/schemaforge/internal/model"
	"github.com/roach88/schemaforge/internal/scalar"
)

// finalize runs the whole-schema checks once every generator has finished.
func (c *BuildContext) finalize() {
	names := c.sortedNames()

	for _, name := range names {
		t := c.types[name]
		c.checkDuplicateFields(t)
		c.fillEmpty(t)
	}

	// Custom scalars are declared on demand, which adds to c.types.
	for _, name := range names {
		for _, ref := range references(c.types[name]) {
			if k, ok := scalar.Parse(ref); ok && !k.BuiltIn() {
				c.customScalar(k)
			}
		}
	}

	for _, name := range c.sortedNames() {
		t := c.types[name]
		for _, ref := range references(t) {
			if c.types[ref] == nil && !builtInScalar(ref) {
				c.fail(ErrDanglingType, t.Name, "references undefined type %s", ref)
			}
		}
		c.checkOperators(t)
	}
}

func (c *BuildContext) sortedNames() []string {
	names := make([]string, 0, len(c.types))
	for name := range c.types {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (c *BuildContext) checkDuplicateFields(t *TypeDef) {
	seen := make(map[string]bool, len(t.Fields))
	for _, f := range t.Fields {
		if seen[f.Name] {
			c.fail(ErrDuplicateField, t.Name, "field %s generated twice", f.Name)
		}
		seen[f.Name] = true
	}
}

// fillEmpty gives a field-less object or input a placeholder field, since
// GraphQL forbids empty field sets.
func (c *BuildContext) fillEmpty(t *TypeDef) {
	if len(t.Fields) > 0 {
		return
	}
	switch t.Kind {
	case KindInputObject:
		t.add("_emptyInput", model.Named(scalar.Boolean.String()))
	case KindObject, KindInterface:
		t.add("_empty", model.Named(scalar.Boolean.String()))
	}
}

// checkOperators verifies a scalar or list filter exposes only the operators
// its kind defines.
func (c *BuildContext) checkOperators(t *TypeDef) {
	var (
		kindName string
		allowed  func(scalar.Kind, scalar.Operator) bool
	)
	switch {
	case strings.HasPrefix(t.origin, "scalarFilters:"):
		kindName, allowed = strings.TrimPrefix(t.origin, "scalarFilters:"), scalar.Supports
	case strings.HasPrefix(t.origin, "listFilters:"):
		kindName, allowed = strings.TrimPrefix(t.origin, "listFilters:"), scalar.SupportsList
	default:
		return
	}
	k, ok := scalar.Parse(kindName)
	if !ok {
		c.fail(ErrIllegalOperator, t.Name, "unknown scalar kind %s", kindName)
		return
	}
	for _, f := range t.Fields {
		op, ok := scalar.ParseOperator(f.Name)
		if !ok || !allowed(k, op) {
			c.fail(ErrIllegalOperator, t.Name, "operator %s is not defined for %s", f.Name, k)
		}
	}
}

// references returns every type name t mentions.
func references(t *TypeDef) []string {
	var out []string
	for _, f := range t.Fields {
		out = append(out, f.Type.Name)
		for _, a := range f.Args {
			out = append(out, a.Type.Name)
		}
	}
	out = append(out, t.Interfaces...)
	out = append(out, t.Members...)
	return out
}

func builtInScalar(name string) bool {
	k, ok := scalar.Parse(name)
	return ok && k.BuiltIn()
}
