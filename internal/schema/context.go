package schema

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/roach88/schemaforge/internal/model"
)

// BuildContext is the single owner of all state created while generating a
// schema. It is created by Build, threaded through every generator and
// discarded when Build returns.
type BuildContext struct {
	model *model.Model
	opts  Options
	log   zerolog.Logger

	types map[string]*TypeDef
	errs  []error
}

func newBuildContext(m *model.Model, opts Options) *BuildContext {
	return &BuildContext{
		model: m,
		opts:  opts,
		log:   opts.Logger,
		types: make(map[string]*TypeDef),
	}
}

// ensure returns name, generating the type on first use. The placeholder is
// registered before fill runs, so a generator that reaches the same name
// again through a cycle (Movie -> actors -> Actor -> movies -> Movie) sees
// the registered type and stops recursing.
//
// A second request for name from a different origin is a collision.
func (c *BuildContext) ensure(name, origin string, kind TypeKind, fill func(*TypeDef)) string {
	if t, ok := c.types[name]; ok {
		if t.origin != origin {
			c.fail(ErrDuplicateType, name, "generated by both %s and %s", t.origin, origin)
		}
		return name
	}
	t := &TypeDef{Name: name, Kind: kind, origin: origin}
	c.types[name] = t
	if fill != nil {
		fill(t)
	}
	return name
}

// lookup returns a registered type or nil.
func (c *BuildContext) lookup(name string) *TypeDef {
	return c.types[name]
}

func (c *BuildContext) fail(code, typeName, format string, args ...any) {
	err := &BuildError{Code: code, Type: typeName, Message: fmt.Sprintf(format, args...)}
	c.log.Debug().Str("code", code).Str("type", typeName).Msg(err.Message)
	c.errs = append(c.errs, err)
}

// deprecated reports whether deprecated aliases are emitted.
func (c *BuildContext) deprecated() bool {
	return !c.opts.ExcludeDeprecated
}
