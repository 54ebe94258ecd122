package schema

import (
	"errors"
	"slices"
	"strings"

	"github.com/graphql-go/graphql"
	"github.com/rs/zerolog"

	"github.com/roach88/schemaforge/internal/model"
)

const (
	typeQuery        = "Query"
	typeMutation     = "Mutation"
	typeSubscription = "Subscription"
)

// Options controls schema generation.
type Options struct {
	// ExcludeDeprecated drops the flattened filter and mutation aliases.
	ExcludeDeprecated bool

	Logger zerolog.Logger
}

// Schema is the result of a successful build.
type Schema struct {
	// SDL is the printed schema. It is byte-identical across builds of the
	// same model and options.
	SDL string

	// Types holds every generated type by name.
	Types map[string]*TypeDef

	Model      *model.Model
	Executable graphql.Schema

	targets map[string]SubscriptionTarget
}

// Type returns the named generated type or nil.
func (s *Schema) Type(name string) *TypeDef {
	return s.Types[name]
}

// TypeNames returns all generated type names, sorted.
func (s *Schema) TypeNames() []string {
	names := make([]string, 0, len(s.Types))
	for name := range s.Types {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// SubscriptionTarget returns the entity and event a root subscription field
// observes.
func (s *Schema) SubscriptionTarget(field string) (SubscriptionTarget, bool) {
	t, ok := s.targets[field]
	return t, ok
}

// SubscriptionTargets returns every root subscription field binding, sorted
// by field name.
func (s *Schema) SubscriptionTargets() []SubscriptionTarget {
	out := make([]SubscriptionTarget, 0, len(s.targets))
	for _, t := range s.targets {
		out = append(out, t)
	}
	slices.SortFunc(out, func(a, b SubscriptionTarget) int { return strings.Compare(a.Field, b.Field) })
	return out
}

// Build generates the schema of m. All build errors are collected and
// returned joined; use BuildErrors to inspect them.
func Build(m *model.Model, opts Options) (*Schema, error) {
	c := newBuildContext(m, opts)
	targets := make(map[string]SubscriptionTarget)

	// Root names are claimed first so a declaration named Query, Mutation or
	// Subscription collides instead of silently replacing a root.
	c.ensure(typeQuery, "root:"+typeQuery, KindObject, nil)
	c.ensure(typeMutation, "root:"+typeMutation, KindObject, nil)
	subscribable := m.SubscribableEntities()
	if len(subscribable) > 0 {
		c.ensure(typeSubscription, "root:"+typeSubscription, KindObject, nil)
	}

	query := c.lookup(typeQuery)
	mutation := c.lookup(typeMutation)
	for _, e := range m.Entities {
		c.log.Debug().Str("entity", e.Name).Msg("generating entity artifacts")
		c.queryFields(query, e)
		c.mutationFields(mutation, e)
	}
	for _, i := range m.Interfaces {
		c.interfaceObject(i)
		c.interfaceWhere(i)
	}
	for _, u := range m.Unions {
		c.unionObject(u)
		c.unionWhere(u)
	}
	if len(subscribable) > 0 {
		sub := c.lookup(typeSubscription)
		for _, e := range subscribable {
			c.subscriptionFields(sub, e, targets)
		}
	}

	c.finalize()
	if len(c.errs) > 0 {
		return nil, errors.Join(c.errs...)
	}

	exec, err := c.executable()
	if err != nil {
		return nil, err
	}

	s := &Schema{
		SDL:        c.print(),
		Types:      c.types,
		Model:      m,
		Executable: exec,
		targets:    targets,
	}
	c.log.Info().
		Int("types", len(s.Types)).
		Int("entities", len(m.Entities)).
		Int("subscriptions", len(targets)).
		Msg("schema built")
	return s, nil
}
