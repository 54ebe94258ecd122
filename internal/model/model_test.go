package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/schemaforge/internal/scalar"
)

func testModel() *Model {
	sel, filt, sort, set := DefaultCapabilities()
	field := func(name string, ref TypeRef, k scalar.Kind) *Field {
		return &Field{Name: name, Type: ref, Kind: k, Selectable: sel, Filterable: filt, Sortable: sort, Settable: set}
	}
	rel := func(name, target string, cat TargetCategory) *Field {
		f := field(name, NonNullListOf(target), scalar.Invalid)
		f.Relation = &Relationship{Type: "REL", Direction: DirectionOut, Target: target, TargetCategory: cat}
		return f
	}

	return &Model{
		Entities: []*Entity{
			{Name: "Movie", Plural: "movies", Fields: []*Field{
				field("title", NonNullOf("String"), scalar.String),
				rel("actors", "Actor", TargetEntity),
				rel("search", "Result", TargetUnion),
			}},
			{Name: "Series", Plural: "series", Interfaces: []string{"Production"}},
			{Name: "Film", Plural: "films", Interfaces: []string{"Production"}},
			{Name: "Actor", Plural: "actors"},
		},
		Interfaces: []*Interface{{Name: "Production", Fields: []*Field{field("title", NonNullOf("String"), scalar.String)}}},
		Unions:     []*Union{{Name: "Result", Members: []string{"Movie", "Actor"}}},
	}
}

func TestTypeRefString(t *testing.T) {
	assert.Equal(t, "String", Named("String").String())
	assert.Equal(t, "String!", NonNullOf("String").String())
	assert.Equal(t, "[String!]", ListOf("String").String())
	assert.Equal(t, "[String!]!", NonNullListOf("String").String())
	assert.Equal(t, "[Int]", TypeRef{Name: "Int", List: true}.String())
	assert.Equal(t, "Int", NonNullOf("Int").Nullable().String())
	assert.Equal(t, "Int!", Named("Int").Required().String())
}

func TestLookups(t *testing.T) {
	m := testModel()

	movie := m.Entity("Movie")
	require.NotNil(t, movie)
	assert.Nil(t, m.Entity("Nope"))
	assert.NotNil(t, movie.Field("title"))
	assert.Nil(t, movie.Field("nope"))
	assert.Len(t, movie.ScalarFields(), 1)
	assert.Len(t, movie.RelationshipFields(), 2)
	assert.NotNil(t, m.Interface("Production"))
	assert.NotNil(t, m.Union("Result"))
	m.PropertyTypes = []*Properties{{Name: "ActedIn"}}
	require.NotNil(t, m.Properties("ActedIn"))
	assert.Equal(t, "ActedIn", m.Properties("ActedIn").Name)
	assert.Nil(t, m.Properties("Movie"))
}

func TestConcreteTargetsAreSorted(t *testing.T) {
	m := testModel()

	impls := m.Implementations("Production")
	require.Len(t, impls, 2)
	assert.Equal(t, "Film", impls[0].Name)
	assert.Equal(t, "Series", impls[1].Name)

	search := m.Entity("Movie").Field("search").Relation
	targets := m.ConcreteTargets(search)
	require.Len(t, targets, 2)
	assert.Equal(t, "Actor", targets[0].Name)
	assert.Equal(t, "Movie", targets[1].Name)
	assert.Nil(t, m.TargetFields(search))

	actors := m.Entity("Movie").Field("actors").Relation
	assert.Len(t, m.ConcreteTargets(actors), 1)
}

func TestTargetCategoryString(t *testing.T) {
	assert.Equal(t, "entity", TargetEntity.String())
	assert.Equal(t, "interface", TargetInterface.String())
	assert.Equal(t, "union", TargetUnion.String())
}
