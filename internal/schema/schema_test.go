package schema

import (
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/graphql-go/graphql/language/parser"
	"github.com/rs/zerolog"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/schemaforge/internal/extract"
	"github.com/roach88/schemaforge/internal/model"
	"github.com/roach88/schemaforge/internal/scalar"
)

const catalogSDL = `
"""A feature film."""
type Movie @node @subscription {
  id: ID!
  title: String!
  releasedIn: Int
  budget: BigInt
  tags: [String!]
  secret: String @selectable(onRead: false)
  code: String @deprecated(reason: "use id")
  actors: [Actor!]! @relationship(type: "ACTED_IN", direction: IN, properties: "ActedIn")
  directors: [Person!]! @relationship(type: "DIRECTED", direction: IN, aggregate: true) @selectable(onAggregate: false)
  related: [SearchResult!]! @relationship(type: "RELATED", direction: OUT)
}

type Actor @node(plural: "cast") {
  name: String!
  movies: [Movie!]! @relationship(type: "ACTED_IN", direction: OUT, properties: "ActedIn")
}

type Person implements Named @node {
  name: String!
  born: Date @settable(onUpdate: false)
  directed: [Movie!]! @relationship(type: "DIRECTED", direction: OUT, aggregate: false)
}

type ActedIn @relationshipProperties {
  role: String
  screenTime: Int
}

interface Named {
  name: String!
}

union SearchResult = Movie | Actor

type Sample @node @subscription {
  id: ID!
  total: Int
  ratio: Float
  big: BigInt
  label: String
  flag: Boolean
  at: DateTime
  day: Date
  local: LocalDateTime
  clock: Time
  localClock: LocalTime
  labels: [String!]
  scores: [Int!]
}
`

func buildCatalog(t *testing.T, opts Options) *Schema {
	t.Helper()
	m, err := extract.FromSDL(catalogSDL, "catalog.graphql")
	require.NoError(t, err)
	opts.Logger = zerolog.Nop()
	s, err := Build(m, opts)
	require.NoError(t, err)
	return s
}

func requireType(t *testing.T, s *Schema, name string) *TypeDef {
	t.Helper()
	td := s.Type(name)
	require.NotNil(t, td, "type %s not generated", name)
	return td
}

func TestOrderedKindsExposeRelationalOperators(t *testing.T) {
	s := buildCatalog(t, Options{})
	for _, k := range scalar.All {
		if !k.Ordered() {
			continue
		}
		td := requireType(t, s, ScalarFilterName(k))
		assert.Equal(t, []string{"eq", "in", "lt", "lte", "gt", "gte"}, td.FieldNames(), k.String())
	}
}

func TestUnorderedFiltersHaveNoRelationalOperators(t *testing.T) {
	s := buildCatalog(t, Options{})

	for _, name := range []string{"StringScalarFilters", "IDScalarFilters", "BooleanScalarFilters", "StringListFilters", "IntListFilters"} {
		td := requireType(t, s, name)
		for _, op := range []string{"lt", "lte", "gt", "gte"} {
			assert.Nil(t, td.Field(op), "%s.%s", name, op)
		}
	}
	assert.Equal(t, []string{"eq"}, requireType(t, s, "BooleanScalarFilters").FieldNames())
	assert.Equal(t, []string{"eq", "in", "contains", "startsWith", "endsWith"}, requireType(t, s, "StringScalarFilters").FieldNames())
	assert.Equal(t, []string{"eq", "includes"}, requireType(t, s, "IntListFilters").FieldNames())

	invalid := []string{
		`{ samples(where: { label: { lt: "x" } }) { id } }`,
		`{ samples(where: { id: { gte: "1" } }) { id } }`,
		`{ samples(where: { flag: { in: [true] } }) { id } }`,
		`{ samples(where: { scores: { gt: 3 } }) { id } }`,
		`{ samples(where: { label_LT: "x" }) { id } }`,
	}
	for _, doc := range invalid {
		_, err := s.Validate(doc)
		var verr *ValidationError
		require.True(t, errors.As(err, &verr), doc)
		assert.NotEmpty(t, verr.Errors, doc)
	}

	valid := []string{
		`{ samples(where: { total: { lt: 3 } }) { id } }`,
		`{ samples(where: { label: { startsWith: "x" }, flag: { eq: true } }) { id } }`,
		`{ samples(where: { scores: { includes: 3 } }) { id } }`,
		`{ samples(where: { total_GT: 3 }) { id } }`,
	}
	for _, doc := range valid {
		_, err := s.Validate(doc)
		assert.NoError(t, err, doc)
	}
}

func TestCustomScalarLiterals(t *testing.T) {
	s := buildCatalog(t, Options{})

	for _, name := range []string{"BigInt", "DateTime", "Date", "LocalDateTime", "Time", "LocalTime"} {
		assert.Equal(t, KindScalar, requireType(t, s, name).Kind, name)
	}

	_, err := s.Validate(`{ samples(where: { big: { gt: "9223372036854775808" } }) { id } }`)
	assert.NoError(t, err)
	_, err = s.Validate(`{ samples(where: { big: { in: [9223372036854775807, "-9223372036854775809"] } }) { id } }`)
	assert.NoError(t, err)
	_, err = s.Validate(`{ samples(where: { day: { gte: "2024-02-29" } }) { id } }`)
	assert.NoError(t, err)

	// Malformed content is left to filter compilation, which scopes the
	// error to the field.
	_, err = s.Validate(`{ samples(where: { big: { gt: "nine" } }) { id } }`)
	assert.NoError(t, err)
	_, err = s.Validate(`{ samples(where: { day: { gte: "2024-02-30" } }) { id } }`)
	assert.NoError(t, err)

	// The literal still has to be a string or an integer.
	_, err = s.Validate(`{ samples(where: { big: { gt: 1.5 } }) { id } }`)
	assert.Error(t, err)
	_, err = s.Validate(`{ samples(where: { day: { gte: true } }) { id } }`)
	assert.Error(t, err)
}

func TestSDLIsDeterministic(t *testing.T) {
	first := buildCatalog(t, Options{})
	second := buildCatalog(t, Options{})
	require.Equal(t, first.SDL, second.SDL)
}

const tagSDL = `
type Tag @node {
  id: ID!
  name: String!
}
`

// renderTypes prints the named types the way the full schema does.
func renderTypes(t *testing.T, s *Schema, names ...string) []byte {
	t.Helper()
	sort.Strings(names)
	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteByte('\n')
		}
		printType(&b, requireType(t, s, name))
	}
	return []byte(b.String())
}

func TestTagSDLGolden(t *testing.T) {
	m, err := extract.FromSDL(tagSDL, "tag.graphql")
	require.NoError(t, err)
	s, err := Build(m, Options{ExcludeDeprecated: true, Logger: zerolog.Nop()})
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata"),
		goldie.WithNameSuffix(".graphql"),
	)
	g.Assert(t, "tag", renderTypes(t, s,
		"Tag", "TagWhere", "TagSort",
		"IDScalarFilters", "StringScalarFilters", "SortDirection", "PageInfo",
	))
}

func TestSDLParses(t *testing.T) {
	s := buildCatalog(t, Options{})
	_, err := parser.Parse(parser.ParseParams{Source: s.SDL})
	require.NoError(t, err)
	assert.Contains(t, s.SDL, "type Person implements Named {")
	assert.Contains(t, s.SDL, "union SearchResult = Movie | Actor")
	assert.Contains(t, s.SDL, "scalar BigInt")
}

func TestReadSelectabilityPruning(t *testing.T) {
	s := buildCatalog(t, Options{})

	for _, name := range []string{"Movie", "MovieSort", "MovieEventPayload", "MovieSubscriptionWhere"} {
		assert.Nil(t, requireType(t, s, name).Field("secret"), name)
	}
	for _, name := range []string{"MovieWhere", "MovieCreateInput", "MovieUpdateInput"} {
		assert.NotNil(t, requireType(t, s, name).Field("secret"), name)
	}

	_, err := s.Validate(`{ movies(where: { secret: { eq: "x" } }) { id } }`)
	assert.NoError(t, err)
	_, err = s.Validate(`subscription { movieCreated(where: { secret: { eq: "x" } }) { event } }`)
	assert.Error(t, err)
}

func TestSortExcludesListsAndRelationships(t *testing.T) {
	s := buildCatalog(t, Options{})
	sort := requireType(t, s, "MovieSort")
	assert.Equal(t, []string{"id", "title", "releasedIn", "budget", "code"}, sort.FieldNames())
}

func TestRelationshipAggregatePrecedence(t *testing.T) {
	s := buildCatalog(t, Options{})

	movie := requireType(t, s, "Movie")
	where := requireType(t, s, "MovieWhere")

	// aggregate: true wins over @selectable(onAggregate: false)
	assert.NotNil(t, movie.Field("directorsAggregate"))
	assert.NotNil(t, where.Field("directorsAggregate"))
	// unset follows the field flag
	assert.NotNil(t, movie.Field("actorsAggregate"))
	assert.NotNil(t, where.Field("actorsAggregate"))
	// union targets never aggregate
	assert.Nil(t, movie.Field("relatedAggregate"))
	assert.Nil(t, where.Field("relatedAggregate"))

	person := requireType(t, s, "Person")
	assert.Nil(t, person.Field("directedAggregate"))
	assert.Nil(t, requireType(t, s, "PersonWhere").Field("directedAggregate"))
}

func TestAggregationInputs(t *testing.T) {
	s := buildCatalog(t, Options{})

	agg := requireType(t, s, "MovieActorsAggregateInput")
	for _, name := range []string{"AND", "OR", "NOT", "count", "count_EQ", "node", "edge"} {
		assert.NotNil(t, agg.Field(name), name)
	}
	assert.Equal(t, "IntScalarFilters", agg.Field("count").Type.Name)

	node := requireType(t, s, "MovieActorsNodeAggregationWhereInput")
	assert.Equal(t, "StringScalarAggregationFilters", node.Field("name").Type.Name)
	assert.True(t, node.Field("name_AVERAGE_LENGTH_EQUAL").Deprecated)
	assert.Equal(t, "Float", node.Field("name_AVERAGE_LENGTH_EQUAL").Type.Name)
	assert.Equal(t, "Int", node.Field("name_LONGEST_LENGTH_LTE").Type.Name)

	strAgg := requireType(t, s, "StringScalarAggregationFilters")
	assert.Equal(t, []string{"averageLength", "longestLength", "shortestLength"}, strAgg.FieldNames())
	assert.Equal(t, "FloatScalarFilters", strAgg.Field("averageLength").Type.Name)

	edge := requireType(t, s, "MovieActorsEdgeAggregationWhereInput")
	assert.NotNil(t, edge.Field("screenTime"))
	assert.Nil(t, edge.Field("role_MIN_EQUAL"))

	sel := requireType(t, s, "MovieActorActorsAggregationSelection")
	assert.Equal(t, []string{"count", "node", "edge"}, sel.FieldNames())

	intSel := requireType(t, s, "IntAggregateSelection")
	assert.Equal(t, []string{"max", "min", "average", "sum"}, intSel.FieldNames())
	assert.Equal(t, "Float", intSel.Field("average").Type.Name)

	_, err := s.Validate(`{ movies(where: { actorsAggregate: { count: { gt: 2 }, node: { name: { longestLength: { lte: 10 } } } } }) { id } }`)
	assert.NoError(t, err)
	_, err = s.Validate(`{ movies(where: { actorsAggregate: { node: { name: { sum: { eq: 1 } } } } }) { id } }`)
	assert.Error(t, err)
}

func TestRelationshipFilters(t *testing.T) {
	s := buildCatalog(t, Options{})
	where := requireType(t, s, "MovieWhere")

	assert.Equal(t, "ActorRelationshipFilters", where.Field("actors").Type.Name)
	assert.True(t, where.Field("actors_SOME").Deprecated)
	assert.Equal(t, "MovieActorsConnectionFilters", where.Field("actorsConnection").Type.Name)
	assert.Equal(t, []string{"all", "none", "single", "some"}, requireType(t, s, "ActorRelationshipFilters").FieldNames())

	cw := requireType(t, s, "MovieActorsConnectionWhere")
	assert.Equal(t, []string{"AND", "OR", "NOT", "node", "edge"}, cw.FieldNames())
	assert.Equal(t, "ActedInWhere", cw.Field("edge").Type.Name)

	union := requireType(t, s, "SearchResultWhere")
	assert.Equal(t, []string{"Actor", "Movie"}, union.FieldNames())

	iface := requireType(t, s, "NamedWhere")
	assert.NotNil(t, iface.Field("name"))
	assert.NotNil(t, iface.Field("Person"))

	_, err := s.Validate(`{ movies(where: { related: { some: { Actor: { name: { eq: "Keanu" } } } } }) { id } }`)
	assert.NoError(t, err)
	_, err = s.Validate(`{ movies(where: { actorsConnection: { all: { edge: { role: { contains: "Neo" } } } } }) { id } }`)
	assert.NoError(t, err)
}

func TestMutationInputs(t *testing.T) {
	s := buildCatalog(t, Options{})

	create := requireType(t, s, "MovieCreateInput")
	assert.Equal(t, "String!", create.Field("title").Type.String())
	assert.Equal(t, "MovieActorsFieldInput", create.Field("actors").Type.Name)
	assert.Equal(t, "MovieRelatedCreateInput", create.Field("related").Type.Name)
	assert.Equal(t, []string{"Actor", "Movie"}, requireType(t, s, "MovieRelatedCreateInput").FieldNames())

	update := requireType(t, s, "MovieUpdateInput")
	assert.Equal(t, "IntScalarMutations", update.Field("releasedIn").Type.Name)
	assert.Equal(t, "ListStringMutations", update.Field("tags").Type.Name)
	assert.True(t, update.Field("releasedIn_INCREMENT").Deprecated)
	assert.Equal(t, []string{"set", "add", "subtract"}, requireType(t, s, "BigIntScalarMutations").FieldNames())

	assert.Nil(t, requireType(t, s, "PersonUpdateInput").Field("born"))
	assert.NotNil(t, requireType(t, s, "PersonCreateInput").Field("born"))

	_, err := s.Validate(`mutation {
  createMovies(input: [{ id: "1", title: "The Matrix", actors: { create: [{ node: { name: "Keanu" }, edge: { role: "Neo" } }] } }]) {
    info { nodesCreated }
    movies { id }
  }
}`)
	assert.NoError(t, err)
	_, err = s.Validate(`mutation { updateMovies(where: { id: { eq: "1" } }, update: { releasedIn: { add: 1 } }) { info { nodesCreated } } }`)
	assert.NoError(t, err)
	_, err = s.Validate(`mutation { deleteMovies(where: { id: { eq: "1" } }, delete: { actors: [{ where: { node: { name: { eq: "x" } } } }] }) { nodesDeleted } }`)
	assert.NoError(t, err)
}

func TestSubscriptionSurface(t *testing.T) {
	s := buildCatalog(t, Options{})

	target, ok := s.SubscriptionTarget("movieUpdated")
	require.True(t, ok)
	assert.Equal(t, SubscriptionTarget{Field: "movieUpdated", Entity: "Movie", Event: EventUpdate}, target)
	assert.Len(t, s.SubscriptionTargets(), 6)

	sw := requireType(t, s, "MovieSubscriptionWhere")
	assert.Nil(t, sw.Field("actors"))
	assert.Nil(t, sw.Field("actorsConnection"))
	assert.NotNil(t, sw.Field("releasedIn"))

	updated := requireType(t, s, "MovieUpdatedEvent")
	assert.Equal(t, []string{"event", "timestamp", "previousState", "updatedMovie"}, updated.FieldNames())

	_, err := s.Validate(`subscription { movieCreated(where: { releasedIn: { gt: 2000 } }) { event timestamp createdMovie { title } } }`)
	assert.NoError(t, err)
	_, err = s.Validate(`subscription { movieCreated(where: { actors: { some: { name: { eq: "x" } } } }) { event } }`)
	assert.Error(t, err)
}

func TestExcludeDeprecated(t *testing.T) {
	with := buildCatalog(t, Options{})
	without := buildCatalog(t, Options{ExcludeDeprecated: true})

	assert.True(t, requireType(t, with, "MovieWhere").Field("title_EQ").Deprecated)
	assert.Nil(t, requireType(t, without, "MovieWhere").Field("title_EQ"))
	assert.Nil(t, requireType(t, without, "MovieUpdateInput").Field("releasedIn_INCREMENT"))
	assert.Nil(t, requireType(t, without, "MovieActorsAggregateInput").Field("count_EQ"))

	// field-level deprecation is passthrough, not an alias
	assert.True(t, requireType(t, without, "Movie").Field("code").Deprecated)
	assert.True(t, requireType(t, without, "MovieWhere").Field("code").Deprecated)
}

func TestTypeNameCollision(t *testing.T) {
	m, err := extract.FromSDL(`
type Movie @node { title: String }
type MovieWhere @node { title: String }
`, "collide.graphql")
	require.NoError(t, err)

	_, err = Build(m, Options{Logger: zerolog.Nop()})
	require.Error(t, err)
	assert.True(t, HasCode(err, ErrDuplicateType))
}

func TestRelationshipTypeNameCollision(t *testing.T) {
	// Movie.actorsList and MovieActors.list both prefix their types with
	// MovieActorsList.
	m, err := extract.FromSDL(`
type Movie @node {
  title: String
  actorsList: [Actor!]! @relationship(type: "ACTED_IN", direction: IN)
}
type MovieActors @node {
  title: String
  list: [Studio!]! @relationship(type: "LISTED", direction: OUT)
}
type Actor @node { name: String }
type Studio @node { name: String }
`, "collide.graphql")
	require.NoError(t, err)

	_, err = Build(m, Options{Logger: zerolog.Nop()})
	require.Error(t, err)
	assert.True(t, HasCode(err, ErrDuplicateType))

	var clashed []string
	for _, be := range BuildErrors(err) {
		if be.Code == ErrDuplicateType {
			clashed = append(clashed, be.Type)
		}
	}
	assert.Contains(t, clashed, "MovieActorsListConnectionWhere")
}

func TestRootNameCollision(t *testing.T) {
	m := &model.Model{Entities: []*model.Entity{{
		Name:   "Query",
		Plural: "queries",
		Fields: []*model.Field{scalarField("title", scalar.String)},
	}}}
	_, err := Build(m, Options{Logger: zerolog.Nop()})
	require.Error(t, err)
	assert.True(t, HasCode(err, ErrDuplicateType))
}

func TestIllegalOperatorIsRejected(t *testing.T) {
	c := newBuildContext(&model.Model{}, Options{Logger: zerolog.Nop()})
	name := c.scalarFilter(scalar.String)
	c.lookup(name).add("lt", model.Named("String"))
	c.finalize()
	require.NotEmpty(t, c.errs)
	assert.True(t, HasCode(errors.Join(c.errs...), ErrIllegalOperator))
}

func TestDanglingReference(t *testing.T) {
	c := newBuildContext(&model.Model{}, Options{Logger: zerolog.Nop()})
	c.ensure("Orphan", "test:Orphan", KindObject, func(td *TypeDef) {
		td.add("missing", model.Named("Nowhere"))
	})
	c.finalize()
	assert.True(t, HasCode(errors.Join(c.errs...), ErrDanglingType))
}

func scalarField(name string, k scalar.Kind) *model.Field {
	sel, fil, srt, set := model.DefaultCapabilities()
	return &model.Field{
		Name:       name,
		Type:       model.Named(k.String()),
		Kind:       k,
		Selectable: sel,
		Filterable: fil,
		Sortable:   srt,
		Settable:   set,
	}
}
